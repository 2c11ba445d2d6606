package repositories

import (
	"errors"
	"fmt"
	"strings"

	"quotebook/internal/apperrors"
	"quotebook/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to the database. driver is "sqlite" or "postgres".
func Open(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// uniqueIndexes enforce case-insensitive uniqueness. NULLs are distinct, so partial
// users without a username or email never collide.
var uniqueIndexes = []string{
	"CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username_lower ON users (LOWER(username))",
	"CREATE UNIQUE INDEX IF NOT EXISTS idx_users_fullname_lower ON users (LOWER(fullname))",
	"CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email_lower ON users (LOWER(email_address))",
	"CREATE UNIQUE INDEX IF NOT EXISTS idx_users_openid ON users (openid)",
}

// Migrate creates or updates the schema.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Context{},
		&models.ContextMembership{},
		&models.Quote{},
		&models.Comment{},
	)
	if err != nil {
		return fmt.Errorf("failed to auto-migrate database: %w", err)
	}

	for _, stmt := range uniqueIndexes {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}

// translate maps driver errors that callers act on to application errors.
func translate(err error, entity, id string) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperrors.NewNotFoundError(entity, id)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apperrors.NewValidationError("base", "has already been taken")
	default:
		return err
	}
}

// likePattern builds a case-insensitive substring pattern with wildcards escaped.
func likePattern(fragment string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.ToLower(fragment)) + "%"
}

// SortField selects the timestamp listings are ordered by.
type SortField int

const (
	// SortCreated orders newest-created first.
	SortCreated SortField = iota
	// SortUpdated orders most recently updated first.
	SortUpdated
)

func (s SortField) column(table string) string {
	if s == SortUpdated {
		return table + ".updated_at"
	}
	return table + ".created_at"
}

// Page bounds a listing query. A zero Limit means no limit.
type Page struct {
	Limit  int
	Offset int
}

func (p Page) apply(db *gorm.DB) *gorm.DB {
	if p.Limit > 0 {
		db = db.Limit(p.Limit)
	}
	if p.Offset > 0 {
		db = db.Offset(p.Offset)
	}
	return db
}
