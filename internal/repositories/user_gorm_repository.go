package repositories

import (
	"context"
	"fmt"
	"strings"

	"quotebook/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMUserRepository is a GORM implementation of UserRepository.
type GORMUserRepository struct {
	db *gorm.DB
}

// NewGORMUserRepository creates a new instance of GORMUserRepository.
func NewGORMUserRepository(db *gorm.DB) *GORMUserRepository {
	return &GORMUserRepository{
		db: db,
	}
}

// Create creates a new user in the database.
func (r *GORMUserRepository) Create(ctx context.Context, user *models.User) error {
	if err := user.CheckIdentity(); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.TimeZone == "" {
		user.TimeZone = models.DefaultTimeZone
	}
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", translate(err, "user", user.ID))
	}
	return nil
}

// Update saves every column of an existing user.
func (r *GORMUserRepository) Update(ctx context.Context, user *models.User) error {
	if err := user.CheckIdentity(); err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if err := r.db.WithContext(ctx).Save(user).Error; err != nil {
		return fmt.Errorf("failed to update user %s: %w", user.ID, translate(err, "user", user.ID))
	}
	return nil
}

// GetByID retrieves a user by their ID from the database.
func (r *GORMUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.first(ctx, id, "id = ?", id)
}

// GetByUsername retrieves a user by username, ignoring case.
func (r *GORMUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.first(ctx, username, "LOWER(username) = ?", strings.ToLower(username))
}

// GetByFullname retrieves a user by full name, ignoring case.
func (r *GORMUserRepository) GetByFullname(ctx context.Context, fullname string) (*models.User, error) {
	return r.first(ctx, fullname, "LOWER(fullname) = ?", strings.ToLower(fullname))
}

// GetByEmail retrieves a user by email address, ignoring case.
func (r *GORMUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.first(ctx, email, "LOWER(email_address) = ?", strings.ToLower(email))
}

// GetByOpenID retrieves a user by their normalised OpenID identifier.
func (r *GORMUserRepository) GetByOpenID(ctx context.Context, openid string) (*models.User, error) {
	return r.first(ctx, openid, "openid = ?", openid)
}

func (r *GORMUserRepository) first(ctx context.Context, key string, query string, args ...interface{}) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where(query, args...).First(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to get user %s: %w", key, translate(err, "user", key))
	}
	return &user, nil
}

// List returns every user ordered by name.
func (r *GORMUserRepository) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := r.db.WithContext(ctx).Order("LOWER(fullname) ASC").Order("id ASC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// FindPartialMatches finds unclaimed users a registering person might be.
func (r *GORMUserRepository) FindPartialMatches(ctx context.Context, email, fullname string) ([]models.User, error) {
	users := []models.User{}
	err := r.db.WithContext(ctx).
		Where("openid IS NULL").
		Where("(LOWER(email_address) = ? OR LOWER(fullname) = ?)",
			strings.ToLower(strings.TrimSpace(email)), strings.ToLower(strings.TrimSpace(fullname))).
		Order("LOWER(fullname) ASC").
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find partial matches: %w", err)
	}
	return users, nil
}

// SearchCandidates ranks substring matches by how often requesterID has quoted them.
// Ties are broken by full name, then id.
func (r *GORMUserRepository) SearchCandidates(ctx context.Context, fragment, requesterID string, limit int) ([]models.User, error) {
	users := []models.User{}
	pattern := likePattern(fragment)
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Select("users.*, (SELECT COUNT(*) FROM quotes WHERE quotes.quotee_id = users.id AND quotes.quoter_id = ?) AS quote_count", requesterID).
		Where(`(LOWER(users.username) LIKE ? ESCAPE '\' OR LOWER(users.fullname) LIKE ? ESCAPE '\')`, pattern, pattern).
		Order("quote_count DESC").
		Order("LOWER(users.fullname) ASC").
		Order("users.id ASC").
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search users for %q: %w", fragment, err)
	}
	return users, nil
}
