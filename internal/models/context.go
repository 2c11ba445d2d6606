package models

import "time"

// Context is a shared quotebook: a named group whose members see each other's quotes.
type Context struct {
	ID          string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name        string    `json:"name" gorm:"type:varchar(100);not null" validate:"required,min=3,max=100"`
	Description string    `json:"description" gorm:"type:text" validate:"omitempty,max=2000"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// QuoteCount is computed by listing queries, never stored.
	QuoteCount int64 `json:"quote_count" gorm:"->;-:migration"`
}

// ContextMembership joins a user to a context.
type ContextMembership struct {
	ContextID string  `gorm:"primaryKey;type:varchar(36)"`
	UserID    string  `gorm:"primaryKey;type:varchar(36)"`
	Context   Context `gorm:"constraint:OnDelete:CASCADE" validate:"-"`
	User      User    `gorm:"constraint:OnDelete:CASCADE" validate:"-"`
	CreatedAt time.Time
}

// TableName keeps the join table name used by the existing database.
func (ContextMembership) TableName() string {
	return "contexts_users"
}
