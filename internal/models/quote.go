package models

import "time"

// Quote is something a quotee said, recorded by a quoter in a context.
type Quote struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	QuoteText string    `json:"quote_text" gorm:"type:text;not null" validate:"required,min=3"`
	ContextID string    `json:"context_id" gorm:"type:varchar(36);not null;index"`
	Context   Context   `json:"context" gorm:"constraint:OnDelete:CASCADE" validate:"-"`
	QuoterID  string    `json:"quoter_id" gorm:"type:varchar(36);not null;index"`
	Quoter    User      `json:"quoter" validate:"-"`
	QuoteeID  string    `json:"quotee_id" gorm:"type:varchar(36);not null;index"`
	Quotee    User      `json:"quotee" validate:"-"`
	Hidden    bool      `json:"hidden" gorm:"not null"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
	UpdatedAt time.Time `json:"updated_at" gorm:"index"`

	// CommentsCount is computed by listing queries.
	CommentsCount int64 `json:"comments_count" gorm:"->;-:migration"`
}

// Comment is a remark a user makes about a quote.
type Comment struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	QuoteID   string    `json:"quote_id" gorm:"type:varchar(36);not null;index"`
	Quote     Quote     `json:"quote" gorm:"constraint:OnDelete:CASCADE" validate:"-"`
	UserID    string    `json:"user_id" gorm:"type:varchar(36);not null;index"`
	User      User      `json:"user" validate:"-"`
	Body      string    `json:"body" gorm:"type:text;not null" validate:"required,min=3"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
	UpdatedAt time.Time `json:"updated_at" gorm:"index"`
}
