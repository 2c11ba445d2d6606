package repositories

import (
	"context"

	"quotebook/internal/models"
)

// CommentFilter narrows a comment listing. Comments on hidden quotes are never listed.
type CommentFilter struct {
	QuoteID string
	UserID  string
	// MemberID limits the listing to quotes in contexts the user belongs to.
	MemberID string
	Sort     SortField
	// OldestFirst reverses the order, as when reading a quote's thread.
	OldestFirst bool
	Page        Page
}

// CommentRepository defines the interface for comment data access.
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	Update(ctx context.Context, comment *models.Comment) error
	Delete(ctx context.Context, id string) error
	// GetByID loads the comment with its author and its quote's participants.
	GetByID(ctx context.Context, id string) (*models.Comment, error)
	List(ctx context.Context, filter CommentFilter) ([]models.Comment, int64, error)
}
