package repositories

import (
	"context"

	"quotebook/internal/models"
)

// ContextRepository defines the interface for quotebook data access. Quote counts on
// returned contexts are computed by the query.
type ContextRepository interface {
	// Create inserts the context and makes creatorID its first member.
	Create(ctx context.Context, c *models.Context, creatorID string) error
	Update(ctx context.Context, c *models.Context) error
	// Delete removes the context with its quotes, their comments and its memberships.
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*models.Context, error)
	// GetByName matches ignoring case and returns the oldest context with that name.
	GetByName(ctx context.Context, name string) (*models.Context, error)
	List(ctx context.Context) ([]models.Context, error)
	ListForUser(ctx context.Context, userID string) ([]models.Context, error)
	// Top ranks contexts by quote count, then name, then id.
	Top(ctx context.Context, limit int) ([]models.Context, error)

	AddMember(ctx context.Context, contextID, userID string) error
	RemoveMember(ctx context.Context, contextID, userID string) error
	IsMember(ctx context.Context, contextID, userID string) (bool, error)
	Members(ctx context.Context, contextID string) ([]models.User, error)
}
