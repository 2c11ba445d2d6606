package repositories

import (
	"context"

	"quotebook/internal/models"
)

// UserRepository defines the interface for user data access. Lookups by name, email
// and username are case-insensitive.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByFullname(ctx context.Context, fullname string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByOpenID(ctx context.Context, openid string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	// FindPartialMatches returns unclaimed users whose email or fullname equals the given values.
	FindPartialMatches(ctx context.Context, email, fullname string) ([]models.User, error)
	// SearchCandidates returns users whose username or fullname contains fragment, most
	// often quoted by requesterID first.
	SearchCandidates(ctx context.Context, fragment, requesterID string, limit int) ([]models.User, error)
}
