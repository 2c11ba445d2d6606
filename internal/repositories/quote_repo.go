package repositories

import (
	"context"

	"quotebook/internal/models"
)

// QuoteFilter narrows a quote listing. Empty fields do not filter. Hidden quotes are
// never listed.
type QuoteFilter struct {
	ContextID string
	QuoteeID  string
	// MemberID limits the listing to contexts the user belongs to.
	MemberID string
	Sort     SortField
	Page     Page
}

// QuoteRepository defines the interface for quote data access.
type QuoteRepository interface {
	// CreateWithMembers inserts the quote and joins its quoter and quotee to the
	// context, all or nothing.
	CreateWithMembers(ctx context.Context, quote *models.Quote) error
	Update(ctx context.Context, quote *models.Quote) error
	SetHidden(ctx context.Context, id string, hidden bool) error
	// Delete removes the quote and its comments.
	Delete(ctx context.Context, id string) error
	// GetByID loads the quote with its context, quoter, quotee and comment count,
	// hidden or not.
	GetByID(ctx context.Context, id string) (*models.Quote, error)
	// List returns one page of visible quotes and the total number matching.
	List(ctx context.Context, filter QuoteFilter) ([]models.Quote, int64, error)
	// Random returns one visible quote matching the filter, or a not found error.
	Random(ctx context.Context, filter QuoteFilter) (*models.Quote, error)
}
