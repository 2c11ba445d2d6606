package services

import (
	"context"
	"fmt"

	"quotebook/internal/apperrors"
	"quotebook/internal/models"
	"quotebook/internal/repositories"
)

// Format is the representation a listing is assembled for. It decides the ordering:
// pages list newest-created first, feeds list most-recently-updated first.
type Format int

const (
	FormatHTML Format = iota
	FormatAtom
)

func (f Format) sort() repositories.SortField {
	if f == FormatAtom {
		return repositories.SortUpdated
	}
	return repositories.SortCreated
}

const (
	// PageSize is the number of items on one listing page.
	PageSize = 10
	// TopContextCount is the number of contexts in the home page ranking.
	TopContextCount = 5
	// HomeCommentCount is the number of recent comments on the home page.
	HomeCommentCount = 5
)

// Page is one page of a listing. Page 0 means the listing was not paged.
type Page[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Pages int   `json:"pages"`
}

// QuoteScope selects the quotes of a listing. Empty fields do not filter.
type QuoteScope struct {
	ContextID string
	QuoteeID  string
	// MemberID selects quotes in the contexts this user belongs to.
	MemberID string
}

// CommentScope selects the comments of a listing. Empty fields do not filter.
type CommentScope struct {
	QuoteID string
	UserID  string
	// MemberID selects comments on quotes in the contexts this user belongs to.
	MemberID string
}

// Home is the front page: latest quotes, the busiest contexts and, for a logged in
// viewer, their contexts and the latest comments that concern them.
type Home struct {
	Quotes         *Page[models.Quote] `json:"quotes"`
	TopContexts    []models.Context    `json:"top_contexts"`
	ViewerContexts []models.Context    `json:"viewer_contexts"`
	Comments       []models.Comment    `json:"comments"`
}

// ListingService assembles listings and feeds. Hidden quotes and comments on them never
// appear.
type ListingService struct {
	quoteRepo   repositories.QuoteRepository
	commentRepo repositories.CommentRepository
	contextRepo repositories.ContextRepository
}

// NewListingService creates a new ListingService.
func NewListingService(quoteRepo repositories.QuoteRepository, commentRepo repositories.CommentRepository, contextRepo repositories.ContextRepository) *ListingService {
	return &ListingService{
		quoteRepo:   quoteRepo,
		commentRepo: commentRepo,
		contextRepo: contextRepo,
	}
}

func pageBounds(page int) (repositories.Page, error) {
	if page < 0 {
		return repositories.Page{}, apperrors.NewValidationError("page", "must be a positive number")
	}
	if page == 0 {
		return repositories.Page{}, nil
	}
	return repositories.Page{Limit: PageSize, Offset: (page - 1) * PageSize}, nil
}

func pageCount(total int64) int {
	return int((total + PageSize - 1) / PageSize)
}

// ListQuotes returns one page of the scope's quotes ordered for format. Pages past the
// end are empty.
func (s *ListingService) ListQuotes(ctx context.Context, scope QuoteScope, format Format, page int) (*Page[models.Quote], error) {
	bounds, err := pageBounds(page)
	if err != nil {
		return nil, err
	}

	quotes, total, err := s.quoteRepo.List(ctx, repositories.QuoteFilter{
		ContextID: scope.ContextID,
		QuoteeID:  scope.QuoteeID,
		MemberID:  scope.MemberID,
		Sort:      format.sort(),
		Page:      bounds,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list quotes: %w", err)
	}
	return &Page[models.Quote]{Items: quotes, Total: total, Page: page, Pages: pageCount(total)}, nil
}

// ListComments returns one page of the scope's comments ordered for format. A quote's
// thread reads oldest first on pages.
func (s *ListingService) ListComments(ctx context.Context, scope CommentScope, format Format, page int) (*Page[models.Comment], error) {
	bounds, err := pageBounds(page)
	if err != nil {
		return nil, err
	}

	comments, total, err := s.commentRepo.List(ctx, repositories.CommentFilter{
		QuoteID:     scope.QuoteID,
		UserID:      scope.UserID,
		MemberID:    scope.MemberID,
		Sort:        format.sort(),
		OldestFirst: scope.QuoteID != "" && format == FormatHTML,
		Page:        bounds,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	return &Page[models.Comment]{Items: comments, Total: total, Page: page, Pages: pageCount(total)}, nil
}

// TopContexts ranks contexts by quote count.
func (s *ListingService) TopContexts(ctx context.Context, n int) ([]models.Context, error) {
	contexts, err := s.contextRepo.Top(ctx, n)
	if err != nil {
		return nil, fmt.Errorf("failed to rank contexts: %w", err)
	}
	return contexts, nil
}

// RandomQuote picks a visible quote from the contexts viewerID belongs to, falling back
// to every context when the viewer is anonymous or their contexts hold none.
func (s *ListingService) RandomQuote(ctx context.Context, viewerID string) (*models.Quote, error) {
	if viewerID != "" {
		quote, err := s.quoteRepo.Random(ctx, repositories.QuoteFilter{MemberID: viewerID})
		if err == nil {
			return quote, nil
		}
		if !apperrors.IsNotFound(err) {
			return nil, err
		}
	}
	return s.quoteRepo.Random(ctx, repositories.QuoteFilter{})
}

// Home assembles the front page for viewerID, who may be empty for anonymous visitors.
func (s *ListingService) Home(ctx context.Context, viewerID string, page int) (*Home, error) {
	quotes, err := s.ListQuotes(ctx, QuoteScope{MemberID: viewerID}, FormatHTML, page)
	if err != nil {
		return nil, err
	}
	top, err := s.TopContexts(ctx, TopContextCount)
	if err != nil {
		return nil, err
	}

	home := &Home{
		Quotes:         quotes,
		TopContexts:    top,
		ViewerContexts: []models.Context{},
		Comments:       []models.Comment{},
	}
	if viewerID == "" {
		return home, nil
	}

	home.ViewerContexts, err = s.contextRepo.ListForUser(ctx, viewerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list viewer contexts: %w", err)
	}
	comments, _, err := s.commentRepo.List(ctx, repositories.CommentFilter{
		MemberID: viewerID,
		Page:     repositories.Page{Limit: HomeCommentCount},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list recent comments: %w", err)
	}
	home.Comments = comments
	return home, nil
}
