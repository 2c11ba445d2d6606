package repositories

import (
	"context"
	"fmt"

	"quotebook/internal/apperrors"
	"quotebook/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const quoteWithCommentCount = "quotes.*, (SELECT COUNT(*) FROM comments WHERE comments.quote_id = quotes.id) AS comments_count"

// GORMQuoteRepository is a GORM implementation of QuoteRepository.
type GORMQuoteRepository struct {
	db *gorm.DB
}

// NewGORMQuoteRepository creates a new instance of GORMQuoteRepository.
func NewGORMQuoteRepository(db *gorm.DB) *GORMQuoteRepository {
	return &GORMQuoteRepository{
		db: db,
	}
}

// CreateWithMembers inserts the quote and both memberships in one transaction.
func (r *GORMQuoteRepository) CreateWithMembers(ctx context.Context, quote *models.Quote) error {
	if quote.ID == "" {
		quote.ID = uuid.New().String()
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(quote).Error; err != nil {
			return translate(err, "quote", quote.ID)
		}
		for _, userID := range []string{quote.QuoterID, quote.QuoteeID} {
			if err := addMember(tx, quote.ContextID, userID); err != nil {
				return fmt.Errorf("failed to join user %s: %w", userID, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to create quote: %w", err)
	}
	return nil
}

// Update saves the quote text and attribution, joining the quoter and quotee to the
// quote's context in the same transaction.
func (r *GORMQuoteRepository) Update(ctx context.Context, quote *models.Quote) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Quote{ID: quote.ID}).
			Select("quote_text", "context_id", "quotee_id", "updated_at").
			Updates(map[string]interface{}{
				"quote_text": quote.QuoteText,
				"context_id": quote.ContextID,
				"quotee_id":  quote.QuoteeID,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperrors.NewNotFoundError("quote", quote.ID)
		}
		for _, userID := range []string{quote.QuoterID, quote.QuoteeID} {
			if userID == "" {
				continue
			}
			if err := addMember(tx, quote.ContextID, userID); err != nil {
				return fmt.Errorf("failed to join user %s: %w", userID, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to update quote %s: %w", quote.ID, err)
	}
	return nil
}

// SetHidden flags a quote as moderated out, or restores it.
func (r *GORMQuoteRepository) SetHidden(ctx context.Context, id string, hidden bool) error {
	res := r.db.WithContext(ctx).Model(&models.Quote{ID: id}).Update("hidden", hidden)
	if res.Error != nil {
		return fmt.Errorf("failed to set hidden on quote %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NewNotFoundError("quote", id)
	}
	return nil
}

// Delete removes the quote and its comments in one transaction.
func (r *GORMQuoteRepository) Delete(ctx context.Context, id string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("quote_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.Quote{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperrors.NewNotFoundError("quote", id)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete quote %s: %w", id, err)
	}
	return nil
}

// GetByID retrieves a quote with its associations.
func (r *GORMQuoteRepository) GetByID(ctx context.Context, id string) (*models.Quote, error) {
	var quote models.Quote
	err := r.preload(r.db.WithContext(ctx)).
		Select(quoteWithCommentCount).
		Where("quotes.id = ?", id).
		First(&quote).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get quote %s: %w", id, translate(err, "quote", id))
	}
	return &quote, nil
}

// List returns visible quotes matching the filter, newest first by the filter's sort field.
func (r *GORMQuoteRepository) List(ctx context.Context, filter QuoteFilter) ([]models.Quote, int64, error) {
	db := r.db.WithContext(ctx)
	scope := visibleQuotes(db, filter)

	var total int64
	if err := db.Model(&models.Quote{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count quotes: %w", err)
	}

	quotes := []models.Quote{}
	column := filter.Sort.column("quotes")
	err := r.preload(filter.Page.apply(db.Model(&models.Quote{}).Scopes(scope))).
		Select(quoteWithCommentCount).
		Order(column + " DESC").
		Order("quotes.id DESC").
		Find(&quotes).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list quotes: %w", err)
	}
	return quotes, total, nil
}

// Random picks one visible quote matching the filter. Sort and Page are ignored.
func (r *GORMQuoteRepository) Random(ctx context.Context, filter QuoteFilter) (*models.Quote, error) {
	db := r.db.WithContext(ctx)
	var quote models.Quote
	err := r.preload(db.Model(&models.Quote{}).Scopes(visibleQuotes(db, filter))).
		Select(quoteWithCommentCount).
		Order("RANDOM()").
		Take(&quote).Error
	if err != nil {
		return nil, fmt.Errorf("failed to pick a quote: %w", translate(err, "quote", ""))
	}
	return &quote, nil
}

func visibleQuotes(db *gorm.DB, filter QuoteFilter) func(*gorm.DB) *gorm.DB {
	return func(q *gorm.DB) *gorm.DB {
		q = q.Where("quotes.hidden = ?", false)
		if filter.ContextID != "" {
			q = q.Where("quotes.context_id = ?", filter.ContextID)
		}
		if filter.QuoteeID != "" {
			q = q.Where("quotes.quotee_id = ?", filter.QuoteeID)
		}
		if filter.MemberID != "" {
			q = q.Where("quotes.context_id IN (?)",
				db.Model(&models.ContextMembership{}).Select("context_id").Where("user_id = ?", filter.MemberID))
		}
		return q
	}
}

func (r *GORMQuoteRepository) preload(db *gorm.DB) *gorm.DB {
	return db.Preload("Context").Preload("Quoter").Preload("Quotee")
}
