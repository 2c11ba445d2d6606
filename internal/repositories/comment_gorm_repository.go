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

// GORMCommentRepository is a GORM implementation of CommentRepository.
type GORMCommentRepository struct {
	db *gorm.DB
}

// NewGORMCommentRepository creates a new instance of GORMCommentRepository.
func NewGORMCommentRepository(db *gorm.DB) *GORMCommentRepository {
	return &GORMCommentRepository{
		db: db,
	}
}

// Create creates a new comment in the database.
func (r *GORMCommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	if comment.ID == "" {
		comment.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(comment).Error; err != nil {
		return fmt.Errorf("failed to create comment: %w", translate(err, "comment", comment.ID))
	}
	return nil
}

// Update saves a new body for the comment.
func (r *GORMCommentRepository) Update(ctx context.Context, comment *models.Comment) error {
	res := r.db.WithContext(ctx).Model(&models.Comment{ID: comment.ID}).Update("body", comment.Body)
	if res.Error != nil {
		return fmt.Errorf("failed to update comment %s: %w", comment.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NewNotFoundError("comment", comment.ID)
	}
	return nil
}

// Delete deletes a comment by its ID.
func (r *GORMCommentRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Comment{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete comment %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NewNotFoundError("comment", id)
	}
	return nil
}

// GetByID retrieves a comment with its author and quote.
func (r *GORMCommentRepository) GetByID(ctx context.Context, id string) (*models.Comment, error) {
	var comment models.Comment
	err := r.preload(r.db.WithContext(ctx)).Where("comments.id = ?", id).First(&comment).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get comment %s: %w", id, translate(err, "comment", id))
	}
	return &comment, nil
}

// List returns comments on visible quotes matching the filter.
func (r *GORMCommentRepository) List(ctx context.Context, filter CommentFilter) ([]models.Comment, int64, error) {
	db := r.db.WithContext(ctx)
	scope := func(q *gorm.DB) *gorm.DB {
		q = q.Joins("JOIN quotes ON quotes.id = comments.quote_id").Where("quotes.hidden = ?", false)
		if filter.QuoteID != "" {
			q = q.Where("comments.quote_id = ?", filter.QuoteID)
		}
		if filter.UserID != "" {
			q = q.Where("comments.user_id = ?", filter.UserID)
		}
		if filter.MemberID != "" {
			q = q.Where("quotes.context_id IN (?)",
				db.Model(&models.ContextMembership{}).Select("context_id").Where("user_id = ?", filter.MemberID))
		}
		return q
	}

	var total int64
	if err := db.Model(&models.Comment{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count comments: %w", err)
	}

	comments := []models.Comment{}
	direction := " DESC"
	if filter.OldestFirst {
		direction = " ASC"
	}
	err := r.preload(filter.Page.apply(db.Model(&models.Comment{}).Scopes(scope))).
		Select("comments.*").
		Order(filter.Sort.column("comments") + direction).
		Order("comments.id" + direction).
		Find(&comments).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list comments: %w", err)
	}
	return comments, total, nil
}

func (r *GORMCommentRepository) preload(db *gorm.DB) *gorm.DB {
	return db.Preload("User").
		Preload("Quote").
		Preload("Quote.Context").
		Preload("Quote.Quoter").
		Preload("Quote.Quotee")
}
