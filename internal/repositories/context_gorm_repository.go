package repositories

import (
	"context"
	"fmt"
	"strings"

	"quotebook/internal/apperrors"
	"quotebook/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const contextWithQuoteCount = "contexts.*, (SELECT COUNT(*) FROM quotes WHERE quotes.context_id = contexts.id) AS quote_count"

// GORMContextRepository is a GORM implementation of ContextRepository.
type GORMContextRepository struct {
	db *gorm.DB
}

// NewGORMContextRepository creates a new instance of GORMContextRepository.
func NewGORMContextRepository(db *gorm.DB) *GORMContextRepository {
	return &GORMContextRepository{
		db: db,
	}
}

// Create inserts the context and joins its creator in one transaction.
func (r *GORMContextRepository) Create(ctx context.Context, c *models.Context, creatorID string) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(c).Error; err != nil {
			return translate(err, "context", c.ID)
		}
		return addMember(tx, c.ID, creatorID)
	})
	if err != nil {
		return fmt.Errorf("failed to create context: %w", err)
	}
	return nil
}

// Update saves the editable fields of a context.
func (r *GORMContextRepository) Update(ctx context.Context, c *models.Context) error {
	res := r.db.WithContext(ctx).Model(&models.Context{ID: c.ID}).
		Select("name", "description", "updated_at").
		Updates(map[string]interface{}{"name": c.Name, "description": c.Description})
	if res.Error != nil {
		return fmt.Errorf("failed to update context %s: %w", c.ID, translate(res.Error, "context", c.ID))
	}
	if res.RowsAffected == 0 {
		return apperrors.NewNotFoundError("context", c.ID)
	}
	return nil
}

// Delete removes a context and everything that belongs to it.
func (r *GORMContextRepository) Delete(ctx context.Context, id string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		quoteIDs := tx.Model(&models.Quote{}).Select("id").Where("context_id = ?", id)
		if err := tx.Where("quote_id IN (?)", quoteIDs).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("context_id = ?", id).Delete(&models.Quote{}).Error; err != nil {
			return err
		}
		if err := tx.Where("context_id = ?", id).Delete(&models.ContextMembership{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.Context{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperrors.NewNotFoundError("context", id)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete context %s: %w", id, err)
	}
	return nil
}

// GetByID retrieves a context with its quote count.
func (r *GORMContextRepository) GetByID(ctx context.Context, id string) (*models.Context, error) {
	var c models.Context
	err := r.db.WithContext(ctx).Select(contextWithQuoteCount).Where("contexts.id = ?", id).First(&c).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get context %s: %w", id, translate(err, "context", id))
	}
	return &c, nil
}

// GetByName retrieves the oldest context with the given name.
func (r *GORMContextRepository) GetByName(ctx context.Context, name string) (*models.Context, error) {
	var c models.Context
	err := r.db.WithContext(ctx).
		Select(contextWithQuoteCount).
		Where("LOWER(contexts.name) = ?", strings.ToLower(name)).
		Order("contexts.created_at ASC").
		First(&c).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get context %q: %w", name, translate(err, "context", name))
	}
	return &c, nil
}

// List returns every context ordered by name.
func (r *GORMContextRepository) List(ctx context.Context) ([]models.Context, error) {
	contexts := []models.Context{}
	err := r.db.WithContext(ctx).
		Select(contextWithQuoteCount).
		Order("LOWER(contexts.name) ASC").
		Order("contexts.id ASC").
		Find(&contexts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list contexts: %w", err)
	}
	return contexts, nil
}

// ListForUser returns the contexts userID belongs to, ordered by name.
func (r *GORMContextRepository) ListForUser(ctx context.Context, userID string) ([]models.Context, error) {
	contexts := []models.Context{}
	err := r.db.WithContext(ctx).
		Select(contextWithQuoteCount).
		Joins("JOIN contexts_users ON contexts_users.context_id = contexts.id").
		Where("contexts_users.user_id = ?", userID).
		Order("LOWER(contexts.name) ASC").
		Order("contexts.id ASC").
		Find(&contexts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list contexts for user %s: %w", userID, err)
	}
	return contexts, nil
}

// Top returns the limit contexts holding the most quotes.
func (r *GORMContextRepository) Top(ctx context.Context, limit int) ([]models.Context, error) {
	contexts := []models.Context{}
	err := r.db.WithContext(ctx).
		Select(contextWithQuoteCount).
		Order("quote_count DESC").
		Order("LOWER(contexts.name) ASC").
		Order("contexts.id ASC").
		Limit(limit).
		Find(&contexts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get top contexts: %w", err)
	}
	return contexts, nil
}

// AddMember joins userID to the context. Joining twice is a no-op.
func (r *GORMContextRepository) AddMember(ctx context.Context, contextID, userID string) error {
	if err := addMember(r.db.WithContext(ctx), contextID, userID); err != nil {
		return fmt.Errorf("failed to join context %s: %w", contextID, err)
	}
	return nil
}

func addMember(tx *gorm.DB, contextID, userID string) error {
	membership := &models.ContextMembership{ContextID: contextID, UserID: userID}
	return tx.Omit(clause.Associations).Clauses(clause.OnConflict{DoNothing: true}).Create(membership).Error
}

// RemoveMember removes userID from the context.
func (r *GORMContextRepository) RemoveMember(ctx context.Context, contextID, userID string) error {
	err := r.db.WithContext(ctx).
		Where("context_id = ? AND user_id = ?", contextID, userID).
		Delete(&models.ContextMembership{}).Error
	if err != nil {
		return fmt.Errorf("failed to leave context %s: %w", contextID, err)
	}
	return nil
}

// IsMember reports whether userID belongs to the context.
func (r *GORMContextRepository) IsMember(ctx context.Context, contextID, userID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ContextMembership{}).
		Where("context_id = ? AND user_id = ?", contextID, userID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check membership of context %s: %w", contextID, err)
	}
	return count > 0, nil
}

// Members returns the users in a context ordered by name.
func (r *GORMContextRepository) Members(ctx context.Context, contextID string) ([]models.User, error) {
	users := []models.User{}
	err := r.db.WithContext(ctx).
		Joins("JOIN contexts_users ON contexts_users.user_id = users.id").
		Where("contexts_users.context_id = ?", contextID).
		Order("LOWER(users.fullname) ASC").
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list members of context %s: %w", contextID, err)
	}
	return users, nil
}
