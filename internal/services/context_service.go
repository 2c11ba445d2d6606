package services

import (
	"context"
	"fmt"
	"strings"

	"quotebook/internal/apperrors"
	"quotebook/internal/models"
	"quotebook/internal/repositories"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// ContextInput is the editable part of a context.
type ContextInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ContextService handles business logic related to contexts.
type ContextService struct {
	contextRepo repositories.ContextRepository
	quoteRepo   repositories.QuoteRepository
	validate    *validator.Validate
}

// NewContextService creates a new ContextService.
func NewContextService(contextRepo repositories.ContextRepository, quoteRepo repositories.QuoteRepository) *ContextService {
	return &ContextService{
		contextRepo: contextRepo,
		quoteRepo:   quoteRepo,
		validate:    NewValidator(),
	}
}

// GetAll retrieves all contexts.
func (s *ContextService) GetAll(ctx context.Context) ([]models.Context, error) {
	return s.contextRepo.List(ctx)
}

// Get retrieves a single context by its ID.
func (s *ContextService) Get(ctx context.Context, id string) (*models.Context, error) {
	return s.contextRepo.GetByID(ctx, id)
}

// Members lists the users who belong to a context.
func (s *ContextService) Members(ctx context.Context, id string) ([]models.User, error) {
	if _, err := s.contextRepo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.contextRepo.Members(ctx, id)
}

// Create creates a context with creatorID as its first member.
func (s *ContextService) Create(ctx context.Context, creatorID string, in ContextInput) (*models.Context, error) {
	c := &models.Context{
		ID:          uuid.New().String(),
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
	}
	if err := validateStruct(s.validate, c); err != nil {
		return nil, err
	}
	if err := s.contextRepo.Create(ctx, c, creatorID); err != nil {
		return nil, err
	}
	return s.contextRepo.GetByID(ctx, c.ID)
}

// Update changes a context the viewer belongs to. An empty name keeps the current one.
func (s *ContextService) Update(ctx context.Context, viewerID, id string, in ContextInput) (*models.Context, error) {
	c, err := s.member(ctx, viewerID, id, "update context")
	if err != nil {
		return nil, err
	}

	if name := strings.TrimSpace(in.Name); name != "" {
		c.Name = name
	}
	c.Description = strings.TrimSpace(in.Description)
	if err := validateStruct(s.validate, c); err != nil {
		return nil, err
	}
	if err := s.contextRepo.Update(ctx, c); err != nil {
		return nil, err
	}
	return s.contextRepo.GetByID(ctx, id)
}

// Delete removes a context the viewer belongs to, with all of its quotes.
func (s *ContextService) Delete(ctx context.Context, viewerID, id string) error {
	if _, err := s.member(ctx, viewerID, id, "delete context"); err != nil {
		return err
	}
	return s.contextRepo.Delete(ctx, id)
}

// Join adds the viewer to a context. Joining twice is a no-op.
func (s *ContextService) Join(ctx context.Context, viewerID, id string) error {
	if _, err := s.contextRepo.GetByID(ctx, id); err != nil {
		return err
	}
	return s.contextRepo.AddMember(ctx, id, viewerID)
}

// Leave removes the viewer from a context.
func (s *ContextService) Leave(ctx context.Context, viewerID, id string) error {
	if _, err := s.contextRepo.GetByID(ctx, id); err != nil {
		return err
	}
	return s.contextRepo.RemoveMember(ctx, id, viewerID)
}

// Latest returns the newest visible quote in a context.
func (s *ContextService) Latest(ctx context.Context, id string) (*models.Quote, error) {
	if _, err := s.contextRepo.GetByID(ctx, id); err != nil {
		return nil, err
	}

	quotes, _, err := s.quoteRepo.List(ctx, repositories.QuoteFilter{
		ContextID: id,
		Page:      repositories.Page{Limit: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load latest quote: %w", err)
	}
	if len(quotes) == 0 {
		return nil, apperrors.NewNotFoundError("quote in context", id)
	}
	return &quotes[0], nil
}

func (s *ContextService) member(ctx context.Context, viewerID, id, op string) (*models.Context, error) {
	c, err := s.contextRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	ok, err := s.contextRepo.IsMember(ctx, id, viewerID)
	if err != nil {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}
	if !ok {
		return nil, apperrors.NewForbiddenError(op, "only members can change a context")
	}
	return c, nil
}
