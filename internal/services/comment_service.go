package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"quotebook/internal/apperrors"
	"quotebook/internal/events"
	"quotebook/internal/models"
	"quotebook/internal/repositories"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// CommentInput is the body of a new or edited comment.
type CommentInput struct {
	Body string `json:"body"`
}

// CommentService handles business logic related to comments.
type CommentService struct {
	commentRepo repositories.CommentRepository
	quotes      *QuoteService
	publisher   events.Publisher
	validate    *validator.Validate
	logger      *slog.Logger
}

// NewCommentService creates a new CommentService. Quote visibility rules come from quotes.
func NewCommentService(commentRepo repositories.CommentRepository, quotes *QuoteService, publisher events.Publisher, logger *slog.Logger) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		quotes:      quotes,
		publisher:   publisher,
		validate:    NewValidator(),
		logger:      logger,
	}
}

// Create adds a comment by userID to a quote the user can see, then announces it. A saved
// comment whose notification mail failed is returned together with the MailDeliveryError.
func (s *CommentService) Create(ctx context.Context, userID, quoteID string, in CommentInput) (*models.Comment, error) {
	if _, err := s.quotes.Get(ctx, userID, quoteID); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		ID:      uuid.New().String(),
		QuoteID: quoteID,
		UserID:  userID,
		Body:    strings.TrimSpace(in.Body),
	}
	if err := validateStruct(s.validate, comment); err != nil {
		return nil, err
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("failed to save comment: %w", err)
	}

	var mailErr error
	if err := s.publisher.Publish(ctx, events.NewCommentCreated(comment.ID, quoteID)); err != nil {
		if apperrors.IsMailDelivery(err) {
			mailErr = err
		} else {
			s.logger.WarnContext(ctx, "comment saved but not announced",
				slog.String("comment_id", comment.ID), slog.Any("error", err))
		}
	}

	saved, err := s.commentRepo.GetByID(ctx, comment.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload comment: %w", err)
	}
	return saved, mailErr
}

// Get returns a comment on quoteID. Comments on hidden quotes follow the quote's visibility.
func (s *CommentService) Get(ctx context.Context, viewerID, quoteID, id string) (*models.Comment, error) {
	comment, err := s.commentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if comment.QuoteID != quoteID {
		return nil, apperrors.NewNotFoundError("comment", id)
	}
	if _, err := s.quotes.Get(ctx, viewerID, quoteID); err != nil {
		return nil, err
	}
	return comment, nil
}

// Update replaces the body of a comment the viewer wrote.
func (s *CommentService) Update(ctx context.Context, viewerID, quoteID, id string, in CommentInput) (*models.Comment, error) {
	comment, err := s.own(ctx, viewerID, quoteID, id, "update comment")
	if err != nil {
		return nil, err
	}

	comment.Body = strings.TrimSpace(in.Body)
	if err := validateStruct(s.validate, comment); err != nil {
		return nil, err
	}
	if err := s.commentRepo.Update(ctx, comment); err != nil {
		return nil, fmt.Errorf("failed to update comment: %w", err)
	}
	return s.commentRepo.GetByID(ctx, id)
}

// Delete removes a comment the viewer wrote.
func (s *CommentService) Delete(ctx context.Context, viewerID, quoteID, id string) error {
	if _, err := s.own(ctx, viewerID, quoteID, id, "delete comment"); err != nil {
		return err
	}
	return s.commentRepo.Delete(ctx, id)
}

func (s *CommentService) own(ctx context.Context, viewerID, quoteID, id, op string) (*models.Comment, error) {
	comment, err := s.commentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if comment.QuoteID != quoteID {
		return nil, apperrors.NewNotFoundError("comment", id)
	}
	if comment.UserID != viewerID {
		return nil, apperrors.NewForbiddenError(op, "only the author can change a comment")
	}
	return comment, nil
}
