package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"quotebook/internal/apperrors"
	"quotebook/internal/drafts"
	"quotebook/internal/events"
	"quotebook/internal/models"
	"quotebook/internal/repositories"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// QuoteInput is a quote as typed by a user: the context and quotee are names.
type QuoteInput struct {
	QuoteText string `json:"quote_text"`
	Context   string `json:"context"`
	Quotee    string `json:"quotee"`
}

// QuoteService handles business logic related to quotes.
type QuoteService struct {
	quoteRepo   repositories.QuoteRepository
	contextRepo repositories.ContextRepository
	userRepo    repositories.UserRepository
	resolver    *NameResolver
	drafts      drafts.Store
	publisher   events.Publisher
	moderators  map[string]bool
	validate    *validator.Validate
	logger      *slog.Logger
}

// NewQuoteService creates a new QuoteService. moderators are the ids of users allowed to
// hide quotes.
func NewQuoteService(
	quoteRepo repositories.QuoteRepository,
	contextRepo repositories.ContextRepository,
	userRepo repositories.UserRepository,
	resolver *NameResolver,
	draftStore drafts.Store,
	publisher events.Publisher,
	moderators []string,
	logger *slog.Logger,
) *QuoteService {
	mods := make(map[string]bool, len(moderators))
	for _, id := range moderators {
		mods[id] = true
	}
	return &QuoteService{
		quoteRepo:   quoteRepo,
		contextRepo: contextRepo,
		userRepo:    userRepo,
		resolver:    resolver,
		drafts:      draftStore,
		publisher:   publisher,
		moderators:  mods,
		validate:    NewValidator(),
		logger:      logger,
	}
}

// IsModerator reports whether userID may hide quotes.
func (s *QuoteService) IsModerator(userID string) bool {
	return s.moderators[userID]
}

// Submit records a quote by quoterID. When the quotee name does not identify exactly one
// user the quote is staged under sessionID and an AmbiguousMatchError listing the
// candidates is returned; Resume completes it. A saved quote whose notification mail
// failed is returned together with the MailDeliveryError.
func (s *QuoteService) Submit(ctx context.Context, quoterID, sessionID string, in QuoteInput) (*models.Quote, error) {
	text := strings.TrimSpace(in.QuoteText)
	verr := &apperrors.ValidationError{}
	checkText(verr, text)

	quoteCtx, err := s.resolver.ResolveContext(ctx, in.Context)
	if err != nil {
		return nil, err
	}
	if quoteCtx == nil {
		verr.Add("context", "does not exist")
	}
	if strings.TrimSpace(in.Quotee) == "" {
		verr.Add("quotee", "can't be blank")
	}
	if !verr.Empty() {
		return nil, verr
	}

	quotee, candidates, err := s.resolver.ResolveUser(ctx, in.Quotee, quoterID)
	if err != nil {
		return nil, err
	}
	if quotee == nil {
		return nil, s.stage(ctx, sessionID, text, quoteCtx, in.Quotee, candidates)
	}

	return s.persist(ctx, &models.Quote{
		QuoteText: text,
		ContextID: quoteCtx.ID,
		QuoterID:  quoterID,
		QuoteeID:  quotee.ID,
	})
}

func (s *QuoteService) stage(ctx context.Context, sessionID, text string, quoteCtx *models.Context, query string, candidates []models.User) error {
	draft := &drafts.Draft{
		QuoteText:   text,
		ContextID:   quoteCtx.ID,
		ContextName: quoteCtx.Name,
		QuoteeQuery: strings.TrimSpace(query),
		Candidates:  toCandidates(candidates),
	}
	if err := s.drafts.Save(ctx, sessionID, draft); err != nil {
		return fmt.Errorf("failed to stage quote: %w", err)
	}
	ambiguousResolutions.Inc()

	return &apperrors.AmbiguousMatchError{
		Field:      "quotee",
		Query:      draft.QuoteeQuery,
		Candidates: draft.Candidates,
	}
}

// Resume persists the quote staged under sessionID with quoteeID as its quotee. Any
// existing user may be chosen, including one created after the quote was staged. Mail
// failures are returned with the saved quote, as for Submit.
func (s *QuoteService) Resume(ctx context.Context, quoterID, sessionID, quoteeID string) (*models.Quote, error) {
	draft, err := s.drafts.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	quotee, err := s.userRepo.GetByID(ctx, quoteeID)
	if apperrors.IsNotFound(err) {
		return nil, apperrors.NewValidationError("quotee", "does not exist")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load quotee: %w", err)
	}

	if _, err := s.contextRepo.GetByID(ctx, draft.ContextID); err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewValidationError("context", "does not exist")
		}
		return nil, fmt.Errorf("failed to load context: %w", err)
	}

	if !draft.HasCandidate(quotee.ID) {
		s.logger.InfoContext(ctx, "staged quote resumed with a quotee outside the offered candidates",
			slog.String("session_id", sessionID), slog.String("quotee_id", quotee.ID))
	}

	quote, err := s.persist(ctx, &models.Quote{
		QuoteText: draft.QuoteText,
		ContextID: draft.ContextID,
		QuoterID:  quoterID,
		QuoteeID:  quotee.ID,
	})
	if quote == nil {
		return nil, err
	}

	if clearErr := s.drafts.Clear(ctx, sessionID); clearErr != nil {
		s.logger.WarnContext(ctx, "failed to clear draft", slog.String("session_id", sessionID), slog.Any("error", clearErr))
	}
	return quote, err
}

// GetDraft returns the quote staged under sessionID.
func (s *QuoteService) GetDraft(ctx context.Context, sessionID string) (*drafts.Draft, error) {
	return s.drafts.Load(ctx, sessionID)
}

// ClearDraft abandons the quote staged under sessionID.
func (s *QuoteService) ClearDraft(ctx context.Context, sessionID string) error {
	if err := s.drafts.Clear(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to clear draft: %w", err)
	}
	return nil
}

// persist saves the quote and its memberships, then announces it. Publishing happens
// after commit and never undoes the write; mail failures are returned with the quote.
func (s *QuoteService) persist(ctx context.Context, quote *models.Quote) (*models.Quote, error) {
	quote.ID = uuid.New().String()
	if err := validateStruct(s.validate, quote); err != nil {
		return nil, err
	}
	if err := s.quoteRepo.CreateWithMembers(ctx, quote); err != nil {
		return nil, fmt.Errorf("failed to save quote: %w", err)
	}
	quotesCreated.Inc()

	var mailErr error
	if err := s.publisher.Publish(ctx, events.NewQuoteCreated(quote.ID)); err != nil {
		if apperrors.IsMailDelivery(err) {
			mailErr = err
		} else {
			s.logger.WarnContext(ctx, "quote saved but not announced",
				slog.String("quote_id", quote.ID), slog.Any("error", err))
		}
	}

	saved, err := s.quoteRepo.GetByID(ctx, quote.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload quote: %w", err)
	}
	return saved, mailErr
}

// Get returns a quote. Hidden quotes are visible only to their quoter and moderators.
func (s *QuoteService) Get(ctx context.Context, viewerID, id string) (*models.Quote, error) {
	quote, err := s.quoteRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if quote.Hidden && quote.QuoterID != viewerID && !s.IsModerator(viewerID) {
		return nil, apperrors.NewNotFoundError("quote", id)
	}
	return quote, nil
}

// Update changes the text, context or quotee of a quote the viewer recorded. Empty input
// fields leave the current value. The quotee must match exactly one user.
func (s *QuoteService) Update(ctx context.Context, viewerID, id string, in QuoteInput) (*models.Quote, error) {
	quote, err := s.own(ctx, viewerID, id, "update quote")
	if err != nil {
		return nil, err
	}

	verr := &apperrors.ValidationError{}
	if text := strings.TrimSpace(in.QuoteText); text != "" {
		quote.QuoteText = text
	}
	checkText(verr, quote.QuoteText)

	if strings.TrimSpace(in.Context) != "" {
		c, err := s.resolver.ResolveContext(ctx, in.Context)
		if err != nil {
			return nil, err
		}
		if c == nil {
			verr.Add("context", "does not exist")
		} else {
			quote.ContextID = c.ID
		}
	}
	if !verr.Empty() {
		return nil, verr
	}

	if strings.TrimSpace(in.Quotee) != "" {
		quotee, candidates, err := s.resolver.ResolveUser(ctx, in.Quotee, viewerID)
		if err != nil {
			return nil, err
		}
		if quotee == nil {
			return nil, &apperrors.AmbiguousMatchError{
				Field:      "quotee",
				Query:      strings.TrimSpace(in.Quotee),
				Candidates: toCandidates(candidates),
			}
		}
		quote.QuoteeID = quotee.ID
	}

	if err := s.quoteRepo.Update(ctx, quote); err != nil {
		return nil, fmt.Errorf("failed to update quote: %w", err)
	}
	return s.quoteRepo.GetByID(ctx, id)
}

// Delete removes a quote the viewer recorded, with its comments.
func (s *QuoteService) Delete(ctx context.Context, viewerID, id string) error {
	if _, err := s.own(ctx, viewerID, id, "delete quote"); err != nil {
		return err
	}
	return s.quoteRepo.Delete(ctx, id)
}

// SetHidden hides or restores a quote. Only moderators may do this.
func (s *QuoteService) SetHidden(ctx context.Context, viewerID, id string, hidden bool) error {
	if !s.IsModerator(viewerID) {
		return apperrors.NewForbiddenError("hide quote", "only moderators can hide quotes")
	}
	if err := s.quoteRepo.SetHidden(ctx, id, hidden); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "quote visibility changed",
		slog.String("quote_id", id), slog.Bool("hidden", hidden), slog.String("moderator_id", viewerID))
	return nil
}

func (s *QuoteService) own(ctx context.Context, viewerID, id, op string) (*models.Quote, error) {
	quote, err := s.quoteRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if quote.QuoterID != viewerID {
		return nil, apperrors.NewForbiddenError(op, "only the quoter can change a quote")
	}
	return quote, nil
}

func checkText(verr *apperrors.ValidationError, text string) {
	switch n := len([]rune(text)); {
	case n == 0:
		verr.Add("quote_text", "can't be blank")
	case n < 3:
		verr.Add("quote_text", "is too short (minimum is 3 characters)")
	}
}
