package services

import (
	"context"
	"fmt"
	"strings"

	"quotebook/internal/apperrors"
	"quotebook/internal/models"
	"quotebook/internal/repositories"
)

// MaxCandidates caps the number of users offered when a name is ambiguous.
const MaxCandidates = 10

// NameResolver turns typed names into users and contexts.
type NameResolver struct {
	userRepo    repositories.UserRepository
	contextRepo repositories.ContextRepository
}

// NewNameResolver creates a new NameResolver.
func NewNameResolver(userRepo repositories.UserRepository, contextRepo repositories.ContextRepository) *NameResolver {
	return &NameResolver{userRepo: userRepo, contextRepo: contextRepo}
}

// ResolveUser finds the user a typed name refers to. An exact match on username, then on
// fullname, returns that user. Otherwise every user whose username or fullname contains
// the name is returned as a candidate, those requesterID quotes most often first. An
// empty name resolves to nothing.
func (r *NameResolver) ResolveUser(ctx context.Context, name, requesterID string) (*models.User, []models.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil, nil
	}

	user, err := r.userRepo.GetByUsername(ctx, name)
	if err == nil {
		return user, nil, nil
	}
	if !apperrors.IsNotFound(err) {
		return nil, nil, fmt.Errorf("failed to resolve user: %w", err)
	}

	user, err = r.userRepo.GetByFullname(ctx, name)
	if err == nil {
		return user, nil, nil
	}
	if !apperrors.IsNotFound(err) {
		return nil, nil, fmt.Errorf("failed to resolve user: %w", err)
	}

	candidates, err := r.userRepo.SearchCandidates(ctx, name, requesterID, MaxCandidates)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to search candidates: %w", err)
	}
	if candidates == nil {
		candidates = []models.User{}
	}
	return nil, candidates, nil
}

// ResolveContext finds the context with the given name, ignoring case. It returns nil
// when there is none.
func (r *NameResolver) ResolveContext(ctx context.Context, name string) (*models.Context, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}

	c, err := r.contextRepo.GetByName(ctx, name)
	if apperrors.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve context: %w", err)
	}
	return c, nil
}

func toCandidates(users []models.User) []apperrors.Candidate {
	out := make([]apperrors.Candidate, len(users))
	for i, u := range users {
		out[i] = apperrors.Candidate{ID: u.ID, Fullname: u.Fullname, Username: u.Login()}
	}
	return out
}
