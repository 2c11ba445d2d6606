// Package drafts stages quotes whose quotee could not be resolved, keyed by session, until
// the submitter picks a candidate or the entry expires.
package drafts

import (
	"context"
	"time"

	"quotebook/internal/apperrors"
)

// Draft is a quote waiting for its quotee to be chosen.
type Draft struct {
	QuoteText   string                `json:"quote_text"`
	ContextID   string                `json:"context_id"`
	ContextName string                `json:"context_name"`
	QuoteeQuery string                `json:"quotee_query"`
	Candidates  []apperrors.Candidate `json:"candidates"`
	CreatedAt   time.Time             `json:"created_at"`
}

// HasCandidate reports whether userID was offered as a match.
func (d *Draft) HasCandidate(userID string) bool {
	for _, c := range d.Candidates {
		if c.ID == userID {
			return true
		}
	}
	return false
}

// Store holds at most one draft per session.
type Store interface {
	// Save replaces the session's draft.
	Save(ctx context.Context, sessionID string, draft *Draft) error
	// Load returns the session's draft, or a not found error when none is staged.
	Load(ctx context.Context, sessionID string) (*Draft, error)
	// Clear discards the session's draft. Clearing an empty slot is not an error.
	Clear(ctx context.Context, sessionID string) error
}

func errNoDraft(sessionID string) error {
	return apperrors.NewNotFoundError("draft for session", sessionID)
}
