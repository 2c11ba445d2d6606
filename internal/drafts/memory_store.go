package drafts

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	draft     Draft
	expiresAt time.Time
}

// MemoryStore is an in-process Store used when Redis is not configured.
type MemoryStore struct {
	drafts map[string]memoryEntry
	ttl    time.Duration
	now    func() time.Time
	mu     sync.RWMutex
}

// NewMemoryStore creates a new instance of MemoryStore.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		drafts: make(map[string]memoryEntry),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Save stores a copy of the draft.
func (s *MemoryStore) Save(_ context.Context, sessionID string, draft *Draft) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if draft.CreatedAt.IsZero() {
		draft.CreatedAt = now.UTC()
	}
	s.sweep(now)
	s.drafts[sessionID] = memoryEntry{draft: *draft, expiresAt: now.Add(s.ttl)}
	return nil
}

// Load returns a copy of the session's draft if it has not expired.
func (s *MemoryStore) Load(_ context.Context, sessionID string) (*Draft, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.drafts[sessionID]
	if !ok || !s.now().Before(entry.expiresAt) {
		return nil, errNoDraft(sessionID)
	}
	draft := entry.draft
	return &draft, nil
}

// Clear removes the session's draft.
func (s *MemoryStore) Clear(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.drafts, sessionID)
	return nil
}

// sweep drops expired entries. Callers hold the write lock.
func (s *MemoryStore) sweep(now time.Time) {
	for id, entry := range s.drafts {
		if !now.Before(entry.expiresAt) {
			delete(s.drafts, id)
		}
	}
}
