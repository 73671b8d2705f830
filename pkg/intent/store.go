package intent

import (
	"context"
	"errors"
	"sync"
)

// ErrNotFound is returned when no intent matches the lookup.
var ErrNotFound = errors.New("donation intent not found")

// Store is durable, restart-surviving storage of the in-flight donation
// intent, keyed by correlation id. Writes are last-writer-wins; the
// orchestrator keeps at most one active intent live at a time.
type Store interface {
	// Save upserts the intent.
	Save(ctx context.Context, i *DonationIntent) error

	// Load returns the intent with the given correlation id, or ErrNotFound.
	Load(ctx context.Context, correlationID string) (*DonationIntent, error)

	// LoadAwaitingReturn returns the intent left awaiting a redirect return
	// from this context, if any, or ErrNotFound.
	LoadAwaitingReturn(ctx context.Context) (*DonationIntent, error)

	// LoadActive returns the intent currently mid-flight (awaiting a
	// signature or a redirect return), or ErrNotFound.
	LoadActive(ctx context.Context) (*DonationIntent, error)

	// Delete removes the intent. Deleting an absent intent is not an error.
	Delete(ctx context.Context, correlationID string) error
}

// MemoryStore is an in-memory Store for tests and ephemeral hosts.
type MemoryStore struct {
	mu      sync.RWMutex
	intents map[string]DonationIntent
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{intents: make(map[string]DonationIntent)}
}

var _ Store = (*MemoryStore)(nil)

func (s *MemoryStore) Save(_ context.Context, i *DonationIntent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.intents[i.CorrelationID] = *i
	return nil
}

func (s *MemoryStore) Load(_ context.Context, correlationID string) (*DonationIntent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored, ok := s.intents[correlationID]
	if !ok {
		return nil, ErrNotFound
	}
	return &stored, nil
}

func (s *MemoryStore) LoadAwaitingReturn(_ context.Context) (*DonationIntent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, stored := range s.intents {
		if stored.Status == StatusAwaitingRedirectReturn {
			found := stored
			return &found, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) LoadActive(_ context.Context) (*DonationIntent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, stored := range s.intents {
		if stored.Active() {
			found := stored
			return &found, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) Delete(_ context.Context, correlationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.intents, correlationID)
	return nil
}
