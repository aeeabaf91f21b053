package store

import (
	"context"
	"events-api/models"
	"sync"
)

// MemoryStore keeps events in a slice for the lifetime of the process.
type MemoryStore struct {
	mu     sync.RWMutex
	events []models.Event
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{events: []models.Event{}}
}

// List returns the backing slice itself, not a copy. Changes a caller makes
// to its elements show up in later calls.
func (s *MemoryStore) List(ctx context.Context) ([]models.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.events, nil
}

func (s *MemoryStore) Create(ctx context.Context, event models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = append(s.events, event)
	return nil
}
