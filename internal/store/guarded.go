package store

import (
	"context"
	"errors"
	"events-api/internal/status"
	"events-api/models"
	"events-api/utils"
)

// GuardedStore fails fast with status.ErrStoreUnavailable while the circuit
// breaker is open instead of waiting on a backend that keeps failing.
type GuardedStore struct {
	next    EventStore
	breaker *utils.CircuitBreaker
}

func NewGuardedStore(next EventStore, breaker *utils.CircuitBreaker) *GuardedStore {
	return &GuardedStore{next: next, breaker: breaker}
}

func (s *GuardedStore) List(ctx context.Context) ([]models.Event, error) {
	result, err := s.guard(ctx, func() (any, error) {
		return s.next.List(ctx)
	})
	if err != nil {
		return nil, s.wrap("list events", err)
	}
	return result.([]models.Event), nil
}

func (s *GuardedStore) Create(ctx context.Context, event models.Event) error {
	_, err := s.guard(ctx, func() (any, error) {
		return nil, s.next.Create(ctx, event)
	})
	if err != nil {
		return s.wrap("create event", err)
	}
	return nil
}

// guard runs call through the breaker. Only unavailable backends count as
// breaker failures; errors caused by the request itself pass through.
func (s *GuardedStore) guard(ctx context.Context, call func() (any, error)) (any, error) {
	var passed error
	result, err := s.breaker.Execute(ctx, func() (any, error) {
		result, err := call()
		if err != nil && !errors.Is(err, status.ErrStoreUnavailable) {
			passed = err
			return nil, nil
		}
		return result, err
	})
	if err != nil {
		return nil, err
	}
	if passed != nil {
		return nil, passed
	}
	return result, nil
}

// Ping bypasses the breaker so health checks see the backend itself.
func (s *GuardedStore) Ping(ctx context.Context) error {
	if p, ok := s.next.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

func (s *GuardedStore) wrap(op string, err error) error {
	if errors.Is(err, utils.ErrOpenState) || errors.Is(err, utils.ErrTooManyRequests) {
		return unavailable(op+" ("+s.breaker.Name()+")", err)
	}
	return err
}
