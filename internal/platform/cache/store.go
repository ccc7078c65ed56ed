package cache

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/riskibarqy/matchthread-sync/internal/platform/resilience"
)

type entry[T any] struct {
	value    T
	storedAt time.Time
}

// Lookup is the outcome of GetOrLoad. Stale is set when the loader failed and
// an expired value was served instead; LoadErr then holds the failure.
type Lookup[T any] struct {
	Value    T
	StoredAt time.Time
	Stale    bool
	LoadErr  error
}

// Store is a TTL cache whose entries outlive their TTL so they can be served
// as stale fallbacks.
type Store[T any] struct {
	mu      sync.RWMutex
	entries map[string]entry[T]
	ttl     time.Duration
	now     func() time.Time
	flight  resilience.Flight[T]
}

func NewStore[T any](ttl time.Duration) *Store[T] {
	return &Store[T]{
		entries: make(map[string]entry[T]),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns a fresh value only.
func (s *Store[T]) Get(_ context.Context, key string) (T, bool) {
	var zero T
	if key == "" {
		return zero, false
	}

	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok || !s.fresh(e) {
		return zero, false
	}
	return e.value, true
}

// GetStale returns the last stored value regardless of age.
func (s *Store[T]) GetStale(_ context.Context, key string) (T, time.Time, bool) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		var zero T
		return zero, time.Time{}, false
	}
	return e.value, e.storedAt, true
}

func (s *Store[T]) Set(_ context.Context, key string, value T) {
	if key == "" {
		return
	}

	s.mu.Lock()
	s.entries[key] = entry[T]{value: value, storedAt: s.now()}
	s.mu.Unlock()
}

func (s *Store[T]) Delete(_ context.Context, key string) {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
}

// GetOrLoad serves a fresh value, otherwise calls loader. When loader fails
// and an older value exists, that value is returned with Stale set and no
// error.
func (s *Store[T]) GetOrLoad(ctx context.Context, key string, loader func(context.Context) (T, error)) (Lookup[T], error) {
	if loader == nil {
		return Lookup[T]{}, errors.New("loader is required")
	}
	if value, ok := s.Get(ctx, key); ok {
		return Lookup[T]{Value: value, StoredAt: s.storedAt(key)}, nil
	}

	loaded, err, _ := s.flight.Do(key, func() (T, error) {
		value, err := loader(ctx)
		if err == nil {
			s.Set(ctx, key, value)
		}
		return value, err
	})
	if err == nil {
		return Lookup[T]{Value: loaded, StoredAt: s.storedAt(key)}, nil
	}

	if stale, storedAt, ok := s.GetStale(ctx, key); ok {
		return Lookup[T]{Value: stale, StoredAt: storedAt, Stale: true, LoadErr: err}, nil
	}
	return Lookup[T]{LoadErr: err}, err
}

func (s *Store[T]) fresh(e entry[T]) bool {
	if s.ttl <= 0 {
		return true
	}
	return s.now().Sub(e.storedAt) < s.ttl
}

func (s *Store[T]) storedAt(key string) time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries[key].storedAt
}
