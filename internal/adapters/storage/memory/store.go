// Package memory implements the session key-value store in process memory.
package memory

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/tesfalem/quotewidget/internal/domain"
)

// Store is a map-backed ports.KeyValueStore. Its contents live as long as the
// process, which gives it session semantics.
type Store struct {
	mu        sync.RWMutex
	values    map[string]string
	failWrite error
}

// New creates an empty store.
func New() *Store {
	return &Store{values: make(map[string]string)}
}

// Get returns the value stored under key, or domain.ErrNotFound.
func (s *Store) Get(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.values[key]
	if !ok {
		return "", domain.NewNotFoundError("key", key)
	}

	return value, nil
}

// Set stores value under key.
func (s *Store) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failWrite != nil {
		return domain.NewStorageError("set", key, s.failWrite)
	}

	s.values[key] = value

	return nil
}

// Delete removes key.
func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failWrite != nil {
		return domain.NewStorageError("delete", key, s.failWrite)
	}

	delete(s.values, key)

	return nil
}

// Keys lists stored keys in lexical order.
func (s *Store) Keys(context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Sorted(maps.Keys(s.values)), nil
}

// FailWrites makes every subsequent Set and Delete fail with err.
// Passing nil restores normal behavior.
func (s *Store) FailWrites(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.failWrite = err
}
