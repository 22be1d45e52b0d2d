// Package ports defines interfaces for external dependencies.
// Ports are contracts that adapters implement, allowing the application layer
// to depend on abstractions rather than concrete implementations.
//
// Port Design Principles:
//   - Context as first parameter (always) for cancellation and deadlines
//   - Return domain types, never external DTOs or infrastructure types
//   - Error returns use domain error types (ErrNotFound, ErrStorage, ErrRemoteFetch)
//   - Keep interfaces small and focused
package ports

import (
	"context"
	"time"

	"github.com/tesfalem/quotewidget/internal/domain"
)

// KeyValueStore is a flat string key-value store.
// Two instances back the widget: a persistent one that survives restarts
// and a session one that lives as long as the process.
type KeyValueStore interface {
	// Get returns the value stored under key.
	// Returns domain.ErrNotFound if the key does not exist.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key, replacing any previous value.
	// Returns a domain.StorageError if the write fails.
	Set(ctx context.Context, key, value string) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// QuoteFeed is the read side of the remote quote source.
type QuoteFeed interface {
	// FetchQuotes returns the remote batch already mapped to domain quotes.
	// Returns domain.ErrUnavailable or a decode error on failure.
	FetchQuotes(ctx context.Context) ([]domain.Quote, error)
}

// QuotePublisher is the optional write side of the remote source.
// Callers treat it as fire-and-forget; only success or failure is observed.
type QuotePublisher interface {
	PushQuotes(ctx context.Context, quotes domain.Collection) error
}

// EventPublisher defines the contract for publishing widget events
// to whatever presentation layer is listening.
type EventPublisher interface {
	// Publish delivers an event to all current subscribers.
	Publish(ctx context.Context, event Event) error
}

// Event represents a state change the presentation layer may react to.
type Event interface {
	// ID returns a unique identifier for this occurrence.
	ID() string

	// EventType returns the type identifier for routing.
	EventType() string

	// Payload returns the event data for serialization.
	Payload() any

	// OccurredAt returns when the event was raised.
	OccurredAt() time.Time
}
