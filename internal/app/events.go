package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tesfalem/quotewidget/internal/ports"
)

// Event types raised by the core.
const (
	EventCollectionChanged = "collection.changed"
	EventFilterChanged     = "filter.changed"
	EventSyncCompleted     = "sync.completed"
	EventSyncFailed        = "sync.failed"
)

// CollectionChanged is the payload of EventCollectionChanged.
type CollectionChanged struct {
	Reason     string   `json:"reason"`
	Count      int      `json:"count"`
	Categories []string `json:"categories"`
}

// FilterChanged is the payload of EventFilterChanged.
type FilterChanged struct {
	Category string `json:"category"`
}

// SyncCompleted is the payload of EventSyncCompleted.
type SyncCompleted struct {
	Status    string    `json:"status"`
	Merged    int       `json:"merged"`
	Timestamp time.Time `json:"timestamp"`
}

// SyncFailed is the payload of EventSyncFailed.
type SyncFailed struct {
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

// Event is the concrete ports.Event raised by the core.
type Event struct {
	id      string
	kind    string
	payload any
	at      time.Time
}

// NewEvent creates an event with a fresh ID.
func NewEvent(kind string, payload any, at time.Time) *Event {
	return &Event{id: uuid.NewString(), kind: kind, payload: payload, at: at}
}

// ID returns the unique event identifier.
func (e *Event) ID() string { return e.id }

// EventType implements ports.Event.
func (e *Event) EventType() string { return e.kind }

// Payload implements ports.Event.
func (e *Event) Payload() any { return e.payload }

// OccurredAt implements ports.Event.
func (e *Event) OccurredAt() time.Time { return e.at }

// Subscriber receives published events.
type Subscriber func(ctx context.Context, event ports.Event)

// EventBus is a synchronous in-process ports.EventPublisher.
// Subscribers run in the publisher's goroutine, in subscription order.
type EventBus struct {
	mu     sync.RWMutex
	subs   []subscription
	nextID int
	logger *slog.Logger
}

type subscription struct {
	id int
	fn Subscriber
}

// NewEventBus creates an event bus with no subscribers.
func NewEventBus(logger *slog.Logger) *EventBus {
	if logger == nil {
		logger = slog.Default()
	}

	return &EventBus{logger: logger.With(slog.String("component", "app.EventBus"))}
}

// Subscribe registers fn and returns a function that removes it.
func (b *EventBus) Subscribe(fn Subscriber) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscription{id: id, fn: fn})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()

		for i, s := range b.subs {
			if s.id == id {
				b.subs = append(b.subs[:i], b.subs[i+1:]...)
				return
			}
		}
	}
}

// Publish delivers event to every subscriber. A subscriber panic is
// recovered, logged and reported in the returned error; the remaining
// subscribers still run.
func (b *EventBus) Publish(ctx context.Context, event ports.Event) error {
	if event == nil {
		return errors.New("nil event")
	}

	b.mu.RLock()
	subs := make([]subscription, len(b.subs))
	copy(subs, b.subs)
	b.mu.RUnlock()

	var errs []error

	for _, s := range subs {
		if err := b.deliver(ctx, s.fn, event); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (b *EventBus) deliver(ctx context.Context, fn Subscriber, event ports.Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("subscriber panicked on %s: %v", event.EventType(), r)
			b.logger.ErrorContext(ctx, "event subscriber panicked",
				slog.String("event", event.EventType()),
				slog.Any("panic", r),
			)
		}
	}()

	fn(ctx, event)

	return nil
}

// publish sends an event and logs delivery failures. Mutations never fail
// because a listener misbehaved.
func publish(ctx context.Context, events ports.EventPublisher, logger *slog.Logger, event ports.Event) {
	if events == nil {
		return
	}

	if err := events.Publish(ctx, event); err != nil {
		logger.WarnContext(ctx, "event delivery failed",
			slog.String("event", event.EventType()),
			slog.Any("error", err),
		)
	}
}

// DefaultEventLogSize is how many events an EventLog keeps.
const DefaultEventLogSize = 50

// EventLog is a fixed-size ring of the most recent events.
// Record has the Subscriber signature.
type EventLog struct {
	mu   sync.Mutex
	ring []ports.Event
	next int
	full bool
}

// NewEventLog creates a log keeping the last size events.
func NewEventLog(size int) *EventLog {
	if size <= 0 {
		size = DefaultEventLogSize
	}

	return &EventLog{ring: make([]ports.Event, size)}
}

// Record stores event, evicting the oldest when full.
func (l *EventLog) Record(_ context.Context, event ports.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.ring[l.next] = event
	l.next = (l.next + 1) % len(l.ring)

	if l.next == 0 {
		l.full = true
	}
}

// Recent returns the stored events, oldest first.
func (l *EventLog) Recent() []ports.Event {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.full {
		return append([]ports.Event(nil), l.ring[:l.next]...)
	}

	out := make([]ports.Event, 0, len(l.ring))
	out = append(out, l.ring[l.next:]...)

	return append(out, l.ring[:l.next]...)
}
