// Package app contains the widget core: the quote store, the category
// filter, the sync engine and the scheduler that drives it.
//
// Components depend on port interfaces, never on adapters. Widget wires
// them together for the HTTP and CLI front ends.
package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/tesfalem/quotewidget/internal/domain"
	"github.com/tesfalem/quotewidget/internal/ports"
)

// EmptyViewMessage is shown when the active filter matches no quotes.
const EmptyViewMessage = "No quotes found in this category. Add some!"

// SyncSettings controls the sync engine and its scheduler.
type SyncSettings struct {
	// Enabled starts the periodic scheduler on Start.
	Enabled       bool
	InitialDelay  time.Duration
	Interval      time.Duration
	RemoteOffset  time.Duration
	DedupeOnMerge bool
	PushEnabled   bool
}

// WidgetConfig contains dependencies for the widget.
type WidgetConfig struct {
	Persistent ports.KeyValueStore
	Session    ports.KeyValueStore
	Feed       ports.QuoteFeed
	Publisher  ports.QuotePublisher
	Sync       SyncSettings

	// Events defaults to a new EventBus.
	Events *EventBus
	Logger *slog.Logger

	// EventLogSize bounds the recent-events ring; zero means DefaultEventLogSize.
	EventLogSize int

	// Clock defaults to SystemClock.
	Clock Clock

	// IntN overrides random selection in tests.
	IntN func(n int) int
}

// Widget is the assembled core.
type Widget struct {
	Store     *QuoteStore
	Filter    *FilterState
	Sync      *SyncEngine
	Scheduler *Scheduler
	Events    *EventBus
	Recent    *EventLog

	syncEnabled bool
	exec        *Executor
	logger      *slog.Logger
}

// NewWidget assembles the core. Nothing is loaded until Start.
func NewWidget(cfg WidgetConfig) (*Widget, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	clock := cfg.Clock
	if clock == nil {
		clock = SystemClock
	}

	events := cfg.Events
	if events == nil {
		events = NewEventBus(logger)
	}

	recent := NewEventLog(cfg.EventLogSize)
	events.Subscribe(recent.Record)

	store := NewQuoteStore(QuoteStoreConfig{
		Persistent: cfg.Persistent,
		Session:    cfg.Session,
		Events:     events,
		Logger:     logger,
		Now:        clock.Now,
		IntN:       cfg.IntN,
	})

	filter := NewFilterState(FilterStateConfig{
		Store:      cfg.Persistent,
		Categories: store.Categories,
		Events:     events,
		Logger:     logger,
		Now:        clock.Now,
	})

	engine, err := NewSyncEngine(SyncEngineConfig{
		Feed:          cfg.Feed,
		Store:         store,
		Publisher:     cfg.Publisher,
		PushEnabled:   cfg.Sync.PushEnabled,
		RemoteOffset:  cfg.Sync.RemoteOffset,
		DedupeOnMerge: cfg.Sync.DedupeOnMerge,
		Events:        events,
		Logger:        logger,
		Now:           clock.Now,
	})
	if err != nil {
		return nil, err
	}

	scheduler := NewScheduler(func(ctx context.Context) { engine.Sync(ctx) }, SchedulerConfig{
		InitialDelay: cfg.Sync.InitialDelay,
		Interval:     cfg.Sync.Interval,
		Clock:        clock,
		Logger:       logger,
	})

	return &Widget{
		Store:       store,
		Filter:      filter,
		Sync:        engine,
		Scheduler:   scheduler,
		Events:      events,
		Recent:      recent,
		syncEnabled: cfg.Sync.Enabled,
		exec:        NewExecutor(logger),
		logger:      logger.With(slog.String("component", "app.Widget")),
	}, nil
}

// Start loads the collection and the filter, then starts periodic sync when
// enabled. A storage error is returned after the in-memory state is ready;
// callers may treat it as a warning.
func (w *Widget) Start(ctx context.Context) error {
	loadErr := w.load(ctx)

	if w.syncEnabled {
		if err := w.Scheduler.Start(ctx); err != nil {
			return errors.Join(loadErr, err)
		}
	}

	w.logger.InfoContext(ctx, "widget started",
		slog.Int("quotes", len(w.Store.Quotes())),
		slog.String("filter", w.Filter.Active().String()),
		slog.Bool("sync_enabled", w.syncEnabled),
	)

	return loadErr
}

// load reads the collection before the filter so the filter can check its
// category against the loaded quotes. A store error does not stop the
// filter from loading; both errors are joined.
func (w *Widget) load(ctx context.Context) error {
	_, storeErr := w.Store.Load(ctx)
	_, filterErr := w.Filter.Load(ctx)

	return errors.Join(storeErr, filterErr)
}

// Stop halts periodic sync and waits for an in-flight run.
func (w *Widget) Stop() {
	w.Scheduler.Stop()
}

// Visible returns the quotes under the active filter.
func (w *Widget) Visible() domain.Collection {
	return w.Store.Filtered(w.Filter.Active())
}

// ShowRandom picks a quote under the active filter. Returns false when the
// view is empty.
func (w *Widget) ShowRandom(ctx context.Context) (domain.Quote, bool) {
	return w.Store.Random(ctx, w.Filter.Active())
}

// Reset restores the default seed and clears the filter.
func (w *Widget) Reset(ctx context.Context) error {
	return errors.Join(w.Store.Reset(ctx), w.Filter.Clear(ctx))
}

// TriggerSync starts a background sync unless one is in flight.
func (w *Widget) TriggerSync(ctx context.Context) bool {
	return w.Scheduler.Trigger(ctx)
}

// SyncNow runs a sync in the calling goroutine.
func (w *Widget) SyncNow(ctx context.Context) SyncResult {
	return w.Sync.Sync(ctx)
}
