package app

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/tesfalem/quotewidget/internal/domain"
	"github.com/tesfalem/quotewidget/internal/ports"
)

// FilterStateConfig contains dependencies for the filter state.
type FilterStateConfig struct {
	// Store persists lastFilter.
	Store ports.KeyValueStore

	// Categories reports the categories currently present. Optional; used
	// only to log when a persisted filter matches nothing.
	Categories func() []string

	Events ports.EventPublisher
	Logger *slog.Logger
	Now    func() time.Time
}

// FilterState tracks the active category filter.
type FilterState struct {
	mu     sync.RWMutex
	active domain.FilterSelection

	store      ports.KeyValueStore
	categories func() []string
	events     ports.EventPublisher
	logger     *slog.Logger
	now        func() time.Time
}

// NewFilterState creates a filter state selecting every category.
// Panics if Store is nil.
func NewFilterState(cfg FilterStateConfig) *FilterState {
	if cfg.Store == nil {
		panic("FilterState: Store is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &FilterState{
		active:     domain.AllCategories,
		store:      cfg.Store,
		categories: cfg.Categories,
		events:     cfg.Events,
		logger:     logger.With(slog.String("component", "app.FilterState")),
		now:        now,
	}
}

// Load reads the persisted filter, defaulting to all.
// An unknown category is kept as a literal filter and yields an empty view.
func (f *FilterState) Load(ctx context.Context) (domain.FilterSelection, error) {
	raw, err := f.store.Get(ctx, KeyLastFilter)

	sel := domain.AllCategories

	switch {
	case err == nil:
		sel = domain.NewFilterSelection(raw)
	case domain.IsNotFound(err):
		err = nil
	default:
		err = asStorageError("get", KeyLastFilter, err)
	}

	if !sel.IsAll() && f.categories != nil && !slices.Contains(f.categories(), sel.String()) {
		f.logger.DebugContext(ctx, "persisted filter matches no quotes", slog.String("category", sel.String()))
	}

	f.mu.Lock()
	f.active = sel
	f.mu.Unlock()

	return sel, err
}

// Select sets and persists the active filter. Input is trimmed and
// lowercased; empty input selects all.
// The selection applies in memory even when persisting fails.
func (f *FilterState) Select(ctx context.Context, category string) (domain.FilterSelection, error) {
	sel := domain.NewFilterSelection(category)

	f.mu.Lock()
	f.active = sel
	err := f.store.Set(ctx, KeyLastFilter, sel.String())
	f.mu.Unlock()

	if err != nil {
		err = asStorageError("set", KeyLastFilter, err)
		f.logger.WarnContext(ctx, "persisting filter failed", slog.Any("error", err))
	}

	publish(ctx, f.events, f.logger, NewEvent(EventFilterChanged, FilterChanged{Category: sel.String()}, f.now()))

	return sel, err
}

// Clear removes the persisted filter and selects all.
func (f *FilterState) Clear(ctx context.Context) error {
	f.mu.Lock()
	f.active = domain.AllCategories
	err := f.store.Delete(ctx, KeyLastFilter)
	f.mu.Unlock()

	publish(ctx, f.events, f.logger, NewEvent(EventFilterChanged, FilterChanged{Category: domain.AllCategories.String()}, f.now()))

	if err != nil {
		return asStorageError("delete", KeyLastFilter, err)
	}

	return nil
}

// Active returns the current selection.
func (f *FilterState) Active() domain.FilterSelection {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return f.active
}
