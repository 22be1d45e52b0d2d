package app

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math/rand/v2"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/tesfalem/quotewidget/internal/domain"
	"github.com/tesfalem/quotewidget/internal/ports"
)

// Persisted keys.
const (
	KeyQuotes     = "quotes"
	KeyLastUpdate = "lastUpdate"
	KeyLastFilter = "lastFilter"
	KeyLastViewed = "lastViewed"
)

// Collection change reasons carried in CollectionChanged.
const (
	ReasonLoad   = "load"
	ReasonAdd    = "add"
	ReasonImport = "import"
	ReasonMerge  = "merge"
	ReasonReset  = "reset"
)

// QuoteStoreConfig contains dependencies for the quote store.
type QuoteStoreConfig struct {
	// Persistent survives restarts (quotes, lastUpdate).
	Persistent ports.KeyValueStore

	// Session lives as long as the process (lastViewed).
	Session ports.KeyValueStore

	Events ports.EventPublisher
	Logger *slog.Logger

	// Now defaults to time.Now.
	Now func() time.Time

	// IntN picks the random index. Defaults to math/rand/v2.IntN.
	IntN func(n int) int
}

// QuoteStore owns the canonical quote collection and its persisted mirror.
//
// Every successful mutation writes quotes and then lastUpdate before
// returning. When a write fails the in-memory collection keeps the change
// and the caller gets a domain.StorageError.
type QuoteStore struct {
	mu         sync.RWMutex
	quotes     domain.Collection
	lastUpdate time.Time

	persistent ports.KeyValueStore
	session    ports.KeyValueStore
	events     ports.EventPublisher
	logger     *slog.Logger
	now        func() time.Time
	intN       func(int) int
}

// NewQuoteStore creates a quote store. The collection is empty until Load.
// Panics if either store is nil.
func NewQuoteStore(cfg QuoteStoreConfig) *QuoteStore {
	if cfg.Persistent == nil {
		panic("QuoteStore: Persistent store is required")
	}

	if cfg.Session == nil {
		panic("QuoteStore: Session store is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	intN := cfg.IntN
	if intN == nil {
		intN = rand.IntN
	}

	return &QuoteStore{
		persistent: cfg.Persistent,
		session:    cfg.Session,
		events:     cfg.Events,
		logger:     logger.With(slog.String("component", "app.QuoteStore")),
		now:        now,
		intN:       intN,
	}
}

// Load reads the persisted collection. A missing or malformed value is
// replaced by the default seed, which is persisted immediately.
// A read failure leaves the seed in memory without overwriting the store.
func (s *QuoteStore) Load(ctx context.Context) (domain.Collection, error) {
	s.mu.Lock()

	s.lastUpdate = s.readLastUpdate(ctx)

	stored, rewritten, err := s.readQuotes(ctx)

	var storeErr error

	switch {
	case err == nil:
		s.quotes = stored

		if rewritten {
			s.logger.InfoContext(ctx, "normalized persisted quotes")
			storeErr = s.writeQuotesLocked(ctx)
		}

	case domain.IsNotFound(err) || domain.IsValidation(err):
		if !domain.IsNotFound(err) {
			s.logger.WarnContext(ctx, "discarding malformed persisted quotes", slog.Any("error", err))
		}

		s.quotes = domain.DefaultSeed()
		s.lastUpdate = s.now()
		storeErr = s.persistLocked(ctx)

	default:
		s.logger.WarnContext(ctx, "reading persisted quotes failed, using seed", slog.Any("error", err))
		s.quotes = domain.DefaultSeed()
		storeErr = asStorageError("get", KeyQuotes, err)
	}

	snapshot := s.quotes.Clone()
	s.mu.Unlock()

	s.publishChanged(ctx, ReasonLoad, snapshot)

	return snapshot, storeErr
}

// readQuotes decodes and normalizes the persisted collection. rewritten
// reports whether normalization changed any quote.
func (s *QuoteStore) readQuotes(ctx context.Context) (quotes domain.Collection, rewritten bool, err error) {
	raw, err := s.persistent.Get(ctx, KeyQuotes)
	if err != nil {
		return nil, false, err
	}

	var stored domain.Collection
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		return nil, false, domain.NewValidationError(KeyQuotes, "is not a JSON array of quotes: "+err.Error())
	}

	if stored == nil {
		return nil, false, domain.NewValidationError(KeyQuotes, "is null")
	}

	quotes, err = normalizeQuotes(stored)
	if err != nil {
		return nil, false, err
	}

	return quotes, !slices.Equal(quotes, stored), nil
}

// readLastUpdate returns the zero time when the value is absent or unreadable.
func (s *QuoteStore) readLastUpdate(ctx context.Context) time.Time {
	raw, err := s.persistent.Get(ctx, KeyLastUpdate)
	if err != nil {
		return time.Time{}
	}

	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		s.logger.DebugContext(ctx, "ignoring malformed lastUpdate", slog.String("value", raw))
		return time.Time{}
	}

	return time.UnixMilli(ms)
}

// Add validates and appends one quote.
func (s *QuoteStore) Add(ctx context.Context, in domain.QuoteInput) (domain.Quote, error) {
	q, err := in.Normalize()
	if err != nil {
		return domain.Quote{}, err
	}

	return q, s.commit(ctx, ReasonAdd, func(current domain.Collection) domain.Collection {
		return append(current.Clone(), q)
	})
}

// ReplaceAll swaps the whole collection. Every element is validated and
// normalized first; on any failure nothing changes.
func (s *QuoteStore) ReplaceAll(ctx context.Context, c domain.Collection) error {
	next, err := normalizeQuotes(c)
	if err != nil {
		return err
	}

	return s.commit(ctx, ReasonImport, func(domain.Collection) domain.Collection { return next })
}

// Append concatenates quotes onto the collection without de-duplication.
func (s *QuoteStore) Append(ctx context.Context, quotes []domain.Quote) error {
	if len(quotes) == 0 {
		return nil
	}

	if err := domain.ValidateCollection(quotes); err != nil {
		return err
	}

	return s.commit(ctx, ReasonMerge, func(current domain.Collection) domain.Collection {
		return append(current.Clone(), quotes...)
	})
}

// Reset removes the persisted collection and the session LastViewed, then
// reloads the default seed.
func (s *QuoteStore) Reset(ctx context.Context) error {
	var errs []error

	if err := s.persistent.Delete(ctx, KeyQuotes); err != nil {
		errs = append(errs, err)
	}

	if err := s.session.Delete(ctx, KeyLastViewed); err != nil {
		errs = append(errs, err)
	}

	if err := s.commit(ctx, ReasonReset, func(domain.Collection) domain.Collection { return domain.DefaultSeed() }); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// commit applies next under the lock, persists, and publishes the change.
func (s *QuoteStore) commit(ctx context.Context, reason string, next func(domain.Collection) domain.Collection) error {
	s.mu.Lock()
	s.quotes = next(s.quotes)
	s.lastUpdate = s.now()
	err := s.persistLocked(ctx)
	snapshot := s.quotes.Clone()
	s.mu.Unlock()

	if err != nil {
		s.logger.WarnContext(ctx, "persisting quotes failed, keeping in-memory state",
			slog.String("reason", reason),
			slog.Any("error", err),
		)
	}

	s.publishChanged(ctx, reason, snapshot)

	return err
}

// persistLocked writes quotes then lastUpdate. Caller holds s.mu.
func (s *QuoteStore) persistLocked(ctx context.Context) error {
	if err := s.writeQuotesLocked(ctx); err != nil {
		return err
	}

	stamp := strconv.FormatInt(s.lastUpdate.UnixMilli(), 10)
	if err := s.persistent.Set(ctx, KeyLastUpdate, stamp); err != nil {
		return asStorageError("set", KeyLastUpdate, err)
	}

	return nil
}

// writeQuotesLocked stores the collection without touching lastUpdate.
func (s *QuoteStore) writeQuotesLocked(ctx context.Context) error {
	quotes := s.quotes
	if quotes == nil {
		quotes = domain.Collection{}
	}

	data, err := json.Marshal(quotes)
	if err != nil {
		return domain.NewStorageError("encode", KeyQuotes, err)
	}

	if err := s.persistent.Set(ctx, KeyQuotes, string(data)); err != nil {
		return asStorageError("set", KeyQuotes, err)
	}

	return nil
}

func (s *QuoteStore) publishChanged(ctx context.Context, reason string, snapshot domain.Collection) {
	publish(ctx, s.events, s.logger, NewEvent(EventCollectionChanged, CollectionChanged{
		Reason:     reason,
		Count:      len(snapshot),
		Categories: domain.DistinctCategories(snapshot),
	}, s.now()))
}

// Quotes returns a copy of the collection.
func (s *QuoteStore) Quotes() domain.Collection {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.quotes.Clone()
}

// Categories returns the distinct categories in first-appearance order.
func (s *QuoteStore) Categories() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return domain.DistinctCategories(s.quotes)
}

// Filtered returns the quotes visible under sel.
func (s *QuoteStore) Filtered(sel domain.FilterSelection) domain.Collection {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return domain.FilterByCategory(s.quotes, sel)
}

// Random picks one quote from the filtered view and records it as LastViewed.
// Returns false when the view is empty.
func (s *QuoteStore) Random(ctx context.Context, sel domain.FilterSelection) (domain.Quote, bool) {
	view := s.Filtered(sel)
	if len(view) == 0 {
		return domain.Quote{}, false
	}

	q := view[s.intN(len(view))]

	if data, err := json.Marshal(q); err == nil {
		if err := s.session.Set(ctx, KeyLastViewed, string(data)); err != nil {
			s.logger.WarnContext(ctx, "recording last viewed failed", slog.Any("error", err))
		}
	}

	return q, true
}

// LastViewed returns the quote most recently shown in this session.
func (s *QuoteStore) LastViewed(ctx context.Context) (domain.Quote, bool, error) {
	raw, err := s.session.Get(ctx, KeyLastViewed)
	if domain.IsNotFound(err) {
		return domain.Quote{}, false, nil
	}

	if err != nil {
		return domain.Quote{}, false, asStorageError("get", KeyLastViewed, err)
	}

	var q domain.Quote
	if err := json.Unmarshal([]byte(raw), &q); err != nil {
		return domain.Quote{}, false, nil
	}

	return q, true, nil
}

// LastUpdate returns the time of the last local mutation, or zero.
func (s *QuoteStore) LastUpdate() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.lastUpdate
}

func normalizeQuotes(c domain.Collection) (domain.Collection, error) {
	inputs := make([]domain.QuoteInput, len(c))
	for i, q := range c {
		inputs[i] = domain.QuoteInput{Text: q.Text, Category: q.Category}
	}

	return domain.NormalizeCollection(inputs)
}

func asStorageError(op, key string, err error) error {
	if domain.IsStorage(err) {
		return err
	}

	return domain.NewStorageError(op, key, err)
}
