package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/tesfalem/quotewidget/internal/domain"
	"github.com/tesfalem/quotewidget/internal/ports"
)

const (
	instrumentationName = "github.com/tesfalem/quotewidget/internal/app"

	// DefaultRemoteOffset is subtracted from now to synthesize the feed's
	// update time, since the mock feed carries no timestamps.
	DefaultRemoteOffset = time.Hour

	// SyncStatusInFlight marks a Sync call coalesced into a running one.
	SyncStatusInFlight = "in-flight"

	statusLinePrefix = "Last sync: "
	statusTimeLayout = "15:04:05"
)

// SyncEngineConfig contains dependencies for the sync engine.
type SyncEngineConfig struct {
	Feed  ports.QuoteFeed
	Store *QuoteStore

	// Publisher receives the full collection after each successful sync
	// when PushEnabled is set.
	Publisher   ports.QuotePublisher
	PushEnabled bool

	// RemoteOffset defaults to DefaultRemoteOffset.
	RemoteOffset time.Duration

	// DedupeOnMerge skips remote quotes already present by (text, category).
	DedupeOnMerge bool

	Events ports.EventPublisher
	Logger *slog.Logger
	Now    func() time.Time
}

// SyncResult reports one Sync call.
type SyncResult struct {
	Status    string
	Merged    int
	Coalesced bool
	Err       error
	At        time.Time
}

// SyncEngine reconciles the local collection with the remote feed using an
// append-only merge gated by a coarse staleness check.
type SyncEngine struct {
	feed          ports.QuoteFeed
	store         *QuoteStore
	publisher     ports.QuotePublisher
	pushEnabled   bool
	remoteOffset  time.Duration
	dedupeOnMerge bool
	events        ports.EventPublisher
	logger        *slog.Logger
	now           func() time.Time

	// running serializes fetch+merge.
	running sync.Mutex

	mu     sync.RWMutex
	record domain.SyncRecord

	runs   metric.Int64Counter
	merged metric.Int64Counter
}

// NewSyncEngine creates a sync engine.
// Panics if Feed or Store is nil.
func NewSyncEngine(cfg SyncEngineConfig) (*SyncEngine, error) {
	if cfg.Feed == nil {
		panic("SyncEngine: Feed is required")
	}

	if cfg.Store == nil {
		panic("SyncEngine: Store is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	offset := cfg.RemoteOffset
	if offset <= 0 {
		offset = DefaultRemoteOffset
	}

	meter := otel.Meter(instrumentationName)

	runs, err := meter.Int64Counter("quotes.sync.runs",
		metric.WithDescription("Sync attempts by result"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating sync runs counter: %w", err)
	}

	merged, err := meter.Int64Counter("quotes.sync.merged",
		metric.WithDescription("Remote quotes appended to the local collection"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating sync merged counter: %w", err)
	}

	return &SyncEngine{
		feed:          cfg.Feed,
		store:         cfg.Store,
		publisher:     cfg.Publisher,
		pushEnabled:   cfg.PushEnabled && cfg.Publisher != nil,
		remoteOffset:  offset,
		dedupeOnMerge: cfg.DedupeOnMerge,
		events:        cfg.Events,
		logger:        logger.With(slog.String("component", "app.SyncEngine")),
		now:           now,
		record:        domain.SyncRecord{LastStatus: domain.SyncStatusNever},
		runs:          runs,
		merged:        merged,
	}, nil
}

// FetchRemote fetches the remote batch. Every failure is a domain.RemoteFetchError.
func (e *SyncEngine) FetchRemote(ctx context.Context) ([]domain.Quote, error) {
	quotes, err := e.feed.FetchQuotes(ctx)
	if err != nil {
		if domain.IsRemoteFetch(err) {
			return nil, err
		}

		return nil, domain.NewRemoteFetchError("feed", err)
	}

	return quotes, nil
}

// Sync runs one fetch, staleness check and merge. It never returns an error;
// failures are recorded in the status and reported in the result.
// A call made while another is running returns immediately with Coalesced set.
func (e *SyncEngine) Sync(ctx context.Context) SyncResult {
	if !e.running.TryLock() {
		e.logger.DebugContext(ctx, "sync already in flight, coalescing")
		return SyncResult{Status: SyncStatusInFlight, Coalesced: true, At: e.now()}
	}
	defer e.running.Unlock()

	remote, err := e.FetchRemote(ctx)
	if err != nil {
		return e.fail(ctx, err)
	}

	now := e.now()
	remoteTime := now.Add(-e.remoteOffset)
	lastUpdate := e.store.LastUpdate()

	status := domain.SyncStatusUpToDate
	merged := 0

	if remoteTime.After(lastUpdate) {
		incoming := remote
		if e.dedupeOnMerge {
			incoming = domain.MissingFrom(e.store.Quotes(), remote)
		}

		if err := e.store.Append(ctx, incoming); err != nil {
			// The merge applied in memory; only persistence failed.
			e.logger.WarnContext(ctx, "merged quotes not persisted", slog.Any("error", err))
		}

		status = domain.SyncStatusMerged
		merged = len(incoming)
	}

	e.mu.Lock()
	e.record.LastSync = now
	e.record.LastStatus = status
	e.record.LastError = ""
	e.record.Merged = merged
	e.mu.Unlock()

	e.runs.Add(ctx, 1, metric.WithAttributes(attribute.String("result", status)))
	e.merged.Add(ctx, int64(merged))

	e.logger.InfoContext(ctx, "sync completed",
		slog.String("status", status),
		slog.Int("fetched", len(remote)),
		slog.Int("merged", merged),
	)

	publish(ctx, e.events, e.logger, NewEvent(EventSyncCompleted, SyncCompleted{
		Status:    status,
		Merged:    merged,
		Timestamp: now,
	}, now))

	e.push(ctx)

	return SyncResult{Status: status, Merged: merged, At: now}
}

func (e *SyncEngine) fail(ctx context.Context, err error) SyncResult {
	now := e.now()

	e.mu.Lock()
	e.record.LastSync = now
	e.record.LastStatus = domain.SyncStatusFailed
	e.record.LastError = err.Error()
	e.record.Merged = 0
	e.mu.Unlock()

	e.runs.Add(ctx, 1, metric.WithAttributes(attribute.String("result", domain.SyncStatusFailed)))

	e.logger.WarnContext(ctx, "sync failed", slog.Any("error", err))

	publish(ctx, e.events, e.logger, NewEvent(EventSyncFailed, SyncFailed{
		Reason:    err.Error(),
		Timestamp: now,
	}, now))

	return SyncResult{Status: domain.SyncStatusFailed, Err: err, At: now}
}

// push sends the collection upstream. Its outcome is logged only.
func (e *SyncEngine) push(ctx context.Context) {
	if !e.pushEnabled {
		return
	}

	if err := e.publisher.PushQuotes(ctx, e.store.Quotes()); err != nil {
		e.logger.WarnContext(ctx, "pushing quotes failed", slog.Any("error", err))
		return
	}

	e.logger.DebugContext(ctx, "pushed quotes upstream")
}

// Status returns the current sync record.
func (e *SyncEngine) Status() domain.SyncRecord {
	e.mu.RLock()
	record := e.record
	e.mu.RUnlock()

	record.LastLocalUpdate = e.store.LastUpdate()

	return record
}

// StatusLine renders the status the way the widget footer shows it.
func (e *SyncEngine) StatusLine() string {
	record := e.Status()

	switch record.LastStatus {
	case domain.SyncStatusFailed:
		return statusLinePrefix + "Failed"
	case domain.SyncStatusNever:
		return statusLinePrefix + "Never"
	default:
		return statusLinePrefix + record.LastSync.Local().Format(statusTimeLayout)
	}
}
