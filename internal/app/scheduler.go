package app

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// Scheduler defaults.
const (
	DefaultInitialDelay = 2 * time.Second
	DefaultSyncInterval = 5 * time.Minute
)

// ErrSchedulerStarted is returned by Start on a scheduler that is already running or stopped.
var ErrSchedulerStarted = errors.New("scheduler already started")

// Clock abstracts time so tests can drive the scheduler deterministically.
type Clock interface {
	Now() time.Time
	NewTicker(d time.Duration) Ticker
	After(d time.Duration) <-chan time.Time
}

// Ticker is the subset of *time.Ticker the scheduler uses.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// SystemClock is the wall clock.
var SystemClock Clock = systemClock{}

type systemClock struct{}

func (systemClock) Now() time.Time                         { return time.Now() }
func (systemClock) After(d time.Duration) <-chan time.Time { return time.After(d) }
func (systemClock) NewTicker(d time.Duration) Ticker       { return systemTicker{time.NewTicker(d)} }

type systemTicker struct{ t *time.Ticker }

func (t systemTicker) C() <-chan time.Time { return t.t.C }
func (t systemTicker) Stop()               { t.t.Stop() }

// Job is the work a Scheduler runs.
type Job func(ctx context.Context)

// SchedulerConfig configures a Scheduler.
type SchedulerConfig struct {
	// InitialDelay precedes the first periodic run.
	InitialDelay time.Duration

	// Interval separates periodic runs. Defaults to DefaultSyncInterval.
	Interval time.Duration

	// Clock defaults to SystemClock.
	Clock Clock

	Logger *slog.Logger
}

// Scheduler runs a job after an initial delay, then periodically, and on
// demand. At most one run is in flight at a time; a run requested while
// another is in flight is dropped, not queued.
type Scheduler struct {
	job    Job
	cfg    SchedulerConfig
	logger *slog.Logger

	// flight is a one-slot semaphore held for the duration of a run.
	flight chan struct{}

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu          sync.Mutex
	started     bool
	stopped     bool
	releaseStop func() bool
}

// NewScheduler creates a stopped scheduler for job.
func NewScheduler(job Job, cfg SchedulerConfig) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultSyncInterval
	}

	if cfg.InitialDelay < 0 {
		cfg.InitialDelay = 0
	}

	if cfg.Clock == nil {
		cfg.Clock = SystemClock
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		job:    job,
		cfg:    cfg,
		logger: logger.With(slog.String("component", "app.Scheduler")),
		flight: make(chan struct{}, 1),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start launches the periodic loop. Cancelling ctx has the same effect as Stop
// without waiting.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started || s.stopped {
		return ErrSchedulerStarted
	}

	s.started = true
	s.releaseStop = context.AfterFunc(ctx, s.cancel)

	s.wg.Add(1)

	go s.loop()

	s.logger.InfoContext(ctx, "scheduler started",
		slog.Duration("initial_delay", s.cfg.InitialDelay),
		slog.Duration("interval", s.cfg.Interval),
	)

	return nil
}

func (s *Scheduler) loop() {
	defer s.wg.Done()

	select {
	case <-s.ctx.Done():
		return
	case <-s.cfg.Clock.After(s.cfg.InitialDelay):
	}

	s.run()

	ticker := s.cfg.Clock.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C():
			s.run()
		}
	}
}

// run executes the job in the calling goroutine if the flight slot is free.
func (s *Scheduler) run() bool {
	select {
	case s.flight <- struct{}{}:
	default:
		s.logger.DebugContext(s.ctx, "run already in flight, coalescing")
		return false
	}
	defer func() { <-s.flight }()

	s.job(s.ctx)

	return true
}

// Trigger starts an on-demand run in the background and reports whether it
// started. It returns false when a run is already in flight or the scheduler
// has stopped.
func (s *Scheduler) Trigger(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped || s.ctx.Err() != nil {
		return false
	}

	select {
	case s.flight <- struct{}{}:
	default:
		s.logger.DebugContext(ctx, "trigger coalesced into in-flight run")
		return false
	}

	s.wg.Add(1)

	go func() {
		defer s.wg.Done()
		defer func() { <-s.flight }()

		s.job(s.ctx)
	}()

	return true
}

// InFlight reports whether a run is executing.
func (s *Scheduler) InFlight() bool {
	return len(s.flight) > 0
}

// Stop cancels the loop and any running job's context, then waits for them.
// Safe to call more than once.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	if s.releaseStop != nil {
		s.releaseStop()
		s.releaseStop = nil
	}
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
}
