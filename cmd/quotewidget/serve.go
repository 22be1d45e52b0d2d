package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/tesfalem/quotewidget/internal/adapters/http"
	"github.com/tesfalem/quotewidget/internal/adapters/http/handlers"
	"github.com/tesfalem/quotewidget/internal/domain"
	"github.com/tesfalem/quotewidget/internal/platform/logging"
	"github.com/tesfalem/quotewidget/internal/platform/telemetry"
	"github.com/tesfalem/quotewidget/internal/ports"
)

// healthCheckTimeout bounds each readiness check.
const healthCheckTimeout = 2 * time.Second

func (c *cli) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API and run the periodic sync",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.serve(cmd.Context())
		},
	}
}

// serve runs until ctx is cancelled or the listener fails, then shuts down
// gracefully within server.shutdown_timeout.
func (c *cli) serve(ctx context.Context) error {
	cfg, logger := c.cfg, c.logger
	logging.SetDefault(logger)

	logger.Info("starting service",
		slog.String("version", Version),
		slog.String("commit", Commit),
		slog.String("environment", cfg.App.Environment),
	)

	telProvider, err := telemetry.New(ctx, &telemetry.Config{
		Enabled:      cfg.Telemetry.Enabled,
		Endpoint:     cfg.Telemetry.Endpoint,
		ServiceName:  cfg.Telemetry.ServiceName,
		Version:      cfg.App.Version,
		Environment:  cfg.App.Environment,
		SamplingRate: cfg.Telemetry.SamplingRate,
	})
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}

	defer func() {
		if shutdownErr := telProvider.Shutdown(context.WithoutCancel(ctx)); shutdownErr != nil {
			logger.Error("telemetry shutdown error", slog.Any("error", shutdownErr))
		}
	}()

	rt, err := c.open(ctx, true)
	if err != nil {
		return err
	}

	defer func() {
		if closeErr := rt.close(); closeErr != nil {
			logger.Error("closing store", slog.Any("error", closeErr))
		}
	}()

	healthRegistry := ports.NewHealthRegistry(healthCheckTimeout)
	for _, checker := range []ports.HealthChecker{rt.store, rt.feed} {
		if err := healthRegistry.Register(checker); err != nil {
			return fmt.Errorf("registering %s health check: %w", checker.Name(), err)
		}
	}

	metrics := telemetry.NewRegistry(cfg.App.Name, widgetGauges(rt))

	server := http.New(&cfg.Server, logger)
	http.SetupRouter(server.Engine(), http.RouterConfig{
		Logger:      logger,
		ServiceName: cfg.Telemetry.ServiceName,
		HealthHandler: handlers.NewHealthHandler(
			healthRegistry,
			handlers.NewBuildInfo(Version, Commit, BuildTime),
			telemetry.Handler(metrics),
		),
		QuoteHandler: handlers.NewQuoteHandler(rt.widget),
		Timeout:      http.DefaultRequestTimeout,
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return <-server.Start()
	})

	g.Go(func() error {
		<-gctx.Done()

		logger.Info("initiating graceful shutdown",
			slog.Duration("timeout", cfg.Server.ShutdownTimeout),
		)

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Server.ShutdownTimeout)
		defer cancel()

		rt.widget.Stop()

		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info("shutdown complete")

	return nil
}

func widgetGauges(rt *runtime) telemetry.WidgetGauges {
	w := rt.widget

	return telemetry.WidgetGauges{
		QuoteCount:    func() int { return len(w.Store.Quotes()) },
		CategoryCount: func() int { return len(w.Store.Categories()) },
		LastSyncUnix: func() float64 {
			last := w.Sync.Status().LastSync
			if last.IsZero() {
				return 0
			}

			return float64(last.Unix())
		},
		SyncFailed: func() bool {
			return w.Sync.Status().LastStatus == domain.SyncStatusFailed
		},
	}
}
