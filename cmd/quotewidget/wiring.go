package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/tesfalem/quotewidget/internal/adapters/clients"
	"github.com/tesfalem/quotewidget/internal/adapters/clients/acl"
	"github.com/tesfalem/quotewidget/internal/adapters/storage/memory"
	"github.com/tesfalem/quotewidget/internal/adapters/storage/sqlite"
	"github.com/tesfalem/quotewidget/internal/app"
	"github.com/tesfalem/quotewidget/internal/domain"
	"github.com/tesfalem/quotewidget/internal/platform/config"
)

// runtime is an assembled widget over the configured stores and feed.
type runtime struct {
	widget *app.Widget
	store  *sqlite.Store
	feed   *acl.FeedClient
}

// open assembles and starts the widget. Periodic sync runs only when
// periodic is set and the configuration enables it. A storage failure while
// loading is logged and the widget runs on its in-memory state.
func (c *cli) open(ctx context.Context, periodic bool) (*runtime, error) {
	cfg := c.cfg

	store, err := sqlite.Open(ctx, cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("opening store %q: %w", cfg.Storage.Path, err)
	}

	client, err := clients.New(&clients.Config{
		BaseURL:     cfg.Services.Feed.BaseURL,
		ServiceName: cfg.Services.Feed.Name,
		Timeout:     cfg.Client.Timeout,
		Retry:       cfg.Client.Retry,
		Circuit:     cfg.Client.CircuitBreaker,
		UserAgent:   cfg.App.Name + "/" + Version,
		Logger:      c.logger,
		Transport:   newTransport(cfg.Client.Transport),
	})
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("creating feed client: %w", err)
	}

	feed := acl.NewFeedClient(acl.FeedClientConfig{
		Client:    client,
		Path:      cfg.Sync.Path,
		Category:  cfg.Sync.Category,
		BatchSize: cfg.Sync.BatchSize,
		Logger:    c.logger,
	})

	widget, err := app.NewWidget(app.WidgetConfig{
		Persistent: store,
		Session:    memory.New(),
		Feed:       feed,
		Publisher:  feed,
		Sync: app.SyncSettings{
			Enabled:       periodic && cfg.Sync.Enabled,
			InitialDelay:  cfg.Sync.InitialDelay,
			Interval:      cfg.Sync.Interval,
			RemoteOffset:  cfg.Sync.RemoteOffset,
			DedupeOnMerge: cfg.Sync.DedupeOnMerge,
			PushEnabled:   cfg.Sync.PushEnabled,
		},
		Logger: c.logger,
	})
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("assembling widget: %w", err)
	}

	if err := widget.Start(ctx); err != nil {
		if !domain.IsStorage(err) {
			widget.Stop()
			_ = store.Close()

			return nil, fmt.Errorf("starting widget: %w", err)
		}

		c.logger.WarnContext(ctx, "store unreadable, running on in-memory state", slog.Any("error", err))
	}

	return &runtime{widget: widget, store: store, feed: feed}, nil
}

// close stops the scheduler, then releases the store.
func (r *runtime) close() error {
	r.widget.Stop()

	return r.store.Close()
}

func newTransport(cfg config.TransportConfig) *http.Transport {
	return &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.MaxIdleConnsPerHost,
		IdleConnTimeout:     cfg.IdleConnTimeout,
	}
}

// withWidget runs fn against a freshly opened widget and closes it after.
func (c *cli) withWidget(ctx context.Context, fn func(context.Context, *app.Widget) error) (err error) {
	rt, err := c.open(ctx, false)
	if err != nil {
		return err
	}

	defer func() {
		err = errors.Join(err, rt.close())
	}()

	return fn(ctx, rt.widget)
}
