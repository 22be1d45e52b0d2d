package acl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/tesfalem/quotewidget/internal/adapters/clients"
	"github.com/tesfalem/quotewidget/internal/domain"
	"github.com/tesfalem/quotewidget/internal/platform/logging"
)

const (
	// DefaultFeedPath is the jsonplaceholder collection used as the mock feed.
	DefaultFeedPath = "/posts"

	// DefaultFeedCategory tags every quote that arrives from the feed.
	DefaultFeedCategory = "server"

	// DefaultFeedBatchSize is how many remote items one sync considers.
	DefaultFeedBatchSize = 5
)

// FeedClientConfig contains configuration for the feed client.
type FeedClientConfig struct {
	// Client is the HTTP client; its BaseURL points at the feed host.
	Client *clients.Client

	// Path is the collection path. Defaults to DefaultFeedPath.
	Path string

	// Category is assigned to every fetched quote. Defaults to DefaultFeedCategory.
	Category string

	// BatchSize caps how many remote items are taken, in feed order.
	BatchSize int

	Logger *slog.Logger
}

// FeedClient implements ports.QuoteFeed and ports.QuotePublisher against a
// jsonplaceholder-style posts endpoint.
type FeedClient struct {
	BaseAdapter

	path      string
	category  string
	batchSize int
	logger    *slog.Logger
}

// NewFeedClient creates a feed adapter.
// Panics if Client is nil.
func NewFeedClient(cfg FeedClientConfig) *FeedClient {
	if cfg.Client == nil {
		panic("FeedClient: Client is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	path := cfg.Path
	if path == "" {
		path = DefaultFeedPath
	}

	category := strings.ToLower(strings.TrimSpace(cfg.Category))
	if category == "" {
		category = DefaultFeedCategory
	}

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultFeedBatchSize
	}

	return &FeedClient{
		BaseAdapter: NewBaseAdapter(cfg.Client, cfg.Client.ServiceName()),
		path:        path,
		category:    category,
		batchSize:   batchSize,
		logger:      logger.With(slog.String("component", "acl.FeedClient")),
	}
}

// postDTO is one element of the remote collection. Only Title is used.
type postDTO struct {
	UserID int    `json:"userId"`
	ID     int    `json:"id"`
	Title  string `json:"title"`
	Body   string `json:"body"`
}

// FetchQuotes fetches the remote collection, keeps the first BatchSize items
// and maps each title to a quote in the configured category.
// Implements ports.QuoteFeed.
func (c *FeedClient) FetchQuotes(ctx context.Context) ([]domain.Quote, error) {
	c.logger.Log(ctx, logging.LevelTrace, "starting request", slog.String("path", c.path))

	body, err := c.Get(ctx, c.path, "fetch quotes")
	if err != nil {
		return nil, err
	}

	posts, err := DecodeResponseForService[[]postDTO](body, c.ServiceName())
	if err != nil {
		return nil, err
	}

	items := *posts
	if len(items) > c.batchSize {
		items = items[:c.batchSize]
	}

	quotes, err := TranslateSlice(items, c.translate)
	if err != nil {
		return nil, domain.NewRemoteFetchError(c.ServiceName(), err)
	}

	c.logger.DebugContext(ctx, "fetched remote quotes",
		slog.Int("received", len(*posts)),
		slog.Int("kept", len(quotes)),
	)

	return quotes, nil
}

// translate maps a post title to a quote. Posts without a title are skipped.
func (c *FeedClient) translate(ext *postDTO) (domain.Quote, error) {
	q, err := domain.QuoteInput{Text: ext.Title, Category: c.category}.Normalize()
	if err != nil {
		return domain.Quote{}, ErrSkipItem
	}

	return q, nil
}

// pushRequest is the outbound body for PushQuotes.
type pushRequest struct {
	Quotes domain.Collection `json:"quotes"`
}

// PushQuotes posts the local collection to the feed. The mock endpoint echoes
// the body back; only the status is inspected.
// Implements ports.QuotePublisher.
func (c *FeedClient) PushQuotes(ctx context.Context, quotes domain.Collection) error {
	payload, err := json.Marshal(pushRequest{Quotes: quotes})
	if err != nil {
		return fmt.Errorf("encoding quotes: %w", err)
	}

	body, err := c.Post(ctx, c.path, bytes.NewReader(payload), "push quotes")
	if err != nil {
		return err
	}
	defer func() { _ = body.Close() }()

	_, _ = io.Copy(io.Discard, io.LimitReader(body, maxResponseBody))

	c.logger.DebugContext(ctx, "pushed quotes", slog.Int("count", len(quotes)))

	return nil
}

// Name returns the health check name for this client.
func (c *FeedClient) Name() string {
	return c.ServiceName()
}

// Optional marks the feed as non-critical: the widget serves local quotes without it.
func (c *FeedClient) Optional() bool {
	return true
}

// Check requests a single item from the feed.
// Implements ports.HealthChecker.
func (c *FeedClient) Check(ctx context.Context) error {
	if counts := c.Client().Breaker(); counts.State == clients.StateOpen {
		return fmt.Errorf("%w since %s", clients.ErrCircuitOpen, counts.LastFailure.Format(time.RFC3339))
	}

	body, err := c.Get(ctx, c.path+"?_limit=1", "health check")
	if err != nil {
		return err
	}

	return body.Close()
}
