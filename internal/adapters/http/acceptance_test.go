package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cucumber/godog"
	"github.com/gin-gonic/gin"

	"github.com/tesfalem/quotewidget/internal/adapters/clients"
	"github.com/tesfalem/quotewidget/internal/adapters/clients/acl"
	"github.com/tesfalem/quotewidget/internal/adapters/http/handlers"
	"github.com/tesfalem/quotewidget/internal/adapters/storage/memory"
	"github.com/tesfalem/quotewidget/internal/app"
	"github.com/tesfalem/quotewidget/internal/platform/config"
	"github.com/tesfalem/quotewidget/internal/ports"
)

const syncWait = 5 * time.Second

// stepClock only moves when a step advances it.
type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *stepClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
}

func (*stepClock) After(time.Duration) <-chan time.Time { return nil }
func (*stepClock) NewTicker(time.Duration) app.Ticker   { return idleTicker{} }

type idleTicker struct{}

func (idleTicker) C() <-chan time.Time { return nil }
func (idleTicker) Stop()               {}

// feedServer mimics the remote posts feed.
type feedServer struct {
	*httptest.Server
	posts atomic.Int32
	down  atomic.Bool
}

func newFeedServer() *feedServer {
	f := &feedServer{}
	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if f.down.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		posts := make([]map[string]any, f.posts.Load())
		for i := range posts {
			posts[i] = map[string]any{
				"userId": 1,
				"id":     i + 1,
				"title":  fmt.Sprintf("remote %d", i+1),
				"body":   "body",
			}
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(posts)
	}))

	return f
}

// acceptanceContext holds state shared across step definitions within a scenario.
type acceptanceContext struct {
	persistent *memory.Store
	clock      *stepClock
	feed       *feedServer

	widget *app.Widget
	engine *gin.Engine

	status int
	body   []byte
}

func newAcceptanceContext() *acceptanceContext {
	return &acceptanceContext{
		persistent: memory.New(),
		clock:      &stepClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)},
		feed:       newFeedServer(),
	}
}

// boot assembles a widget over the shared persistent store, the way a
// process start does. The session store does not outlive it.
func (ac *acceptanceContext) boot(ctx context.Context) error {
	client, err := clients.New(&clients.Config{
		BaseURL:     ac.feed.URL,
		ServiceName: "quote-feed",
		Timeout:     2 * time.Second,
		Retry:       config.RetryConfig{MaxAttempts: 1},
		Circuit: config.CircuitBreakerConfig{
			MaxFailures:   5,
			Timeout:       time.Second,
			HalfOpenLimit: 1,
		},
		Logger: discardLogger(),
	})
	if err != nil {
		return err
	}

	feed := acl.NewFeedClient(acl.FeedClientConfig{Client: client, Logger: discardLogger()})

	widget, err := app.NewWidget(app.WidgetConfig{
		Persistent: ac.persistent,
		Session:    memory.New(),
		Feed:       feed,
		Publisher:  feed,
		Sync:       app.SyncSettings{RemoteOffset: time.Hour},
		Logger:     discardLogger(),
		Clock:      ac.clock,
	})
	if err != nil {
		return err
	}

	if err := widget.Start(ctx); err != nil {
		return err
	}

	registry := ports.NewHealthRegistry(time.Second)
	if err := registry.Register(feed); err != nil {
		return err
	}

	engine := gin.New()
	SetupRouter(engine, RouterConfig{
		Logger:        discardLogger(),
		ServiceName:   "quotewidget",
		HealthHandler: handlers.NewHealthHandler(registry, handlers.BuildInfo{}, nil),
		QuoteHandler:  handlers.NewQuoteHandler(widget),
		Timeout:       DefaultRequestTimeout,
	})

	ac.widget = widget
	ac.engine = engine

	return nil
}

func (ac *acceptanceContext) close() {
	if ac.widget != nil {
		ac.widget.Stop()
	}

	ac.feed.Close()
}

func (ac *acceptanceContext) do(method, path, body string) {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	ac.engine.ServeHTTP(w, req)

	ac.status = w.Code
	ac.body = w.Body.Bytes()
}

// InitializeAcceptanceScenario registers step definitions for each scenario.
func InitializeAcceptanceScenario(sc *godog.ScenarioContext) {
	ac := &acceptanceContext{}

	sc.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		*ac = *newAcceptanceContext()
		return ctx, nil
	})

	sc.After(func(ctx context.Context, _ *godog.Scenario, err error) (context.Context, error) {
		ac.close()
		return ctx, err
	})

	sc.Step(`^the widget is running$`, func(ctx context.Context) error { return ac.boot(ctx) })
	sc.Step(`^the widget restarts$`, func(ctx context.Context) error {
		ac.widget.Stop()
		return ac.boot(ctx)
	})
	sc.Step(`^the collection is replaced with:$`, func(ctx context.Context, doc *godog.DocString) error {
		_, err := ac.widget.Import(ctx, strings.NewReader(doc.Content))
		return err
	})
	sc.Step(`^the persisted filter is "([^"]*)"$`, func(ctx context.Context, category string) error {
		return ac.persistent.Set(ctx, app.KeyLastFilter, category)
	})
	sc.Step(`^the remote feed serves (\d+) posts$`, func(n int) error {
		ac.feed.posts.Store(int32(n))
		return nil
	})
	sc.Step(`^the remote feed is down$`, func() error {
		ac.feed.down.Store(true)
		return nil
	})
	sc.Step(`^(\d+) hours pass$`, func(n int) error {
		ac.clock.Advance(time.Duration(n) * time.Hour)
		return nil
	})

	sc.Step(`^I request (GET|POST|PUT) "([^"]*)"$`, func(method, path string) error {
		ac.do(method, path, "")
		return nil
	})
	sc.Step(`^I request (GET|POST|PUT) "([^"]*)" with body:$`, func(method, path string, doc *godog.DocString) error {
		ac.do(method, path, doc.Content)
		return nil
	})
	sc.Step(`^a sync runs to completion$`, ac.aSyncRunsToCompletion)

	sc.Step(`^the response status should be (\d+)$`, ac.theResponseStatusShouldBe)
	sc.Step(`^the response field "([^"]*)" should be "([^"]*)"$`, ac.theResponseFieldShouldBe)
	sc.Step(`^the collection should be:$`, ac.theCollectionShouldBe)
	sc.Step(`^the collection should hold (\d+) quotes$`, func(n int) error {
		ac.do(http.MethodGet, "/api/v1/quotes", "")
		return ac.theResponseFieldShouldBe("total", strconv.Itoa(n))
	})
	sc.Step(`^the categories should be "([^"]*)"$`, ac.theCategoriesShouldBe)
	sc.Step(`^the sync status should be "([^"]*)"$`, func(status string) error {
		ac.do(http.MethodGet, "/api/v1/sync/status", "")
		return ac.theResponseFieldShouldBe("status", status)
	})
}

func (ac *acceptanceContext) aSyncRunsToCompletion() error {
	ac.do(http.MethodPost, "/api/v1/sync", "")
	if err := ac.theResponseFieldShouldBe("started", "true"); err != nil {
		return err
	}

	deadline := time.Now().Add(syncWait)
	for ac.widget.Scheduler.InFlight() {
		if time.Now().After(deadline) {
			return errors.New("sync still in flight")
		}

		time.Sleep(5 * time.Millisecond)
	}

	return nil
}

func (ac *acceptanceContext) theResponseStatusShouldBe(expected int) error {
	if ac.status != expected {
		return fmt.Errorf("expected status %d, got %d. Body: %s", expected, ac.status, ac.body)
	}

	return nil
}

// theResponseFieldShouldBe walks a dotted path through the JSON body and
// compares the leaf's rendered value.
func (ac *acceptanceContext) theResponseFieldShouldBe(path, expected string) error {
	var node any
	if err := json.Unmarshal(ac.body, &node); err != nil {
		return fmt.Errorf("response is not JSON: %w. Body: %s", err, ac.body)
	}

	for _, key := range strings.Split(path, ".") {
		obj, ok := node.(map[string]any)
		if !ok {
			return fmt.Errorf("field %q: %v is not an object", key, node)
		}

		if node, ok = obj[key]; !ok {
			return fmt.Errorf("field %q missing. Body: %s", path, ac.body)
		}
	}

	if got := fmt.Sprint(node); got != expected {
		return fmt.Errorf("field %q: expected %q, got %q", path, expected, got)
	}

	return nil
}

func (ac *acceptanceContext) theCollectionShouldBe(doc *godog.DocString) error {
	ac.do(http.MethodGet, "/api/v1/export", "")
	if err := ac.theResponseStatusShouldBe(http.StatusOK); err != nil {
		return err
	}

	var want, got any
	if err := json.Unmarshal([]byte(doc.Content), &want); err != nil {
		return err
	}

	if err := json.Unmarshal(ac.body, &got); err != nil {
		return err
	}

	if fmt.Sprint(want) != fmt.Sprint(got) {
		return fmt.Errorf("collection mismatch:\nwant %s\ngot  %s", doc.Content, ac.body)
	}

	return nil
}

func (ac *acceptanceContext) theCategoriesShouldBe(expected string) error {
	ac.do(http.MethodGet, "/api/v1/categories", "")

	var resp struct {
		Categories []string `json:"categories"`
	}
	if err := json.Unmarshal(ac.body, &resp); err != nil {
		return err
	}

	if got := strings.Join(resp.Categories, ","); got != expected {
		return fmt.Errorf("expected categories %q, got %q", expected, got)
	}

	return nil
}

// TestFeatures runs the GoDog BDD test suite.
func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeAcceptanceScenario,
		Options: &godog.Options{
			Format:   "progress",
			Paths:    []string{"testdata/features"},
			TestingT: t,
			Tags:     os.Getenv("GODOG_TAGS"),
			Strict:   true,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
