package http

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tesfalem/quotewidget/internal/adapters/http/handlers"
	"github.com/tesfalem/quotewidget/internal/adapters/http/middleware"
	"github.com/tesfalem/quotewidget/internal/platform/telemetry"
)

// DefaultRequestTimeout bounds every /api/v1 request.
const DefaultRequestTimeout = 30 * time.Second

// RouterConfig contains everything SetupRouter wires.
type RouterConfig struct {
	Logger *slog.Logger

	// ServiceName names the otelgin spans.
	ServiceName string

	HealthHandler *handlers.HealthHandler
	QuoteHandler  *handlers.QuoteHandler

	// Timeout is the /api/v1 request deadline; zero disables it.
	Timeout time.Duration
}

// SetupRouter configures middleware and routes on engine.
// Middleware order, first to last:
//  1. Recovery
//  2. Context logger
//  3. Request ID
//  4. Correlation ID
//  5. OpenTelemetry, a no-op unless telemetry is enabled
//  6. Logging, which skips /-/ paths
//
// Route groups:
//   - /-/ probes, build info and metrics
//   - /api/v1/ widget routes, under the request timeout
func SetupRouter(engine *gin.Engine, cfg RouterConfig) {
	engine.Use(
		middleware.Recovery(cfg.Logger),
		middleware.ContextLogger(cfg.Logger),
		middleware.RequestID(),
		middleware.CorrelationID(),
	)
	engine.Use(telemetry.Middleware(cfg.ServiceName)...)
	engine.Use(middleware.Logging(cfg.Logger))

	if cfg.HealthHandler != nil {
		cfg.HealthHandler.RegisterHealthRoutesOnEngine(engine)
	}

	apiV1 := engine.Group("/api/v1")
	apiV1.Use(middleware.Timeout(cfg.Timeout))

	if cfg.QuoteHandler != nil {
		cfg.QuoteHandler.RegisterRoutes(apiV1)
	}
}
