package telemetry

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/tesfalem/quotewidget/internal/platform/telemetry"

// HeaderTraceID returns the request's trace ID to the caller.
const HeaderTraceID = "X-Trace-ID"

// Metrics are the API's request instruments.
type Metrics struct {
	duration metric.Float64Histogram
	total    metric.Int64Counter
	active   metric.Int64UpDownCounter
}

// NewMetrics registers the request instruments on the global meter.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(instrumentationName)

	var (
		m    Metrics
		errs [3]error
	)

	m.duration, errs[0] = meter.Float64Histogram("http.server.request.duration",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	m.total, errs[1] = meter.Int64Counter("http.server.request.total",
		metric.WithDescription("Total number of HTTP requests"),
	)
	m.active, errs[2] = meter.Int64UpDownCounter("http.server.active_requests",
		metric.WithDescription("Number of in-flight HTTP requests"),
	)

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return &m, nil
}

// Middleware returns otelgin tracing followed by the request instruments:
//
//	engine.Use(telemetry.Middleware("quotewidget")...)
func Middleware(serviceName string) []gin.HandlerFunc {
	metrics, err := NewMetrics()
	if err != nil {
		otel.Handle(err)
	}

	return []gin.HandlerFunc{otelgin.Middleware(serviceName), metrics.handler}
}

// handler also runs on a nil *Metrics, where it only sets X-Trace-ID.
func (m *Metrics) handler(c *gin.Context) {
	ctx := c.Request.Context()

	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		c.Header(HeaderTraceID, sc.TraceID().String())
	}

	if m == nil {
		c.Next()
		return
	}

	start := time.Now()
	route := attribute.String("http.route", c.FullPath())
	method := attribute.String("http.method", c.Request.Method)

	inFlight := metric.WithAttributes(method, route)
	m.active.Add(ctx, 1, inFlight)
	defer m.active.Add(ctx, -1, inFlight)

	c.Next()

	done := metric.WithAttributes(method, route, attribute.Int("http.status_code", c.Writer.Status()))
	m.duration.Record(ctx, time.Since(start).Seconds(), done)
	m.total.Add(ctx, 1, done)
}
