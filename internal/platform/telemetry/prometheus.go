package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// WidgetGauges reports live widget state at scrape time.
type WidgetGauges struct {
	QuoteCount    func() int
	CategoryCount func() int

	// LastSyncUnix returns the last sync time in unix seconds, or 0.
	LastSyncUnix func() float64

	// SyncFailed reports whether the last sync failed.
	SyncFailed func() bool
}

// NewRegistry returns a Prometheus registry with Go runtime and process
// collectors plus gauges for the widget state. Nil gauge funcs are skipped.
func NewRegistry(namespace string, g WidgetGauges) *prometheus.Registry {
	reg := prometheus.NewRegistry()

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	gauge := func(name, help string, fn func() float64) {
		reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		}, fn))
	}

	if g.QuoteCount != nil {
		gauge("quotes", "Quotes in the local collection.", func() float64 { return float64(g.QuoteCount()) })
	}

	if g.CategoryCount != nil {
		gauge("categories", "Distinct categories in the local collection.", func() float64 { return float64(g.CategoryCount()) })
	}

	if g.LastSyncUnix != nil {
		gauge("last_sync_timestamp_seconds", "Unix time of the last sync attempt.", g.LastSyncUnix)
	}

	if g.SyncFailed != nil {
		gauge("last_sync_failed", "1 if the last sync attempt failed.", func() float64 {
			if g.SyncFailed() {
				return 1
			}

			return 0
		})
	}

	return reg
}

// Handler serves the registry in the Prometheus exposition format.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}
