// Package metrics exposes prometheus instrumentation for the link service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Cache lookup results.
const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
)

// Flush cycle results.
const (
	FlushOK    = "ok"
	FlushError = "error"
)

// Metrics groups the service collectors. A nil *Metrics records nothing.
type Metrics struct {
	cacheLookups  *prometheus.CounterVec
	redirects     prometheus.Counter
	registrations prometheus.Counter
	visitsDropped prometheus.Counter
	flushCycles   *prometheus.CounterVec
	clicksFlushed prometheus.Counter
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shortlink_cache_lookups_total",
			Help: "Resolution cache lookups by result.",
		}, []string{"result"}),
		redirects: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "shortlink_redirects_total",
			Help: "Successful alias resolutions.",
		}),
		registrations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "shortlink_registrations_total",
			Help: "Successful link registrations.",
		}),
		visitsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "shortlink_visits_dropped_total",
			Help: "Visit events dropped before aggregation.",
		}),
		flushCycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shortlink_flush_cycles_total",
			Help: "Click ledger flush cycles by result.",
		}, []string{"result"}),
		clicksFlushed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "shortlink_clicks_flushed_total",
			Help: "Clicks committed to the ledger.",
		}),
	}

	collectors := []prometheus.Collector{
		m.cacheLookups, m.redirects, m.registrations, m.visitsDropped, m.flushCycles, m.clicksFlushed,
	}

	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// Handler serves the registry in the prometheus exposition format.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) CacheLookup(result string) {
	if m == nil {
		return
	}

	m.cacheLookups.WithLabelValues(result).Inc()
}

func (m *Metrics) Redirect() {
	if m == nil {
		return
	}

	m.redirects.Inc()
}

func (m *Metrics) Registration() {
	if m == nil {
		return
	}

	m.registrations.Inc()
}

func (m *Metrics) VisitDropped() {
	if m == nil {
		return
	}

	m.visitsDropped.Inc()
}

// FlushCycle records one ledger commit attempt and, on success, the clicks it carried.
func (m *Metrics) FlushCycle(result string, clicks int64) {
	if m == nil {
		return
	}

	m.flushCycles.WithLabelValues(result).Inc()

	if result == FlushOK {
		m.clicksFlushed.Add(float64(clicks))
	}
}
