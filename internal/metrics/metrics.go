// Package metrics exposes Prometheus counters for the detection engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all the Prometheus metrics for the engine.
type Metrics struct {
	URLsAnalyzed   *prometheus.CounterVec
	ScriptsBlocked prometheus.Counter
	Anomalies      *prometheus.CounterVec
	Actions        *prometheus.CounterVec
	CacheHits      prometheus.Counter
	CacheMisses    prometheus.Counter
}

// New creates a Metrics instance registered against reg. A nil reg uses
// the default registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		URLsAnalyzed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "secureweb_urls_analyzed_total",
			Help: "Total number of URLs analyzed, by verdict",
		}, []string{"verdict"}),
		ScriptsBlocked: factory.NewCounter(prometheus.CounterOpts{
			Name: "secureweb_scripts_blocked_total",
			Help: "Total number of scripts blocked",
		}),
		Anomalies: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "secureweb_anomalies_total",
			Help: "Total number of anomalies detected, by kind and severity",
		}, []string{"kind", "severity"}),
		Actions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "secureweb_actions_total",
			Help: "Total number of dispatched response actions, by recommendation",
		}, []string{"recommendation"}),
		CacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "secureweb_url_cache_hits_total",
			Help: "Total number of URL analysis cache hits",
		}),
		CacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Name: "secureweb_url_cache_misses_total",
			Help: "Total number of URL analysis cache misses",
		}),
	}
}
