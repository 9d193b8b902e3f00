// Package metrics exposes the prometheus counters recorded by the service
// layer and the read cache.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Kerhoff/GiftboT/internal/apperrors"
)

const namespace = "giftbot"

// Metrics holds every collector of the process. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	operations    *prometheus.CounterVec
	cacheLookups  *prometheus.CounterVec
	invalidations prometheus.Counter
}

// New creates the collectors and registers them with reg
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "service_operations_total",
			Help:      "Service operations by name and outcome.",
		}, []string{"operation", "outcome"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Read cache lookups by result.",
		}, []string{"result"}),
		invalidations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_invalidations_total",
			Help:      "Cache tags invalidated after mutations.",
		}),
	}
	reg.MustRegister(m.operations, m.cacheLookups, m.invalidations)
	return m
}

// ObserveOperation counts one service call. The outcome is "ok" or the kind
// of the returned error.
func (m *Metrics) ObserveOperation(operation string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = string(apperrors.KindOf(err))
	}
	m.operations.WithLabelValues(operation, outcome).Inc()
}

// CacheLookup counts a cache lookup with result hit, miss or error
func (m *Metrics) CacheLookup(result string) {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// CacheInvalidated counts invalidated tags
func (m *Metrics) CacheInvalidated(n int) {
	if m == nil || n == 0 {
		return
	}
	m.invalidations.Add(float64(n))
}
