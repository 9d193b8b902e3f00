package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/Kerhoff/GiftboT/internal/apperrors"
)

func TestObserveOperation(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveOperation("create_event", nil)
	m.ObserveOperation("create_event", nil)
	m.ObserveOperation("create_event", apperrors.Conflict("no main profile"))
	m.ObserveOperation("create_event", errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.operations.WithLabelValues("create_event", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.operations.WithLabelValues("create_event", "conflict")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.operations.WithLabelValues("create_event", "infrastructure")))
}

func TestCacheCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.CacheLookup("hit")
	m.CacheLookup("miss")
	m.CacheLookup("hit")
	m.CacheInvalidated(3)
	m.CacheInvalidated(0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues("miss")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.invalidations))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveOperation("x", nil)
		m.CacheLookup("hit")
		m.CacheInvalidated(1)
	})
}
