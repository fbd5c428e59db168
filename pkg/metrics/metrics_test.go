package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewJobMetrics(reg)

	m.Observe("storage-cleanup", 250*time.Millisecond, nil)
	m.Observe("storage-cleanup", time.Millisecond, errors.New("boom"))
	m.Observe("", time.Millisecond, nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.success.WithLabelValues("storage-cleanup")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.failure.WithLabelValues("storage-cleanup")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.success.WithLabelValues("unknown")))

	count, err := testutil.GatherAndCount(reg, "panel_job_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestHTTPMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics(reg)

	m.Observe("GET", "/api/v1/products/:id", 200, 10*time.Millisecond)
	m.Observe("GET", "/api/v1/products/:id", 404, 10*time.Millisecond)
	m.Observe("GET", "", 404, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "/api/v1/products/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "unknown", "404")))
}

func TestNilRegistererIsNoop(t *testing.T) {
	assert.NotPanics(t, func() {
		NewJobMetrics(nil).Observe("job", time.Second, nil)
		NewHTTPMetrics(nil).Observe("GET", "/", 200, time.Second)
		var m *JobMetrics
		m.Observe("job", time.Second, nil)
	})
}
