package monitoring

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/labmat/internal/domain/execution"
	"github.com/GriffinCanCode/labmat/internal/infrastructure/resilience"
)

func value(t *testing.T, m prometheus.Metric) float64 {
	t.Helper()
	var pb dto.Metric
	require.NoError(t, m.Write(&pb))
	switch {
	case pb.Counter != nil:
		return pb.GetCounter().GetValue()
	case pb.Gauge != nil:
		return pb.GetGauge().GetValue()
	}
	t.Fatalf("unsupported metric type")
	return 0
}

func TestIndependentRegistries(t *testing.T) {
	a := NewMetrics()
	b := NewMetrics()

	a.RunRejected("busy")
	assert.Equal(t, 1.0, value(t, a.RunsRejected.WithLabelValues("busy")))
	assert.Equal(t, 0.0, value(t, b.RunsRejected.WithLabelValues("busy")))
}

func TestRunRecording(t *testing.T) {
	m := NewMetrics()
	var _ execution.Recorder = m

	m.RunCompleted(execution.Success, 200*time.Millisecond)
	m.RunCompleted(execution.LogicalFailure, time.Second)
	m.RunCompleted(execution.TransportFailure, time.Second)
	m.RunRejected("empty")

	assert.Equal(t, 1.0, value(t, m.RunsTotal.WithLabelValues("success")))
	assert.Equal(t, 1.0, value(t, m.RunsTotal.WithLabelValues("logical_failure")))

	snap := m.Snapshot()
	assert.Equal(t, int64(3), snap.Runs)
	assert.Equal(t, int64(2), snap.RunFailures)
	assert.Equal(t, int64(1), snap.Rejections)
}

func TestBreakerAndSessionMetrics(t *testing.T) {
	m := NewMetrics()

	m.ObserveBreaker("executor", resilience.StateClosed, resilience.StateOpen)
	assert.Equal(t, 2.0, value(t, m.BreakerState))

	m.RecordDismissal("sidebar")
	m.RecordNotification("error")
	m.SetCatalog(10, 12)
	assert.Equal(t, 1.0, value(t, m.Dismissals.WithLabelValues("sidebar")))
	assert.Equal(t, 1.0, value(t, m.Notifications.WithLabelValues("error")))
	assert.Equal(t, 12.0, value(t, m.CatalogTopics))

	m.IncWSConnections()
	m.IncWSConnections()
	m.DecWSConnections()
	assert.Equal(t, 1.0, value(t, m.WSConnections))
	assert.Equal(t, int64(1), m.Snapshot().WSConnections)
}

func TestMiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMetrics()

	r := gin.New()
	r.Use(Middleware(m))
	r.GET("/practicals/:id", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/metrics", gin.WrapH(m.Handler()))

	for _, path := range []string{"/practicals/1", "/practicals/2", "/missing"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2.0, value(t, m.RequestsTotal.WithLabelValues("GET", "/practicals/:id", "200")))
	assert.Equal(t, 1.0, value(t, m.RequestsTotal.WithLabelValues("GET", "unmatched", "404")))
	assert.Equal(t, int64(1), m.Snapshot().Errors)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.True(t, strings.Contains(body, "labmat_http_requests_total"))
	assert.True(t, strings.Contains(body, "labmat_uptime_seconds"))
}
