package prometheus

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveHTTP(t *testing.T) {
	m := NewMetrics()

	m.ObserveHTTP("GET", "/api/v1/agenda", "200", 25*time.Millisecond)
	m.ObserveHTTP("GET", "/api/v1/agenda", "200", 30*time.Millisecond)
	m.ObserveHTTP("POST", "/api/v1/deals", "400", 5*time.Millisecond)

	assert.Equal(t, float64(2), testutil.ToFloat64(
		m.HTTPRequestsTotal.WithLabelValues("GET", "/api/v1/agenda", "200")))
	assert.Equal(t, float64(1), testutil.ToFloat64(
		m.HTTPRequestsTotal.WithLabelValues("POST", "/api/v1/deals", "400")))
}

func TestObserveTriage(t *testing.T) {
	m := NewMetrics()

	m.ObserveTriage(3*time.Millisecond, 2, 1, 5, 18000)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.TriageRunsTotal))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.TriageTaskCount.WithLabelValues("overdue")))
	assert.Equal(t, float64(5), testutil.ToFloat64(m.TriageTaskCount.WithLabelValues("upcoming")))
	assert.Equal(t, float64(18000), testutil.ToFloat64(m.TriageValueAtRisk))
}

func TestHandler_ServesExposition(t *testing.T) {
	m := NewMetrics()
	m.FollowUpsLoggedTotal.Inc()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "dealflow_follow_ups_logged_total 1")
}
