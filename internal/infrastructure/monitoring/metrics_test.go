package monitoring

import (
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetricsIsolated(t *testing.T) {
	// Two collectors must not panic on duplicate registration.
	a := NewMetrics()
	b := NewMetrics()

	a.SetSessionsActive(3)
	assert.Equal(t, float64(3), testutil.ToFloat64(a.SessionsActive))
	assert.Equal(t, float64(0), testutil.ToFloat64(b.SessionsActive))
}

func TestSessionCounters(t *testing.T) {
	m := NewMetrics()

	m.RecordSpawn(true)
	m.RecordSpawn(true)
	m.RecordSpawn(false)
	m.RecordSessionExit(ReasonKill)
	m.AddOutputBytes(128)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.SessionSpawns.WithLabelValues("success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.SessionSpawns.WithLabelValues("failure")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.SessionExits.WithLabelValues(ReasonKill)))
	assert.Equal(t, float64(128), testutil.ToFloat64(m.OutputBytes))
}

func TestSnapshotTracksConnections(t *testing.T) {
	m := NewMetrics()

	m.IncWSConnections()
	m.IncWSConnections()
	m.DecWSConnections()
	m.SetSessionsActive(4)

	snap := m.Snapshot()
	assert.Equal(t, int64(1), snap.ActiveConnections)
	assert.Equal(t, int64(4), snap.ActiveSessions)
	assert.GreaterOrEqual(t, snap.UptimeSeconds, 0.0)
}

func TestMiddlewareRecordsRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMetrics()

	router := gin.New()
	router.Use(Middleware(m))
	router.GET("/terminal/sessions/:id", func(c *gin.Context) {
		c.Status(http.StatusNotFound)
	})

	for _, id := range []string{"a", "b"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/terminal/sessions/"+id, nil))
	}

	got := testutil.ToFloat64(m.RequestsTotal.WithLabelValues(http.MethodGet, "/terminal/sessions/:id", "404"))
	assert.Equal(t, float64(2), got)
	assert.Equal(t, int64(2), m.Snapshot().TotalErrors)
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := NewMetrics()
	m.RecordSpawn(true)

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "termhub_session_spawns_total"))
	assert.True(t, strings.Contains(w.Body.String(), "termhub_uptime_seconds"))
}

func TestHandlerCompresses(t *testing.T) {
	m := NewMetrics()
	m.RecordSpawn(true)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "gzip", w.Header().Get("Content-Encoding"))

	zr, err := gzip.NewReader(w.Body)
	require.NoError(t, err)
	body, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.Contains(t, string(body), "termhub_session_spawns_total")
}

func TestTreeKillTimer(t *testing.T) {
	m := NewMetrics()

	d := NewTreeKillTimer(m).Stop("success")
	assert.GreaterOrEqual(t, int64(d), int64(0))
	assert.Equal(t, 1, testutil.CollectAndCount(m.TreeKillDuration))
}
