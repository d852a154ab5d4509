package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestGinMiddlewareUsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics(reg, "meeting-service")

	r := gin.New()
	r.Use(m.GinMiddleware())
	r.GET("/api/v1/meetings/:meetingId", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, id := range []string{"a", "b", "c"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/meetings/"+id, nil))
	}

	got := testutil.ToFloat64(m.RequestsTotal.WithLabelValues(http.MethodGet, "/api/v1/meetings/:meetingId", "200"))
	require.Equal(t, 3.0, got)
}

func TestHandlerExposesDomainMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	tm := NewTranscriptionMetrics(reg)
	tm.RequestsTotal.WithLabelValues(OutcomeEmpty).Inc()

	w := httptest.NewRecorder()
	Handler(reg).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Contains(t, w.Body.String(), `meetflow_transcriptions_total{outcome="empty"} 1`)
}
