package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_CountsRoutesAndCollapsesUnmatched(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Metrics("/metrics"))
	r.GET("/automations/:mediaId", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/metrics", func(c *gin.Context) { c.String(http.StatusOK, "# metrics") })

	baseRoute := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/automations/:mediaId", "200"))
	baseMiss := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "unmatched", "404"))
	baseMetrics := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/metrics", "200"))

	for _, p := range []string{"/automations/1", "/automations/2", "/nope/123", "/metrics"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, p, nil))
	}

	if got := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/automations/:mediaId", "200")); got != baseRoute+2 {
		t.Fatalf("route counter = %v, want %v", got, baseRoute+2)
	}
	if got := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "unmatched", "404")); got != baseMiss+1 {
		t.Fatalf("unmatched counter = %v, want %v", got, baseMiss+1)
	}
	if got := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/metrics", "200")); got != baseMetrics {
		t.Fatalf("skipped route must not be counted")
	}
	if v := testutil.ToFloat64(httpInflight); v != 0 {
		t.Fatalf("inflight = %v", v)
	}
}
