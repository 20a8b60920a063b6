package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"
)

func TestHandler_ServesRegisteredMetrics(t *testing.T) {
	gin.SetMode(gin.TestMode)
	registry := prometheus.NewRegistry()
	Register(registry)

	router := gin.New()
	router.Use(Middleware(registry))
	router.GET("/metrics", Handler(registry))

	RefreshTotal.WithLabelValues("de", ResultSuccess).Inc()
	Certificates.WithLabelValues("de").Set(2)

	// the first request populates request_duration_seconds
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/metrics", nil))

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, resp.Code, http.StatusOK)

	body := resp.Body.String()
	assert.Assert(t, is.Contains(body, `trustlist_refresh_total{issuer="de",result="success"}`))
	assert.Assert(t, is.Contains(body, `trustlist_certificates{issuer="de"} 2`))
	assert.Assert(t, is.Contains(body, `http_request_duration_seconds_count{host="example.com",method="GET",path="/metrics",status="200"} 1`))
	assert.Assert(t, strings.Contains(body, "go_goroutines"))
}
