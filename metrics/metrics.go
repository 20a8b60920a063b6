package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var requestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "http",
	Name:      "request_duration_seconds",
	Help:      "A histogram of duration, in seconds, handling HTTP requests.",
	Buckets:   prometheus.ExponentialBuckets(0.001, 2, 15),
}, []string{"host", "method", "path", "status"})

// Refresh results used as the result label of RefreshTotal.
const (
	ResultSuccess           = "success"
	ResultPersistFailed     = "persist_failed"
	ResultSourceUnavailable = "source_unavailable"
	ResultParseFailed       = "parse_failed"
)

var (
	// RefreshTotal counts refresh attempts by issuer and result.
	RefreshTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "trustlist",
		Name:      "refresh_total",
		Help:      "Number of certificate list refreshes, by issuer and result.",
	}, []string{"issuer", "result"})

	// RefreshDuration observes how long a refresh took, including the fetch.
	RefreshDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "trustlist",
		Name:      "refresh_duration_seconds",
		Help:      "A histogram of duration, in seconds, of certificate list refreshes.",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
	}, []string{"issuer"})

	// ParseErrorsTotal counts records skipped because they could not be parsed.
	ParseErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "trustlist",
		Name:      "parse_errors_total",
		Help:      "Number of certificate records that could not be parsed.",
	}, []string{"issuer"})

	// Certificates is the number of certificates currently published.
	Certificates = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "trustlist",
		Name:      "certificates",
		Help:      "Number of certificates in the published list.",
	}, []string{"issuer"})

	// LastSuccess is the unix time of the last successful refresh.
	LastSuccess = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "trustlist",
		Name:      "last_success_timestamp_seconds",
		Help:      "Unix time of the last successful certificate list refresh.",
	}, []string{"issuer"})

	// NextRefresh is the unix time of the next scheduled refresh.
	NextRefresh = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "trustlist",
		Name:      "next_refresh_timestamp_seconds",
		Help:      "Unix time of the next scheduled certificate list refresh.",
	}, []string{"issuer"})
)

// Register registers the certificate cache metrics, the standard process
// metrics, and the standard go metrics with promRegistry.
func Register(promRegistry prometheus.Registerer) {
	promRegistry.MustRegister(
		RefreshTotal,
		RefreshDuration,
		ParseErrorsTotal,
		Certificates,
		LastSuccess,
		NextRefresh,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
}

// Middleware registers the request_duration_seconds metric with promRegistry
// and returns a middleware that emits it on every request.
func Middleware(promRegistry prometheus.Registerer) gin.HandlerFunc {
	promRegistry.MustRegister(requestDuration)

	return func(c *gin.Context) {
		t := time.Now()

		c.Next()

		requestDuration.With(prometheus.Labels{
			"host":   c.Request.Host,
			"method": c.Request.Method,
			"path":   c.FullPath(),
			"status": strconv.Itoa(c.Writer.Status()),
		}).Observe(time.Since(t).Seconds())
	}
}

// Handler returns a gin handler that serves prometheus metrics from
// promRegistry.
func Handler(promRegistry *prometheus.Registry) gin.HandlerFunc {
	handler := promhttp.InstrumentMetricHandler(
		promRegistry,
		promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{}))
	return gin.WrapH(handler)
}
