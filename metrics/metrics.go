package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dine_in",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "dine_in",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"method", "path"},
	)

	cartConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "dine_in",
			Subsystem: "cart",
			Name:      "establishment_conflicts_total",
			Help:      "Add-to-cart attempts rejected because the cart belongs to another restaurant or branch.",
		},
	)

	checkouts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dine_in",
			Subsystem: "orders",
			Name:      "checkouts_total",
			Help:      "Cart checkouts by outcome.",
		},
		[]string{"outcome"},
	)

	tokenRefreshes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dine_in",
			Subsystem: "auth",
			Name:      "token_refreshes_total",
			Help:      "Access token refreshes by outcome.",
		},
		[]string{"outcome"},
	)
)

func init() {
	Registry.MustRegister(httpRequests, httpDuration, cartConflicts, checkouts, tokenRefreshes)
}

// Middleware records request counts and latencies. The route template is
// used as the path label to keep cardinality bounded.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		httpRequests.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// Handler exposes Registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RecordCartConflict counts a rejected cross-establishment add.
func RecordCartConflict() { cartConflicts.Inc() }

// RecordCheckout counts a checkout by outcome ("ok", "empty", "rejected", "error").
func RecordCheckout(outcome string) { checkouts.WithLabelValues(outcome).Inc() }

// RecordTokenRefresh counts a refresh by outcome ("ok", "rejected").
func RecordTokenRefresh(outcome string) { tokenRefreshes.WithLabelValues(outcome).Inc() }
