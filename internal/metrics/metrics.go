package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors of the fridge service.
type Metrics struct {
	RequestsTotal      *prometheus.CounterVec
	RequestSeconds     *prometheus.HistogramVec
	FridgeMutations    *prometheus.CounterVec
	EventPublishErrors prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		RequestsTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "fridge_http_requests_total",
			Help: "Total number of HTTP requests handled by the fridge API.",
		}, []string{"method", "route", "status"}),
		RequestSeconds: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fridge_http_request_duration_seconds",
			Help:    "Duration of HTTP requests handled by the fridge API.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		FridgeMutations: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "fridge_mutations_total",
			Help: "Total number of fridge records created or updated.",
		}, []string{"operation"}),
		EventPublishErrors: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "fridge_event_publish_errors_total",
			Help: "Total number of fridge events that could not be published.",
		}),
	}
}

// Middleware records a request count and latency per matched route.
// Requests that match no route are labelled "unmatched" to keep cardinality bounded.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.RequestSeconds.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
		m.RequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}
