package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns the collectors for one service. Collectors are registered on the
// registerer passed to New so tests can use a private registry.
type Metrics struct {
	serviceName string

	requests       *prometheus.CounterVec
	duration       *prometheus.HistogramVec
	statusCategory *prometheus.CounterVec

	approvalTransitions *prometheus.CounterVec
	ordersPlaced        prometheus.Counter
	ordersAccepted      prometheus.Counter
}

func New(serviceName string, reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		serviceName: serviceName,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"service", "method", "path", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"service", "method", "path", "status"}),
		statusCategory: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_status_category_total",
			Help: "Total number of responses by status category (2xx, 4xx, 5xx)",
		}, []string{"service", "category"}),
		approvalTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "restaurant_request_transitions_total",
			Help: "Restaurant approval requests moved into each status",
		}, []string{"service", "to"}),
		ordersPlaced: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "orders_placed_total",
			Help:        "Orders created from carts",
			ConstLabels: prometheus.Labels{"service": serviceName},
		}),
		ordersAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "orders_accepted_total",
			Help:        "Orders accepted by restaurants",
			ConstLabels: prometheus.Labels{"service": serviceName},
		}),
	}
	reg.MustRegister(m.requests, m.duration, m.statusCategory,
		m.approvalTransitions, m.ordersPlaced, m.ordersAccepted)
	return m
}

// Middleware records request count, latency and status category.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := c.Writer.Status()
		statusStr := strconv.Itoa(status)

		m.requests.WithLabelValues(m.serviceName, c.Request.Method, path, statusStr).Inc()
		m.duration.WithLabelValues(m.serviceName, c.Request.Method, path, statusStr).
			Observe(time.Since(start).Seconds())
		if category := statusCategory(status); category != "" {
			m.statusCategory.WithLabelValues(m.serviceName, category).Inc()
		}
	}
}

func statusCategory(status int) string {
	switch {
	case status >= 200 && status < 300:
		return "2xx"
	case status >= 400 && status < 500:
		return "4xx"
	case status >= 500 && status < 600:
		return "5xx"
	}
	return ""
}

func (m *Metrics) RequestTransitioned(to string) {
	m.approvalTransitions.WithLabelValues(m.serviceName, to).Inc()
}

func (m *Metrics) OrderPlaced() { m.ordersPlaced.Inc() }

func (m *Metrics) OrderAccepted() { m.ordersAccepted.Inc() }

// Handler exposes the registry for scraping.
func Handler(g prometheus.Gatherer) gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
}
