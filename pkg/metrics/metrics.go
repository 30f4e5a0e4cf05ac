package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "route", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "catalog_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	productOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_product_operations_total",
		Help: "Product catalog operations by operation and result",
	}, []string{"operation", "result"})

	duplicateNames = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_duplicate_name_rejections_total",
		Help: "Writes rejected by a name uniqueness constraint",
	}, []string{"entity"})

	loginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_login_attempts_total",
		Help: "Login attempts by result",
	}, []string{"result"})

	wsConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "catalog_ws_connections",
		Help: "Number of open websocket connections",
	})
)

// Middleware records request count and latency labelled by the matched route.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if fe, ok := err.(*fiber.Error); ok {
			status = fe.Code
		}
		route := c.Route().Path
		statusStr := strconv.Itoa(status)

		httpRequestsTotal.WithLabelValues(c.Method(), route, statusStr).Inc()
		httpRequestDuration.WithLabelValues(c.Method(), route, statusStr).Observe(time.Since(start).Seconds())
		return err
	}
}

// Handler exposes the default registry.
func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}

// ObserveProductOperation counts a catalog operation ("create", "update", ...) with its result.
func ObserveProductOperation(operation, result string) {
	productOperations.WithLabelValues(operation, result).Inc()
}

// ObserveDuplicateName counts a uniqueness rejection for "tenant", "user" or "product".
func ObserveDuplicateName(entity string) {
	duplicateNames.WithLabelValues(entity).Inc()
}

func ObserveLogin(result string) {
	loginAttempts.WithLabelValues(result).Inc()
}

func IncrementWSConnections() {
	wsConnections.Inc()
}

func DecrementWSConnections() {
	wsConnections.Dec()
}
