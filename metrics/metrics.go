// Package metrics holds the Prometheus metrics of the server.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "natours_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)
	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "natours_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "route", "status"},
	)
	requestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "natours_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
	RateLimited = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "natours_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		},
	)
	BookingsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "natours_bookings_created_total",
			Help: "Bookings created, by source",
		},
		[]string{"source"},
	)
	EmailsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "natours_emails_sent_total",
			Help: "Emails sent, by template and result",
		},
		[]string{"template", "result"},
	)
	ImagesResized = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "natours_images_resized_total",
			Help: "Uploaded images resized, by kind",
		},
		[]string{"kind"},
	)
	JobsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "natours_jobs_processed_total",
			Help: "Background jobs processed, by name and result",
		},
		[]string{"job", "result"},
	)
)

// Result maps an error to a metric label
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// Middleware records the count and duration of every request by route
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestsInFlight.Inc()
		defer requestsInFlight.Dec()

		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		requestsTotal.WithLabelValues(c.Request.Method, route, status).Inc()
		requestDuration.WithLabelValues(c.Request.Method, route, status).Observe(time.Since(start).Seconds())
	}
}

func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
