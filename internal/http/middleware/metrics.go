// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file exports Prometheus metrics for HTTP traffic. Series are keyed by
// the registered route, never the raw URL, and every request is labelled
// with the code of the error envelope that answered it ("none" on success).
// That lets a dashboard separate rejected forms (validation_failed),
// throttling (too_many_requests) and store faults (internal_error) from
// accepted submissions.
package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// unmatchedRoute labels requests that matched no route: 404s and the static
// frontend. Scanners would otherwise mint a series per URL.
const unmatchedRoute = "unmatched"

var (
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by route, status and error envelope code.",
		},
		[]string{"method", "route", "status", "code"},
	)

	// Contact posts wait for the SMTP relay, hence the long tail.
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "route"},
	)

	httpInflight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_inflight",
			Help: "HTTP requests currently being served.",
		},
	)

	// 128 B up to the 64 KiB body cap.
	formBodyBytes = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_form_body_bytes",
			Help:    "Declared size of POST bodies.",
			Buckets: prometheus.ExponentialBuckets(128, 2, 10),
		},
		[]string{"route"},
	)
)

func init() {
	prometheus.MustRegister(httpRequests, httpDuration, httpInflight, formBodyBytes)
}

// Metrics instruments every request. Mount /metrics with promhttp next to it:
//
//	r.Use(middleware.Metrics())
//	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		httpInflight.Inc()
		defer httpInflight.Dec()
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		code := ErrorCode(c)
		if code == "" {
			code = noErrorCode
		}
		method := c.Request.Method

		httpRequests.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status()), code).Inc()
		httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
		if method == http.MethodPost && c.Request.ContentLength > 0 {
			formBodyBytes.WithLabelValues(route).Observe(float64(c.Request.ContentLength))
		}
	}
}
