package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	credenceIdentitiesTotal = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "credence_identities_total",
		Help: "Total number of registered identities by status.",
	}, []string{"status"})

	credenceRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "credence_requests_total",
		Help: "Total HTTP requests by method, path, and response status.",
	}, []string{"method", "path", "status"})

	credenceRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "credence_request_duration_seconds",
		Help:    "Request duration in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	credenceReputationEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "credence_reputation_events_total",
		Help: "Total reputation events issued by sign of delta.",
	}, []string{"sign"})

	credenceVerificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "credence_verifications_total",
		Help: "Total completed verifications by outcome.",
	}, []string{"outcome"})

	credenceAuditEntriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "credence_audit_entries_total",
		Help: "Total audit chain entries appended.",
	})

	credenceWebhookDeliveriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "credence_webhook_deliveries_total",
		Help: "Total webhook deliveries by success status.",
	}, []string{"status"})

	credenceWebhookProbesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "credence_webhook_probes_total",
		Help: "Total webhook endpoint health probes by result.",
	}, []string{"result"})
)

// PrometheusMiddleware returns a Gin middleware that records per-request metrics.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())
		method := c.Request.Method
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		credenceRequestsTotal.WithLabelValues(method, path, status).Inc()
		credenceRequestDuration.WithLabelValues(method, path).Observe(duration)
	}
}

// MetricsHandler returns a Gin handler that serves Prometheus metrics.
func MetricsHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// RecordReputationEvent records an issued reputation event by delta sign.
func RecordReputationEvent(delta int64) {
	if delta > 0 {
		credenceReputationEventsTotal.WithLabelValues("positive").Inc()
	} else {
		credenceReputationEventsTotal.WithLabelValues("negative").Inc()
	}
}

// RecordVerification records a completed verification outcome.
func RecordVerification(verified bool) {
	if verified {
		credenceVerificationsTotal.WithLabelValues("verified").Inc()
	} else {
		credenceVerificationsTotal.WithLabelValues("rejected").Inc()
	}
}

// RecordAuditAppend records an audit chain entry append.
func RecordAuditAppend() {
	credenceAuditEntriesTotal.Inc()
}

// RecordWebhookDelivery records a webhook delivery attempt.
func RecordWebhookDelivery(success bool) {
	if success {
		credenceWebhookDeliveriesTotal.WithLabelValues("success").Inc()
	} else {
		credenceWebhookDeliveriesTotal.WithLabelValues("failure").Inc()
	}
}

// RecordWebhookProbe records a webhook endpoint health probe result.
func RecordWebhookProbe(success bool) {
	if success {
		credenceWebhookProbesTotal.WithLabelValues("reachable").Inc()
	} else {
		credenceWebhookProbesTotal.WithLabelValues("unreachable").Inc()
	}
}

// SetIdentitiesGauge sets the identity count gauge for a given status.
func SetIdentitiesGauge(status string, count float64) {
	credenceIdentitiesTotal.WithLabelValues(status).Set(count)
}
