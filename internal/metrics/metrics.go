// Package metrics collects and exposes Prometheus metrics for the auth
// service and the gateway.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector records auth service events.
type Collector struct {
	otpIssued       *prometheus.CounterVec
	otpVerified     *prometheus.CounterVec
	logins          *prometheus.CounterVec
	sessionsEvicted prometheus.Counter
	validations     *prometheus.CounterVec
	webhooks        *prometheus.CounterVec
}

func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		otpIssued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "superauth_otp_issued_total",
			Help: "OTP codes issued, by flow.",
		}, []string{"flow"}),
		otpVerified: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "superauth_otp_verify_total",
			Help: "OTP verification attempts, by flow and result.",
		}, []string{"flow", "result"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "superauth_login_total",
			Help: "Login attempts, by result.",
		}, []string{"result"}),
		sessionsEvicted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "superauth_sessions_evicted_total",
			Help: "Sessions evicted to resolve device quota conflicts.",
		}),
		validations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "superauth_session_validate_total",
			Help: "Session validation calls, by result.",
		}, []string{"result"}),
		webhooks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "superauth_payment_webhook_total",
			Help: "Payment webhook events, by event type.",
		}, []string{"event"}),
	}
	reg.MustRegister(
		c.otpIssued,
		c.otpVerified,
		c.logins,
		c.sessionsEvicted,
		c.validations,
		c.webhooks,
	)
	return c
}

func (c *Collector) RecordOtpIssued(flow string) {
	c.otpIssued.WithLabelValues(flow).Inc()
}

func (c *Collector) RecordOtpVerify(flow, result string) {
	c.otpVerified.WithLabelValues(flow, result).Inc()
}

func (c *Collector) RecordLogin(result string) {
	c.logins.WithLabelValues(result).Inc()
}

func (c *Collector) RecordSessionEvicted() {
	c.sessionsEvicted.Inc()
}

func (c *Collector) RecordValidation(result string) {
	c.validations.WithLabelValues(result).Inc()
}

func (c *Collector) RecordWebhook(event string) {
	c.webhooks.WithLabelValues(event).Inc()
}

// GatewayCollector records proxy-side events.
type GatewayCollector struct {
	requests        *prometheus.CounterVec
	validateLatency prometheus.Histogram
}

func NewGatewayCollector(reg prometheus.Registerer) *GatewayCollector {
	c := &GatewayCollector{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "superauth_gateway_requests_total",
			Help: "Requests through the gateway, by status code.",
		}, []string{"status_code"}),
		validateLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "superauth_gateway_validate_latency_seconds",
			Help:    "Latency of session validation calls to the auth service.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(c.requests, c.validateLatency)
	return c
}

func (c *GatewayCollector) RecordRequest(statusCode int) {
	c.requests.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

func (c *GatewayCollector) RecordValidateLatency(duration time.Duration) {
	c.validateLatency.Observe(duration.Seconds())
}

// Handler returns the scrape endpoint handler.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
