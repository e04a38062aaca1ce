// Package metrics registers the Prometheus collectors exported at /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the application collectors on their own registry.
type Metrics struct {
	Registry *prometheus.Registry

	OTPIssued          *prometheus.CounterVec
	OTPVerified        *prometheus.CounterVec
	AppointmentActions *prometheus.CounterVec
	HTTPDuration       *prometheus.HistogramVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		OTPIssued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "homenest",
			Name:      "otp_issued_total",
			Help:      "OTP issue attempts by outcome.",
		}, []string{"outcome"}),
		OTPVerified: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "homenest",
			Name:      "otp_verified_total",
			Help:      "OTP verification attempts by outcome.",
		}, []string{"outcome"}),
		AppointmentActions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "homenest",
			Name:      "appointment_actions_total",
			Help:      "Appointment operations by action and outcome.",
		}, []string{"action", "outcome"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "homenest",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
	reg.MustRegister(
		m.OTPIssued,
		m.OTPVerified,
		m.AppointmentActions,
		m.HTTPDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Outcome turns an error into a low-cardinality label value.
func Outcome(err error) string {
	if err == nil {
		return "success"
	}
	return "failure"
}

// ObserveOTPIssued is nil-safe so services can run without metrics in tests.
func (m *Metrics) ObserveOTPIssued(outcome string) {
	if m == nil {
		return
	}
	m.OTPIssued.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveOTPVerified(outcome string) {
	if m == nil {
		return
	}
	m.OTPVerified.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveAppointment(action, outcome string) {
	if m == nil {
		return
	}
	m.AppointmentActions.WithLabelValues(action, outcome).Inc()
}

// Middleware records request latency keyed by the matched route.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.HTTPDuration.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
	return gin.WrapH(h)
}
