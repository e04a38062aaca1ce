package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountersAndEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New()

	m.ObserveOTPIssued("success")
	m.ObserveOTPIssued("rate_limited")
	m.ObserveOTPVerified("mismatch")
	m.ObserveAppointment("create", Outcome(nil))
	m.ObserveAppointment("create", Outcome(errors.New("x")))

	assert.Equal(t, float64(1), testutil.ToFloat64(m.OTPIssued.WithLabelValues("success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.AppointmentActions.WithLabelValues("create", "failure")))

	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/metrics", m.Handler())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "homenest_otp_issued_total")
}

func TestNilMetricsAreNoops(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveOTPIssued("success")
		m.ObserveOTPVerified("success")
		m.ObserveAppointment("cancel", "success")
	})
}
