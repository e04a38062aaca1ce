package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/homenest/homenest-api/internal/config"
	"github.com/homenest/homenest-api/internal/middleware"
	"github.com/homenest/homenest-api/internal/model"
	"github.com/homenest/homenest-api/internal/repository"
	"github.com/homenest/homenest-api/internal/service"
	"github.com/homenest/homenest-api/internal/testutil"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type outbox struct {
	mu   sync.Mutex
	to   []string
	fail bool
}

func (o *outbox) Send(to, _, _ string, _ bool) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.fail {
		return errors.New("smtp: connection refused")
	}
	o.to = append(o.to, to)
	return nil
}

var testOTPConfig = config.OTPConfig{
	Length:     6,
	Expiry:     5 * time.Minute,
	RateLimit:  3,
	RateWindow: time.Hour,
	ReuseGrace: 10 * time.Minute,
}

type testServer struct {
	router *gin.Engine
	db     *gorm.DB
	mail   *outbox
}

// newTestServer mounts the OTP and schedule routes over an in-memory database.
// Authenticated routes trust the X-Test-User / X-Test-Role headers.
func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db := testutil.NewTestDB(t)
	mail := &outbox{}
	tx := repository.NewTransactor(db)

	otpSvc := service.NewOTPService(tx, repository.NewOTPRepository(db), mail, testOTPConfig, nil)
	scheduleSvc := service.NewScheduleService(
		tx,
		repository.NewAppointmentRepository(db),
		repository.NewPropertyRepository(db),
		repository.NewUserRepository(db),
		nil, nil, nil, nil,
		time.Hour,
	)

	r := gin.New()
	api := r.Group("/api")

	otp := NewOTPHandler(otpSvc)
	api.POST("/OTP/generate", otp.Generate)
	api.POST("/OTP/verify", otp.Verify)
	api.POST("/OTP/resend", otp.Resend)

	schedules := NewScheduleHandler(scheduleSvc)
	authed := api.Group("/schedules", func(c *gin.Context) {
		id, err := uuid.Parse(c.GetHeader("X-Test-User"))
		if err != nil {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.Set(middleware.UserIDKey, id)
		c.Set(middleware.RoleKey, model.Role(c.GetHeader("X-Test-Role")))
	})
	authed.POST("", schedules.Create)
	authed.GET("", schedules.List)
	authed.GET("/availability", schedules.Availability)
	authed.GET("/:id", schedules.Get)
	authed.PATCH("/:id", schedules.Update)
	authed.POST("/:id/cancel", schedules.Cancel)
	authed.POST("/:id/complete", schedules.Complete)
	authed.DELETE("/:id", schedules.Delete)

	return &testServer{router: r, db: db, mail: mail}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}, user *model.User) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != nil {
		req.Header.Set("X-Test-User", user.ID.String())
		req.Header.Set("X-Test-Role", string(user.Role))
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}
