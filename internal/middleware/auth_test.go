package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/homenest/homenest-api/internal/model"
	"github.com/homenest/homenest-api/pkg/auth"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type authEnv struct {
	router    *gin.Engine
	jwt       *auth.JWTManager
	blacklist *auth.Blacklist
	redis     *miniredis.Miniredis
}

func newAuthEnv(t *testing.T) *authEnv {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	env := &authEnv{
		jwt:       auth.NewJWTManager("test-secret", time.Hour),
		blacklist: auth.NewBlacklist(rdb),
		redis:     mr,
	}

	r := gin.New()
	r.Use(RequestID())
	protected := r.Group("/", AuthMiddleware(env.jwt, env.blacklist))
	protected.GET("/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"id":   CurrentUserID(c),
			"role": CurrentRole(c),
			"jti":  CurrentClaims(c).ID,
		})
	})
	protected.GET("/admin", RequireRole(model.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	env.router = r
	return env
}

func (e *authEnv) get(path, authz string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	env := newAuthEnv(t)
	userID := uuid.New()
	token, err := env.jwt.GenerateToken(userID, "agent@homenest.test", "Agent", string(model.RoleAgent))
	require.NoError(t, err)

	t.Run("missing header", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, env.get("/me", "").Code)
	})

	t.Run("wrong scheme", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, env.get("/me", "Basic "+token).Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, env.get("/me", "Bearer nope").Code)
	})

	t.Run("valid token", func(t *testing.T) {
		w := env.get("/me", "Bearer "+token)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), userID.String())
		assert.Contains(t, w.Body.String(), `"role":"agent"`)
		assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
	})

	t.Run("role gate", func(t *testing.T) {
		assert.Equal(t, http.StatusForbidden, env.get("/admin", "Bearer "+token).Code)

		adminToken, err := env.jwt.GenerateToken(uuid.New(), "admin@homenest.test", "Admin", string(model.RoleAdmin))
		require.NoError(t, err)
		assert.Equal(t, http.StatusNoContent, env.get("/admin", "Bearer "+adminToken).Code)
	})

	t.Run("revoked token", func(t *testing.T) {
		claims, err := env.jwt.ValidateToken(token)
		require.NoError(t, err)
		require.NoError(t, env.blacklist.Revoke(context.Background(), claims.ID, time.Hour))

		w := env.get("/me", "Bearer "+token)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "revoked")
	})

	t.Run("redis down fails closed", func(t *testing.T) {
		other, err := env.jwt.GenerateToken(uuid.New(), "c@homenest.test", "C", string(model.RoleClient))
		require.NoError(t, err)
		env.redis.Close()
		assert.Equal(t, http.StatusInternalServerError, env.get("/me", "Bearer "+other).Code)
	})
}

func TestRequestIDReusesHeader(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "req-123", w.Header().Get(RequestIDHeader))
}
