package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/homenest/homenest-api/internal/model"
	"github.com/homenest/homenest-api/pkg/auth"
	"github.com/homenest/homenest-api/pkg/logger"
	"go.uber.org/zap"
)

// Context keys set by AuthMiddleware
const (
	UserIDKey = "user_id"
	RoleKey   = "role"
	ClaimsKey = "claims"
)

// AuthMiddleware validates bearer tokens, rejects revoked ones and injects
// the member's id, role and claims into the gin context
func AuthMiddleware(jwtManager *auth.JWTManager, blacklist *auth.Blacklist) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abort(c, http.StatusUnauthorized, "Authorization header required")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			abort(c, http.StatusUnauthorized, "Invalid authorization format. Use: Bearer <token>")
			return
		}

		claims, err := jwtManager.ValidateToken(parts[1])
		if err != nil {
			abort(c, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		revoked, err := blacklist.IsRevoked(c.Request.Context(), claims.ID)
		if err != nil {
			// fail closed
			logger.Error(c.Request.Context(), "Blacklist lookup failed", zap.Error(err))
			abort(c, http.StatusInternalServerError, "Auth server error")
			return
		}
		if revoked {
			abort(c, http.StatusUnauthorized, "Token has been revoked")
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(RoleKey, model.Role(claims.Role))
		c.Set(ClaimsKey, claims)

		c.Next()
	}
}

// RequireRole lets through only members holding one of roles
func RequireRole(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, _ := c.Get(RoleKey)
		for _, r := range roles {
			if role == r {
				c.Next()
				return
			}
		}
		abort(c, http.StatusForbidden, "You do not have permission to perform this action")
	}
}

// CurrentUserID returns the id set by AuthMiddleware
func CurrentUserID(c *gin.Context) uuid.UUID {
	id, _ := c.Get(UserIDKey)
	uid, _ := id.(uuid.UUID)
	return uid
}

// CurrentRole returns the role set by AuthMiddleware
func CurrentRole(c *gin.Context) model.Role {
	role, _ := c.Get(RoleKey)
	r, _ := role.(model.Role)
	return r
}

// CurrentClaims returns the token claims set by AuthMiddleware
func CurrentClaims(c *gin.Context) *auth.Claims {
	v, _ := c.Get(ClaimsKey)
	claims, _ := v.(*auth.Claims)
	return claims
}

func abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, model.ErrorResponse{Error: http.StatusText(status), Message: message})
}
