package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"backoffice/internal/auth"
	"backoffice/internal/logger"
	"backoffice/internal/model"
	"backoffice/internal/permission"
	"backoffice/internal/repository"
	"backoffice/pkg/apperror"
	"backoffice/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	accessTokenCookie = "access_token"
	currentUserKey    = "currentUser"
)

type ctxKey struct{}

// UserLoader reloads the authenticated user, permissions included
type UserLoader interface {
	GetByID(ctx context.Context, id uint) (*model.User, error)
}

// SetTokenCookie stores the access token as an HttpOnly cookie. Secure
// cookies use SameSite=None for cross-origin frontends.
func SetTokenCookie(c *gin.Context, token string, ttl time.Duration, secure bool) {
	sameSite := http.SameSiteLaxMode
	if secure {
		sameSite = http.SameSiteNoneMode
	}
	c.SetSameSite(sameSite)
	c.SetCookie(accessTokenCookie, token, int(ttl.Seconds()), "/", "", secure, true)
}

// ClearTokenCookie removes the access token cookie
func ClearTokenCookie(c *gin.Context, secure bool) {
	sameSite := http.SameSiteLaxMode
	if secure {
		sameSite = http.SameSiteNoneMode
	}
	c.SetSameSite(sameSite)
	c.SetCookie(accessTokenCookie, "", -1, "/", "", secure, true)
}

// Authenticate validates the JWT from the access_token cookie or the
// Authorization header and loads the user once per request.
func Authenticate(secret []byte, users UserLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := extractToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Authorization is missing"))
			return
		}

		claims, err := auth.Parse(tokenString, secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid token"))
			return
		}
		userID, err := claims.UserID()
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid token claims"))
			return
		}

		user, err := users.GetByID(c.Request.Context(), userID)
		if err != nil {
			if repository.IsNotFound(err) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "User no longer exists"))
				return
			}
			logger.GetGinLogger(c).Error("failed to load authenticated user", zap.Uint("user_id", userID), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to verify credentials"))
			return
		}

		c.Set(currentUserKey, user)
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), ctxKey{}, user))
		logger.SetGinLogger(c, logger.GetGinLogger(c).With(zap.Uint("user_id", user.ID)))

		c.Next()
	}
}

// Require gates a route on a role and/or capability. It must run after
// Authenticate.
func Require(rule permission.Rule) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := permission.Check(CurrentUser(c), rule); err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, apperror.PublicMessage(err)))
			return
		}
		c.Next()
	}
}

// RequireRole is shorthand for a role-only rule
func RequireRole(role string) gin.HandlerFunc {
	return Require(permission.Rule{Role: role})
}

// RequirePermission is shorthand for a capability-only rule
func RequirePermission(capability string) gin.HandlerFunc {
	return Require(permission.Rule{Capability: capability})
}

// CurrentUser returns the authenticated user or nil
func CurrentUser(c *gin.Context) *model.User {
	if v, ok := c.Get(currentUserKey); ok {
		if u, ok := v.(*model.User); ok {
			return u
		}
	}
	return nil
}

// UserFromContext returns the authenticated user stored by Authenticate
func UserFromContext(ctx context.Context) *model.User {
	u, _ := ctx.Value(ctxKey{}).(*model.User)
	return u
}

// extractToken tries the cookie first, then "Authorization: Bearer <token>"
func extractToken(c *gin.Context) (string, bool) {
	if token, err := c.Cookie(accessTokenCookie); err == nil && token != "" {
		return token, true
	}
	parts := strings.Fields(c.GetHeader("Authorization"))
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}
