package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/incident-reporter/internal/models"
	appErrors "github.com/noah-isme/incident-reporter/pkg/errors"
)

const (
	// SessionCookieName holds the signed session token.
	SessionCookieName = "incident_session"
	// ContextSessionKey is the gin context key storing the loaded *models.SessionState.
	ContextSessionKey = "session"
)

// SessionResolver turns a cookie value into session state.
type SessionResolver interface {
	ResolveSession(ctx context.Context, token string) (*models.SessionState, error)
}

// Session loads the caller's session, if any, into the request context.
// Missing or invalid cookies leave the request unauthenticated.
func Session(resolver SessionResolver, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		token, err := c.Cookie(SessionCookieName)
		if err != nil || token == "" {
			c.Next()
			return
		}

		state, err := resolver.ResolveSession(c.Request.Context(), token)
		if err != nil {
			if !errors.Is(err, appErrors.ErrSessionNotFound) {
				logger.Warn("failed to resolve session", zap.Error(err))
			}
			c.Next()
			return
		}

		c.Set(ContextSessionKey, state)
		c.Next()
	}
}

// SessionFromContext returns the session loaded by Session, or nil.
func SessionFromContext(c *gin.Context) *models.SessionState {
	value, exists := c.Get(ContextSessionKey)
	if !exists {
		return nil
	}
	state, ok := value.(*models.SessionState)
	if !ok {
		return nil
	}
	return state
}

// SetSessionCookie writes the session token cookie.
func SetSessionCookie(c *gin.Context, token string, ttl time.Duration, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookieName, token, int(ttl.Seconds()), "/", "", secure, true)
}

// ClearSessionCookie expires the session token cookie.
func ClearSessionCookie(c *gin.Context, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookieName, "", -1, "/", "", secure, true)
}
