package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/incident-reporter/internal/models"
	appErrors "github.com/noah-isme/incident-reporter/pkg/errors"
	"github.com/noah-isme/incident-reporter/pkg/response"
)

// RequireRole blocks requests whose session is not authenticated for role.
// API routes get a 401 JSON body; pages are redirected to the role's login page.
func RequireRole(role models.Role) gin.HandlerFunc {
	loginPath := "/" + string(role) + "/login"
	return func(c *gin.Context) {
		if SessionFromContext(c).Authenticated(role) {
			c.Next()
			return
		}
		if isAPIRequest(c) {
			response.Abort(c, appErrors.Clone(appErrors.ErrUnauthorized, "Authentication required"))
			return
		}
		c.Redirect(http.StatusFound, loginPath)
		c.Abort()
	}
}

func isAPIRequest(c *gin.Context) bool {
	return strings.HasPrefix(c.Request.URL.Path, "/api/")
}
