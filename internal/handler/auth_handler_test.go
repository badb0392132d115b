package handler

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/incident-reporter/internal/dto"
	"github.com/noah-isme/incident-reporter/internal/middleware"
	"github.com/noah-isme/incident-reporter/internal/models"
	appErrors "github.com/noah-isme/incident-reporter/pkg/errors"
)

type authServiceStub struct {
	loginErr    error
	loginRole   models.Role
	loginReq    dto.LoginRequest
	current     *models.SessionState
	logoutState *models.SessionState
	logoutRole  string
	logoutCalls int
}

func (s *authServiceStub) Login(ctx context.Context, current *models.SessionState, role models.Role, req dto.LoginRequest) (*models.SessionState, error) {
	s.loginRole = role
	s.loginReq = req
	s.current = current
	if s.loginErr != nil {
		return nil, s.loginErr
	}
	state := &models.SessionState{ID: "sess-1"}
	state.SetAuthenticated(role, true)
	return state, nil
}

func (s *authServiceStub) Logout(ctx context.Context, state *models.SessionState, role string) error {
	s.logoutCalls++
	s.logoutState = state
	s.logoutRole = role
	return nil
}

func (s *authServiceStub) IssueToken(state *models.SessionState) (string, error) {
	return "token-" + state.ID, nil
}

func (s *authServiceStub) SessionTTL() time.Duration {
	return time.Hour
}

func TestAuthHandlerWorkerLoginJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &authServiceStub{}
	h := NewAuthHandler(svc, true)

	c, w := newGinContext(http.MethodPost, "/worker/login", []byte(`{"password":"alon"}`))
	h.WorkerLogin(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, models.RoleWorker, svc.loginRole)
	require.Equal(t, "alon", svc.loginReq.Password)
	env := decodeEnvelope(t, w)
	require.True(t, env.Success)

	cookie := w.Header().Get("Set-Cookie")
	require.Contains(t, cookie, middleware.SessionCookieName+"=token-sess-1")
	require.Contains(t, cookie, "HttpOnly")
	require.Contains(t, cookie, "Secure")
	require.Contains(t, cookie, "Max-Age=3600")
	require.Contains(t, cookie, "SameSite=Lax")
}

func TestAuthHandlerManagerLoginForm(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &authServiceStub{}
	h := NewAuthHandler(svc, false)

	form := url.Values{"password": {"levy"}}
	c, w := newGinContext(http.MethodPost, "/manager/login", []byte(form.Encode()))
	c.Request.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	existing := &models.SessionState{ID: "prev", WorkerAuthenticated: true}
	c.Set(middleware.ContextSessionKey, existing)

	h.ManagerLogin(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, models.RoleManager, svc.loginRole)
	require.Equal(t, "levy", svc.loginReq.Password)
	require.Same(t, existing, svc.current)
	require.NotContains(t, w.Header().Get("Set-Cookie"), "Secure")
}

func TestAuthHandlerLoginRejected(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &authServiceStub{loginErr: appErrors.Clone(appErrors.ErrInvalidCredentials, "Invalid password")}
	h := NewAuthHandler(svc, false)

	c, w := newGinContext(http.MethodPost, "/worker/login", []byte(`{"password":"nope"}`))
	h.WorkerLogin(c)

	require.Equal(t, http.StatusUnauthorized, w.Code)
	env := decodeEnvelope(t, w)
	require.False(t, env.Success)
	require.Equal(t, "Invalid password", env.Message)
	require.NotNil(t, env.Error)
	require.Empty(t, w.Header().Get("Set-Cookie"))
}

func TestAuthHandlerLoginMalformedJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &authServiceStub{}
	h := NewAuthHandler(svc, false)

	c, w := newGinContext(http.MethodPost, "/worker/login", []byte(`{"password":`))
	h.WorkerLogin(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Empty(t, svc.loginRole)
}

func TestAuthHandlerLogout(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &authServiceStub{}
	h := NewAuthHandler(svc, false)

	state := &models.SessionState{ID: "sess-1", WorkerAuthenticated: true, ManagerAuthenticated: true}
	c, w := newGinContext(http.MethodPost, "/api/logout", []byte(`{"type":"worker"}`))
	c.Set(middleware.ContextSessionKey, state)
	h.Logout(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.Same(t, state, svc.logoutState)
	require.Equal(t, "worker", svc.logoutRole)
	cookie := w.Header().Get("Set-Cookie")
	require.True(t, strings.HasPrefix(cookie, middleware.SessionCookieName+"=;"))
	require.Contains(t, cookie, "Max-Age=0")
}

func TestAuthHandlerLogoutWithoutBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &authServiceStub{}
	h := NewAuthHandler(svc, false)

	c, w := newGinContext(http.MethodPost, "/api/logout", nil)
	h.Logout(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 1, svc.logoutCalls)
	require.Nil(t, svc.logoutState)
	require.Empty(t, svc.logoutRole)
}
