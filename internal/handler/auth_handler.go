package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/incident-reporter/internal/dto"
	"github.com/noah-isme/incident-reporter/internal/middleware"
	"github.com/noah-isme/incident-reporter/internal/models"
	appErrors "github.com/noah-isme/incident-reporter/pkg/errors"
	"github.com/noah-isme/incident-reporter/pkg/response"
)

type authService interface {
	Login(ctx context.Context, current *models.SessionState, role models.Role, req dto.LoginRequest) (*models.SessionState, error)
	Logout(ctx context.Context, state *models.SessionState, role string) error
	IssueToken(state *models.SessionState) (string, error)
	SessionTTL() time.Duration
}

// AuthHandler wires the login and logout endpoints to the auth service.
type AuthHandler struct {
	service      authService
	secureCookie bool
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(svc authService, secureCookie bool) *AuthHandler {
	return &AuthHandler{service: svc, secureCookie: secureCookie}
}

// WorkerLogin godoc
// @Summary Worker login
// @Description Authenticate with the shared worker password
// @Tags Authentication
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Param payload body dto.LoginRequest true "Login payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /worker/login [post]
func (h *AuthHandler) WorkerLogin(c *gin.Context) {
	h.login(c, models.RoleWorker)
}

// ManagerLogin godoc
// @Summary Manager login
// @Description Authenticate with the shared manager password
// @Tags Authentication
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Param payload body dto.LoginRequest true "Login payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /manager/login [post]
func (h *AuthHandler) ManagerLogin(c *gin.Context) {
	h.login(c, models.RoleManager)
}

func (h *AuthHandler) login(c *gin.Context, role models.Role) {
	var req dto.LoginRequest
	if err := c.ShouldBind(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid login payload"))
		return
	}

	state, err := h.service.Login(c.Request.Context(), middleware.SessionFromContext(c), role, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	token, err := h.service.IssueToken(state)
	if err != nil {
		response.Error(c, appErrors.Internal(err, "failed to issue session"))
		return
	}

	middleware.SetSessionCookie(c, token, h.service.SessionTTL(), h.secureCookie)
	response.OK(c, nil)
}

// Logout godoc
// @Summary Logout
// @Description Clears the named role and destroys the session
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body dto.LogoutRequest false "Logout payload"
// @Success 200 {object} response.Envelope
// @Router /api/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	var req dto.LogoutRequest
	// A missing or malformed body still logs out.
	_ = c.ShouldBind(&req)

	if err := h.service.Logout(c.Request.Context(), middleware.SessionFromContext(c), req.Type); err != nil {
		response.Error(c, err)
		return
	}
	middleware.ClearSessionCookie(c, h.secureCookie)
	response.OK(c, nil)
}
