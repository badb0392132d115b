package handler

import (
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
)

// PageHandler serves the static HTML views.
type PageHandler struct {
	viewsDir string
}

// NewPageHandler constructs the handler rooted at viewsDir.
func NewPageHandler(viewsDir string) *PageHandler {
	return &PageHandler{viewsDir: viewsDir}
}

// Root sends visitors to the worker form.
func (h *PageHandler) Root(c *gin.Context) {
	c.Redirect(http.StatusFound, "/worker")
}

// Login serves the shared login page for both roles.
func (h *PageHandler) Login(c *gin.Context) {
	h.serve(c, "login.html")
}

// WorkerForm serves the incident form.
func (h *PageHandler) WorkerForm(c *gin.Context) {
	h.serve(c, "worker-form.html")
}

// ManagerDashboard serves the dashboard.
func (h *PageHandler) ManagerDashboard(c *gin.Context) {
	h.serve(c, "manager-dashboard.html")
}

func (h *PageHandler) serve(c *gin.Context, name string) {
	c.Header("Cache-Control", "no-store")
	c.File(filepath.Join(h.viewsDir, name))
}
