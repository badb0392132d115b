package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/incident-reporter/internal/dto"
	"github.com/noah-isme/incident-reporter/internal/models"
	"github.com/noah-isme/incident-reporter/internal/service"
	appErrors "github.com/noah-isme/incident-reporter/pkg/errors"
	"github.com/noah-isme/incident-reporter/pkg/response"
)

type incidentService interface {
	Create(ctx context.Context, req dto.CreateIncidentRequest) (int64, error)
	List(ctx context.Context, query dto.IncidentFilterQuery) ([]models.Incident, error)
	GetByID(ctx context.Context, id int64) (*models.Incident, error)
	UpdateStatus(ctx context.Context, id int64, req dto.UpdateIncidentStatusRequest) (int64, error)
}

type incidentExporter interface {
	Export(ctx context.Context, format string, query dto.IncidentFilterQuery) (*service.ExportFile, error)
}

// IncidentHandler exposes the incident JSON API used by the manager dashboard.
type IncidentHandler struct {
	service  incidentService
	exporter incidentExporter
}

// NewIncidentHandler constructs the handler.
func NewIncidentHandler(svc incidentService, exporter incidentExporter) *IncidentHandler {
	return &IncidentHandler{service: svc, exporter: exporter}
}

// List godoc
// @Summary List incidents
// @Description Newest first, optionally filtered
// @Tags Incidents
// @Produce json
// @Param dateFrom query string false "Inclusive lower bound (YYYY-MM-DD)"
// @Param dateTo query string false "Inclusive upper bound (YYYY-MM-DD)"
// @Param category query string false "Category or all"
// @Param status query string false "Status or all"
// @Success 200 {array} models.Incident
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /api/incidents [get]
func (h *IncidentHandler) List(c *gin.Context) {
	var query dto.IncidentFilterQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return
	}
	incidents, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Raw(c, http.StatusOK, incidents)
}

// Get godoc
// @Summary Get incident
// @Tags Incidents
// @Produce json
// @Param id path int true "Incident ID"
// @Success 200 {object} models.Incident
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /api/incidents/{id} [get]
func (h *IncidentHandler) Get(c *gin.Context) {
	id, err := incidentID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	incident, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Raw(c, http.StatusOK, incident)
}

// UpdateStatus godoc
// @Summary Update incident status
// @Tags Incidents
// @Accept json
// @Produce json
// @Param id path int true "Incident ID"
// @Param payload body dto.UpdateIncidentStatusRequest true "New status"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /api/incidents/{id} [patch]
func (h *IncidentHandler) UpdateStatus(c *gin.Context) {
	id, err := incidentID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.UpdateIncidentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid status payload"))
		return
	}

	affected, err := h.service.UpdateStatus(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.UpdateIncidentStatusResponse{
		ID:           id,
		Status:       models.IncidentStatus(strings.TrimSpace(req.Status)),
		RowsAffected: affected,
	}, service.IncidentUpdatedMessage)
}

// Create godoc
// @Summary Create incident (JSON)
// @Tags Incidents
// @Accept json
// @Produce json
// @Param payload body dto.CreateIncidentRequest true "Incident payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /api/incidents [post]
func (h *IncidentHandler) Create(c *gin.Context) {
	var req dto.CreateIncidentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid incident payload"))
		return
	}
	id, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.CreateIncidentResponse{ID: id}, service.IncidentCreatedMessage)
}

// Export godoc
// @Summary Export incidents
// @Description Download the filtered incident list as CSV or PDF
// @Tags Incidents
// @Produce text/csv,application/pdf
// @Param format query string false "csv or pdf"
// @Param dateFrom query string false "Inclusive lower bound (YYYY-MM-DD)"
// @Param dateTo query string false "Inclusive upper bound (YYYY-MM-DD)"
// @Param category query string false "Category or all"
// @Param status query string false "Status or all"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /api/incidents/export [get]
func (h *IncidentHandler) Export(c *gin.Context) {
	if h.exporter == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "export not configured"))
		return
	}
	var query dto.IncidentFilterQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return
	}
	file, err := h.exporter.Export(c.Request.Context(), c.Query("format"), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", file.Filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, file.ContentType, file.Content)
}

func incidentID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "Invalid incident id")
	}
	return id, nil
}
