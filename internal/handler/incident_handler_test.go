package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/incident-reporter/internal/dto"
	"github.com/noah-isme/incident-reporter/internal/models"
	"github.com/noah-isme/incident-reporter/internal/service"
	appErrors "github.com/noah-isme/incident-reporter/pkg/errors"
)

type incidentServiceStub struct {
	items       []models.Incident
	incident    *models.Incident
	err         error
	createID    int64
	createReq   dto.CreateIncidentRequest
	query       dto.IncidentFilterQuery
	updateID    int64
	updateReq   dto.UpdateIncidentStatusRequest
	updateCalls int
}

func (s *incidentServiceStub) Create(ctx context.Context, req dto.CreateIncidentRequest) (int64, error) {
	s.createReq = req
	return s.createID, s.err
}

func (s *incidentServiceStub) List(ctx context.Context, query dto.IncidentFilterQuery) ([]models.Incident, error) {
	s.query = query
	return s.items, s.err
}

func (s *incidentServiceStub) GetByID(ctx context.Context, id int64) (*models.Incident, error) {
	return s.incident, s.err
}

func (s *incidentServiceStub) UpdateStatus(ctx context.Context, id int64, req dto.UpdateIncidentStatusRequest) (int64, error) {
	s.updateCalls++
	s.updateID = id
	s.updateReq = req
	if s.err != nil {
		return 0, s.err
	}
	return 1, nil
}

type exporterStub struct {
	format string
	query  dto.IncidentFilterQuery
	file   *service.ExportFile
	err    error
}

func (s *exporterStub) Export(ctx context.Context, format string, query dto.IncidentFilterQuery) (*service.ExportFile, error) {
	s.format = format
	s.query = query
	return s.file, s.err
}

func TestIncidentHandlerListReturnsBareArray(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &incidentServiceStub{items: []models.Incident{{ID: 2, WoltID: "W2", Status: models.StatusPending}}}
	h := NewIncidentHandler(svc, nil)

	c, w := newGinContext(http.MethodGet, "/api/incidents?dateFrom=2024-01-01&category=late_delivery&status=all", nil)
	h.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, dto.IncidentFilterQuery{DateFrom: "2024-01-01", Category: "late_delivery", Status: "all"}, svc.query)
	var items []models.Incident
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &items))
	require.Len(t, items, 1)
	require.Equal(t, "W2", items[0].WoltID)
}

func TestIncidentHandlerListEmpty(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewIncidentHandler(&incidentServiceStub{items: []models.Incident{}}, nil)

	c, w := newGinContext(http.MethodGet, "/api/incidents", nil)
	h.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `[]`, w.Body.String())
}

func TestIncidentHandlerListValidationError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewIncidentHandler(&incidentServiceStub{err: appErrors.Clone(appErrors.ErrValidation, "Invalid status")}, nil)

	c, w := newGinContext(http.MethodGet, "/api/incidents?status=closed", nil)
	h.List(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "Invalid status", decodeEnvelope(t, w).Message)
}

func TestIncidentHandlerGet(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &incidentServiceStub{incident: &models.Incident{ID: 5, WoltID: "W5"}}
	h := NewIncidentHandler(svc, nil)

	c, w := newGinContext(http.MethodGet, "/api/incidents/5", nil)
	c.Params = gin.Params{{Key: "id", Value: "5"}}
	h.Get(c)

	require.Equal(t, http.StatusOK, w.Code)
	var incident models.Incident
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &incident))
	require.Equal(t, int64(5), incident.ID)
}

func TestIncidentHandlerGetInvalidID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewIncidentHandler(&incidentServiceStub{}, nil)

	c, w := newGinContext(http.MethodGet, "/api/incidents/abc", nil)
	c.Params = gin.Params{{Key: "id", Value: "abc"}}
	h.Get(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestIncidentHandlerGetNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewIncidentHandler(&incidentServiceStub{err: appErrors.Clone(appErrors.ErrNotFound, "Incident not found")}, nil)

	c, w := newGinContext(http.MethodGet, "/api/incidents/99", nil)
	c.Params = gin.Params{{Key: "id", Value: "99"}}
	h.Get(c)

	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, "Incident not found", decodeEnvelope(t, w).Message)
}

func TestIncidentHandlerUpdateStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &incidentServiceStub{}
	h := NewIncidentHandler(svc, nil)

	c, w := newGinContext(http.MethodPatch, "/api/incidents/4", []byte(`{"status":"resolved"}`))
	c.Params = gin.Params{{Key: "id", Value: "4"}}
	h.UpdateStatus(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, int64(4), svc.updateID)
	env := decodeEnvelope(t, w)
	require.True(t, env.Success)
	require.Equal(t, service.IncidentUpdatedMessage, env.Message)
	var data dto.UpdateIncidentStatusResponse
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.Equal(t, dto.UpdateIncidentStatusResponse{ID: 4, Status: models.StatusResolved, RowsAffected: 1}, data)
}

func TestIncidentHandlerUpdateStatusEmptyBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &incidentServiceStub{err: appErrors.Clone(appErrors.ErrValidation, "Status is required")}
	h := NewIncidentHandler(svc, nil)

	c, w := newGinContext(http.MethodPatch, "/api/incidents/4", nil)
	c.Params = gin.Params{{Key: "id", Value: "4"}}
	h.UpdateStatus(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, 1, svc.updateCalls)
	require.Empty(t, svc.updateReq.Status)
	require.Equal(t, "Status is required", decodeEnvelope(t, w).Message)
}

func TestIncidentHandlerCreateJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &incidentServiceStub{createID: 11}
	h := NewIncidentHandler(svc, nil)

	payload := []byte(`{"wolt_id":"W1","wolt_delivery_id":"D1","category":"remake_approved","amount":9.5,"report_date":"2024-01-15 10:30","worker_name":"Dana","screenshot_path":"/uploads/x.png"}`)
	c, w := newGinContext(http.MethodPost, "/api/incidents", payload)
	h.Create(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "/uploads/x.png", svc.createReq.ScreenshotPath)
	require.InDelta(t, 9.5, *svc.createReq.Amount, 0.0001)
	env := decodeEnvelope(t, w)
	var data dto.CreateIncidentResponse
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.Equal(t, int64(11), data.ID)
}

func TestIncidentHandlerExport(t *testing.T) {
	gin.SetMode(gin.TestMode)
	exporter := &exporterStub{file: &service.ExportFile{Filename: "incidents-20240117-090000.csv", ContentType: "text/csv; charset=utf-8", Content: []byte("id\n1\n"), Rows: 1}}
	h := NewIncidentHandler(&incidentServiceStub{}, exporter)

	c, w := newGinContext(http.MethodGet, "/api/incidents/export?format=csv&status=pending", nil)
	h.Export(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "csv", exporter.format)
	require.Equal(t, "pending", exporter.query.Status)
	require.Equal(t, `attachment; filename="incidents-20240117-090000.csv"`, w.Header().Get("Content-Disposition"))
	require.Equal(t, "id\n1\n", w.Body.String())
}

func TestIncidentHandlerExportUnsupportedFormat(t *testing.T) {
	gin.SetMode(gin.TestMode)
	exporter := &exporterStub{err: appErrors.Clone(appErrors.ErrValidation, "Unsupported export format")}
	h := NewIncidentHandler(&incidentServiceStub{}, exporter)

	c, w := newGinContext(http.MethodGet, "/api/incidents/export?format=xlsx", nil)
	h.Export(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
}
