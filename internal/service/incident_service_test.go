package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/incident-reporter/internal/dto"
	"github.com/noah-isme/incident-reporter/internal/models"
	appErrors "github.com/noah-isme/incident-reporter/pkg/errors"
)

type incidentRepoStub struct {
	items       map[int64]*models.Incident
	nextID      int64
	createErr   error
	lastFilter  models.IncidentFilter
	updateCalls int
}

func newIncidentRepoStub() *incidentRepoStub {
	return &incidentRepoStub{items: make(map[int64]*models.Incident)}
}

func (r *incidentRepoStub) Create(ctx context.Context, incident *models.Incident) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.nextID++
	incident.ID = r.nextID
	copy := *incident
	r.items[incident.ID] = &copy
	return nil
}

func (r *incidentRepoStub) GetByID(ctx context.Context, id int64) (*models.Incident, error) {
	item, ok := r.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copy := *item
	return &copy, nil
}

func (r *incidentRepoStub) List(ctx context.Context, filter models.IncidentFilter) ([]models.Incident, error) {
	r.lastFilter = filter
	var result []models.Incident
	for _, item := range r.items {
		if filter.Status != "" && item.Status != filter.Status {
			continue
		}
		if filter.Category != "" && item.Category != filter.Category {
			continue
		}
		result = append(result, *item)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID > result[j].ID })
	return result, nil
}

func (r *incidentRepoStub) UpdateStatus(ctx context.Context, id int64, status models.IncidentStatus, updatedAt string) (int64, error) {
	r.updateCalls++
	item, ok := r.items[id]
	if !ok {
		return 0, sql.ErrNoRows
	}
	item.Status = status
	item.UpdatedAt = updatedAt
	return 1, nil
}

type incidentMetricsStub struct {
	created []models.IncidentCategory
	updated []models.IncidentStatus
}

func (m *incidentMetricsStub) RecordIncidentCreated(category models.IncidentCategory) {
	m.created = append(m.created, category)
}

func (m *incidentMetricsStub) RecordStatusUpdate(status models.IncidentStatus) {
	m.updated = append(m.updated, status)
}

func floatPtr(v float64) *float64 { return &v }

func validIncidentRequest() dto.CreateIncidentRequest {
	return dto.CreateIncidentRequest{
		WoltID:         "W1",
		WoltDeliveryID: "D1",
		Category:       "late_delivery",
		ReportDate:     "2024-01-15 10:30",
		WorkerName:     "Dana",
	}
}

func newIncidentServiceForTest(t *testing.T) (*IncidentService, *incidentRepoStub, string, *incidentMetricsStub) {
	t.Helper()
	repo := newIncidentRepoStub()
	uploads, store, _ := newUploadServiceForTest(t, UploadServiceConfig{})
	metrics := &incidentMetricsStub{}
	svc := NewIncidentService(repo, uploads, metrics, nil, nil)
	clock := time.Date(2024, 1, 15, 8, 30, 0, 0, time.UTC)
	svc.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return svc, repo, store.Dir(), metrics
}

func requireAppError(t *testing.T, err error, status int, message string) {
	t.Helper()
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.Equal(t, status, appErr.Status)
	if message != "" {
		require.Equal(t, message, appErr.Message)
	}
}

func TestIncidentServiceCreateNonMonetary(t *testing.T) {
	svc, repo, _, metrics := newIncidentServiceForTest(t)
	req := validIncidentRequest()
	req.Amount = floatPtr(40)
	req.Description = "  "

	id, err := svc.Create(context.Background(), req)
	require.NoError(t, err)

	stored := repo.items[id]
	require.Nil(t, stored.Amount)
	require.Nil(t, stored.Description)
	require.Nil(t, stored.ScreenshotPath)
	require.Equal(t, models.StatusPending, stored.Status)
	require.Equal(t, "D1", *stored.WoltDeliveryID)
	require.Equal(t, "2024-01-15 10:30", stored.ReportDate)
	require.Equal(t, "2024-01-15 08:30:01.000", stored.CreatedAt)
	require.Equal(t, stored.CreatedAt, stored.UpdatedAt)
	require.Equal(t, []models.IncidentCategory{models.CategoryLateDelivery}, metrics.created)
}

func TestIncidentServiceCreateMonetary(t *testing.T) {
	svc, repo, _, _ := newIncidentServiceForTest(t)

	for _, category := range []string{"remake_approved", "refund_promised"} {
		req := validIncidentRequest()
		req.Category = category
		req.Amount = floatPtr(25.5)
		id, err := svc.Create(context.Background(), req)
		require.NoError(t, err)
		require.Equal(t, 25.5, *repo.items[id].Amount)

		for _, bad := range []*float64{nil, floatPtr(0), floatPtr(-3)} {
			req.Amount = bad
			_, err := svc.Create(context.Background(), req)
			requireAppError(t, err, http.StatusBadRequest, "Amount is required for this category")
		}
	}
	require.Len(t, repo.items, 2)
}

func TestIncidentServiceCreateMissingFields(t *testing.T) {
	svc, repo, _, _ := newIncidentServiceForTest(t)
	mutators := []func(*dto.CreateIncidentRequest){
		func(r *dto.CreateIncidentRequest) { r.WoltID = "" },
		func(r *dto.CreateIncidentRequest) { r.WoltDeliveryID = "   " },
		func(r *dto.CreateIncidentRequest) { r.Category = "" },
		func(r *dto.CreateIncidentRequest) { r.ReportDate = "" },
		func(r *dto.CreateIncidentRequest) { r.WorkerName = "" },
	}
	for _, mutate := range mutators {
		req := validIncidentRequest()
		mutate(&req)
		_, err := svc.Create(context.Background(), req)
		requireAppError(t, err, http.StatusBadRequest, "Missing required fields")
	}
	require.Empty(t, repo.items)
}

func TestIncidentServiceCreateUnknownCategory(t *testing.T) {
	svc, _, _, _ := newIncidentServiceForTest(t)
	req := validIncidentRequest()
	req.Category = "stolen_bike"
	_, err := svc.Create(context.Background(), req)
	requireAppError(t, err, http.StatusBadRequest, "Invalid category")
}

func TestIncidentServiceCreateStorageFailure(t *testing.T) {
	svc, repo, _, metrics := newIncidentServiceForTest(t)
	repo.createErr = errors.New("database is locked")

	_, err := svc.Create(context.Background(), validIncidentRequest())
	requireAppError(t, err, http.StatusInternalServerError, "")
	require.NotContains(t, appErrors.FromError(err).Message, "locked")
	require.Empty(t, metrics.created)
}

func TestIncidentServiceSubmitKeepsCommittedUpload(t *testing.T) {
	svc, repo, uploadDir, _ := newIncidentServiceForTest(t)
	req := validIncidentRequest()
	req.ScreenshotPath = "/uploads/forged.png"

	id, result, err := svc.Submit(context.Background(), req, &FileUpload{
		Filename: "proof.png",
		Size:     int64(len(pngHeader)),
		MimeType: "image/png",
		Content:  bytes.NewReader(pngHeader),
	})
	require.NoError(t, err)
	require.NotNil(t, result)
	require.Equal(t, result.RelativePath, *repo.items[id].ScreenshotPath)
	require.Equal(t, 1, dirEntries(t, uploadDir))
}

func TestIncidentServiceSubmitWithoutFile(t *testing.T) {
	svc, repo, _, _ := newIncidentServiceForTest(t)
	id, result, err := svc.Submit(context.Background(), validIncidentRequest(), nil)
	require.NoError(t, err)
	require.Nil(t, result)
	require.Nil(t, repo.items[id].ScreenshotPath)
	require.Nil(t, repo.items[id].Amount)
	require.Equal(t, models.StatusPending, repo.items[id].Status)
}

func TestIncidentServiceSubmitCleansUpOnFailure(t *testing.T) {
	upload := func() *FileUpload {
		return &FileUpload{
			Filename: "proof.png",
			Size:     int64(len(pngHeader)),
			MimeType: "image/png",
			Content:  bytes.NewReader(pngHeader),
		}
	}

	t.Run("validation", func(t *testing.T) {
		svc, repo, uploadDir, _ := newIncidentServiceForTest(t)
		req := validIncidentRequest()
		req.WorkerName = ""
		_, _, err := svc.Submit(context.Background(), req, upload())
		requireAppError(t, err, http.StatusBadRequest, "Missing required fields")
		require.Empty(t, repo.items)
		require.Equal(t, 0, dirEntries(t, uploadDir))
	})

	t.Run("storage", func(t *testing.T) {
		svc, repo, uploadDir, _ := newIncidentServiceForTest(t)
		repo.createErr = errors.New("disk I/O error")
		_, _, err := svc.Submit(context.Background(), validIncidentRequest(), upload())
		requireAppError(t, err, http.StatusInternalServerError, "")
		require.Equal(t, 0, dirEntries(t, uploadDir))
	})

	t.Run("rejected upload", func(t *testing.T) {
		svc, repo, uploadDir, _ := newIncidentServiceForTest(t)
		_, _, err := svc.Submit(context.Background(), validIncidentRequest(), &FileUpload{
			Filename: "run.sh",
			Size:     9,
			MimeType: "application/x-sh",
			Content:  bytes.NewReader([]byte("#!/bin/sh")),
		})
		require.ErrorIs(t, err, appErrors.ErrUploadRejected)
		require.Empty(t, repo.items)
		entries, readErr := os.ReadDir(uploadDir)
		require.NoError(t, readErr)
		require.Empty(t, entries)
	})
}

func TestIncidentServiceUpdateStatus(t *testing.T) {
	svc, repo, _, metrics := newIncidentServiceForTest(t)
	id, err := svc.Create(context.Background(), validIncidentRequest())
	require.NoError(t, err)
	createdAt := repo.items[id].UpdatedAt

	affected, err := svc.UpdateStatus(context.Background(), id, dto.UpdateIncidentStatusRequest{Status: "resolved"})
	require.NoError(t, err)
	require.Equal(t, int64(1), affected)
	require.Equal(t, models.StatusResolved, repo.items[id].Status)
	require.Greater(t, repo.items[id].UpdatedAt, createdAt)
	require.Equal(t, []models.IncidentStatus{models.StatusResolved}, metrics.updated)

	_, err = svc.UpdateStatus(context.Background(), 404, dto.UpdateIncidentStatusRequest{Status: "pending"})
	requireAppError(t, err, http.StatusNotFound, "Incident not found")
}

func TestIncidentServiceUpdateStatusRejectsInvalidBeforeLookup(t *testing.T) {
	svc, repo, _, _ := newIncidentServiceForTest(t)
	id, err := svc.Create(context.Background(), validIncidentRequest())
	require.NoError(t, err)

	for _, target := range []int64{id, 999} {
		for _, status := range []string{"bogus", "dealt_with", "escalation", "RESOLVED"} {
			_, err := svc.UpdateStatus(context.Background(), target, dto.UpdateIncidentStatusRequest{Status: status})
			requireAppError(t, err, http.StatusBadRequest, "Invalid status")
		}
	}
	_, err = svc.UpdateStatus(context.Background(), id, dto.UpdateIncidentStatusRequest{})
	requireAppError(t, err, http.StatusBadRequest, "Status is required")
	require.Zero(t, repo.updateCalls)
	require.Equal(t, models.StatusPending, repo.items[id].Status)
}

func TestIncidentServiceGetByID(t *testing.T) {
	svc, _, _, _ := newIncidentServiceForTest(t)
	id, err := svc.Create(context.Background(), validIncidentRequest())
	require.NoError(t, err)

	found, err := svc.GetByID(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, "W1", found.WoltID)

	_, err = svc.GetByID(context.Background(), id+100)
	require.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestIncidentServiceList(t *testing.T) {
	svc, repo, _, _ := newIncidentServiceForTest(t)

	items, err := svc.List(context.Background(), dto.IncidentFilterQuery{Category: "all", Status: "all"})
	require.NoError(t, err)
	require.NotNil(t, items)
	require.Empty(t, items)
	require.Equal(t, models.IncidentFilter{}, repo.lastFilter)

	_, err = svc.List(context.Background(), dto.IncidentFilterQuery{
		DateFrom: "2024-01-01", DateTo: "2024-01-31", Category: "other", Status: "dealt_with",
	})
	require.NoError(t, err)
	require.Equal(t, models.IncidentFilter{
		DateFrom: "2024-01-01",
		DateTo:   "2024-01-31",
		Category: models.CategoryOther,
		Status:   models.StatusLegacyDealtWith,
	}, repo.lastFilter)
}

func TestParseIncidentFilterRejectsMalformedInput(t *testing.T) {
	cases := []dto.IncidentFilterQuery{
		{DateFrom: "15/01/2024"},
		{DateTo: "2024-13-01"},
		{Category: "stolen_bike"},
		{Status: "closed"},
	}
	for _, query := range cases {
		_, err := ParseIncidentFilter(query)
		require.ErrorIs(t, err, appErrors.ErrValidation, "%+v", query)
	}
}
