package service

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/incident-reporter/internal/dto"
	"github.com/noah-isme/incident-reporter/internal/models"
	appErrors "github.com/noah-isme/incident-reporter/pkg/errors"
)

// Messages returned alongside successful writes.
const (
	IncidentCreatedMessage = "Incident reported successfully"
	IncidentUpdatedMessage = "Incident updated successfully"
)

const (
	msgMissingFields  = "Missing required fields"
	msgAmountRequired = "Amount is required for this category"
	msgNotFound       = "Incident not found"
	filterAll         = "all"
	filterDateLayout  = "2006-01-02"
)

type incidentStore interface {
	Create(ctx context.Context, incident *models.Incident) error
	GetByID(ctx context.Context, id int64) (*models.Incident, error)
	List(ctx context.Context, filter models.IncidentFilter) ([]models.Incident, error)
	UpdateStatus(ctx context.Context, id int64, status models.IncidentStatus, updatedAt string) (int64, error)
}

type incidentUploader interface {
	Accept(ctx context.Context, upload *FileUpload) (*PendingUpload, error)
}

type incidentMetrics interface {
	RecordIncidentCreated(category models.IncidentCategory)
	RecordStatusUpdate(status models.IncidentStatus)
}

// IncidentService validates incident submissions and serves the manager queries.
type IncidentService struct {
	repo      incidentStore
	uploads   incidentUploader
	metrics   incidentMetrics
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewIncidentService constructs the service.
func NewIncidentService(repo incidentStore, uploads incidentUploader, metrics incidentMetrics, validate *validator.Validate, logger *zap.Logger) *IncidentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &IncidentService{
		repo:      repo,
		uploads:   uploads,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		now:       time.Now,
	}
}

// Create validates and stores a new pending incident, returning its id.
func (s *IncidentService) Create(ctx context.Context, req dto.CreateIncidentRequest) (int64, error) {
	incident, err := s.buildIncident(req)
	if err != nil {
		return 0, err
	}
	if err := s.repo.Create(ctx, incident); err != nil {
		s.logger.Error("failed to create incident", zap.Error(err), zap.String("wolt_id", incident.WoltID))
		return 0, appErrors.Internal(err, "Error submitting incident. Please try again.")
	}
	if s.metrics != nil {
		s.metrics.RecordIncidentCreated(incident.Category)
	}
	s.logger.Info("incident created",
		zap.Int64("id", incident.ID),
		zap.String("category", string(incident.Category)),
		zap.Bool("screenshot", incident.ScreenshotPath != nil),
	)
	return incident.ID, nil
}

// Submit is the worker path: the optional screenshot is stored first and
// removed again unless the incident row is written.
func (s *IncidentService) Submit(ctx context.Context, req dto.CreateIncidentRequest, upload *FileUpload) (int64, *UploadResult, error) {
	req.ScreenshotPath = ""
	var pending *PendingUpload
	if s.uploads != nil {
		var err error
		pending, err = s.uploads.Accept(ctx, upload)
		if err != nil {
			return 0, nil, err
		}
	}
	defer pending.Release()

	if pending != nil {
		req.ScreenshotPath = pending.Result.RelativePath
	}
	id, err := s.Create(ctx, req)
	if err != nil {
		return 0, nil, err
	}
	pending.Commit()
	return id, pending.ResultPtr(), nil
}

// List returns incidents matching the query, newest first.
func (s *IncidentService) List(ctx context.Context, query dto.IncidentFilterQuery) ([]models.Incident, error) {
	filter, err := ParseIncidentFilter(query)
	if err != nil {
		return nil, err
	}
	incidents, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list incidents", zap.Error(err))
		return nil, appErrors.Internal(err, "Failed to fetch incidents")
	}
	if incidents == nil {
		incidents = []models.Incident{}
	}
	return incidents, nil
}

// GetByID returns one incident.
func (s *IncidentService) GetByID(ctx context.Context, id int64) (*models.Incident, error) {
	incident, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, msgNotFound)
		}
		s.logger.Error("failed to fetch incident", zap.Error(err), zap.Int64("id", id))
		return nil, appErrors.Internal(err, "Failed to fetch incident")
	}
	return incident, nil
}

// UpdateStatus moves an incident to a canonical status and returns the rows affected.
// The status is checked before the id is looked up.
func (s *IncidentService) UpdateStatus(ctx context.Context, id int64, req dto.UpdateIncidentStatusRequest) (int64, error) {
	raw := strings.TrimSpace(req.Status)
	if raw == "" {
		return 0, appErrors.Clone(appErrors.ErrValidation, "Status is required")
	}
	status := models.IncidentStatus(raw)
	if !status.Valid() {
		return 0, appErrors.Clone(appErrors.ErrValidation, "Invalid status")
	}

	affected, err := s.repo.UpdateStatus(ctx, id, status, s.timestamp())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, appErrors.Clone(appErrors.ErrNotFound, msgNotFound)
		}
		s.logger.Error("failed to update incident", zap.Error(err), zap.Int64("id", id))
		return 0, appErrors.Internal(err, "Failed to update incident")
	}
	if s.metrics != nil {
		s.metrics.RecordStatusUpdate(status)
	}
	s.logger.Info("incident status updated", zap.Int64("id", id), zap.String("status", string(status)))
	return affected, nil
}

// ParseIncidentFilter validates list query parameters. Empty or "all" values do not filter.
func ParseIncidentFilter(query dto.IncidentFilterQuery) (models.IncidentFilter, error) {
	var filter models.IncidentFilter

	for _, bound := range []struct {
		raw  string
		dest *string
		name string
	}{
		{query.DateFrom, &filter.DateFrom, "dateFrom"},
		{query.DateTo, &filter.DateTo, "dateTo"},
	} {
		value := strings.TrimSpace(bound.raw)
		if value == "" {
			continue
		}
		if _, err := time.Parse(filterDateLayout, value); err != nil {
			return models.IncidentFilter{}, appErrors.Clone(appErrors.ErrValidation, "Invalid "+bound.name+", expected YYYY-MM-DD")
		}
		*bound.dest = value
	}

	if category := strings.TrimSpace(query.Category); category != "" && category != filterAll {
		filter.Category = models.IncidentCategory(category)
		if !filter.Category.Valid() {
			return models.IncidentFilter{}, appErrors.Clone(appErrors.ErrValidation, "Invalid category")
		}
	}
	if status := strings.TrimSpace(query.Status); status != "" && status != filterAll {
		filter.Status = models.IncidentStatus(status)
		if !filter.Status.Valid() && !filter.Status.IsLegacy() {
			return models.IncidentFilter{}, appErrors.Clone(appErrors.ErrValidation, "Invalid status")
		}
	}
	return filter, nil
}

func (s *IncidentService) buildIncident(req dto.CreateIncidentRequest) (*models.Incident, error) {
	req.WoltID = strings.TrimSpace(req.WoltID)
	req.WoltDeliveryID = strings.TrimSpace(req.WoltDeliveryID)
	req.Category = strings.TrimSpace(req.Category)
	req.ReportDate = strings.TrimSpace(req.ReportDate)
	req.WorkerName = strings.TrimSpace(req.WorkerName)

	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, msgMissingFields)
	}

	category := models.IncidentCategory(req.Category)
	if !category.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Invalid category")
	}

	var amount *float64
	if category.IsMonetary() {
		if req.Amount == nil || !(*req.Amount > 0) || math.IsInf(*req.Amount, 1) {
			return nil, appErrors.Clone(appErrors.ErrValidation, msgAmountRequired)
		}
		value := *req.Amount
		amount = &value
	}

	now := s.timestamp()
	deliveryID := req.WoltDeliveryID
	return &models.Incident{
		WoltID:         req.WoltID,
		WoltDeliveryID: &deliveryID,
		Category:       category,
		Amount:         amount,
		Description:    optionalString(req.Description),
		ScreenshotPath: optionalString(req.ScreenshotPath),
		ReportDate:     req.ReportDate,
		WorkerName:     req.WorkerName,
		Status:         models.StatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

func (s *IncidentService) timestamp() string {
	return s.now().UTC().Format(models.TimestampLayout)
}

func optionalString(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
