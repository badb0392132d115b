package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/incident-reporter/internal/dto"
	"github.com/noah-isme/incident-reporter/internal/models"
	appErrors "github.com/noah-isme/incident-reporter/pkg/errors"
	"github.com/noah-isme/incident-reporter/pkg/export"
)

// Export formats accepted by ExportService.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

var exportHeaders = []string{
	"id", "wolt_id", "wolt_delivery_id", "category", "amount", "status",
	"report_date", "worker_name", "description", "screenshot_path", "created_at", "updated_at",
}

type incidentLister interface {
	List(ctx context.Context, query dto.IncidentFilterQuery) ([]models.Incident, error)
}

type datasetRenderer interface {
	ContentType() string
	Extension() string
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportFile is a rendered export ready to be sent as an attachment.
type ExportFile struct {
	Filename    string
	ContentType string
	Content     []byte
	Rows        int
}

// ExportService renders the filtered incident list as CSV or PDF.
type ExportService struct {
	incidents incidentLister
	renderers map[string]datasetRenderer
	logger    *zap.Logger
	now       func() time.Time
}

// NewExportService constructs the service with the CSV and PDF renderers.
func NewExportService(incidents incidentLister, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		incidents: incidents,
		renderers: map[string]datasetRenderer{
			ExportFormatCSV: export.NewCSVExporter(true),
			ExportFormatPDF: export.NewPDFExporter(),
		},
		logger: logger,
		now:    time.Now,
	}
}

// Export lists incidents with the same filters as the dashboard and renders them.
func (s *ExportService) Export(ctx context.Context, format string, query dto.IncidentFilterQuery) (*ExportFile, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = ExportFormatCSV
	}
	renderer, ok := s.renderers[format]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Unsupported export format")
	}

	incidents, err := s.incidents.List(ctx, query)
	if err != nil {
		return nil, err
	}

	dataset := buildIncidentDataset(incidents)
	content, err := renderer.Render(dataset, "Incident report")
	if err != nil {
		s.logger.Error("failed to render export", zap.String("format", format), zap.Error(err))
		return nil, appErrors.Internal(err, "Failed to export incidents")
	}

	return &ExportFile{
		Filename:    fmt.Sprintf("incidents-%s%s", s.now().UTC().Format("20060102-150405"), renderer.Extension()),
		ContentType: renderer.ContentType(),
		Content:     content,
		Rows:        len(incidents),
	}, nil
}

func buildIncidentDataset(incidents []models.Incident) export.Dataset {
	rows := make([]map[string]string, 0, len(incidents))
	for _, incident := range incidents {
		rows = append(rows, map[string]string{
			"id":               strconv.FormatInt(incident.ID, 10),
			"wolt_id":          incident.WoltID,
			"wolt_delivery_id": deref(incident.WoltDeliveryID),
			"category":         string(incident.Category),
			"amount":           formatAmount(incident.Amount),
			"status":           string(incident.Status),
			"report_date":      incident.ReportDate,
			"worker_name":      incident.WorkerName,
			"description":      deref(incident.Description),
			"screenshot_path":  deref(incident.ScreenshotPath),
			"created_at":       incident.CreatedAt,
			"updated_at":       incident.UpdatedAt,
		})
	}
	return export.Dataset{Headers: exportHeaders, Rows: rows}
}

func formatAmount(amount *float64) string {
	if amount == nil {
		return ""
	}
	return strconv.FormatFloat(*amount, 'f', 2, 64)
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
