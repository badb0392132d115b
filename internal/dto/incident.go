package dto

import "github.com/noah-isme/incident-reporter/internal/models"

// CreateIncidentRequest is submitted by the worker form (multipart) or the JSON API.
type CreateIncidentRequest struct {
	WoltID         string   `form:"wolt_id" json:"wolt_id" validate:"required"`
	WoltDeliveryID string   `form:"wolt_delivery_id" json:"wolt_delivery_id" validate:"required"`
	Category       string   `form:"category" json:"category" validate:"required"`
	Amount         *float64 `form:"amount" json:"amount"`
	Description    string   `form:"description" json:"description"`
	ReportDate     string   `form:"report_date" json:"report_date" validate:"required"`
	WorkerName     string   `form:"worker_name" json:"worker_name" validate:"required"`
	// ScreenshotPath is only honoured on the JSON API; the worker form derives it from the upload.
	ScreenshotPath string `form:"-" json:"screenshot_path"`
}

// UpdateIncidentStatusRequest is the PATCH body for a status change.
type UpdateIncidentStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// IncidentFilterQuery captures list query parameters.
type IncidentFilterQuery struct {
	DateFrom string `form:"dateFrom"`
	DateTo   string `form:"dateTo"`
	Category string `form:"category"`
	Status   string `form:"status"`
}

// CreateIncidentResponse is returned after a successful insert.
type CreateIncidentResponse struct {
	ID             int64   `json:"id"`
	ScreenshotPath *string `json:"screenshot_path,omitempty"`
}

// UpdateIncidentStatusResponse reports the outcome of a status change.
type UpdateIncidentStatusResponse struct {
	ID           int64                 `json:"id"`
	Status       models.IncidentStatus `json:"status"`
	RowsAffected int64                 `json:"rows_affected"`
}
