package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/incident-reporter/internal/models"
)

const incidentColumns = `id, wolt_id, wolt_delivery_id, category, amount, description, screenshot_path,
       report_date, worker_name, status, created_at, updated_at`

// IncidentRepository persists incidents in the single incidents table.
// Queries are written with ? placeholders and rebound for the active driver.
type IncidentRepository struct {
	db *sqlx.DB
}

// NewIncidentRepository constructs the repository.
func NewIncidentRepository(db *sqlx.DB) *IncidentRepository {
	return &IncidentRepository{db: db}
}

// Create inserts the incident and stores the generated id on it.
func (r *IncidentRepository) Create(ctx context.Context, incident *models.Incident) error {
	query := r.db.Rebind(`INSERT INTO incidents
	(wolt_id, wolt_delivery_id, category, amount, description, screenshot_path, report_date, worker_name, status, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`)
	row := r.db.QueryRowxContext(ctx, query,
		incident.WoltID,
		incident.WoltDeliveryID,
		incident.Category,
		incident.Amount,
		incident.Description,
		incident.ScreenshotPath,
		incident.ReportDate,
		incident.WorkerName,
		incident.Status,
		incident.CreatedAt,
		incident.UpdatedAt,
	)
	if err := row.Scan(&incident.ID); err != nil {
		return fmt.Errorf("create incident: %w", err)
	}
	return nil
}

// GetByID retrieves one incident. Missing rows surface as sql.ErrNoRows.
func (r *IncidentRepository) GetByID(ctx context.Context, id int64) (*models.Incident, error) {
	query := r.db.Rebind(`SELECT ` + incidentColumns + ` FROM incidents WHERE id = ?`)
	var incident models.Incident
	if err := r.db.GetContext(ctx, &incident, query, id); err != nil {
		return nil, err
	}
	return &incident, nil
}

// List returns incidents matching filter, most recent first.
func (r *IncidentRepository) List(ctx context.Context, filter models.IncidentFilter) ([]models.Incident, error) {
	builder := strings.Builder{}
	builder.WriteString(`SELECT ` + incidentColumns + ` FROM incidents`)
	args := make([]interface{}, 0, 4)
	conditions := make([]string, 0, 4)

	if filter.DateFrom != "" {
		args = append(args, filter.DateFrom)
		conditions = append(conditions, "SUBSTR(report_date, 1, 10) >= ?")
	}
	if filter.DateTo != "" {
		args = append(args, filter.DateTo)
		conditions = append(conditions, "SUBSTR(report_date, 1, 10) <= ?")
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		conditions = append(conditions, "category = ?")
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, "status = ?")
	}

	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	builder.WriteString(" ORDER BY created_at DESC, id DESC")

	incidents := make([]models.Incident, 0)
	if err := r.db.SelectContext(ctx, &incidents, r.db.Rebind(builder.String()), args...); err != nil {
		return nil, fmt.Errorf("list incidents: %w", err)
	}
	return incidents, nil
}

// UpdateStatus changes status and updated_at and returns the rows affected.
// A missing id yields sql.ErrNoRows.
func (r *IncidentRepository) UpdateStatus(ctx context.Context, id int64, status models.IncidentStatus, updatedAt string) (int64, error) {
	query := r.db.Rebind(`UPDATE incidents SET status = ?, updated_at = ? WHERE id = ?`)
	res, err := r.db.ExecContext(ctx, query, status, updatedAt, id)
	if err != nil {
		return 0, fmt.Errorf("update incident status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("check incident update rows: %w", err)
	}
	if affected == 0 {
		return 0, sql.ErrNoRows
	}
	return affected, nil
}

// Count returns the number of stored incidents.
func (r *IncidentRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM incidents`); err != nil {
		return 0, fmt.Errorf("count incidents: %w", err)
	}
	return total, nil
}
