package models

// IncidentCategory is the closed set of problems a worker can report.
type IncidentCategory string

const (
	CategoryLateDelivery   IncidentCategory = "late_delivery"
	CategoryMissingItems   IncidentCategory = "missing_items"
	CategoryRemakeApproved IncidentCategory = "remake_approved"
	CategoryRefundPromised IncidentCategory = "refund_promised"
	CategoryOther          IncidentCategory = "other"
)

// IncidentCategories lists every category in display order.
var IncidentCategories = []IncidentCategory{
	CategoryLateDelivery,
	CategoryMissingItems,
	CategoryRemakeApproved,
	CategoryRefundPromised,
	CategoryOther,
}

// Valid reports whether c is a known category.
func (c IncidentCategory) Valid() bool {
	for _, known := range IncidentCategories {
		if c == known {
			return true
		}
	}
	return false
}

// IsMonetary is true for categories that carry a positive amount.
func (c IncidentCategory) IsMonetary() bool {
	return c == CategoryRemakeApproved || c == CategoryRefundPromised
}

// IncidentStatus is the review state of an incident.
type IncidentStatus string

const (
	StatusPending  IncidentStatus = "pending"
	StatusResolved IncidentStatus = "resolved"

	// Legacy values may still be stored on old rows. They are displayed as-is
	// but can never be set through an update.
	StatusLegacyDealtWith  IncidentStatus = "dealt_with"
	StatusLegacyEscalation IncidentStatus = "escalation"
)

// IncidentStatuses lists the canonical, settable statuses.
var IncidentStatuses = []IncidentStatus{StatusPending, StatusResolved}

// Valid reports whether s is a canonical status.
func (s IncidentStatus) Valid() bool {
	return s == StatusPending || s == StatusResolved
}

// IsLegacy reports whether s is a display-only legacy value.
func (s IncidentStatus) IsLegacy() bool {
	return s == StatusLegacyDealtWith || s == StatusLegacyEscalation
}

// Incident is one row of the incidents table.
type Incident struct {
	ID             int64            `db:"id" json:"id"`
	WoltID         string           `db:"wolt_id" json:"wolt_id"`
	WoltDeliveryID *string          `db:"wolt_delivery_id" json:"wolt_delivery_id"`
	Category       IncidentCategory `db:"category" json:"category"`
	Amount         *float64         `db:"amount" json:"amount"`
	Description    *string          `db:"description" json:"description"`
	ScreenshotPath *string          `db:"screenshot_path" json:"screenshot_path"`
	ReportDate     string           `db:"report_date" json:"report_date"`
	WorkerName     string           `db:"worker_name" json:"worker_name"`
	Status         IncidentStatus   `db:"status" json:"status"`
	CreatedAt      string           `db:"created_at" json:"created_at"`
	UpdatedAt      string           `db:"updated_at" json:"updated_at"`
}

// IncidentFilter narrows listing queries. Empty fields do not filter.
// DateFrom and DateTo are inclusive YYYY-MM-DD bounds on the date part of report_date.
type IncidentFilter struct {
	DateFrom string
	DateTo   string
	Category IncidentCategory
	Status   IncidentStatus
}

// TimestampLayout is how created_at and updated_at are stored. It sorts lexicographically.
const TimestampLayout = "2006-01-02 15:04:05.000"
