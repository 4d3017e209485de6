package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ReportType enumerates supported snapshot categories.
type ReportType string

const (
	ReportTypeSummary    ReportType = "summary"
	ReportTypeCompliance ReportType = "compliance"
	ReportTypeProgress   ReportType = "progress"
	ReportTypeDetailed   ReportType = "detailed"
)

// SnapshotStatus captures the snapshot generation lifecycle.
type SnapshotStatus string

const (
	SnapshotStatusGenerating SnapshotStatus = "generating"
	SnapshotStatusGenerated  SnapshotStatus = "generated"
	SnapshotStatusFailed     SnapshotStatus = "failed"
)

// SnapshotFilters are caller-supplied constraints persisted with the
// snapshot. They are stored verbatim and not applied to the aggregation.
type SnapshotFilters struct {
	Category   *string `json:"category,omitempty"`
	Status     *string `json:"status,omitempty"`
	GradeLevel *string `json:"grade_level,omitempty"`
}

// Value marshals filters to JSON for persistence.
func (f SnapshotFilters) Value() (driver.Value, error) {
	data, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot filters: %w", err)
	}
	return data, nil
}

// Scan unmarshals JSON payloads into the filters struct.
func (f *SnapshotFilters) Scan(value interface{}) error {
	if value == nil {
		*f = SnapshotFilters{}
		return nil
	}
	return scanJSON(value, f, "SnapshotFilters")
}

// SnapshotData holds the aggregation result verbatim as JSONB.
type SnapshotData []byte

// Value passes the stored payload through.
func (d SnapshotData) Value() (driver.Value, error) {
	if len(d) == 0 {
		return []byte("null"), nil
	}
	return []byte(d), nil
}

// Scan copies the raw JSONB payload.
func (d *SnapshotData) Scan(value interface{}) error {
	if value == nil {
		*d = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		*d = append(SnapshotData(nil), v...)
	case string:
		*d = SnapshotData(v)
	default:
		return fmt.Errorf("unsupported type %T for SnapshotData", value)
	}
	return nil
}

// MarshalJSON emits the stored payload without re-encoding.
func (d SnapshotData) MarshalJSON() ([]byte, error) {
	if len(d) == 0 {
		return []byte("null"), nil
	}
	return d, nil
}

// UnmarshalJSON stores the raw payload.
func (d *SnapshotData) UnmarshalJSON(data []byte) error {
	*d = append(SnapshotData(nil), data...)
	return nil
}

// ReportSnapshot is an immutable point-in-time copy of an aggregation result.
// Once a snapshot reaches a terminal status it is never updated or deleted.
type ReportSnapshot struct {
	ID           string          `db:"id" json:"id"`
	OwnerID      string          `db:"owner_id" json:"owner_id"`
	ReportType   ReportType      `db:"report_type" json:"report_type"`
	TimeRange    string          `db:"time_range" json:"time_range"`
	Filters      SnapshotFilters `db:"filters" json:"filters"`
	Data         SnapshotData    `db:"data" json:"data,omitempty"`
	Status       SnapshotStatus  `db:"status" json:"status"`
	ErrorMessage *string         `db:"error_message" json:"error_message,omitempty"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	GeneratedAt  *time.Time      `db:"generated_at" json:"generated_at,omitempty"`
}
