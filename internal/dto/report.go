package dto

import (
	"time"

	"github.com/caseflow/iep-compliance-api/internal/models"
)

// CreateReportRequest captures POST /reports payload.
type CreateReportRequest struct {
	ReportType string                 `json:"reportType" validate:"required,oneof=summary compliance progress detailed"`
	TimeRange  string                 `json:"timeRange" validate:"required,oneof=week month quarter year"`
	Filters    models.SnapshotFilters `json:"filters,omitempty"`
}

// ReportResponse exposes snapshot metadata without the aggregated payload.
type ReportResponse struct {
	ID          string                 `json:"id"`
	ReportType  models.ReportType      `json:"reportType"`
	TimeRange   string                 `json:"timeRange"`
	Status      models.SnapshotStatus  `json:"status"`
	Filters     models.SnapshotFilters `json:"filters,omitempty"`
	Error       *string                `json:"error,omitempty"`
	CreatedAt   time.Time              `json:"createdAt"`
	GeneratedAt *time.Time             `json:"generatedAt,omitempty"`
}

// ReportDetailResponse includes the aggregated snapshot data once generated.
type ReportDetailResponse struct {
	ReportResponse
	Data models.SnapshotData `json:"data,omitempty"`
}

// ExportResponse is returned after rendering a snapshot export.
type ExportResponse struct {
	URL       string    `json:"url"`
	Format    string    `json:"format"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// NewReportResponse maps a snapshot onto its API shape.
func NewReportResponse(s *models.ReportSnapshot) ReportResponse {
	return ReportResponse{
		ID:          s.ID,
		ReportType:  s.ReportType,
		TimeRange:   s.TimeRange,
		Status:      s.Status,
		Filters:     s.Filters,
		Error:       s.ErrorMessage,
		CreatedAt:   s.CreatedAt,
		GeneratedAt: s.GeneratedAt,
	}
}

// NewReportDetailResponse maps a snapshot including its data payload.
func NewReportDetailResponse(s *models.ReportSnapshot) ReportDetailResponse {
	return ReportDetailResponse{
		ReportResponse: NewReportResponse(s),
		Data:           s.Data,
	}
}
