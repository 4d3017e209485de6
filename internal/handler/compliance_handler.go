package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/caseflow/iep-compliance-api/internal/dto"
	"github.com/caseflow/iep-compliance-api/internal/service"
	appErrors "github.com/caseflow/iep-compliance-api/pkg/errors"
	"github.com/caseflow/iep-compliance-api/pkg/response"
)

// ComplianceHandler triggers caseload-wide compliance scans.
type ComplianceHandler struct {
	compliance *service.ComplianceService
}

// NewComplianceHandler constructs the compliance handler.
func NewComplianceHandler(compliance *service.ComplianceService) *ComplianceHandler {
	return &ComplianceHandler{compliance: compliance}
}

// Scan evaluates every accessible case record and reports alert totals.
func (h *ComplianceHandler) Scan(c *gin.Context) {
	if h.compliance == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	summary, err := h.compliance.Scan(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.ScanSummaryResponse{
		RecordsScanned: summary.RecordsScanned,
		AlertsCreated:  summary.AlertsCreated,
		AlertsSkipped:  summary.AlertsSkipped,
		RecordsFailed:  summary.RecordsFailed,
		ScannedAt:      summary.ScannedAt,
	}, nil)
}
