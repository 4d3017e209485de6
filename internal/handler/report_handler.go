package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/caseflow/iep-compliance-api/internal/dto"
	"github.com/caseflow/iep-compliance-api/internal/service"
	appErrors "github.com/caseflow/iep-compliance-api/pkg/errors"
	"github.com/caseflow/iep-compliance-api/pkg/response"
)

// ReportHandler exposes report snapshot endpoints.
type ReportHandler struct {
	reports *service.ReportService
	exports *service.ExportService
}

// NewReportHandler constructs the report handler.
func NewReportHandler(reports *service.ReportService, exports *service.ExportService) *ReportHandler {
	return &ReportHandler{reports: reports, exports: exports}
}

// Create godoc
// @Summary Request a new report snapshot
// @Tags Reports
// @Accept json
// @Produce json
// @Param payload body dto.CreateReportRequest true "Report parameters"
// @Success 202 {object} response.Envelope
// @Router /reports [post]
func (h *ReportHandler) Create(c *gin.Context) {
	if h.reports == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.CreateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid report payload"))
		return
	}
	snapshot, err := h.reports.Create(c.Request.Context(), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, dto.NewReportResponse(snapshot), nil)
}

// List godoc
// @Summary List the caller's report snapshots
// @Tags Reports
// @Produce json
// @Param limit query int false "Maximum rows"
// @Success 200 {object} response.Envelope
// @Router /reports [get]
func (h *ReportHandler) List(c *gin.Context) {
	if h.reports == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "limit must be a non-negative integer"))
			return
		}
		limit = parsed
	}
	snapshots, err := h.reports.List(c.Request.Context(), claims.UserID, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	items := make([]dto.ReportResponse, 0, len(snapshots))
	for i := range snapshots {
		items = append(items, dto.NewReportResponse(&snapshots[i]))
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Get godoc
// @Summary Fetch one report snapshot including its data
// @Tags Reports
// @Produce json
// @Param id path string true "Snapshot ID"
// @Success 200 {object} response.Envelope
// @Router /reports/{id} [get]
func (h *ReportHandler) Get(c *gin.Context) {
	if h.reports == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	snapshot, err := h.reports.Get(c.Request.Context(), c.Param("id"), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.NewReportDetailResponse(snapshot), nil)
}

// Export godoc
// @Summary Render a generated snapshot as CSV or PDF
// @Tags Reports
// @Produce json
// @Param id path string true "Snapshot ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {object} response.Envelope
// @Router /reports/{id}/export [post]
func (h *ReportHandler) Export(c *gin.Context) {
	if h.exports == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	format := service.ExportFormat(c.DefaultQuery("format", string(service.ExportFormatCSV)))
	result, err := h.exports.Export(c.Request.Context(), c.Param("id"), claims.UserID, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.ExportResponse{
		URL:       result.URL,
		Format:    string(result.Format),
		ExpiresAt: result.ExpiresAt,
	}, nil)
}

// Download godoc
// @Summary Download a rendered export via signed token
// @Tags Reports
// @Produce octet-stream
// @Param token path string true "Signed token"
// @Success 200 {file} binary
// @Router /export/{token} [get]
func (h *ReportHandler) Download(c *gin.Context) {
	if h.exports == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	token := c.Param("token")
	if strings.TrimSpace(token) == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}
	result, err := h.exports.ResolveDownload(c.Request.Context(), token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer result.File.Close() //nolint:errcheck
	info, err := result.File.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to stat export file"))
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", result.Filename))
	c.Header("Cache-Control", "no-store")
	c.DataFromReader(http.StatusOK, info.Size(), mimeForFilename(result.Filename), result.File, nil)
}

func mimeForFilename(filename string) string {
	switch {
	case strings.HasSuffix(filename, ".csv"):
		return "text/csv"
	case strings.HasSuffix(filename, ".pdf"):
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}
