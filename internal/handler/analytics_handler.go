package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/caseflow/iep-compliance-api/internal/middleware"
	"github.com/caseflow/iep-compliance-api/internal/models"
	"github.com/caseflow/iep-compliance-api/internal/service"
	appErrors "github.com/caseflow/iep-compliance-api/pkg/errors"
	"github.com/caseflow/iep-compliance-api/pkg/response"
)

// AnalyticsHandler exposes dashboard-ready analytics endpoints.
type AnalyticsHandler struct {
	analytics *service.AnalyticsService
}

// NewAnalyticsHandler constructs the analytics handler.
func NewAnalyticsHandler(analytics *service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics}
}

// Overview returns the caller's aggregated caseload metrics.
func (h *AnalyticsHandler) Overview(c *gin.Context) {
	if h.analytics == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	rangeLabel := c.DefaultQuery("range", models.TimeRangeMonth)
	if c.Query("refresh") == "true" {
		if err := h.analytics.InvalidateOverview(c.Request.Context(), claims.UserID); err != nil {
			response.Error(c, err)
			return
		}
	}
	start := time.Now()
	result, cacheHit, err := h.analytics.Overview(c.Request.Context(), claims.UserID, rangeLabel)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	middleware.SetMetaValue(c, "range", rangeLabel)
	meta := middleware.ExtractMeta(c)
	if meta == nil {
		meta = make(map[string]interface{})
	}
	meta["processing_time_ms"] = time.Since(start).Milliseconds()
	response.JSON(c, http.StatusOK, result, nil, meta)
}
