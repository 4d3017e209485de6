package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/caseflow/iep-compliance-api/internal/models"
	"github.com/caseflow/iep-compliance-api/internal/service"
)

type cohortStub struct {
	records []models.CaseRecord
	err     error
}

func (s *cohortStub) Cohort(_ context.Context, actorID string) ([]models.CaseRecord, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []models.CaseRecord
	for _, r := range s.records {
		if r.AccessibleBy(actorID) {
			out = append(out, r)
		}
	}
	return out, nil
}

func TestAnalyticsHandlerOverview(t *testing.T) {
	gin.SetMode(gin.TestMode)
	accessor := &cohortStub{records: []models.CaseRecord{
		{
			ID:               "c1",
			Status:           models.CaseStatusActive,
			Category:         "SLD",
			GradeLevel:       "5",
			AnnualReviewDate: time.Now().Add(90 * 24 * time.Hour).Format(models.ReviewDateLayout),
			OwnerID:          "user-1",
			CreatedAt:        time.Now().Add(-24 * time.Hour),
		},
	}}
	svc := service.NewAnalyticsService(accessor, nil, nil, nil, service.AnalyticsServiceConfig{})
	handler := NewAnalyticsHandler(svc)

	c, w := newGinContext(http.MethodGet, "/analytics/overview?range=month", nil)
	authAs(c, "user-1")

	handler.Overview(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data models.AggregationResult `json:"data"`
		Meta map[string]interface{}   `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Equal(t, 1, envelope.Data.Overview.TotalRecords)
	require.Equal(t, "month", envelope.Data.TimeRange)
	require.Contains(t, envelope.Meta, "processing_time_ms")
}

func TestAnalyticsHandlerOverviewRequiresAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := service.NewAnalyticsService(&cohortStub{}, nil, nil, nil, service.AnalyticsServiceConfig{})
	handler := NewAnalyticsHandler(svc)

	c, w := newGinContext(http.MethodGet, "/analytics/overview", nil)
	handler.Overview(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}
