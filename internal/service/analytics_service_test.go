package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caseflow/iep-compliance-api/internal/models"
	appErrors "github.com/caseflow/iep-compliance-api/pkg/errors"
)

func TestAnalyticsOverviewComputesFromCohort(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	cohort := []models.CaseRecord{
		{ID: "c1", OwnerID: "user-1", Status: models.CaseStatusActive, AnnualReviewDate: "2027-01-01", CreatedAt: now.Add(-24 * time.Hour)},
		{ID: "c2", OwnerID: "user-1", Status: models.CaseStatusDraft, AnnualReviewDate: "2027-01-01", CreatedAt: now.Add(-48 * time.Hour)},
	}
	svc := NewAnalyticsService(&fakeCohortProvider{records: cohort}, nil, nil, nil, AnalyticsServiceConfig{})
	svc.now = func() time.Time { return now }

	result, cacheHit, err := svc.Overview(context.Background(), "user-1", models.TimeRangeMonth)
	require.NoError(t, err)
	assert.False(t, cacheHit)
	assert.Equal(t, 2, result.Overview.TotalRecords)
	assert.Equal(t, models.TimeRangeMonth, result.TimeRange)
	assert.Len(t, result.Trends, DefaultTrendBuckets)
}

func TestAnalyticsOverviewPropagatesAccessErrors(t *testing.T) {
	svc := NewAnalyticsService(&fakeCohortProvider{err: appErrors.ErrUnauthorized}, nil, nil, nil, AnalyticsServiceConfig{})

	_, _, err := svc.Overview(context.Background(), "", models.TimeRangeMonth)
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestMakeAnalyticsCacheKey(t *testing.T) {
	key := makeAnalyticsCacheKey("overview", "user-1", "month")
	assert.Equal(t, "analytics:overview:user-1:month", key)

	// Colons in parts cannot collide with the separator.
	escaped := makeAnalyticsCacheKey("overview", "user:1", "month")
	assert.Equal(t, "analytics:overview:user|1:month", escaped)
}
