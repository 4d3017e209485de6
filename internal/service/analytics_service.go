package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/caseflow/iep-compliance-api/internal/models"
)

type cohortProvider interface {
	Cohort(ctx context.Context, actorID string) ([]models.CaseRecord, error)
}

// AnalyticsServiceConfig tunes aggregation behaviour.
type AnalyticsServiceConfig struct {
	CacheTTL     time.Duration
	TrendBuckets int
}

// AnalyticsService computes time-windowed aggregation results over the
// actor's accessible cohort, with cache integration.
type AnalyticsService struct {
	accessor cohortProvider
	cache    *CacheService
	metrics  *MetricsService
	logger   *zap.Logger
	now      func() time.Time
	cfg      AnalyticsServiceConfig
}

// NewAnalyticsService constructs an analytics service.
func NewAnalyticsService(accessor cohortProvider, cache *CacheService, metrics *MetricsService, logger *zap.Logger, cfg AnalyticsServiceConfig) *AnalyticsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.TrendBuckets <= 0 {
		cfg.TrendBuckets = DefaultTrendBuckets
	}
	return &AnalyticsService{
		accessor: accessor,
		cache:    cache,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
		cfg:      cfg,
	}
}

// Overview returns the combined aggregation payload for the actor and range.
// The boolean indicates whether the result originated from cache.
func (s *AnalyticsService) Overview(ctx context.Context, actorID, rangeLabel string) (*models.AggregationResult, bool, error) {
	cacheKey := makeAnalyticsCacheKey("overview", actorID, rangeLabel)
	var cached models.AggregationResult
	if s.cache != nil {
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err != nil {
			return nil, false, fmt.Errorf("get overview cache: %w", err)
		} else if hit {
			return &cached, true, nil
		}
	}

	start := time.Now()
	cohort, err := s.accessor.Cohort(ctx, actorID)
	if err != nil {
		return nil, false, err
	}
	if s.metrics != nil {
		s.metrics.ObserveDBQuery("analytics_cohort", time.Since(start))
	}

	result := Aggregate(cohort, rangeLabel, s.now().UTC(), s.cfg.TrendBuckets)

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, result, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("cache overview", zap.Error(err))
		}
	}
	return &result, false, nil
}

// InvalidateOverview drops every cached overview aggregation held for the
// actor, across all time ranges.
func (s *AnalyticsService) InvalidateOverview(ctx context.Context, actorID string) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Invalidate(ctx, makeAnalyticsCacheKey("overview", actorID)+":*")
}

func makeAnalyticsCacheKey(parts ...string) string {
	var builder strings.Builder
	builder.Grow(len(parts) * 16)
	builder.WriteString("analytics")
	for _, part := range parts {
		if part == "" {
			continue
		}
		builder.WriteByte(':')
		builder.WriteString(strings.ReplaceAll(part, ":", "|"))
	}
	return builder.String()
}
