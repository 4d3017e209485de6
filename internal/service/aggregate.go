package service

import (
	"math"
	"sort"
	"time"

	"github.com/caseflow/iep-compliance-api/internal/models"
)

// DefaultTrendBuckets is the number of sub-intervals the trend computation
// divides the window into.
const DefaultTrendBuckets = 6

const upcomingReviewWindow = 30 * 24 * time.Hour

// durationForRange maps a time-range label onto a trailing window length.
// Unrecognised labels fall back to a year.
func durationForRange(label string) time.Duration {
	switch label {
	case models.TimeRangeWeek:
		return 7 * 24 * time.Hour
	case models.TimeRangeMonth:
		return 30 * 24 * time.Hour
	case models.TimeRangeQuarter:
		return 90 * 24 * time.Hour
	default:
		return 365 * 24 * time.Hour
	}
}

// Aggregate computes the full analytics payload for a cohort over the window
// [now-range, now]. It is a pure function: the cohort slice is never mutated
// and no state survives the call.
func Aggregate(cohort []models.CaseRecord, rangeLabel string, now time.Time, trendBuckets int) models.AggregationResult {
	if trendBuckets <= 0 {
		trendBuckets = DefaultTrendBuckets
	}
	start := now.Add(-durationForRange(rangeLabel))

	windowed := make([]models.CaseRecord, 0, len(cohort))
	for _, record := range cohort {
		if !record.CreatedAt.Before(start) {
			windowed = append(windowed, record)
		}
	}

	return models.AggregationResult{
		Overview:               overviewMetrics(windowed),
		StatusDistribution:     distribution(windowed, func(r models.CaseRecord) []string { return []string{string(r.Status)} }),
		DisabilityDistribution: distribution(windowed, func(r models.CaseRecord) []string { return []string{r.Category} }),
		GradeDistribution:      distribution(windowed, func(r models.CaseRecord) []string { return []string{r.GradeLevel} }),
		ServiceDistribution:    distribution(windowed, serviceTypes),
		Compliance:             complianceSummary(windowed, now),
		Trends:                 trendBucketsFor(windowed, start, now, trendBuckets),
		TimeRange:              rangeLabel,
		GeneratedAt:            now.UTC(),
	}
}

// serviceTypes flattens every service instance on the record. Duplicate types
// within one record count once each; nothing is deduplicated across records.
func serviceTypes(r models.CaseRecord) []string {
	types := make([]string, 0, len(r.Services))
	for _, svc := range r.Services {
		types = append(types, svc.Type)
	}
	return types
}

// distribution counts keys across the cohort and attaches percentages against
// the total number of records. Empty cohorts yield an empty (non-nil) slice.
func distribution(cohort []models.CaseRecord, keysOf func(models.CaseRecord) []string) []models.DistributionEntry {
	counts := make(map[string]int)
	for _, record := range cohort {
		for _, key := range keysOf(record) {
			counts[key]++
		}
	}
	total := len(cohort)
	entries := make([]models.DistributionEntry, 0, len(counts))
	for key, count := range counts {
		entries = append(entries, models.DistributionEntry{
			Key:        key,
			Count:      count,
			Percentage: roundedPercent(count, total),
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].Key < entries[j].Key
	})
	return entries
}

func overviewMetrics(cohort []models.CaseRecord) models.OverviewMetrics {
	m := models.OverviewMetrics{TotalRecords: len(cohort)}
	for _, record := range cohort {
		m.TotalGoals += len(record.Goals)
		for _, goal := range record.Goals {
			switch {
			case goal.Progress >= 100:
				m.CompletedGoals++
			case goal.Progress > 0:
				m.InProgressGoals++
			}
		}
	}
	m.GoalCompletionRate = roundedPercent(m.CompletedGoals, m.TotalGoals)
	return m
}

func complianceSummary(cohort []models.CaseRecord, now time.Time) models.ComplianceSummary {
	summary := models.ComplianceSummary{}
	upcomingCutoff := now.Add(upcomingReviewWindow)
	for _, record := range cohort {
		reviewDate, err := record.ReviewDate()
		if err != nil {
			continue
		}
		if !reviewDate.Before(now) && !reviewDate.After(upcomingCutoff) {
			summary.UpcomingReviews++
		}
		if reviewDate.Before(now) && record.Status == models.CaseStatusActive {
			summary.OverdueReviews++
		}
	}
	total := len(cohort)
	if total == 0 {
		summary.ComplianceRate = 100
	} else {
		summary.ComplianceRate = roundedPercent(total-summary.OverdueReviews, total)
	}
	return summary
}

// trendBucketsFor splits [start, now] into n equal half-open intervals,
// oldest first, and counts record creations per interval. A record created
// exactly at now lands in the final bucket.
func trendBucketsFor(cohort []models.CaseRecord, start, now time.Time, n int) []models.TrendBucket {
	buckets := make([]models.TrendBucket, n)
	span := now.Sub(start)
	for i := range buckets {
		bucketStart := start.Add(span * time.Duration(i) / time.Duration(n))
		buckets[i] = models.TrendBucket{
			Period:      i + 1,
			PeriodStart: bucketStart.UTC().Format("2006-01-02"),
		}
	}
	if span <= 0 {
		return buckets
	}
	for _, record := range cohort {
		t := record.CreatedAt
		if t.Before(start) || t.After(now) {
			continue
		}
		idx := int(int64(t.Sub(start)) * int64(n) / int64(span))
		if idx >= n {
			idx = n - 1
		}
		buckets[idx].Created++
		if record.Status == models.CaseStatusActive {
			buckets[idx].Active++
		}
	}
	return buckets
}

// roundedPercent is round(count/total*100), 0 when the denominator is 0.
func roundedPercent(count, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(count) / float64(total) * 100))
}
