package models

import "time"

// TimeRange labels map onto trailing windows ending at now.
const (
	TimeRangeWeek    = "week"
	TimeRangeMonth   = "month"
	TimeRangeQuarter = "quarter"
	TimeRangeYear    = "year"
)

// DistributionEntry is one slice of a categorical distribution.
type DistributionEntry struct {
	Key        string `json:"key"`
	Count      int    `json:"count"`
	Percentage int    `json:"percentage"`
}

// OverviewMetrics summarises cohort size and goal progress.
type OverviewMetrics struct {
	TotalRecords       int `json:"total_records"`
	TotalGoals         int `json:"total_goals"`
	CompletedGoals     int `json:"completed_goals"`
	InProgressGoals    int `json:"in_progress_goals"`
	GoalCompletionRate int `json:"goal_completion_rate"`
}

// ComplianceSummary reports review-deadline posture for the cohort.
type ComplianceSummary struct {
	UpcomingReviews int `json:"upcoming_reviews"`
	OverdueReviews  int `json:"overdue_reviews"`
	ComplianceRate  int `json:"compliance_rate"`
}

// TrendBucket counts record creations in one sub-interval of the window.
type TrendBucket struct {
	Period      int    `json:"period"`
	PeriodStart string `json:"period_start"`
	Created     int    `json:"created"`
	Active      int    `json:"active"`
}

// AggregationResult is the combined analytics payload exposed to callers and
// stored verbatim in report snapshots.
type AggregationResult struct {
	Overview               OverviewMetrics     `json:"overview"`
	StatusDistribution     []DistributionEntry `json:"statusDistribution"`
	DisabilityDistribution []DistributionEntry `json:"disabilityDistribution"`
	GradeDistribution      []DistributionEntry `json:"gradeDistribution"`
	ServiceDistribution    []DistributionEntry `json:"serviceDistribution"`
	Compliance             ComplianceSummary   `json:"compliance"`
	Trends                 []TrendBucket       `json:"trends"`
	TimeRange              string              `json:"timeRange"`
	GeneratedAt            time.Time           `json:"generatedAt"`
}
