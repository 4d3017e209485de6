package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/caseflow/iep-compliance-api/internal/models"
	appErrors "github.com/caseflow/iep-compliance-api/pkg/errors"
)

type observationReader interface {
	RecentGoalIDs(ctx context.Context, caseID string, since time.Time) (map[string]struct{}, error)
}

type alertSink interface {
	Append(ctx context.Context, n *models.Notification) error
	HasAlertWithKey(ctx context.Context, recipientID, key string) (bool, error)
}

// ComplianceConfig tunes scanner windows and idempotency.
type ComplianceConfig struct {
	DueSoonWindow   time.Duration
	UpcomingWindow  time.Duration
	StaleGoalWindow time.Duration
	// DedupEnabled suppresses alerts whose dedup key already exists for the
	// recipient. Off by default: repeated manual scans then append duplicate
	// alerts, matching the historical behaviour of the host application.
	DedupEnabled bool
	// ScanTimeout bounds a full scan. Zero disables the bound.
	ScanTimeout time.Duration
}

// ScanSummary reports the outcome of one scanner invocation.
type ScanSummary struct {
	RecordsScanned int       `json:"records_scanned"`
	AlertsCreated  int       `json:"alerts_created"`
	AlertsSkipped  int       `json:"alerts_skipped"`
	RecordsFailed  int       `json:"records_failed"`
	ScannedAt      time.Time `json:"scanned_at"`
}

// ComplianceService evaluates deadline and staleness rules per record and
// writes alerts for the invoking actor.
type ComplianceService struct {
	accessor     cohortProvider
	observations observationReader
	sink         alertSink
	metrics      *MetricsService
	logger       *zap.Logger
	now          func() time.Time
	cfg          ComplianceConfig
}

// NewComplianceService constructs the scanner.
func NewComplianceService(accessor cohortProvider, observations observationReader, sink alertSink, metrics *MetricsService, logger *zap.Logger, cfg ComplianceConfig) *ComplianceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DueSoonWindow <= 0 {
		cfg.DueSoonWindow = 7 * 24 * time.Hour
	}
	if cfg.UpcomingWindow <= 0 {
		cfg.UpcomingWindow = 30 * 24 * time.Hour
	}
	if cfg.StaleGoalWindow <= 0 {
		cfg.StaleGoalWindow = 30 * 24 * time.Hour
	}
	return &ComplianceService{
		accessor:     accessor,
		observations: observations,
		sink:         sink,
		metrics:      metrics,
		logger:       logger,
		now:          time.Now,
		cfg:          cfg,
	}
}

// Scan evaluates every accessible record for the actor. Records are evaluated
// independently: one record's failure never aborts the rest, and a timeout
// only loses alerts for the record in flight.
func (s *ComplianceService) Scan(ctx context.Context, actorID string) (*ScanSummary, error) {
	if actorID == "" {
		return nil, appErrors.ErrUnauthorized
	}
	if s.cfg.ScanTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.ScanTimeout)
		defer cancel()
	}
	cohort, err := s.accessor.Cohort(ctx, actorID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	summary := &ScanSummary{ScannedAt: now}
	for i := range cohort {
		if err := ctx.Err(); err != nil {
			return summary, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "scan aborted")
		}
		record := &cohort[i]
		summary.RecordsScanned++
		if err := s.scanRecord(ctx, record, actorID, now, summary); err != nil {
			summary.RecordsFailed++
			s.logger.Warn("record scan failed",
				zap.String("case_id", record.ID),
				zap.Error(err))
		}
	}
	if s.metrics != nil {
		s.metrics.ObserveScan(summary.RecordsScanned, summary.AlertsCreated)
	}
	return summary, nil
}

func (s *ComplianceService) scanRecord(ctx context.Context, record *models.CaseRecord, actorID string, now time.Time, summary *ScanSummary) error {
	var firstErr error

	reviewDate, err := record.ReviewDate()
	if err != nil {
		// Deadline rules need the date; staleness checks below do not.
		firstErr = err
	} else {
		alert := s.deadlineAlert(record, reviewDate, now)
		if alert != nil {
			if err := s.emit(ctx, actorID, alert, summary); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}

	if err := s.scanGoals(ctx, record, actorID, now, summary); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// deadlineAlert applies the mutually exclusive review-deadline rules. At most
// one alert is produced per record per scan.
func (s *ComplianceService) deadlineAlert(record *models.CaseRecord, reviewDate, now time.Time) *models.Notification {
	dueSoonCutoff := now.Add(s.cfg.DueSoonWindow)
	upcomingCutoff := now.Add(s.cfg.UpcomingWindow)

	switch {
	case reviewDate.Before(now) && record.Status == models.CaseStatusActive:
		return s.buildAlert(record, models.NotificationTypeComplianceAlert, models.NotificationPriorityHigh,
			"Compliance alert",
			fmt.Sprintf("%s is overdue for annual review", record.StudentName),
			deadlineDedupKey(record.ID, "overdue", record.AnnualReviewDate))
	case !reviewDate.Before(now) && !reviewDate.After(dueSoonCutoff):
		return s.buildAlert(record, models.NotificationTypeIEPDue, models.NotificationPriorityHigh,
			"Annual review due",
			fmt.Sprintf("Annual review for %s is due within 7 days", record.StudentName),
			deadlineDedupKey(record.ID, "due_soon", record.AnnualReviewDate))
	case reviewDate.After(dueSoonCutoff) && !reviewDate.After(upcomingCutoff):
		return s.buildAlert(record, models.NotificationTypeIEPDue, models.NotificationPriorityMedium,
			"Annual review upcoming",
			fmt.Sprintf("Annual review for %s is due within 30 days", record.StudentName),
			deadlineDedupKey(record.ID, "upcoming", record.AnnualReviewDate))
	default:
		return nil
	}
}

// scanGoals flags every goal without a progress observation in the trailing
// staleness window. Independent of the deadline rules; can fire for each
// stale goal in the same pass.
func (s *ComplianceService) scanGoals(ctx context.Context, record *models.CaseRecord, actorID string, now time.Time, summary *ScanSummary) error {
	if len(record.Goals) == 0 {
		return nil
	}
	recent, err := s.observations.RecentGoalIDs(ctx, record.ID, now.Add(-s.cfg.StaleGoalWindow))
	if err != nil {
		return fmt.Errorf("load recent observations: %w", err)
	}
	var firstErr error
	for _, goal := range record.Goals {
		if _, ok := recent[goal.ID]; ok {
			continue
		}
		alert := s.buildAlert(record, models.NotificationTypeGoalUpdate, models.NotificationPriorityMedium,
			"Goal progress stale",
			fmt.Sprintf("No recent progress recorded for %s goal on %s", goal.Area, record.StudentName),
			staleDedupKey(record.ID, goal.ID, now))
		if err := s.emit(ctx, actorID, alert, summary); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (s *ComplianceService) buildAlert(record *models.CaseRecord, typ models.NotificationType, priority models.NotificationPriority, title, message, dedupKey string) *models.Notification {
	related := record.ID
	action := fmt.Sprintf("/cases/%s", record.ID)
	return &models.Notification{
		Type:      typ,
		Title:     title,
		Message:   message,
		Priority:  priority,
		RelatedID: &related,
		ActionURL: &action,
		DedupKey:  &dedupKey,
	}
}

// emit writes one alert addressed to the invoking actor. With dedup enabled,
// an existing alert for the same key suppresses the append.
func (s *ComplianceService) emit(ctx context.Context, actorID string, alert *models.Notification, summary *ScanSummary) error {
	alert.RecipientID = actorID
	if s.cfg.DedupEnabled && alert.DedupKey != nil {
		exists, err := s.sink.HasAlertWithKey(ctx, actorID, *alert.DedupKey)
		if err != nil {
			return fmt.Errorf("check alert dedup: %w", err)
		}
		if exists {
			summary.AlertsSkipped++
			return nil
		}
	}
	if err := s.sink.Append(ctx, alert); err != nil {
		return fmt.Errorf("append alert: %w", err)
	}
	summary.AlertsCreated++
	if s.metrics != nil {
		s.metrics.CountAlert(string(alert.Type))
	}
	return nil
}

// deadlineDedupKey buckets review-deadline alerts by the review date itself,
// so a rescheduled review can alert again.
func deadlineDedupKey(caseID, kind, reviewDate string) string {
	return fmt.Sprintf("%s||%s|%s", caseID, kind, reviewDate)
}

// staleDedupKey buckets staleness alerts by scan day.
func staleDedupKey(caseID, goalID string, now time.Time) string {
	return fmt.Sprintf("%s|%s|stale|%s", caseID, goalID, now.Format("2006-01-02"))
}
