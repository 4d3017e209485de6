package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caseflow/iep-compliance-api/internal/models"
	appErrors "github.com/caseflow/iep-compliance-api/pkg/errors"
)

var scanNow = time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC)

type fakeCohortProvider struct {
	records []models.CaseRecord
	err     error
}

func (f *fakeCohortProvider) Cohort(context.Context, string) ([]models.CaseRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.records, nil
}

type fakeObservations struct {
	recent map[string]map[string]struct{}
	errFor map[string]error
}

func (f *fakeObservations) RecentGoalIDs(_ context.Context, caseID string, _ time.Time) (map[string]struct{}, error) {
	if err, ok := f.errFor[caseID]; ok {
		return nil, err
	}
	if set, ok := f.recent[caseID]; ok {
		return set, nil
	}
	return map[string]struct{}{}, nil
}

type fakeSink struct {
	appended  []models.Notification
	existing  map[string]bool
	appendErr error
}

func (f *fakeSink) Append(_ context.Context, n *models.Notification) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.appended = append(f.appended, *n)
	return nil
}

func (f *fakeSink) HasAlertWithKey(_ context.Context, _ string, key string) (bool, error) {
	return f.existing[key], nil
}

func newScanner(cohort *fakeCohortProvider, obs *fakeObservations, sink *fakeSink, cfg ComplianceConfig) *ComplianceService {
	svc := NewComplianceService(cohort, obs, sink, nil, nil, cfg)
	svc.now = func() time.Time { return scanNow }
	return svc
}

func scanRecordFixture(id string, status models.CaseStatus, reviewDate string) models.CaseRecord {
	return models.CaseRecord{
		ID:               id,
		StudentName:      "Student " + id,
		Status:           status,
		AnnualReviewDate: reviewDate,
		OwnerID:          "user-1",
	}
}

func TestScanRequiresActor(t *testing.T) {
	svc := newScanner(&fakeCohortProvider{}, &fakeObservations{}, &fakeSink{}, ComplianceConfig{})

	_, err := svc.Scan(context.Background(), "")
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestScanOverdueActiveCreatesComplianceAlert(t *testing.T) {
	sink := &fakeSink{}
	svc := newScanner(
		&fakeCohortProvider{records: []models.CaseRecord{scanRecordFixture("c1", models.CaseStatusActive, "2026-01-01")}},
		&fakeObservations{},
		sink,
		ComplianceConfig{},
	)

	summary, err := svc.Scan(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, summary.RecordsScanned)
	assert.Equal(t, 1, summary.AlertsCreated)
	require.Len(t, sink.appended, 1)
	alert := sink.appended[0]
	assert.Equal(t, models.NotificationTypeComplianceAlert, alert.Type)
	assert.Equal(t, models.NotificationPriorityHigh, alert.Priority)
	assert.Equal(t, "user-1", alert.RecipientID)
	require.NotNil(t, alert.RelatedID)
	assert.Equal(t, "c1", *alert.RelatedID)
}

func TestScanOverdueNonActiveCreatesNothing(t *testing.T) {
	sink := &fakeSink{}
	svc := newScanner(
		&fakeCohortProvider{records: []models.CaseRecord{
			scanRecordFixture("c1", models.CaseStatusDraft, "2026-01-01"),
			scanRecordFixture("c2", models.CaseStatusExpired, "2026-01-01"),
		}},
		&fakeObservations{},
		sink,
		ComplianceConfig{},
	)

	summary, err := svc.Scan(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, 0, summary.AlertsCreated)
	assert.Empty(t, sink.appended)
}

func TestScanDueSoonCreatesHighPriorityReminder(t *testing.T) {
	sink := &fakeSink{}
	// Review 3 days out.
	svc := newScanner(
		&fakeCohortProvider{records: []models.CaseRecord{scanRecordFixture("c1", models.CaseStatusActive, "2026-03-18")}},
		&fakeObservations{},
		sink,
		ComplianceConfig{},
	)

	_, err := svc.Scan(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, sink.appended, 1)
	assert.Equal(t, models.NotificationTypeIEPDue, sink.appended[0].Type)
	assert.Equal(t, models.NotificationPriorityHigh, sink.appended[0].Priority)
}

func TestScanUpcomingCreatesMediumPriorityReminder(t *testing.T) {
	sink := &fakeSink{}
	// Review 20 days out: inside the 30-day window, outside the 7-day window.
	svc := newScanner(
		&fakeCohortProvider{records: []models.CaseRecord{scanRecordFixture("c1", models.CaseStatusActive, "2026-04-04")}},
		&fakeObservations{},
		sink,
		ComplianceConfig{},
	)

	_, err := svc.Scan(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, sink.appended, 1)
	assert.Equal(t, models.NotificationTypeIEPDue, sink.appended[0].Type)
	assert.Equal(t, models.NotificationPriorityMedium, sink.appended[0].Priority)
}

func TestScanDeadlineRulesAreExclusive(t *testing.T) {
	sink := &fakeSink{}
	// One overdue active record matches only the overdue rule even though its
	// date also sits before every other cutoff.
	svc := newScanner(
		&fakeCohortProvider{records: []models.CaseRecord{scanRecordFixture("c1", models.CaseStatusActive, "2026-03-01")}},
		&fakeObservations{},
		sink,
		ComplianceConfig{},
	)

	summary, err := svc.Scan(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, summary.AlertsCreated)
	require.Len(t, sink.appended, 1)
	assert.Equal(t, models.NotificationTypeComplianceAlert, sink.appended[0].Type)
}

func TestScanFarFutureReviewCreatesNothing(t *testing.T) {
	sink := &fakeSink{}
	svc := newScanner(
		&fakeCohortProvider{records: []models.CaseRecord{scanRecordFixture("c1", models.CaseStatusActive, "2026-12-01")}},
		&fakeObservations{},
		sink,
		ComplianceConfig{},
	)

	_, err := svc.Scan(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Empty(t, sink.appended)
}

func TestScanStaleGoalsAlertPerGoal(t *testing.T) {
	rec := scanRecordFixture("c1", models.CaseStatusActive, "2026-12-01")
	rec.Goals = models.GoalList{
		{ID: "g1", Area: "reading"},
		{ID: "g2", Area: "math"},
		{ID: "g3", Area: "writing"},
	}
	sink := &fakeSink{}
	obs := &fakeObservations{recent: map[string]map[string]struct{}{
		"c1": {"g2": {}},
	}}
	svc := newScanner(&fakeCohortProvider{records: []models.CaseRecord{rec}}, obs, sink, ComplianceConfig{})

	summary, err := svc.Scan(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, 2, summary.AlertsCreated)
	require.Len(t, sink.appended, 2)
	for _, alert := range sink.appended {
		assert.Equal(t, models.NotificationTypeGoalUpdate, alert.Type)
		assert.Equal(t, models.NotificationPriorityMedium, alert.Priority)
	}
}

func TestScanStalenessIndependentOfDeadlineRules(t *testing.T) {
	rec := scanRecordFixture("c1", models.CaseStatusActive, "2026-01-01")
	rec.Goals = models.GoalList{{ID: "g1", Area: "reading"}}
	sink := &fakeSink{}
	svc := newScanner(&fakeCohortProvider{records: []models.CaseRecord{rec}}, &fakeObservations{}, sink, ComplianceConfig{})

	summary, err := svc.Scan(context.Background(), "user-1")
	require.NoError(t, err)
	// One overdue alert plus one stale-goal alert for the same record.
	assert.Equal(t, 2, summary.AlertsCreated)
}

func TestScanIsolatesRecordFailures(t *testing.T) {
	good1 := scanRecordFixture("c1", models.CaseStatusActive, "2026-01-01")
	bad := scanRecordFixture("c2", models.CaseStatusActive, "2026-12-01")
	bad.Goals = models.GoalList{{ID: "g1", Area: "reading"}}
	good2 := scanRecordFixture("c3", models.CaseStatusActive, "2026-02-01")

	sink := &fakeSink{}
	obs := &fakeObservations{errFor: map[string]error{"c2": errors.New("observation store down")}}
	svc := newScanner(&fakeCohortProvider{records: []models.CaseRecord{good1, bad, good2}}, obs, sink, ComplianceConfig{})

	summary, err := svc.Scan(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, 3, summary.RecordsScanned)
	assert.Equal(t, 1, summary.RecordsFailed)
	assert.Equal(t, 2, summary.AlertsCreated)
}

func TestScanUnparseableReviewDateStillChecksGoals(t *testing.T) {
	rec := scanRecordFixture("c1", models.CaseStatusActive, "garbage")
	rec.Goals = models.GoalList{{ID: "g1", Area: "reading"}}
	sink := &fakeSink{}
	svc := newScanner(&fakeCohortProvider{records: []models.CaseRecord{rec}}, &fakeObservations{}, sink, ComplianceConfig{})

	summary, err := svc.Scan(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, summary.RecordsFailed)
	// The stale-goal alert was still produced.
	assert.Equal(t, 1, summary.AlertsCreated)
}

func TestScanRepeatedRunsAppendDuplicates(t *testing.T) {
	sink := &fakeSink{}
	svc := newScanner(
		&fakeCohortProvider{records: []models.CaseRecord{scanRecordFixture("c1", models.CaseStatusActive, "2026-01-01")}},
		&fakeObservations{},
		sink,
		ComplianceConfig{},
	)

	_, err := svc.Scan(context.Background(), "user-1")
	require.NoError(t, err)
	_, err = svc.Scan(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Len(t, sink.appended, 2)
}

func TestScanDedupSuppressesRepeatAlerts(t *testing.T) {
	sink := &fakeSink{existing: map[string]bool{}}
	svc := newScanner(
		&fakeCohortProvider{records: []models.CaseRecord{scanRecordFixture("c1", models.CaseStatusActive, "2026-01-01")}},
		&fakeObservations{},
		sink,
		ComplianceConfig{DedupEnabled: true},
	)

	summary, err := svc.Scan(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, summary.AlertsCreated)

	// Mirror a durable sink: the appended key now exists.
	for _, alert := range sink.appended {
		sink.existing[*alert.DedupKey] = true
	}

	summary, err = svc.Scan(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, 0, summary.AlertsCreated)
	assert.Equal(t, 1, summary.AlertsSkipped)
	assert.Len(t, sink.appended, 1)
}

func TestScanCancelledContextStopsEarly(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	svc := newScanner(
		&fakeCohortProvider{records: []models.CaseRecord{scanRecordFixture("c1", models.CaseStatusActive, "2026-01-01")}},
		&fakeObservations{},
		&fakeSink{},
		ComplianceConfig{},
	)

	_, err := svc.Scan(ctx, "user-1")
	require.Error(t, err)
}
