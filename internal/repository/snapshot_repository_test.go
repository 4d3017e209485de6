package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/caseflow/iep-compliance-api/internal/models"
)

func newSnapshotRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func snapshotRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "owner_id", "report_type", "time_range", "filters", "data", "status", "error_message", "created_at", "generated_at"})
}

func TestSnapshotRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newSnapshotRepoMock(t)
	defer cleanup()
	repo := NewSnapshotRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO report_snapshots")).
		WithArgs(sqlmock.AnyArg(), "user-1", "summary", "month", sqlmock.AnyArg(), sqlmock.AnyArg(), "generating", nil, sqlmock.AnyArg(), nil).
		WillReturnResult(sqlmock.NewResult(1, 1))

	snapshot := &models.ReportSnapshot{
		OwnerID:    "user-1",
		ReportType: models.ReportTypeSummary,
		TimeRange:  models.TimeRangeMonth,
		Status:     models.SnapshotStatusGenerating,
	}
	require.NoError(t, repo.Create(context.Background(), snapshot))
	require.NotEmpty(t, snapshot.ID)
	require.False(t, snapshot.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSnapshotRepositoryFinalizeGuardsGeneratingState(t *testing.T) {
	db, mock, cleanup := newSnapshotRepoMock(t)
	defer cleanup()
	repo := NewSnapshotRepository(db)

	generatedAt := time.Now()
	data := models.SnapshotData(`{"timeRange":"month"}`)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE report_snapshots SET status = $1, data = $2, error_message = $3, generated_at = $4 WHERE id = $5 AND status = 'generating'")).
		WithArgs(models.SnapshotStatusGenerated, data, nil, generatedAt, "snap-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Finalize(context.Background(), "snap-1", models.SnapshotStatusGenerated, data, nil, generatedAt)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSnapshotRepositoryGetByID(t *testing.T) {
	db, mock, cleanup := newSnapshotRepoMock(t)
	defer cleanup()
	repo := NewSnapshotRepository(db)

	rows := snapshotRows().
		AddRow("snap-1", "user-1", "summary", "month", `{}`, `{"timeRange":"month"}`, "generated", nil, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, owner_id, report_type, time_range, filters, data, status, error_message, created_at, generated_at FROM report_snapshots WHERE id = $1")).
		WithArgs("snap-1").
		WillReturnRows(rows)

	snapshot, err := repo.GetByID(context.Background(), "snap-1")
	require.NoError(t, err)
	require.Equal(t, models.SnapshotStatusGenerated, snapshot.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSnapshotRepositoryListGenerating(t *testing.T) {
	db, mock, cleanup := newSnapshotRepoMock(t)
	defer cleanup()
	repo := NewSnapshotRepository(db)

	rows := snapshotRows().
		AddRow("snap-1", "user-1", "summary", "month", `{}`, nil, "generating", nil, time.Now(), nil)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, owner_id, report_type, time_range, filters, data, status, error_message, created_at, generated_at FROM report_snapshots WHERE status = 'generating' ORDER BY created_at ASC LIMIT $1")).
		WithArgs(50).
		WillReturnRows(rows)

	snapshots, err := repo.ListGenerating(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, snapshots, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSnapshotRepositoryListByOwner(t *testing.T) {
	db, mock, cleanup := newSnapshotRepoMock(t)
	defer cleanup()
	repo := NewSnapshotRepository(db)

	rows := snapshotRows().
		AddRow("snap-2", "user-1", "compliance", "quarter", `{}`, `{"timeRange":"quarter"}`, "generated", nil, time.Now(), time.Now()).
		AddRow("snap-1", "user-1", "summary", "month", `{}`, nil, "failed", "cohort load failed", time.Now().Add(-time.Hour), nil)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, owner_id, report_type, time_range, filters, data, status, error_message, created_at, generated_at FROM report_snapshots WHERE owner_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2")).
		WithArgs("user-1", 20).
		WillReturnRows(rows)

	snapshots, err := repo.ListByOwner(context.Background(), "user-1", 20)
	require.NoError(t, err)
	require.Len(t, snapshots, 2)
	require.Equal(t, "snap-2", snapshots[0].ID)
	require.NotNil(t, snapshots[1].ErrorMessage)
	require.NoError(t, mock.ExpectationsWereMet())
}
