package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

func newObservationRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestObservationRepositoryRecentGoalIDs(t *testing.T) {
	db, mock, cleanup := newObservationRepoMock(t)
	defer cleanup()
	repo := NewObservationRepository(db)

	since := time.Now().Add(-14 * 24 * time.Hour)
	rows := sqlmock.NewRows([]string{"goal_id"}).AddRow("g1").AddRow("g3")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT DISTINCT goal_id FROM progress_observations WHERE case_id = $1 AND created_at >= $2")).
		WithArgs("c1", since).
		WillReturnRows(rows)

	ids, err := repo.RecentGoalIDs(context.Background(), "c1", since)
	require.NoError(t, err)
	require.Len(t, ids, 2)
	_, ok := ids["g1"]
	require.True(t, ok)
	_, ok = ids["g2"]
	require.False(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestObservationRepositoryRecentGoalIDsEmpty(t *testing.T) {
	db, mock, cleanup := newObservationRepoMock(t)
	defer cleanup()
	repo := NewObservationRepository(db)

	since := time.Now().Add(-14 * 24 * time.Hour)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT DISTINCT goal_id FROM progress_observations WHERE case_id = $1 AND created_at >= $2")).
		WithArgs("c1", since).
		WillReturnRows(sqlmock.NewRows([]string{"goal_id"}))

	ids, err := repo.RecentGoalIDs(context.Background(), "c1", since)
	require.NoError(t, err)
	require.Empty(t, ids)
	require.NoError(t, mock.ExpectationsWereMet())
}
