package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

func newCaseRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func caseRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "student_name", "status", "category", "grade_level", "annual_review_date", "owner_id", "team_members", "goals", "services", "created_at", "updated_at"})
}

func TestCaseRepositoryListAccessible(t *testing.T) {
	db, mock, cleanup := newCaseRepoMock(t)
	defer cleanup()
	repo := NewCaseRepository(db)

	rows := caseRows().
		AddRow("c1", "Student A", "active", "SLD", "5", "2026-05-01", "user-1", "{}", `[{"id":"g1","area":"reading","progress":40}]`, `[{"type":"speech","frequency":"weekly","minutes":30}]`, time.Now(), time.Now()).
		AddRow("c2", "Student B", "draft", "OHI", "6", "2026-06-01", "user-2", "{user-1,user-3}", `[]`, `[]`, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, student_name, status, category, grade_level, annual_review_date, owner_id, team_members, goals, services, created_at, updated_at FROM case_records WHERE owner_id = $1 OR $1 = ANY(team_members) ORDER BY created_at DESC")).
		WithArgs("user-1").
		WillReturnRows(rows)

	records, err := repo.ListAccessible(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, "c1", records[0].ID)
	require.Len(t, records[0].Goals, 1)
	require.Equal(t, 40, records[0].Goals[0].Progress)
	require.Equal(t, []string{"user-1", "user-3"}, []string(records[1].TeamMembers))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCaseRepositoryGetByID(t *testing.T) {
	db, mock, cleanup := newCaseRepoMock(t)
	defer cleanup()
	repo := NewCaseRepository(db)

	rows := caseRows().
		AddRow("c1", "Student A", "active", "SLD", "5", "2026-05-01", "user-1", "{}", `[]`, `[]`, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, student_name, status, category, grade_level, annual_review_date, owner_id, team_members, goals, services, created_at, updated_at FROM case_records WHERE id = $1")).
		WithArgs("c1").
		WillReturnRows(rows)

	record, err := repo.GetByID(context.Background(), "c1")
	require.NoError(t, err)
	require.Equal(t, "user-1", record.OwnerID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCaseRepositoryGetByIDMissing(t *testing.T) {
	db, mock, cleanup := newCaseRepoMock(t)
	defer cleanup()
	repo := NewCaseRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, student_name, status, category, grade_level, annual_review_date, owner_id, team_members, goals, services, created_at, updated_at FROM case_records WHERE id = $1")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}
