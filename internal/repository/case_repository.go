package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/caseflow/iep-compliance-api/internal/models"
)

const caseColumns = `id, student_name, status, category, grade_level, annual_review_date, owner_id, team_members, goals, services, created_at, updated_at`

// CaseRepository reads case records from the external record store. The core
// never writes to this table.
type CaseRepository struct {
	db *sqlx.DB
}

// NewCaseRepository creates the repository.
func NewCaseRepository(db *sqlx.DB) *CaseRepository {
	return &CaseRepository{db: db}
}

// ListAccessible returns every record the actor owns or is a team member of.
// Access is all-or-nothing per record.
func (r *CaseRepository) ListAccessible(ctx context.Context, actorID string) ([]models.CaseRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM case_records WHERE owner_id = $1 OR $1 = ANY(team_members) ORDER BY created_at DESC`, caseColumns)
	var records []models.CaseRecord
	if err := r.db.SelectContext(ctx, &records, query, actorID); err != nil {
		return nil, fmt.Errorf("list accessible cases: %w", err)
	}
	return records, nil
}

// GetByID returns a single record. Callers must still apply the access check.
func (r *CaseRepository) GetByID(ctx context.Context, id string) (*models.CaseRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM case_records WHERE id = $1`, caseColumns)
	var record models.CaseRecord
	if err := r.db.GetContext(ctx, &record, query, id); err != nil {
		return nil, err
	}
	return &record, nil
}
