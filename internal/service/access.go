package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/caseflow/iep-compliance-api/internal/models"
	appErrors "github.com/caseflow/iep-compliance-api/pkg/errors"
)

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

type caseReader interface {
	ListAccessible(ctx context.Context, actorID string) ([]models.CaseRecord, error)
	GetByID(ctx context.Context, id string) (*models.CaseRecord, error)
}

// RecordAccessor resolves which case records an actor may see. Every core
// component fetches its cohort through this filter; none may bypass it.
type RecordAccessor struct {
	cases caseReader
}

// NewRecordAccessor constructs the accessor.
func NewRecordAccessor(cases caseReader) *RecordAccessor {
	return &RecordAccessor{cases: cases}
}

// Cohort returns every record the actor owns or is a team member of. An
// unresolved actor gets an unauthorized error, never a silent empty set on
// single-record paths and never partial visibility.
func (a *RecordAccessor) Cohort(ctx context.Context, actorID string) ([]models.CaseRecord, error) {
	if actorID == "" {
		return nil, appErrors.ErrUnauthorized
	}
	records, err := a.cases.ListAccessible(ctx, actorID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load case records")
	}
	// The store-side filter and the in-memory predicate must agree; re-check
	// so a drifting query can never widen visibility.
	filtered := records[:0]
	for _, record := range records {
		if record.AccessibleBy(actorID) {
			filtered = append(filtered, record)
		}
	}
	return filtered, nil
}

// Get returns one record after verifying the actor may see it.
func (a *RecordAccessor) Get(ctx context.Context, actorID, recordID string) (*models.CaseRecord, error) {
	if actorID == "" {
		return nil, appErrors.ErrUnauthorized
	}
	record, err := a.cases.GetByID(ctx, recordID)
	if err != nil {
		if isNoRows(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "case record not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load case record")
	}
	if !record.AccessibleBy(actorID) {
		return nil, appErrors.ErrForbidden
	}
	return record, nil
}
