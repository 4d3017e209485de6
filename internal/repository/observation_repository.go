package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// ObservationRepository reads the progress-observation stream. Observations
// are only ever tested for recency by the core.
type ObservationRepository struct {
	db *sqlx.DB
}

// NewObservationRepository creates the repository.
func NewObservationRepository(db *sqlx.DB) *ObservationRepository {
	return &ObservationRepository{db: db}
}

// RecentGoalIDs returns the set of goal ids on the given case that have at
// least one observation created at or after the cutoff.
func (r *ObservationRepository) RecentGoalIDs(ctx context.Context, caseID string, since time.Time) (map[string]struct{}, error) {
	const query = `SELECT DISTINCT goal_id FROM progress_observations WHERE case_id = $1 AND created_at >= $2`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, caseID, since); err != nil {
		return nil, fmt.Errorf("list recent observations for case %s: %w", caseID, err)
	}
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}
