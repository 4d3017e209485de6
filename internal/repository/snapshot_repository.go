package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/caseflow/iep-compliance-api/internal/models"
)

const snapshotColumns = `id, owner_id, report_type, time_range, filters, data, status, error_message, created_at, generated_at`

// SnapshotRepository persists report snapshots. A snapshot is written once in
// the generating state, transitioned to a terminal state exactly once, and
// never touched again.
type SnapshotRepository struct {
	db *sqlx.DB
}

// NewSnapshotRepository creates the repository.
func NewSnapshotRepository(db *sqlx.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// Create inserts a new snapshot row.
func (r *SnapshotRepository) Create(ctx context.Context, s *models.ReportSnapshot) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO report_snapshots (id, owner_id, report_type, time_range, filters, data, status, error_message, created_at, generated_at)
VALUES (:id, :owner_id, :report_type, :time_range, :filters, :data, :status, :error_message, :created_at, :generated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, s); err != nil {
		return fmt.Errorf("create report snapshot: %w", err)
	}
	return nil
}

// Finalize moves a generating snapshot to a terminal state. The status guard
// keeps terminal snapshots immutable.
func (r *SnapshotRepository) Finalize(ctx context.Context, id string, status models.SnapshotStatus, data models.SnapshotData, errMsg *string, generatedAt time.Time) error {
	const query = `UPDATE report_snapshots SET status = $1, data = $2, error_message = $3, generated_at = $4 WHERE id = $5 AND status = 'generating'`
	if _, err := r.db.ExecContext(ctx, query, status, data, errMsg, generatedAt, id); err != nil {
		return fmt.Errorf("finalize report snapshot: %w", err)
	}
	return nil
}

// GetByID returns a single snapshot.
func (r *SnapshotRepository) GetByID(ctx context.Context, id string) (*models.ReportSnapshot, error) {
	query := fmt.Sprintf(`SELECT %s FROM report_snapshots WHERE id = $1`, snapshotColumns)
	var s models.ReportSnapshot
	if err := r.db.GetContext(ctx, &s, query, id); err != nil {
		return nil, err
	}
	return &s, nil
}

// ListGenerating returns snapshots still awaiting generation, oldest first.
// Used to requeue work after a process restart.
func (r *SnapshotRepository) ListGenerating(ctx context.Context, limit int) ([]models.ReportSnapshot, error) {
	if limit <= 0 {
		limit = 50
	}
	query := fmt.Sprintf(`SELECT %s FROM report_snapshots WHERE status = 'generating' ORDER BY created_at ASC LIMIT $1`, snapshotColumns)
	var snapshots []models.ReportSnapshot
	if err := r.db.SelectContext(ctx, &snapshots, query, limit); err != nil {
		return nil, fmt.Errorf("list generating snapshots: %w", err)
	}
	return snapshots, nil
}

// ListByOwner returns the owner's most recent snapshots, newest first.
func (r *SnapshotRepository) ListByOwner(ctx context.Context, ownerID string, limit int) ([]models.ReportSnapshot, error) {
	query := fmt.Sprintf(`SELECT %s FROM report_snapshots WHERE owner_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2`, snapshotColumns)
	var snapshots []models.ReportSnapshot
	if err := r.db.SelectContext(ctx, &snapshots, query, ownerID, limit); err != nil {
		return nil, fmt.Errorf("list report snapshots: %w", err)
	}
	return snapshots, nil
}
