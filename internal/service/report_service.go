package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/caseflow/iep-compliance-api/internal/dto"
	"github.com/caseflow/iep-compliance-api/internal/models"
	appErrors "github.com/caseflow/iep-compliance-api/pkg/errors"
	"github.com/caseflow/iep-compliance-api/pkg/jobs"
)

type snapshotStore interface {
	Create(ctx context.Context, s *models.ReportSnapshot) error
	Finalize(ctx context.Context, id string, status models.SnapshotStatus, data models.SnapshotData, errMsg *string, generatedAt time.Time) error
	GetByID(ctx context.Context, id string) (*models.ReportSnapshot, error)
	ListByOwner(ctx context.Context, ownerID string, limit int) ([]models.ReportSnapshot, error)
	ListGenerating(ctx context.Context, limit int) ([]models.ReportSnapshot, error)
}

type aggregationProvider interface {
	Overview(ctx context.Context, actorID, rangeLabel string) (*models.AggregationResult, bool, error)
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

// ReportServiceConfig governs listing and queue recovery.
type ReportServiceConfig struct {
	DefaultListLimit int
	MaxRetries       int
}

// ReportService owns the snapshot lifecycle: a snapshot is created in the
// generating state, the queue worker fills in the aggregation result, and the
// row is immutable from then on.
type ReportService struct {
	store     snapshotStore
	queue     jobDispatcher
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
	cfg       ReportServiceConfig
}

// NewReportService constructs the report service.
func NewReportService(store snapshotStore, queue jobDispatcher, validate *validator.Validate, logger *zap.Logger, cfg ReportServiceConfig) *ReportService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DefaultListLimit <= 0 {
		cfg.DefaultListLimit = 20
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	return &ReportService{store: store, queue: queue, validator: validate, logger: logger, now: time.Now, cfg: cfg}
}

// Create persists a generating snapshot and enqueues its aggregation.
func (s *ReportService) Create(ctx context.Context, req dto.CreateReportRequest, actorID string) (*models.ReportSnapshot, error) {
	if actorID == "" {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid report request")
	}
	snapshot := &models.ReportSnapshot{
		OwnerID:    actorID,
		ReportType: models.ReportType(req.ReportType),
		TimeRange:  req.TimeRange,
		Filters:    req.Filters,
		Status:     models.SnapshotStatusGenerating,
	}
	if err := s.store.Create(ctx, snapshot); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create report snapshot")
	}
	if err := s.queue.Enqueue(jobs.Job{ID: snapshot.ID, Type: string(snapshot.ReportType)}); err != nil {
		msg := "failed to enqueue snapshot generation"
		if finalizeErr := s.store.Finalize(ctx, snapshot.ID, models.SnapshotStatusFailed, nil, &msg, s.now().UTC()); finalizeErr != nil {
			s.logger.Warn("failed to mark snapshot failed", zap.String("snapshot_id", snapshot.ID), zap.Error(finalizeErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, msg)
	}
	return snapshot, nil
}

// Get returns a snapshot after verifying the requester owns it.
func (s *ReportService) Get(ctx context.Context, id, actorID string) (*models.ReportSnapshot, error) {
	if actorID == "" {
		return nil, appErrors.ErrUnauthorized
	}
	snapshot, err := s.store.GetByID(ctx, id)
	if err != nil {
		if isNoRows(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report snapshot not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load report snapshot")
	}
	if snapshot.OwnerID != actorID {
		return nil, appErrors.ErrForbidden
	}
	return snapshot, nil
}

// List returns the actor's most recent snapshots, newest first.
func (s *ReportService) List(ctx context.Context, actorID string, limit int) ([]models.ReportSnapshot, error) {
	if actorID == "" {
		return nil, appErrors.ErrUnauthorized
	}
	if limit <= 0 {
		limit = s.cfg.DefaultListLimit
	}
	snapshots, err := s.store.ListByOwner(ctx, actorID, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list report snapshots")
	}
	return snapshots, nil
}

// RecoverPending requeues generating snapshots, e.g. after process restart.
func (s *ReportService) RecoverPending(ctx context.Context) {
	pending, err := s.store.ListGenerating(ctx, 50)
	if err != nil {
		s.logger.Warn("failed to recover pending snapshots", zap.Error(err))
		return
	}
	for _, snapshot := range pending {
		if err := s.queue.Enqueue(jobs.Job{ID: snapshot.ID, Type: string(snapshot.ReportType)}); err != nil {
			s.logger.Warn("failed to requeue snapshot", zap.String("snapshot_id", snapshot.ID), zap.Error(err))
		}
	}
}

// SnapshotWorker bridges queue jobs to the aggregation engine.
type SnapshotWorker struct {
	store      snapshotStore
	analytics  aggregationProvider
	logger     *zap.Logger
	now        func() time.Time
	maxRetries int
}

// NewSnapshotWorker constructs a worker.
func NewSnapshotWorker(store snapshotStore, analytics aggregationProvider, maxRetries int, logger *zap.Logger) *SnapshotWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &SnapshotWorker{store: store, analytics: analytics, logger: logger, now: time.Now, maxRetries: maxRetries}
}

// Handle computes the aggregation for one snapshot and finalizes it.
func (w *SnapshotWorker) Handle(ctx context.Context, job jobs.Job) error {
	snapshot, err := w.store.GetByID(ctx, job.ID)
	if err != nil {
		return err
	}
	if snapshot.Status != models.SnapshotStatusGenerating {
		return nil
	}

	result, _, err := w.analytics.Overview(ctx, snapshot.OwnerID, snapshot.TimeRange)
	if err != nil {
		if job.Attempt >= w.maxRetries {
			msg := err.Error()
			if finalizeErr := w.store.Finalize(ctx, snapshot.ID, models.SnapshotStatusFailed, nil, &msg, w.now().UTC()); finalizeErr != nil {
				w.logger.Warn("failed to mark snapshot failed", zap.String("snapshot_id", snapshot.ID), zap.Error(finalizeErr))
			}
		}
		return err
	}

	payload, err := json.Marshal(result)
	if err != nil {
		msg := err.Error()
		if finalizeErr := w.store.Finalize(ctx, snapshot.ID, models.SnapshotStatusFailed, nil, &msg, w.now().UTC()); finalizeErr != nil {
			w.logger.Warn("failed to mark snapshot failed", zap.String("snapshot_id", snapshot.ID), zap.Error(finalizeErr))
		}
		return err
	}

	if err := w.store.Finalize(ctx, snapshot.ID, models.SnapshotStatusGenerated, payload, nil, w.now().UTC()); err != nil {
		w.logger.Warn("failed to mark snapshot generated", zap.String("snapshot_id", snapshot.ID), zap.Error(err))
		return err
	}
	return nil
}
