package service

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/caseflow/iep-compliance-api/internal/models"
	appErrors "github.com/caseflow/iep-compliance-api/pkg/errors"
	"github.com/caseflow/iep-compliance-api/pkg/export"
	"github.com/caseflow/iep-compliance-api/pkg/storage"
)

// ExportFormat enumerates supported snapshot export formats.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures a rendered export and its signed download location.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       ExportFormat
	ExpiresAt    time.Time
}

// ExportDownload aggregates resolved download data.
type ExportDownload struct {
	File      *os.File
	Filename  string
	ExpiresAt time.Time
}

// ExportService renders generated snapshots into downloadable files behind
// signed URLs.
type ExportService struct {
	snapshots snapshotStore
	storage   fileStorage
	csv       csvRenderer
	pdf       pdfRenderer
	signer    *storage.SignedURLSigner
	logger    *zap.Logger
	cfg       ExportConfig
}

// NewExportService constructs an ExportService.
func NewExportService(snapshots snapshotStore, files fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	return &ExportService{
		snapshots: snapshots,
		storage:   files,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		signer:    signer,
		logger:    logger,
		cfg:       cfg,
	}
}

// Export renders one generated snapshot for its owner.
func (s *ExportService) Export(ctx context.Context, snapshotID, actorID string, format ExportFormat) (*ExportResult, error) {
	if actorID == "" {
		return nil, appErrors.ErrUnauthorized
	}
	if format != ExportFormatCSV && format != ExportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}
	snapshot, err := s.snapshots.GetByID(ctx, snapshotID)
	if err != nil {
		if isNoRows(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report snapshot not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load report snapshot")
	}
	if snapshot.OwnerID != actorID {
		return nil, appErrors.ErrForbidden
	}
	if snapshot.Status != models.SnapshotStatusGenerated {
		return nil, appErrors.Clone(appErrors.ErrConflict, "report snapshot is not generated")
	}

	dataset, title, err := buildSnapshotDataset(snapshot)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build export dataset")
	}

	var payload []byte
	switch format {
	case ExportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case ExportFormatPDF:
		payload, err = s.pdf.Render(dataset, title)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	filename := fmt.Sprintf("%s/%s-%d.%s", snapshot.OwnerID, snapshot.ID, time.Now().Unix(), format)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store export")
	}

	token, expiresAt, err := s.signer.Generate(snapshot.ID, relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign export url")
	}
	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          fmt.Sprintf("%s/export/%s", s.cfg.APIPrefix, token),
		Format:       format,
		ExpiresAt:    expiresAt,
	}, nil
}

// ResolveDownload validates a token and opens the stored export file.
func (s *ExportService) ResolveDownload(ctx context.Context, token string) (*ExportDownload, error) {
	snapshotID, relPath, expiresAt, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
	}
	if _, err := s.snapshots.GetByID(ctx, snapshotID); err != nil {
		if isNoRows(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report snapshot not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load report snapshot")
	}
	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export file not found")
	}
	return &ExportDownload{File: file, Filename: filepath.Base(relPath), ExpiresAt: expiresAt}, nil
}

// StartCleanup boots a goroutine that purges expired export files.
func (s *ExportService) StartCleanup(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if deleted, err := s.storage.CleanupOlderThan(s.cfg.ResultTTL); err != nil {
					s.logger.Warn("export cleanup failed", zap.Error(err))
				} else if len(deleted) > 0 {
					s.logger.Info("export cleanup", zap.Int("deleted", len(deleted)))
				}
			}
		}
	}()
}

// buildSnapshotDataset flattens an aggregation result into a tabular dataset.
func buildSnapshotDataset(snapshot *models.ReportSnapshot) (export.Dataset, string, error) {
	var result models.AggregationResult
	if err := json.Unmarshal(snapshot.Data, &result); err != nil {
		return export.Dataset{}, "", fmt.Errorf("decode snapshot data: %w", err)
	}

	dataset := export.Dataset{Headers: []string{"section", "metric", "value"}}
	addRow := func(section, metric string, value int) {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"section": section,
			"metric":  metric,
			"value":   strconv.Itoa(value),
		})
	}

	addRow("overview", "total_records", result.Overview.TotalRecords)
	addRow("overview", "total_goals", result.Overview.TotalGoals)
	addRow("overview", "completed_goals", result.Overview.CompletedGoals)
	addRow("overview", "in_progress_goals", result.Overview.InProgressGoals)
	addRow("overview", "goal_completion_rate", result.Overview.GoalCompletionRate)
	addRow("compliance", "upcoming_reviews", result.Compliance.UpcomingReviews)
	addRow("compliance", "overdue_reviews", result.Compliance.OverdueReviews)
	addRow("compliance", "compliance_rate", result.Compliance.ComplianceRate)
	for _, entry := range result.StatusDistribution {
		addRow("status", entry.Key, entry.Count)
	}
	for _, entry := range result.DisabilityDistribution {
		addRow("category", entry.Key, entry.Count)
	}
	for _, entry := range result.GradeDistribution {
		addRow("grade", entry.Key, entry.Count)
	}
	for _, entry := range result.ServiceDistribution {
		addRow("service", entry.Key, entry.Count)
	}
	for _, bucket := range result.Trends {
		addRow("trend", bucket.PeriodStart, bucket.Created)
	}

	title := fmt.Sprintf("%s report (%s)", snapshot.ReportType, snapshot.TimeRange)
	return dataset, title, nil
}
