package service

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caseflow/iep-compliance-api/internal/models"
	appErrors "github.com/caseflow/iep-compliance-api/pkg/errors"
	"github.com/caseflow/iep-compliance-api/pkg/storage"
)

func generatedSnapshot(t *testing.T, id, ownerID string) *models.ReportSnapshot {
	t.Helper()
	data, err := json.Marshal(models.AggregationResult{
		Overview:  models.OverviewMetrics{TotalRecords: 3},
		TimeRange: "month",
	})
	require.NoError(t, err)
	return &models.ReportSnapshot{
		ID:         id,
		OwnerID:    ownerID,
		ReportType: models.ReportTypeSummary,
		TimeRange:  "month",
		Status:     models.SnapshotStatusGenerated,
		Data:       data,
	}
}

func newExportFixture(t *testing.T, store *fakeSnapshotStore) *ExportService {
	t.Helper()
	files, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("test-secret", time.Hour)
	return NewExportService(store, files, signer, ExportConfig{APIPrefix: "/api/v1"}, nil)
}

func TestExportRoundTrip(t *testing.T) {
	store := newFakeSnapshotStore()
	store.snapshots["snap-1"] = generatedSnapshot(t, "snap-1", "user-1")
	svc := newExportFixture(t, store)

	result, err := svc.Export(context.Background(), "snap-1", "user-1", ExportFormatCSV)
	require.NoError(t, err)
	assert.Contains(t, result.URL, "/api/v1/export/")
	assert.Equal(t, ExportFormatCSV, result.Format)

	download, err := svc.ResolveDownload(context.Background(), result.Token)
	require.NoError(t, err)
	defer download.File.Close()

	payload, err := io.ReadAll(download.File)
	require.NoError(t, err)
	assert.Contains(t, string(payload), "total_records")
	assert.Contains(t, string(payload), "3")
}

func TestExportEnforcesOwnership(t *testing.T) {
	store := newFakeSnapshotStore()
	store.snapshots["snap-1"] = generatedSnapshot(t, "snap-1", "user-2")
	svc := newExportFixture(t, store)

	_, err := svc.Export(context.Background(), "snap-1", "user-1", ExportFormatCSV)
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}

func TestExportRejectsUngeneratedSnapshots(t *testing.T) {
	store := newFakeSnapshotStore()
	store.snapshots["snap-1"] = &models.ReportSnapshot{ID: "snap-1", OwnerID: "user-1", Status: models.SnapshotStatusGenerating}
	svc := newExportFixture(t, store)

	_, err := svc.Export(context.Background(), "snap-1", "user-1", ExportFormatCSV)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
}

func TestExportRejectsUnknownFormat(t *testing.T) {
	store := newFakeSnapshotStore()
	store.snapshots["snap-1"] = generatedSnapshot(t, "snap-1", "user-1")
	svc := newExportFixture(t, store)

	_, err := svc.Export(context.Background(), "snap-1", "user-1", ExportFormat("xlsx"))
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestResolveDownloadRejectsTamperedToken(t *testing.T) {
	store := newFakeSnapshotStore()
	store.snapshots["snap-1"] = generatedSnapshot(t, "snap-1", "user-1")
	svc := newExportFixture(t, store)

	result, err := svc.Export(context.Background(), "snap-1", "user-1", ExportFormatCSV)
	require.NoError(t, err)

	_, err = svc.ResolveDownload(context.Background(), result.Token+"x")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
}

func TestBuildSnapshotDatasetFlattensResult(t *testing.T) {
	snapshot := generatedSnapshot(t, "snap-1", "user-1")
	dataset, title, err := buildSnapshotDataset(snapshot)
	require.NoError(t, err)
	assert.Equal(t, []string{"section", "metric", "value"}, dataset.Headers)
	assert.Contains(t, title, "summary")
	require.NotEmpty(t, dataset.Rows)
	assert.Equal(t, "overview", dataset.Rows[0]["section"])
}
