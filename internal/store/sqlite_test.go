package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartsdlc/sdlc/internal/models"
)

func setupStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	s, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { _ = s.Close() })

	return s
}

func record(op models.Operation, status models.ReportStatus) *models.AnalysisRecord {
	return &models.AnalysisRecord{
		Operation:    op,
		FileName:     "sample.py",
		Status:       status,
		FindingCount: 2,
		Text:         "model output",
		Elapsed:      1500 * time.Millisecond,
	}
}

func TestCreateAndGetAnalysis(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	rec := record(models.OpReviewCode, models.ReportSuccess)
	require.NoError(t, s.CreateAnalysis(ctx, rec))
	require.NotEmpty(t, rec.ID)

	got, err := s.GetAnalysis(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OpReviewCode, got.Operation)
	assert.Equal(t, "sample.py", got.FileName)
	assert.Equal(t, models.ReportSuccess, got.Status)
	assert.Equal(t, 2, got.FindingCount)
	assert.Equal(t, "model output", got.Text)
	assert.Equal(t, 1500*time.Millisecond, got.Elapsed)
}

func TestGetAnalysis_NotFound(t *testing.T) {
	s := setupStore(t)

	_, err := s.GetAnalysis(context.Background(), "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestListAnalyses_FilterAndOrder(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateAnalysis(ctx, record(models.OpReviewCode, models.ReportSuccess)))
	require.NoError(t, s.CreateAnalysis(ctx, record(models.OpPredictBugs, models.ReportFailure)))
	require.NoError(t, s.CreateAnalysis(ctx, record(models.OpReviewCode, models.ReportPartialSuccess)))

	all, err := s.ListAnalyses(ctx, AnalysisListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	reviews, err := s.ListAnalyses(ctx, AnalysisListFilter{Operation: models.OpReviewCode})
	require.NoError(t, err)
	assert.Len(t, reviews, 2)

	failures, err := s.ListAnalyses(ctx, AnalysisListFilter{Status: models.ReportFailure})
	require.NoError(t, err)
	require.Len(t, failures, 1)
	assert.Equal(t, models.OpPredictBugs, failures[0].Operation)

	limited, err := s.ListAnalyses(ctx, AnalysisListFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestDeleteAnalyses(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	first := record(models.OpReviewCode, models.ReportSuccess)
	require.NoError(t, s.CreateAnalysis(ctx, first))
	second := record(models.OpReviewCode, models.ReportSuccess)
	require.NoError(t, s.CreateAnalysis(ctx, second))

	n, err := s.DeleteAnalyses(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	remaining, err := s.ListAnalyses(ctx, AnalysisListFilter{})
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, second.ID, remaining[0].ID)

	n, err = s.DeleteAnalyses(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
