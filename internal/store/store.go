package store

import (
	"context"

	"github.com/smartsdlc/sdlc/internal/models"
)

// AnalysisListFilter specifies filters for listing analysis history.
type AnalysisListFilter struct {
	Operation models.Operation
	Status    models.ReportStatus
	Limit     int
}

// Store defines the persistence interface for analysis history.
type Store interface {
	CreateAnalysis(ctx context.Context, rec *models.AnalysisRecord) error
	GetAnalysis(ctx context.Context, id string) (*models.AnalysisRecord, error)
	ListAnalyses(ctx context.Context, filter AnalysisListFilter) ([]*models.AnalysisRecord, error)
	DeleteAnalyses(ctx context.Context, before string) (int64, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
