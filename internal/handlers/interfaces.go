package handlers

import (
	"context"

	"leadscout/internal/model"
)

// PipelineService runs ingestion and the full pipeline.
type PipelineService interface {
	Ingest(ctx context.Context, subreddits []string, limit int) ([]model.IngestResult, error)
	ParseAndAnalyze(ctx context.Context, subreddits []string, limit int) (*model.PipelineResult, error)
}

// LeadStore reads persisted leads and statistics.
type LeadStore interface {
	ListLeads(ctx context.Context, sourceIDs []string) ([]model.Lead, error)
	SourceStats(ctx context.Context, sourceIDs []string) ([]model.SourceStats, error)
}
