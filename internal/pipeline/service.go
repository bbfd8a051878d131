package pipeline

import (
	"context"
	"fmt"

	"leadscout/internal/model"
)

// Service composes the full pipeline: ingest, classify, aggregate.
type Service struct {
	ingestor   *Ingestor
	analyzer   *Analyzer
	aggregator *Aggregator
	store      Store
}

// NewService wires the three pipeline stages.
func NewService(ingestor *Ingestor, analyzer *Analyzer, aggregator *Aggregator, store Store) *Service {
	return &Service{
		ingestor:   ingestor,
		analyzer:   analyzer,
		aggregator: aggregator,
		store:      store,
	}
}

// Ingest validates the request and runs ingestion. Validation happens
// before any network call.
func (s *Service) Ingest(ctx context.Context, subreddits []string, limit int) ([]model.IngestResult, error) {
	if err := model.ValidateParseRequest(subreddits, limit); err != nil {
		return nil, err
	}
	return s.ingestor.Ingest(ctx, subreddits, limit), nil
}

// Analyze classifies every post and comment still awaiting a verdict.
// An empty sourceIDs slice means all subreddits.
func (s *Service) Analyze(ctx context.Context, sourceIDs []string) (model.AnalysisSummary, error) {
	return s.analyzer.AnalyzeAll(ctx, sourceIDs)
}

// ParseAndAnalyze runs the complete pipeline for a set of subreddits:
// ingest their content, classify everything still unclassified, then
// aggregate statistics for those subreddits.
func (s *Service) ParseAndAnalyze(ctx context.Context, subreddits []string, limit int) (*model.PipelineResult, error) {
	if err := model.ValidateParseRequest(subreddits, limit); err != nil {
		return nil, err
	}

	parseResults := s.ingestor.Ingest(ctx, subreddits, limit)

	subs, err := s.store.SubredditsByNames(ctx, subreddits)
	if err != nil {
		return nil, fmt.Errorf("resolve subreddits: %w", err)
	}
	sourceIDs := make([]string, 0, len(subs))
	for _, sub := range subs {
		sourceIDs = append(sourceIDs, sub.ID)
	}

	analysis := model.AnalysisSummary{}
	var stats []model.SourceStats
	if len(sourceIDs) > 0 {
		analysis, err = s.analyzer.AnalyzeAll(ctx, sourceIDs)
		if err != nil {
			return nil, fmt.Errorf("analyze: %w", err)
		}
		stats, err = s.aggregator.Aggregate(ctx, sourceIDs)
		if err != nil {
			return nil, fmt.Errorf("aggregate: %w", err)
		}
	}

	return &model.PipelineResult{
		ParseResults: parseResults,
		Analysis:     analysis,
		Statistics:   stats,
	}, nil
}
