package pipeline

import (
	"context"

	"leadscout/internal/model"
)

// Aggregator computes per-subreddit lead statistics from the persisted
// corpus. Every call reads fresh state; nothing is cached.
type Aggregator struct {
	store Store
}

// NewAggregator creates an aggregator.
func NewAggregator(store Store) *Aggregator {
	return &Aggregator{store: store}
}

// Aggregate returns statistics for the given subreddits, or all of
// them when sourceIDs is empty.
func (ag *Aggregator) Aggregate(ctx context.Context, sourceIDs []string) ([]model.SourceStats, error) {
	return ag.store.SourceStats(ctx, sourceIDs)
}
