package pipeline

import (
	"context"
	"fmt"
	"time"

	"leadscout/internal/logging"
	"leadscout/internal/model"
	"leadscout/internal/monitoring"
)

// Ingestor drives the fetch-and-persist half of the pipeline: get or
// create the subreddit, fetch its newest posts, upsert each post and
// its time-windowed comment tree.
type Ingestor struct {
	fetcher Fetcher
	store   Store
	window  time.Duration
	logger  logging.Logger
	metrics *monitoring.Metrics
}

// NewIngestor creates an ingestor. window bounds how far back comments
// are collected.
func NewIngestor(fetcher Fetcher, store Store, window time.Duration, logger logging.Logger, metrics *monitoring.Metrics) *Ingestor {
	if window <= 0 {
		window = 7 * 24 * time.Hour
	}
	return &Ingestor{
		fetcher: fetcher,
		store:   store,
		window:  window,
		logger:  logger,
		metrics: metrics,
	}
}

// Ingest processes the subreddits sequentially. A failure on one
// subreddit is recorded in its result entry with zero counts and does
// not abort the remaining subreddits.
func (in *Ingestor) Ingest(ctx context.Context, names []string, limit int) []model.IngestResult {
	if limit <= 0 {
		limit = model.DefaultPostsLimit
	}

	results := make([]model.IngestResult, 0, len(names))
	for _, name := range names {
		posts, comments, err := in.ingestOne(ctx, name, limit)
		if err != nil {
			in.logger.WithError(err).WithFields(logging.Fields{"subreddit": name}).
				Error("Failed to ingest subreddit")
			in.metrics.IncIngestFailure()
			results = append(results, model.IngestResult{Subreddit: name, Error: err.Error()})
			continue
		}
		results = append(results, model.IngestResult{Subreddit: name, Posts: posts, Comments: comments})
	}
	return results
}

func (in *Ingestor) ingestOne(ctx context.Context, name string, limit int) (int, int, error) {
	sub, err := in.store.GetOrCreateSubreddit(ctx, name)
	if err != nil {
		return 0, 0, err
	}

	posts, err := in.fetcher.FetchPosts(ctx, name, limit)
	if err != nil {
		return 0, 0, err
	}

	windowStart := time.Now().UTC().Add(-in.window)
	commentCount := 0

	for i := range posts {
		posts[i].SubredditID = sub.ID
		postID, err := in.store.UpsertPost(ctx, &posts[i])
		if err != nil {
			return 0, 0, fmt.Errorf("persist post %s: %w", posts[i].RedditID, err)
		}

		comments := in.fetcher.FetchComments(ctx, posts[i].RedditID, name, windowStart)
		for j := range comments {
			comments[j].PostID = postID
			if _, err := in.store.UpsertComment(ctx, &comments[j]); err != nil {
				return 0, 0, fmt.Errorf("persist comment %s: %w", comments[j].RedditID, err)
			}
		}
		commentCount += len(comments)
	}

	in.metrics.IncIngested("post", len(posts))
	in.metrics.IncIngested("comment", commentCount)

	in.logger.WithFields(logging.Fields{
		"subreddit": name,
		"posts":     len(posts),
		"comments":  commentCount,
	}).Info("Subreddit ingested")

	return len(posts), commentCount, nil
}
