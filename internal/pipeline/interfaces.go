package pipeline

import (
	"context"
	"time"

	"leadscout/internal/model"
)

// Fetcher pulls content from the upstream API.
type Fetcher interface {
	FetchPosts(ctx context.Context, subreddit string, limit int) ([]model.Post, error)
	FetchComments(ctx context.Context, postRedditID, subreddit string, windowStart time.Time) []model.Comment
}

// Store is the repository surface the pipeline consumes.
type Store interface {
	GetOrCreateSubreddit(ctx context.Context, name string) (*model.Subreddit, error)
	SubredditsByNames(ctx context.Context, names []string) ([]model.Subreddit, error)
	UpsertPost(ctx context.Context, p *model.Post) (string, error)
	UpsertComment(ctx context.Context, c *model.Comment) (string, error)
	UnclassifiedPosts(ctx context.Context, filter model.ItemFilter) ([]model.Post, error)
	UnclassifiedComments(ctx context.Context, filter model.ItemFilter) ([]model.Comment, error)
	PostIDsBySources(ctx context.Context, sourceIDs []string) ([]string, error)
	MarkPostClassified(ctx context.Context, id string, isLead bool, score float64) error
	MarkCommentClassified(ctx context.Context, id string, isLead bool, score float64) error
	InsertLead(ctx context.Context, lead *model.Lead) error
	SourceStats(ctx context.Context, sourceIDs []string) ([]model.SourceStats, error)
}
