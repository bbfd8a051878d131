package model

import "fmt"

// ItemFilter scopes store queries to a set of subreddits and/or parent
// posts. Empty slices mean "no filter on that axis".
type ItemFilter struct {
	SourceIDs []string
	ParentIDs []string
}

// IngestResult reports the outcome of ingesting a single subreddit.
// Error is empty on success; a failed subreddit keeps zero counts.
type IngestResult struct {
	Subreddit string `json:"subreddit"`
	Posts     int    `json:"postsCount"`
	Comments  int    `json:"commentsCount"`
	Error     string `json:"error,omitempty"`
}

// AnalysisResult reports how many items a classification run examined
// and how many of them were marked as leads.
type AnalysisResult struct {
	Analyzed int `json:"analyzed"`
	Leads    int `json:"leads"`
}

// AnalysisSummary groups the post and comment passes of a full run.
type AnalysisSummary struct {
	Posts    AnalysisResult `json:"posts"`
	Comments AnalysisResult `json:"comments"`
}

// StatBlock holds lead statistics for one item kind of one subreddit.
// Coefficient is leads/total, with 0 when total is 0.
type StatBlock struct {
	Total       int     `json:"total"`
	Leads       int     `json:"leads"`
	Coefficient float64 `json:"coefficient"`
}

// SourceStats is the per-subreddit statistics row.
type SourceStats struct {
	Subreddit string    `json:"subreddit"`
	Posts     StatBlock `json:"posts"`
	Comments  StatBlock `json:"comments"`
}

// PipelineResult is the composite outcome of parse-and-analyze.
type PipelineResult struct {
	ParseResults []IngestResult  `json:"parseResults"`
	Analysis     AnalysisSummary `json:"analysis"`
	Statistics   []SourceStats   `json:"statistics"`
}

const (
	// MaxSubredditsPerRequest caps one ingestion request.
	MaxSubredditsPerRequest = 5

	// DefaultPostsLimit is used when a request omits the limit.
	DefaultPostsLimit = 25

	// MaxPostsLimit is the largest page size accepted per subreddit.
	MaxPostsLimit = 100
)

// ValidateParseRequest checks request bounds before any network call is
// made. A zero limit means "use the default" and is accepted.
func ValidateParseRequest(subreddits []string, limit int) error {
	if len(subreddits) == 0 {
		return fmt.Errorf("at least one subreddit is required")
	}
	if len(subreddits) > MaxSubredditsPerRequest {
		return fmt.Errorf("maximum %d subreddits allowed, got %d", MaxSubredditsPerRequest, len(subreddits))
	}
	for _, name := range subreddits {
		if name == "" {
			return fmt.Errorf("subreddit name must not be empty")
		}
	}
	if limit != 0 && (limit < 1 || limit > MaxPostsLimit) {
		return fmt.Errorf("postsLimit must be between 1 and %d, got %d", MaxPostsLimit, limit)
	}
	return nil
}
