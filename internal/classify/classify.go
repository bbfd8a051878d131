// Package classify decides whether a piece of Reddit content is a
// commercial lead (a request to hire or pay for a service) or ordinary
// discussion.
//
// Two strategies exist: a model-backed classifier used when an OpenAI
// API key is configured, and a deterministic keyword heuristic that is
// always available. The model-backed strategy delegates to the
// heuristic whenever the upstream call fails or returns an unusable
// payload, so classification never surfaces a service error to its
// caller.
package classify

import (
	"context"
	"time"

	"leadscout/internal/logging"
)

// Kind tells the classifier which item type the text came from.
type Kind string

const (
	KindPost    Kind = "post"
	KindComment Kind = "comment"
)

// Result is a classification verdict. Confidence is in [0, 1].
type Result struct {
	IsLead     bool    `json:"isLead"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
}

// Classifier produces a verdict for a piece of text.
type Classifier interface {
	Classify(ctx context.Context, text string, kind Kind) Result
}

// Config selects and tunes the classification strategy.
type Config struct {
	APIKey    string
	BaseURL   string
	Model     string
	Timeout   time.Duration
	MaxTokens int
}

// New picks the strategy once at construction: model-backed when an
// API key is present, heuristic-only otherwise.
func New(cfg Config, logger logging.Logger) Classifier {
	if cfg.APIKey == "" {
		logger.Warn("OpenAI API key not configured, using keyword heuristic only")
		return NewHeuristic()
	}
	return NewOpenAI(cfg, logger)
}
