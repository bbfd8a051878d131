package classify

import (
	"context"
	"fmt"
	"strings"
)

// Keyword sets are fixed: the heuristic must stay a pure function of
// its input text.
var leadKeywords = []string{
	"looking for",
	"need a developer",
	"hire",
	"hiring",
	"freelancer",
	"contractor",
	"budget",
	"quote",
	"estimate",
	"project",
	"build",
	"develop",
	"create",
}

var adviceKeywords = []string{
	"advice",
	"recommend",
	"suggest",
	"what should",
	"how to",
	"question",
}

// Heuristic is the deterministic fallback classifier: case-insensitive
// substring counts against fixed keyword sets, no external
// dependencies.
type Heuristic struct{}

// NewHeuristic creates the keyword classifier.
func NewHeuristic() *Heuristic {
	return &Heuristic{}
}

// Classify counts lead and advice indicators. The text is a lead when
// lead indicators strictly outnumber advice indicators and at least
// one is present. Confidence is min(0.7, 0.3 + 0.1*leadMatches).
func (h *Heuristic) Classify(_ context.Context, text string, _ Kind) Result {
	lower := strings.ToLower(text)

	leadMatches := countMatches(lower, leadKeywords)
	adviceMatches := countMatches(lower, adviceKeywords)

	isLead := leadMatches > adviceMatches && leadMatches > 0
	confidence := 0.3 + 0.1*float64(leadMatches)
	if confidence > 0.7 {
		confidence = 0.7
	}

	return Result{
		IsLead:     isLead,
		Confidence: confidence,
		Reason:     fmt.Sprintf("Keyword analysis: %d lead indicators, %d advice indicators", leadMatches, adviceMatches),
	}
}

func countMatches(lower string, keywords []string) int {
	count := 0
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			count++
		}
	}
	return count
}
