// internal/engine/scoring/textscore.go
package scoring

import (
	"strings"

	"screening-engine/internal/engine/catalog"
)

// TextScorer rates a free-text answer on the raw 0-10 scale. The default
// implementation is a deterministic keyword heuristic; it is a pluggable
// capability so a review workflow or an external scoring service can
// replace it without touching the stage scorer.
type TextScorer interface {
	ScoreText(question catalog.QuestionDefinition, text string) int
}

// HeuristicTextScorer scores text as baseScore plus the delta of every
// matching signal rule, clamped to [0, 10]. It matches surface signals
// (patterns, word counts), not actual answer quality.
type HeuristicTextScorer struct{}

// NewHeuristicTextScorer returns the default deterministic text scorer.
func NewHeuristicTextScorer() *HeuristicTextScorer {
	return &HeuristicTextScorer{}
}

func (h *HeuristicTextScorer) ScoreText(question catalog.QuestionDefinition, text string) int {
	score := question.BaseScore
	words := countWords(text)

	for i := range question.SignalRules {
		rule := &question.SignalRules[i]
		if rule.Matches(text, words) {
			score += rule.Delta
		}
	}

	return clamp(score, 0, 10)
}

func countWords(text string) int {
	return len(strings.Fields(text))
}
