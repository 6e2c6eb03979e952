// internal/engine/scoring/textscore_test.go
package scoring

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"screening-engine/internal/engine/catalog"
)

// ==========================
// Test Helper Functions
// ==========================

func critiqueQuestion() catalog.QuestionDefinition {
	q := catalog.QuestionDefinition{
		ID:        "sample-critique",
		Kind:      catalog.KindFreeText,
		BaseScore: 5,
		SignalRules: []catalog.SignalRule{
			{Name: "cites-example", Pattern: "(?i)for (example|instance)", Delta: 1},
			{Name: "causal-reasoning", Pattern: "(?i)because|therefore|as a result", Delta: 2},
			{Name: "detailed-answer", MinWords: 250, Delta: 2},
		},
	}
	for i := range q.SignalRules {
		q.SignalRules[i].Compile()
	}
	return q
}

// textOfWords builds a filler answer with an exact word count, optionally
// prefixed so pattern rules can fire.
func textOfWords(prefix string, totalWords int) string {
	words := strings.Fields(prefix)
	for len(words) < totalWords {
		words = append(words, "filler")
	}
	return strings.Join(words[:totalWords], " ")
}

// ==========================
// Heuristic Text Scorer Tests
// ==========================

func TestScoreText_SignalRuleAccumulation(t *testing.T) {
	// A 180-word answer that cites an example and reasons causally but
	// stays under the 250-word detail threshold: 5 + 1 + 2 = 8.
	scorer := NewHeuristicTextScorer()
	text := textOfWords("For example the pacing drags because the stakes reset", 180)

	assert.Equal(t, 8, scorer.ScoreText(critiqueQuestion(), text))
}

func TestScoreText_CasesAndClamping(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected int
	}{
		{
			name:     "no signals leaves base score",
			text:     textOfWords("the chapter was fine", 40),
			expected: 5,
		},
		{
			name:     "example signal only",
			text:     textOfWords("for instance the opening scene", 40),
			expected: 6,
		},
		{
			name:     "causal signal only",
			text:     textOfWords("the tension fades as a result of repetition", 40),
			expected: 7,
		},
		{
			name:     "word count rule fires at threshold",
			text:     textOfWords("plain words only", 250),
			expected: 7,
		},
		{
			name:     "all rules together clamp at ten",
			text:     textOfWords("for example this happens because of that", 250),
			expected: 10,
		},
		{
			name:     "pattern matching is case insensitive",
			text:     textOfWords("FOR EXAMPLE the dialogue stalls", 40),
			expected: 6,
		},
	}

	scorer := NewHeuristicTextScorer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, scorer.ScoreText(critiqueQuestion(), tt.text))
		})
	}
}

func TestScoreText_ClampsAtZero(t *testing.T) {
	q := catalog.QuestionDefinition{
		ID: "q", Kind: catalog.KindFreeText, BaseScore: 1,
		SignalRules: []catalog.SignalRule{
			{Name: "too-short", MinWords: 1, Delta: -4},
		},
	}
	scorer := NewHeuristicTextScorer()

	assert.Equal(t, 0, scorer.ScoreText(q, "short"))
}

func TestCountWords(t *testing.T) {
	assert.Equal(t, 0, countWords(""))
	assert.Equal(t, 0, countWords("   "))
	assert.Equal(t, 3, countWords("one two three"))
	assert.Equal(t, 3, countWords("  one\ttwo\nthree  "))
}
