// internal/engine/scoring/bonus.go
package scoring

import (
	"screening-engine/internal/engine/catalog"
	"screening-engine/internal/models"
)

// BonusEvaluator computes the additive bonus applied once at finalization.
// Rules are evaluated in catalog order against the raw question scores
// retained in each stage result. Independent rules all apply; rules sharing
// an exclusive group are alternatives and only the first qualifying rule of
// the group counts.
type BonusEvaluator struct {
	rules []catalog.BonusRule
}

// NewBonusEvaluator creates an evaluator for the catalog's bonus rules.
func NewBonusEvaluator(rules []catalog.BonusRule) *BonusEvaluator {
	return &BonusEvaluator{rules: rules}
}

// Evaluate returns the total bonus earned across all stage results.
func (b *BonusEvaluator) Evaluate(results []models.StageResult) int {
	rawScores := make(map[string]int)
	for _, sr := range results {
		for questionID, raw := range sr.QuestionScores {
			rawScores[questionID] = raw
		}
	}

	total := 0
	appliedGroups := make(map[string]bool)

	for _, rule := range b.rules {
		if rule.ExclusiveGroup != "" && appliedGroups[rule.ExclusiveGroup] {
			continue
		}

		raw, answered := rawScores[rule.SourceQuestionID]
		if !answered || raw < rule.ScoreThreshold {
			continue
		}

		total += rule.BonusPoints
		if rule.ExclusiveGroup != "" {
			appliedGroups[rule.ExclusiveGroup] = true
		}
	}

	return total
}
