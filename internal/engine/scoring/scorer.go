// internal/engine/scoring/scorer.go

// Package scoring converts one stage's submitted responses into a stage
// result and evaluates finalization bonus rules. Scoring is pure: identical
// (catalog, responses) input always yields an identical result.
package scoring

import (
	"fmt"
	"math"
	"time"

	"screening-engine/internal/common/errors"
	"screening-engine/internal/common/logger"
	"screening-engine/internal/engine/catalog"
	"screening-engine/internal/models"
)

// StageScorer computes normalized stage scores. It assumes the caller has
// already verified that every required response is present; a missing
// required response is a precondition violation, not something the scorer
// silently defaults.
type StageScorer struct {
	text   TextScorer
	logger logger.Logger
}

// NewStageScorer creates a scorer with the given text scorer. A nil text
// scorer falls back to the deterministic heuristic.
func NewStageScorer(text TextScorer, log logger.Logger) *StageScorer {
	if text == nil {
		text = NewHeuristicTextScorer()
	}
	return &StageScorer{text: text, logger: log}
}

// ScoreStage scores all questions of a stage and normalizes the weighted
// sum to the stage's configured maximum. The pass boundary is inclusive:
// a score exactly equal to minScoreRequired passes.
func (s *StageScorer) ScoreStage(stage catalog.StageDefinition, responses models.ResponseBundle) (models.StageResult, error) {
	questionScores := make(map[string]int, len(stage.Questions))
	weightedSum := 0.0

	for _, q := range stage.Questions {
		resp, ok := responses[q.ID]
		if !ok {
			// Optional questions without a response contribute zero.
			questionScores[q.ID] = 0
			continue
		}

		raw, err := s.questionRawScore(q, resp)
		if err != nil {
			return models.StageResult{}, err
		}

		questionScores[q.ID] = raw
		weightedSum += q.Weight * float64(raw)
	}

	normalized := int(math.Round(weightedSum * float64(stage.MaxPossibleScore) / 10.0))
	normalized = clamp(normalized, 0, stage.MaxPossibleScore)

	result := models.StageResult{
		StageIndex:      stage.Index,
		NormalizedScore: normalized,
		Passed:          normalized >= stage.MinScoreRequired,
		EvaluatedAt:     time.Now().UTC().Format(time.RFC3339),
		QuestionScores:  questionScores,
	}

	if s.logger != nil {
		s.logger.Debug("stage scored", map[string]interface{}{
			"stage":           stage.Index,
			"weightedSum":     weightedSum,
			"normalizedScore": normalized,
			"passed":          result.Passed,
		})
	}

	return result, nil
}

// questionRawScore dispatches on the question kind and returns the raw
// 0-10 contribution of one answered question.
func (s *StageScorer) questionRawScore(q catalog.QuestionDefinition, resp models.Response) (int, error) {
	switch q.Kind {
	case catalog.KindSingleChoice:
		if len(resp.Selected) == 0 {
			return 0, errors.NewValidationError(errors.ErrCodeResponseInvalid,
				fmt.Sprintf("question %q: single choice response carries no selection", q.ID))
		}
		return matchOptionScore(q, resp.Selected[0])

	case catalog.KindMultiChoice:
		// maxSelections is presentation-layer input validation and is not
		// re-checked here.
		sum := 0
		for _, selected := range resp.Selected {
			raw, err := matchOptionScore(q, selected)
			if err != nil {
				return 0, err
			}
			sum += raw
		}
		return sum, nil

	case catalog.KindNumericSlider:
		if resp.Value == nil {
			return 0, errors.NewValidationError(errors.ErrCodeResponseInvalid,
				fmt.Sprintf("question %q: slider response carries no value", q.ID))
		}
		if q.BucketDivisor <= 0 {
			return 0, errors.NewValidationError(errors.ErrCodeResponseInvalid,
				fmt.Sprintf("question %q: bucketDivisor must be positive", q.ID))
		}
		bucket := int(math.Floor(*resp.Value / q.BucketDivisor))
		return clamp(bucket, 0, 10), nil

	case catalog.KindFreeText:
		return s.text.ScoreText(q, resp.Text), nil

	default:
		return 0, errors.NewValidationError(errors.ErrCodeResponseInvalid,
			fmt.Sprintf("question %q: unknown kind %q", q.ID, q.Kind))
	}
}

// matchOptionScore resolves a submitted scalar against the configured
// options. Submitted values are opaque scalars matched by score, not label.
func matchOptionScore(q catalog.QuestionDefinition, submitted int) (int, error) {
	for _, opt := range q.Options {
		if opt.RawScore == submitted {
			return opt.RawScore, nil
		}
	}
	return 0, errors.NewValidationError(errors.ErrCodeResponseInvalid,
		fmt.Sprintf("question %q: submitted value %d matches no option", q.ID, submitted))
}

func clamp(value, min, max int) int {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
