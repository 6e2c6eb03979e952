// internal/engine/catalog/catalog.go

// Package catalog holds the immutable screening configuration: stages,
// questions, bonus rules and classification thresholds. A catalog is loaded
// and validated once, then treated as read-only for the process lifetime.
package catalog

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"

	"screening-engine/internal/common/errors"
	"screening-engine/internal/common/logger"
)

const defaultWeightEpsilon = 0.01

// Load parses and validates a raw catalog document. Structural problems and
// semantic rule violations are fatal; a stage whose question weights do not
// sum to ~1.0 only produces a warning.
func Load(raw []byte, log logger.Logger) (*Catalog, error) {
	if err := validateRawDocument(raw); err != nil {
		return nil, errors.NewConfigurationError(errors.ErrCodeCatalogSchemaInvalid, err.Error())
	}

	var cat Catalog
	if err := json.Unmarshal(raw, &cat); err != nil {
		return nil, errors.NewConfigurationError(errors.ErrCodeCatalogSchemaInvalid, err.Error())
	}

	if err := cat.Validate(log); err != nil {
		return nil, err
	}

	return &cat, nil
}

// Validate enforces the semantic invariants of the catalog and compiles
// free-text signal rule patterns.
func (c *Catalog) Validate(log logger.Logger) error {
	if len(c.Stages) == 0 {
		return errors.NewConfigurationError(errors.ErrCodeCatalogNoStages, "catalog defines no stages")
	}

	epsilon := c.WeightEpsilon
	if epsilon <= 0 {
		epsilon = defaultWeightEpsilon
	}

	for i := range c.Stages {
		stage := &c.Stages[i]

		if stage.Index != i {
			return errors.NewConfigurationError(errors.ErrCodeCatalogSchemaInvalid,
				fmt.Sprintf("stage at position %d declares index %d; stages must be ordered 0..n-1", i, stage.Index))
		}

		if stage.MinScoreRequired > stage.MaxPossibleScore {
			return errors.NewConfigurationError(errors.ErrCodeCatalogThresholdExceedsMax,
				fmt.Sprintf("stage %d: minScoreRequired %d exceeds maxPossibleScore %d",
					stage.Index, stage.MinScoreRequired, stage.MaxPossibleScore))
		}

		weightSum := 0.0
		for _, q := range stage.Questions {
			weightSum += q.Weight
		}
		if math.Abs(weightSum-1.0) > epsilon && log != nil {
			log.Warn("stage question weights do not sum to 1.0", map[string]interface{}{
				"stage":     stage.Index,
				"title":     stage.Title,
				"weightSum": weightSum,
			})
		}

		for qi := range stage.Questions {
			q := &stage.Questions[qi]
			for ri := range q.SignalRules {
				if err := q.SignalRules[ri].Compile(); err != nil {
					return errors.NewConfigurationError(errors.ErrCodeCatalogSignalPatternInvalid,
						fmt.Sprintf("stage %d question %s: %v", stage.Index, q.ID, err))
				}
			}
		}
	}

	for i := 1; i < len(c.Thresholds); i++ {
		if c.Thresholds[i].MinTotalScore >= c.Thresholds[i-1].MinTotalScore {
			return errors.NewConfigurationError(errors.ErrCodeCatalogThresholdOrder,
				fmt.Sprintf("classification thresholds must be strictly descending: %q (%d) follows %q (%d)",
					c.Thresholds[i].Label, c.Thresholds[i].MinTotalScore,
					c.Thresholds[i-1].Label, c.Thresholds[i-1].MinTotalScore))
		}
	}

	return nil
}

// Stage returns the stage definition at the given ordinal index.
func (c *Catalog) Stage(index int) (StageDefinition, error) {
	for _, stage := range c.Stages {
		if stage.Index == index {
			return stage, nil
		}
	}
	return StageDefinition{}, errors.NewLookupError(errors.ErrCodeStageNotFound,
		fmt.Sprintf("stage index %d out of range (%d stages)", index, len(c.Stages)))
}

// Question returns one question definition by stage index and question ID.
func (c *Catalog) Question(stageIndex int, questionID string) (QuestionDefinition, error) {
	stage, err := c.Stage(stageIndex)
	if err != nil {
		return QuestionDefinition{}, err
	}
	for _, q := range stage.Questions {
		if q.ID == questionID {
			return q, nil
		}
	}
	return QuestionDefinition{}, errors.NewLookupError(errors.ErrCodeQuestionNotFound,
		fmt.Sprintf("question %q not found in stage %d", questionID, stageIndex))
}

// StageCount returns the number of configured stages.
func (c *Catalog) StageCount() int {
	return len(c.Stages)
}

// IsLastStage reports whether the given index is the final stage.
func (c *Catalog) IsLastStage(index int) bool {
	return index >= len(c.Stages)-1
}

// Compile prepares the rule's pattern for matching. Validate calls this
// for every rule; rules constructed outside a catalog must compile
// themselves before Matches can see their pattern.
func (r *SignalRule) Compile() error {
	if r.Pattern == "" {
		return nil
	}
	compiled, err := regexp.Compile(r.Pattern)
	if err != nil {
		return err
	}
	r.compiled = compiled
	return nil
}

// Matches reports whether the rule applies to the given text.
func (r *SignalRule) Matches(text string, wordCount int) bool {
	if r.compiled != nil {
		return r.compiled.MatchString(text)
	}
	if r.MinWords > 0 {
		return wordCount >= r.MinWords
	}
	return false
}
