// internal/engine/catalog/types.go
package catalog

import "regexp"

// QuestionKind tags the concrete shape of a question definition.
type QuestionKind string

const (
	KindSingleChoice  QuestionKind = "single_choice"
	KindMultiChoice   QuestionKind = "multi_choice"
	KindNumericSlider QuestionKind = "numeric_slider"
	KindFreeText      QuestionKind = "free_text"
)

// ChoiceOption is one selectable answer with its raw score contribution.
type ChoiceOption struct {
	Label    string `json:"label"`
	RawScore int    `json:"rawScore"`
}

// SignalRule adds a score delta to a free-text answer when it matches.
// Either Pattern (a regular expression applied to the text) or MinWords
// (a word-count threshold) triggers the rule.
type SignalRule struct {
	Name     string `json:"name,omitempty"`
	Pattern  string `json:"pattern,omitempty"`
	MinWords int    `json:"minWords,omitempty"`
	Delta    int    `json:"delta"`

	compiled *regexp.Regexp
}

// AspectHint documents what a free-text answer is meant to demonstrate.
// It carries no scoring weight; real content assessment is expected to
// replace the heuristic (see TextScorer in the scoring package).
type AspectHint struct {
	Aspect   string `json:"aspect"`
	MaxScore int    `json:"maxScore"`
}

// QuestionDefinition is the tagged variant describing one question.
// Kind-specific fields are populated only for the matching kind.
type QuestionDefinition struct {
	ID       string       `json:"id"`
	Kind     QuestionKind `json:"kind"`
	Prompt   string       `json:"prompt"`
	Weight   float64      `json:"weight"` // fraction of the stage's raw 0-10 scale
	Required bool         `json:"required"`

	// single_choice / multi_choice
	Options       []ChoiceOption `json:"options,omitempty"`
	MaxSelections int            `json:"maxSelections,omitempty"` // presentation-layer constraint, not re-checked here

	// numeric_slider
	Min           float64 `json:"min,omitempty"`
	Max           float64 `json:"max,omitempty"`
	Step          float64 `json:"step,omitempty"`
	BucketDivisor float64 `json:"bucketDivisor,omitempty"`

	// free_text
	MinWords    int          `json:"minWords,omitempty"`
	MaxWords    int          `json:"maxWords,omitempty"`
	Aspects     []AspectHint `json:"aspects,omitempty"`
	BaseScore   int          `json:"baseScore,omitempty"`
	SignalRules []SignalRule `json:"signalRules,omitempty"`
}

// StageDefinition is one sequential phase of the application.
type StageDefinition struct {
	Index            int                  `json:"index"`
	Title            string               `json:"title"`
	MinScoreRequired int                  `json:"minScoreRequired"`
	MaxPossibleScore int                  `json:"maxPossibleScore"`
	Questions        []QuestionDefinition `json:"questions"`
}

// ClassificationBand maps a minimum total score to an outcome label.
type ClassificationBand struct {
	MinTotalScore int    `json:"minTotalScore"`
	Label         string `json:"label"`
}

// BonusRule grants extra points when a question's raw score meets a
// threshold. Rules sharing a non-empty ExclusiveGroup are alternatives:
// only the first qualifying rule of the group applies.
type BonusRule struct {
	SourceQuestionID string `json:"sourceQuestionId"`
	ScoreThreshold   int    `json:"scoreThreshold"`
	BonusPoints      int    `json:"bonusPoints"`
	ExclusiveGroup   string `json:"exclusiveGroup,omitempty"`
}

// Catalog is the immutable screening configuration: stages, bonus rules
// and the classification table, loaded once and read-only afterwards.
type Catalog struct {
	Version       string               `json:"version"`
	Stages        []StageDefinition    `json:"stages"`
	BonusRules    []BonusRule          `json:"bonusRules,omitempty"`
	Thresholds    []ClassificationBand `json:"classificationThresholds"`
	DefaultBand   string               `json:"defaultBand"`
	WeightEpsilon float64              `json:"weightEpsilon,omitempty"` // tolerance for the weight-sum warning
}
