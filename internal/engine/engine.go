// internal/engine/engine.go

// Package engine is the applicant screening core: a pure state machine that
// turns staged responses into pass/fail decisions and a final classification
// band. Every operation takes an explicit ApplicationState value and returns
// a new one; the input is never mutated, so callers can persist the old
// value until an operation succeeds. The engine performs no I/O and holds no
// cross-applicant state.
package engine

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"screening-engine/internal/common/errors"
	"screening-engine/internal/common/logger"
	"screening-engine/internal/engine/catalog"
	"screening-engine/internal/engine/classify"
	"screening-engine/internal/engine/scoring"
	"screening-engine/internal/models"
)

// Engine composes the stage scorer, qualification gate, bonus evaluator and
// classifier over a validated catalog.
type Engine struct {
	catalog    *catalog.Catalog
	scorer     *scoring.StageScorer
	bonus      *scoring.BonusEvaluator
	classifier *classify.Classifier
	logger     logger.Logger
}

// Option customizes engine construction.
type Option func(*options)

type options struct {
	textScorer scoring.TextScorer
}

// WithTextScorer replaces the default heuristic free-text scorer.
func WithTextScorer(ts scoring.TextScorer) Option {
	return func(o *options) { o.textScorer = ts }
}

// New creates an engine over a validated catalog.
func New(cat *catalog.Catalog, log logger.Logger, opts ...Option) *Engine {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	if log == nil {
		log = logger.NewNoOpLogger()
	}

	return &Engine{
		catalog:    cat,
		scorer:     scoring.NewStageScorer(o.textScorer, log),
		bonus:      scoring.NewBonusEvaluator(cat.BonusRules),
		classifier: classify.NewClassifier(cat.Thresholds, cat.DefaultBand),
		logger:     log,
	}
}

// StartApplication creates a fresh application at stage 0.
func (e *Engine) StartApplication() models.ApplicationState {
	now := time.Now().UTC().Format(time.RFC3339)
	state := models.ApplicationState{
		ID:                uuid.New().String(),
		CurrentStageIndex: 0,
		StageResults:      []models.StageResult{},
		Status:            models.StatusInProgress,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	e.logger.Info("application started", map[string]interface{}{
		"applicationId": state.ID,
	})

	return state
}

// SubmitStageResponses scores one stage and advances the application through
// the qualification gate. On success it returns the successor state and the
// stage result, plus a disqualification report when the stage failed. On
// error the input state is returned unchanged.
func (e *Engine) SubmitStageResponses(state models.ApplicationState, stageIndex int, responses models.ResponseBundle) (models.ApplicationState, models.StageResult, *models.DisqualificationReport, error) {
	if state.Status != models.StatusInProgress {
		return state, models.StageResult{}, nil, errors.NewSequenceError(errors.ErrCodeApplicationClosed,
			fmt.Sprintf("application %s is %s and accepts no further submissions", state.ID, state.Status))
	}
	if stageIndex != state.CurrentStageIndex {
		return state, models.StageResult{}, nil, errors.NewSequenceError(errors.ErrCodeWrongStageIndex,
			fmt.Sprintf("submitted stage %d but application is at stage %d", stageIndex, state.CurrentStageIndex))
	}

	stage, err := e.catalog.Stage(stageIndex)
	if err != nil {
		return state, models.StageResult{}, nil, err
	}

	// Completeness is validated before any scoring occurs.
	if err := checkRequiredResponses(stage, responses); err != nil {
		return state, models.StageResult{}, nil, err
	}

	result, err := e.scorer.ScoreStage(stage, responses)
	if err != nil {
		return state, models.StageResult{}, nil, err
	}

	next := state.Clone()
	next.StageResults = append(next.StageResults, result)
	next.UpdatedAt = result.EvaluatedAt

	report := applyGate(&next, result, e.catalog.IsLastStage(stageIndex), stage.MinScoreRequired)

	fields := map[string]interface{}{
		"applicationId":   state.ID,
		"stage":           stageIndex,
		"normalizedScore": result.NormalizedScore,
		"passed":          result.Passed,
		"status":          next.Status,
	}
	if report != nil {
		e.logger.Info("application disqualified", fields)
	} else {
		e.logger.Info("stage submitted", fields)
	}

	return next, result, report, nil
}

// FinalizeApplication runs the bonus evaluator and classifier once, fixing
// totalScore, bonus and classification on the terminal submitted state.
func (e *Engine) FinalizeApplication(state models.ApplicationState) (models.ApplicationState, string, error) {
	if state.Status != models.StatusReadyForClassification {
		return state, "", errors.NewSequenceError(errors.ErrCodeNotReadyToSubmit,
			fmt.Sprintf("application %s is %s; finalization requires %s",
				state.ID, state.Status, models.StatusReadyForClassification))
	}

	bonus := e.bonus.Evaluate(state.StageResults)

	total := bonus
	for _, sr := range state.StageResults {
		total += sr.NormalizedScore
	}

	label := e.classifier.Classify(total)

	next := state.Clone()
	next.Status = models.StatusSubmitted
	next.TotalScore = &total
	next.Bonus = &bonus
	next.Classification = label
	next.UpdatedAt = time.Now().UTC().Format(time.RFC3339)

	e.logger.Info("application finalized", map[string]interface{}{
		"applicationId":  state.ID,
		"totalScore":     total,
		"bonus":          bonus,
		"classification": label,
	})

	return next, label, nil
}

// Catalog exposes the engine's read-only configuration.
func (e *Engine) Catalog() *catalog.Catalog {
	return e.catalog
}

func checkRequiredResponses(stage catalog.StageDefinition, responses models.ResponseBundle) error {
	for _, q := range stage.Questions {
		if !q.Required {
			continue
		}
		if _, ok := responses[q.ID]; !ok {
			return errors.NewValidationError(errors.ErrCodeRequiredResponseMissing,
				fmt.Sprintf("stage %d: required question %q has no response", stage.Index, q.ID))
		}
	}
	return nil
}
