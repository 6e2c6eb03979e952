// internal/service/service.go

// Package service is the stateful calling layer around the pure engine:
// it serializes access per applicant, loads and persists state, emits
// metrics and triggers decision notifications. The engine itself stays
// free of I/O.
package service

import (
	"context"
	"strconv"

	"screening-engine/internal/common/errors"
	"screening-engine/internal/common/logger"
	"screening-engine/internal/common/metrics"
	"screening-engine/internal/engine"
	"screening-engine/internal/models"
)

// ApplicationStore persists application state between calls.
type ApplicationStore interface {
	Save(ctx context.Context, state models.ApplicationState) error
	Get(ctx context.Context, id string) (models.ApplicationState, error)
}

// ApplicantLocker provides the single-writer discipline per application.
type ApplicantLocker interface {
	Acquire(ctx context.Context, applicationID string) (func(), error)
}

// Notifier delivers terminal decisions.
type Notifier interface {
	NotifyDecision(ctx context.Context, state models.ApplicationState, contact models.Contact) error
}

// StateCacher keeps hot application states close to the read path. All
// cache failures degrade to store reads.
type StateCacher interface {
	Get(ctx context.Context, applicationID string) (models.ApplicationState, bool)
	Set(ctx context.Context, state models.ApplicationState) error
}

// SubmitOutcome bundles the results of one stage submission.
type SubmitOutcome struct {
	State  models.ApplicationState       `json:"state"`
	Result models.StageResult            `json:"result"`
	Report *models.DisqualificationReport `json:"disqualification,omitempty"`
}

// ScreeningService composes lock, load, engine operation, persist and
// notify for each externally triggered transition.
type ScreeningService struct {
	engine   *engine.Engine
	store    ApplicationStore
	locker   ApplicantLocker
	notifier Notifier
	cache    StateCacher
	logger   logger.Logger
}

// New creates the screening service. notifier may be nil when notifications
// are disabled.
func New(eng *engine.Engine, store ApplicationStore, locker ApplicantLocker, notifier Notifier, log logger.Logger) *ScreeningService {
	return &ScreeningService{
		engine:   eng,
		store:    store,
		locker:   locker,
		notifier: notifier,
		logger:   log.WithFields(map[string]interface{}{"component": "screening-service"}),
	}
}

// WithCache attaches a read-through state cache.
func (s *ScreeningService) WithCache(cache StateCacher) *ScreeningService {
	s.cache = cache
	return s
}

// Start creates and persists a fresh application.
func (s *ScreeningService) Start(ctx context.Context) (models.ApplicationState, error) {
	state := s.engine.StartApplication()
	if err := s.store.Save(ctx, state); err != nil {
		return models.ApplicationState{}, err
	}

	s.cacheState(ctx, state)
	metrics.ApplicationsStarted.Inc()
	return state, nil
}

// Get loads the current application state, preferring the cache.
func (s *ScreeningService) Get(ctx context.Context, applicationID string) (models.ApplicationState, error) {
	if s.cache != nil {
		if state, ok := s.cache.Get(ctx, applicationID); ok {
			return state, nil
		}
	}

	state, err := s.store.Get(ctx, applicationID)
	if err != nil {
		return models.ApplicationState{}, err
	}

	s.cacheState(ctx, state)
	return state, nil
}

// cacheState refreshes the cached copy; failures only log.
func (s *ScreeningService) cacheState(ctx context.Context, state models.ApplicationState) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, state); err != nil {
		s.logger.Warn("state cache update failed", map[string]interface{}{
			"applicationId": state.ID,
			"error":         err,
		})
	}
}

// SubmitStage advances one application by one stage under the applicant
// lock. The stored state is replaced only when the engine succeeds.
func (s *ScreeningService) SubmitStage(ctx context.Context, applicationID string, stageIndex int, responses []models.Response) (SubmitOutcome, error) {
	release, err := s.locker.Acquire(ctx, applicationID)
	if err != nil {
		return SubmitOutcome{}, err
	}
	defer release()

	state, err := s.store.Get(ctx, applicationID)
	if err != nil {
		return SubmitOutcome{}, err
	}

	next, result, report, err := s.engine.SubmitStageResponses(state, stageIndex, models.BundleOf(responses))
	if err != nil {
		if engErr, ok := errors.AsEngineError(err); ok {
			metrics.SubmissionErrors.WithLabelValues(string(engErr.Code)).Inc()
		}
		return SubmitOutcome{}, err
	}

	if err := s.store.Save(ctx, next); err != nil {
		return SubmitOutcome{}, err
	}
	s.cacheState(ctx, next)

	stageLabel := strconv.Itoa(stageIndex)
	outcome := "passed"
	if !result.Passed {
		outcome = "failed"
		metrics.Disqualifications.WithLabelValues(stageLabel).Inc()
	}
	metrics.StageEvaluations.WithLabelValues(stageLabel, outcome).Inc()
	metrics.StageScoreDistribution.WithLabelValues(stageLabel).Observe(float64(result.NormalizedScore))

	return SubmitOutcome{State: next, Result: result, Report: report}, nil
}

// Finalize classifies a fully qualified application under the applicant
// lock and notifies the decision. Notification failure is logged but does
// not roll back the terminal state.
func (s *ScreeningService) Finalize(ctx context.Context, applicationID string, contact models.Contact) (models.ApplicationState, string, error) {
	release, err := s.locker.Acquire(ctx, applicationID)
	if err != nil {
		return models.ApplicationState{}, "", err
	}
	defer release()

	state, err := s.store.Get(ctx, applicationID)
	if err != nil {
		return models.ApplicationState{}, "", err
	}

	next, label, err := s.engine.FinalizeApplication(state)
	if err != nil {
		if engErr, ok := errors.AsEngineError(err); ok {
			metrics.SubmissionErrors.WithLabelValues(string(engErr.Code)).Inc()
		}
		return models.ApplicationState{}, "", err
	}

	if err := s.store.Save(ctx, next); err != nil {
		return models.ApplicationState{}, "", err
	}
	s.cacheState(ctx, next)

	metrics.Classifications.WithLabelValues(label).Inc()

	if s.notifier != nil {
		if err := s.notifier.NotifyDecision(ctx, next, contact); err != nil {
			s.logger.Warn("decision notification failed", map[string]interface{}{
				"applicationId": applicationID,
				"error":         err,
			})
		}
	}

	return next, label, nil
}
