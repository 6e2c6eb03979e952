// internal/service/service_test.go
package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"screening-engine/internal/common/errors"
	"screening-engine/internal/common/logger"
	"screening-engine/internal/engine"
	"screening-engine/internal/engine/catalog"
	"screening-engine/internal/models"
)

// ==========================
// Fakes
// ==========================

type fakeStore struct {
	states  map[string]models.ApplicationState
	saveErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{states: make(map[string]models.ApplicationState)}
}

func (f *fakeStore) Save(ctx context.Context, state models.ApplicationState) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.states[state.ID] = state
	return nil
}

func (f *fakeStore) Get(ctx context.Context, id string) (models.ApplicationState, error) {
	state, ok := f.states[id]
	if !ok {
		return models.ApplicationState{}, errors.NewApplicationNotFoundError(id)
	}
	return state, nil
}

type fakeLocker struct {
	acquired   int
	released   int
	acquireErr error
}

func (f *fakeLocker) Acquire(ctx context.Context, applicationID string) (func(), error) {
	if f.acquireErr != nil {
		return nil, f.acquireErr
	}
	f.acquired++
	return func() { f.released++ }, nil
}

type fakeCache struct {
	entries map[string]models.ApplicationState
	hits    int
	misses  int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]models.ApplicationState)}
}

func (f *fakeCache) Get(ctx context.Context, id string) (models.ApplicationState, bool) {
	state, ok := f.entries[id]
	if ok {
		f.hits++
	} else {
		f.misses++
	}
	return state, ok
}

func (f *fakeCache) Set(ctx context.Context, state models.ApplicationState) error {
	f.entries[state.ID] = state
	return nil
}

type fakeNotifier struct {
	notified []models.ApplicationState
	err      error
}

func (f *fakeNotifier) NotifyDecision(ctx context.Context, state models.ApplicationState, contact models.Contact) error {
	f.notified = append(f.notified, state)
	return f.err
}

// ==========================
// Test Helper Functions
// ==========================

type serviceFixture struct {
	svc      *ScreeningService
	store    *fakeStore
	locker   *fakeLocker
	notifier *fakeNotifier
}

func newFixture(t *testing.T) *serviceFixture {
	t.Helper()

	raw := []byte(`{
		"version": "test",
		"defaultBand": "reject",
		"stages": [
			{
				"index": 0,
				"title": "Only Stage",
				"minScoreRequired": 5,
				"maxPossibleScore": 10,
				"questions": [
					{
						"id": "q",
						"kind": "single_choice",
						"prompt": "the question",
						"weight": 1.0,
						"required": true,
						"options": [
							{"label": "weak", "rawScore": 2},
							{"label": "strong", "rawScore": 8}
						]
					}
				]
			}
		],
		"classificationThresholds": [
			{"minTotalScore": 8, "label": "accept"}
		]
	}`)

	cat, err := catalog.Load(raw, logger.NewTestLogger(t))
	require.NoError(t, err)

	store := newFakeStore()
	locker := &fakeLocker{}
	notifier := &fakeNotifier{}
	eng := engine.New(cat, logger.NewTestLogger(t))

	return &serviceFixture{
		svc:      New(eng, store, locker, notifier, logger.NewTestLogger(t)),
		store:    store,
		locker:   locker,
		notifier: notifier,
	}
}

func passResponses() []models.Response {
	return []models.Response{{QuestionID: "q", Selected: []int{8}}}
}

// ==========================
// Start / Get Tests
// ==========================

func TestService_StartPersistsFreshApplication(t *testing.T) {
	f := newFixture(t)

	state, err := f.svc.Start(context.Background())

	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, state.Status)
	stored, ok := f.store.states[state.ID]
	require.True(t, ok)
	assert.Equal(t, state, stored)
}

func TestService_StartSaveFailure(t *testing.T) {
	f := newFixture(t)
	f.store.saveErr = errors.NewStoreError("db down")

	_, err := f.svc.Start(context.Background())

	require.Error(t, err)
	assert.True(t, errors.IsRetryable(err))
}

func TestService_GetUnknownApplication(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Get(context.Background(), "ghost")

	require.Error(t, err)
	engErr, _ := errors.AsEngineError(err)
	assert.Equal(t, errors.ErrCodeApplicationNotFound, engErr.Code)
}

// ==========================
// State Cache Tests
// ==========================

func TestService_GetPrefersCache(t *testing.T) {
	f := newFixture(t)
	cache := newFakeCache()
	f.svc.WithCache(cache)

	state, err := f.svc.Start(context.Background())
	require.NoError(t, err)

	// Start primes the cache, so the read never touches the store.
	got, err := f.svc.Get(context.Background(), state.ID)
	require.NoError(t, err)
	assert.Equal(t, state, got)
	assert.Equal(t, 1, cache.hits)
}

func TestService_GetFallsBackToStoreOnMiss(t *testing.T) {
	f := newFixture(t)
	state, err := f.svc.Start(context.Background())
	require.NoError(t, err)

	cache := newFakeCache()
	f.svc.WithCache(cache)

	got, err := f.svc.Get(context.Background(), state.ID)
	require.NoError(t, err)
	assert.Equal(t, state, got)
	assert.Equal(t, 1, cache.misses)
	// The store read refills the cache.
	assert.Equal(t, state, cache.entries[state.ID])
}

func TestService_SubmitStageRefreshesCache(t *testing.T) {
	f := newFixture(t)
	cache := newFakeCache()
	f.svc.WithCache(cache)

	state, err := f.svc.Start(context.Background())
	require.NoError(t, err)

	outcome, err := f.svc.SubmitStage(context.Background(), state.ID, 0, passResponses())
	require.NoError(t, err)
	assert.Equal(t, outcome.State, cache.entries[state.ID])
}

// ==========================
// SubmitStage Tests
// ==========================

func TestService_SubmitStagePersistsSuccessor(t *testing.T) {
	f := newFixture(t)
	state, err := f.svc.Start(context.Background())
	require.NoError(t, err)

	outcome, err := f.svc.SubmitStage(context.Background(), state.ID, 0, passResponses())

	require.NoError(t, err)
	assert.True(t, outcome.Result.Passed)
	assert.Nil(t, outcome.Report)
	assert.Equal(t, models.StatusReadyForClassification, outcome.State.Status)
	assert.Equal(t, outcome.State, f.store.states[state.ID])
	assert.Equal(t, 1, f.locker.acquired)
	assert.Equal(t, 1, f.locker.released)
}

func TestService_SubmitStageLockConflict(t *testing.T) {
	f := newFixture(t)
	state, err := f.svc.Start(context.Background())
	require.NoError(t, err)
	f.locker.acquireErr = errors.NewApplicantLockedError(state.ID)

	_, err = f.svc.SubmitStage(context.Background(), state.ID, 0, passResponses())

	require.Error(t, err)
	engErr, _ := errors.AsEngineError(err)
	assert.Equal(t, errors.ErrCodeApplicantLocked, engErr.Code)
	// Stored state stays at stage 0.
	assert.Equal(t, models.StatusInProgress, f.store.states[state.ID].Status)
}

func TestService_SubmitStageEngineErrorLeavesStoreUntouched(t *testing.T) {
	f := newFixture(t)
	state, err := f.svc.Start(context.Background())
	require.NoError(t, err)

	_, err = f.svc.SubmitStage(context.Background(), state.ID, 3, passResponses())

	require.Error(t, err)
	assert.True(t, errors.IsSequenceError(err))
	assert.Equal(t, state, f.store.states[state.ID])
	assert.Equal(t, 1, f.locker.released, "lock must be released on engine error")
}

func TestService_SubmitStageSaveFailureSurfaces(t *testing.T) {
	f := newFixture(t)
	state, err := f.svc.Start(context.Background())
	require.NoError(t, err)
	f.store.saveErr = errors.NewStoreError("db down")

	_, err = f.svc.SubmitStage(context.Background(), state.ID, 0, passResponses())

	require.Error(t, err)
	assert.True(t, errors.IsRetryable(err))
}

// ==========================
// Finalize Tests
// ==========================

func TestService_FinalizeNotifiesDecision(t *testing.T) {
	f := newFixture(t)
	state, err := f.svc.Start(context.Background())
	require.NoError(t, err)
	_, err = f.svc.SubmitStage(context.Background(), state.ID, 0, passResponses())
	require.NoError(t, err)

	final, label, err := f.svc.Finalize(context.Background(), state.ID, models.Contact{Email: "r@example.com"})

	require.NoError(t, err)
	assert.Equal(t, "accept", label)
	assert.Equal(t, models.StatusSubmitted, final.Status)
	require.NotNil(t, final.TotalScore)
	assert.Equal(t, 8, *final.TotalScore)
	require.Len(t, f.notifier.notified, 1)
	assert.Equal(t, models.StatusSubmitted, f.notifier.notified[0].Status)
}

func TestService_FinalizeBeforeReady(t *testing.T) {
	f := newFixture(t)
	state, err := f.svc.Start(context.Background())
	require.NoError(t, err)

	_, _, err = f.svc.Finalize(context.Background(), state.ID, models.Contact{})

	require.Error(t, err)
	engErr, _ := errors.AsEngineError(err)
	assert.Equal(t, errors.ErrCodeNotReadyToSubmit, engErr.Code)
	assert.Empty(t, f.notifier.notified)
}

func TestService_FinalizeNotificationFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)
	state, err := f.svc.Start(context.Background())
	require.NoError(t, err)
	_, err = f.svc.SubmitStage(context.Background(), state.ID, 0, passResponses())
	require.NoError(t, err)
	f.notifier.err = errors.NewNotificationFailedError(assert.AnError)

	final, label, err := f.svc.Finalize(context.Background(), state.ID, models.Contact{Email: "r@example.com"})

	require.NoError(t, err)
	assert.Equal(t, "accept", label)
	assert.Equal(t, models.StatusSubmitted, final.Status)
	// The terminal state is persisted even when the notification fails.
	assert.Equal(t, models.StatusSubmitted, f.store.states[state.ID].Status)
}

func TestService_FinalizeWithoutNotifier(t *testing.T) {
	f := newFixture(t)
	f.svc.notifier = nil
	state, err := f.svc.Start(context.Background())
	require.NoError(t, err)
	_, err = f.svc.SubmitStage(context.Background(), state.ID, 0, passResponses())
	require.NoError(t, err)

	_, label, err := f.svc.Finalize(context.Background(), state.ID, models.Contact{})

	require.NoError(t, err)
	assert.Equal(t, "accept", label)
}
