// internal/api/server_test.go
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"screening-engine/internal/common/errors"
	"screening-engine/internal/common/logger"
	"screening-engine/internal/engine"
	"screening-engine/internal/engine/catalog"
	"screening-engine/internal/models"
	"screening-engine/internal/service"
)

// ==========================
// Fakes
// ==========================

type memoryStore struct {
	states map[string]models.ApplicationState
}

func (m *memoryStore) Save(ctx context.Context, state models.ApplicationState) error {
	m.states[state.ID] = state
	return nil
}

func (m *memoryStore) Get(ctx context.Context, id string) (models.ApplicationState, error) {
	state, ok := m.states[id]
	if !ok {
		return models.ApplicationState{}, errors.NewApplicationNotFoundError(id)
	}
	return state, nil
}

type noopLocker struct {
	err error
}

func (l *noopLocker) Acquire(ctx context.Context, applicationID string) (func(), error) {
	if l.err != nil {
		return nil, l.err
	}
	return func() {}, nil
}

// ==========================
// Test Helper Functions
// ==========================

func newTestServer(t *testing.T) (*httptest.Server, *noopLocker) {
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

	locker := &noopLocker{}
	store := &memoryStore{states: make(map[string]models.ApplicationState)}
	eng := engine.New(cat, logger.NewTestLogger(t))
	svc := service.New(eng, store, locker, nil, logger.NewTestLogger(t))

	ts := httptest.NewServer(NewServer(svc, logger.NewTestLogger(t)).Handler())
	t.Cleanup(ts.Close)

	return ts, locker
}

func startApplication(t *testing.T, ts *httptest.Server) models.ApplicationState {
	t.Helper()

	resp, err := http.Post(ts.URL+"/applications", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var state models.ApplicationState
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&state))
	return state
}

func submitStage(t *testing.T, ts *httptest.Server, id string, stage int, selected int) *http.Response {
	t.Helper()

	body, err := json.Marshal(map[string]interface{}{
		"responses": []models.Response{{QuestionID: "q", Selected: []int{selected}}},
	})
	require.NoError(t, err)

	resp, err := http.Post(
		fmt.Sprintf("%s/applications/%s/stages/%d", ts.URL, id, stage),
		"application/json", bytes.NewReader(body))
	require.NoError(t, err)
	return resp
}

// ==========================
// Route Tests
// ==========================

func TestAPI_StartAndGet(t *testing.T) {
	ts, _ := newTestServer(t)

	state := startApplication(t, ts)
	assert.NotEmpty(t, state.ID)
	assert.Equal(t, models.StatusInProgress, state.Status)

	resp, err := http.Get(ts.URL + "/applications/" + state.ID)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var fetched models.ApplicationState
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&fetched))
	assert.Equal(t, state.ID, fetched.ID)
}

func TestAPI_GetUnknownApplication(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/applications/ghost")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPI_SubmitStageAndFinalize(t *testing.T) {
	ts, _ := newTestServer(t)
	state := startApplication(t, ts)

	resp := submitStage(t, ts, state.ID, 0, 8)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var outcome service.SubmitOutcome
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&outcome))
	assert.True(t, outcome.Result.Passed)
	assert.Equal(t, models.StatusReadyForClassification, outcome.State.Status)

	body, err := json.Marshal(map[string]interface{}{
		"contact": models.Contact{Email: "r@example.com"},
	})
	require.NoError(t, err)

	finResp, err := http.Post(ts.URL+"/applications/"+state.ID+"/finalize",
		"application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer finResp.Body.Close()
	require.Equal(t, http.StatusOK, finResp.StatusCode)

	var fin struct {
		State          models.ApplicationState `json:"state"`
		Classification string                  `json:"classification"`
	}
	require.NoError(t, json.NewDecoder(finResp.Body).Decode(&fin))
	assert.Equal(t, "accept", fin.Classification)
	assert.Equal(t, models.StatusSubmitted, fin.State.Status)
}

// ==========================
// Error Mapping Tests
// ==========================

func TestAPI_ErrorStatusMapping(t *testing.T) {
	t.Run("out of order stage returns conflict", func(t *testing.T) {
		ts, _ := newTestServer(t)
		state := startApplication(t, ts)

		resp := submitStage(t, ts, state.ID, 3, 8)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusConflict, resp.StatusCode)

		var engErr errors.EngineError
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&engErr))
		assert.Equal(t, errors.ErrCodeWrongStageIndex, engErr.Code)
	})

	t.Run("invalid response returns unprocessable", func(t *testing.T) {
		ts, _ := newTestServer(t)
		state := startApplication(t, ts)

		// 99 matches no configured option.
		resp := submitStage(t, ts, state.ID, 0, 99)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	})

	t.Run("locked applicant returns conflict", func(t *testing.T) {
		ts, locker := newTestServer(t)
		state := startApplication(t, ts)
		locker.err = errors.NewApplicantLockedError(state.ID)

		resp := submitStage(t, ts, state.ID, 0, 8)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("malformed body returns bad request", func(t *testing.T) {
		ts, _ := newTestServer(t)
		state := startApplication(t, ts)

		resp, err := http.Post(ts.URL+"/applications/"+state.ID+"/stages/0",
			"application/json", bytes.NewReader([]byte("{not json")))
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("non numeric stage returns bad request", func(t *testing.T) {
		ts, _ := newTestServer(t)
		state := startApplication(t, ts)

		resp, err := http.Post(ts.URL+"/applications/"+state.ID+"/stages/two",
			"application/json", bytes.NewReader([]byte("{}")))
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestAPI_Healthz(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
