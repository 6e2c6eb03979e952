// internal/store/postgres.go

// Package store persists application state between engine calls. The engine
// owns transitions; this layer owns lifetime and the single-writer
// discipline around each applicant.
package store

import (
	"context"
	"database/sql"
	"encoding/json"

	"screening-engine/internal/common/errors"
	"screening-engine/internal/common/logger"
	"screening-engine/internal/models"
)

// PostgresStore persists ApplicationState rows. The full state is stored as
// a JSON document so it round-trips without loss; hot columns are broken out
// for querying and reporting.
type PostgresStore struct {
	db     *sql.DB
	logger logger.Logger
}

// NewPostgresStore creates a store over an open database handle.
func NewPostgresStore(db *sql.DB, log logger.Logger) *PostgresStore {
	return &PostgresStore{db: db, logger: log}
}

const upsertApplicationSQL = `
INSERT INTO applications (id, current_stage_index, status, total_score, bonus, classification, state, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (id) DO UPDATE SET
	current_stage_index = EXCLUDED.current_stage_index,
	status = EXCLUDED.status,
	total_score = EXCLUDED.total_score,
	bonus = EXCLUDED.bonus,
	classification = EXCLUDED.classification,
	state = EXCLUDED.state,
	updated_at = EXCLUDED.updated_at`

const selectApplicationSQL = `SELECT state FROM applications WHERE id = $1`

// Save upserts the application row, replacing the stored state document.
func (s *PostgresStore) Save(ctx context.Context, state models.ApplicationState) error {
	doc, err := json.Marshal(state)
	if err != nil {
		return errors.NewStoreError(err.Error())
	}

	var totalScore, bonus sql.NullInt64
	if state.TotalScore != nil {
		totalScore = sql.NullInt64{Int64: int64(*state.TotalScore), Valid: true}
	}
	if state.Bonus != nil {
		bonus = sql.NullInt64{Int64: int64(*state.Bonus), Valid: true}
	}

	_, err = s.db.ExecContext(ctx, upsertApplicationSQL,
		state.ID,
		state.CurrentStageIndex,
		string(state.Status),
		totalScore,
		bonus,
		state.Classification,
		doc,
		state.CreatedAt,
		state.UpdatedAt,
	)
	if err != nil {
		s.logger.Error("application save failed", map[string]interface{}{
			"applicationId": state.ID,
			"error":         err,
		})
		return errors.NewStoreError(err.Error())
	}

	return nil
}

// Get loads the stored application state by ID.
func (s *PostgresStore) Get(ctx context.Context, id string) (models.ApplicationState, error) {
	var doc []byte
	err := s.db.QueryRowContext(ctx, selectApplicationSQL, id).Scan(&doc)
	if err == sql.ErrNoRows {
		return models.ApplicationState{}, errors.NewApplicationNotFoundError(id)
	}
	if err != nil {
		return models.ApplicationState{}, errors.NewStoreError(err.Error())
	}

	var state models.ApplicationState
	if err := json.Unmarshal(doc, &state); err != nil {
		return models.ApplicationState{}, errors.NewStoreError(err.Error())
	}

	return state, nil
}
