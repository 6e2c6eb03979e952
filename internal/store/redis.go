// internal/store/redis.go
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"screening-engine/internal/common/errors"
	"screening-engine/internal/common/logger"
	"screening-engine/internal/models"
)

const (
	lockKeyPrefix  = "screening:lock:"
	stateKeyPrefix = "screening:state:"
)

// ApplicantLock serializes concurrent submissions for one application.
// A single ApplicationState value must never be advanced by two concurrent
// calls; the lock provides the single-writer discipline at the persistence
// boundary. Leases expire after the TTL so a crashed holder cannot wedge an
// applicant forever.
type ApplicantLock struct {
	client *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

// NewApplicantLock creates a lock manager with the given lease TTL.
func NewApplicantLock(client *redis.Client, ttl time.Duration, log logger.Logger) *ApplicantLock {
	return &ApplicantLock{client: client, ttl: ttl, logger: log}
}

// Acquire takes the per-applicant lease. It returns a release func on
// success and an APPLICANT_LOCKED error when another request holds it.
func (l *ApplicantLock) Acquire(ctx context.Context, applicationID string) (func(), error) {
	key := lockKeyPrefix + applicationID
	token := uuid.New().String()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, errors.NewStoreError(fmt.Sprintf("lock acquire: %v", err))
	}
	if !ok {
		return nil, errors.NewApplicantLockedError(applicationID)
	}

	release := func() {
		// Only the holder's token releases the lease; an expired lease taken
		// over by another request stays untouched.
		current, err := l.client.Get(context.Background(), key).Result()
		if err != nil || current != token {
			return
		}
		if err := l.client.Del(context.Background(), key).Err(); err != nil {
			l.logger.Warn("lock release failed", map[string]interface{}{
				"applicationId": applicationID,
				"error":         err,
			})
		}
	}

	return release, nil
}

// StateCache keeps recently touched application states in Redis so status
// reads do not hit Postgres.
type StateCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStateCache creates a cache with the given entry TTL.
func NewStateCache(client *redis.Client, ttl time.Duration) *StateCache {
	return &StateCache{client: client, ttl: ttl}
}

// Get returns the cached state, or ok=false on a miss.
func (c *StateCache) Get(ctx context.Context, applicationID string) (models.ApplicationState, bool) {
	doc, err := c.client.Get(ctx, stateKeyPrefix+applicationID).Result()
	if err != nil {
		return models.ApplicationState{}, false
	}

	var state models.ApplicationState
	if err := json.Unmarshal([]byte(doc), &state); err != nil {
		return models.ApplicationState{}, false
	}
	return state, true
}

// Set stores the state, overwriting any cached value.
func (c *StateCache) Set(ctx context.Context, state models.ApplicationState) error {
	doc, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, stateKeyPrefix+state.ID, doc, c.ttl).Err()
}

// Invalidate drops the cached entry.
func (c *StateCache) Invalidate(ctx context.Context, applicationID string) error {
	return c.client.Del(ctx, stateKeyPrefix+applicationID).Err()
}
