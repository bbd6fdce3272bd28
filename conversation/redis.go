package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const stateKeyPrefix = "applyflow:conv:"

// DefaultStateTTL caps how long an abandoned conversation lingers. The TTL
// refreshes on every answer, so it only expires flows the applicant walked
// away from.
const DefaultStateTTL = 24 * time.Hour

// RedisStore is a StateStore backed by Redis, letting conversation state
// survive a process restart.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, ttl: DefaultStateTTL}
}

// WithTTL overrides the abandoned-state expiry.
func (r *RedisStore) WithTTL(ttl time.Duration) *RedisStore {
	if ttl > 0 {
		r.ttl = ttl
	}
	return r
}

func (r *RedisStore) Get(ctx context.Context, applicantID string) (State, error) {
	raw, err := r.client.Get(ctx, stateKeyPrefix+applicantID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return State{}, ErrStateNotFound
		}
		return State{}, fmt.Errorf("conversation: redis get: %w", err)
	}

	var state State
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return State{}, fmt.Errorf("conversation: decode state: %w", err)
	}
	return state, nil
}

func (r *RedisStore) Put(ctx context.Context, applicantID string, state State) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("conversation: encode state: %w", err)
	}
	if err := r.client.Set(ctx, stateKeyPrefix+applicantID, raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("conversation: redis set: %w", err)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, applicantID string) error {
	if err := r.client.Del(ctx, stateKeyPrefix+applicantID).Err(); err != nil {
		return fmt.Errorf("conversation: redis delete: %w", err)
	}
	return nil
}
