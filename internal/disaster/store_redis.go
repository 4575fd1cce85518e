package disaster

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"bloodlink/internal/domain"
	dErrors "bloodlink/pkg/domain-errors"
)

const disasterKeyPrefix = "disaster:region:"

// RedisStore shares disaster state across instances. Every read hits Redis
// so a toggle committed by one instance is observed by the next query on
// any other.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, region string) (domain.DisasterModeState, bool, error) {
	raw, err := s.client.Get(ctx, disasterKeyPrefix+region).Result()
	if errors.Is(err, redis.Nil) {
		return domain.DisasterModeState{Region: region}, false, nil
	}
	if err != nil {
		return domain.DisasterModeState{}, false, dErrors.Wrap(dErrors.CodeTransient, "read disaster state", err)
	}
	var state domain.DisasterModeState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return domain.DisasterModeState{}, false, fmt.Errorf("decode disaster state for %s: %w", region, err)
	}
	return state, true, nil
}

func (s *RedisStore) Set(ctx context.Context, state domain.DisasterModeState) (domain.DisasterModeState, error) {
	payload, err := json.Marshal(state)
	if err != nil {
		return domain.DisasterModeState{}, fmt.Errorf("encode disaster state for %s: %w", state.Region, err)
	}
	// GETSET-style swap keeps Set the single write path and returns the
	// previous value atomically.
	raw, err := s.client.GetSet(ctx, disasterKeyPrefix+state.Region, payload).Result()
	if errors.Is(err, redis.Nil) {
		return domain.DisasterModeState{Region: state.Region}, nil
	}
	if err != nil {
		return domain.DisasterModeState{}, dErrors.Wrap(dErrors.CodeTransient, "write disaster state", err)
	}
	var previous domain.DisasterModeState
	if err := json.Unmarshal([]byte(raw), &previous); err != nil {
		return domain.DisasterModeState{}, fmt.Errorf("decode previous disaster state for %s: %w", state.Region, err)
	}
	return previous, nil
}
