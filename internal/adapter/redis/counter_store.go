package redisadapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"adrelay/internal/core/domain"
	"adrelay/internal/core/port"
)

// CounterStore persists frequency-counter actor state as one JSON value
// per actor key. Serialization of access is the actors' responsibility;
// this store only provides durable whole-state get/put.
type CounterStore struct {
	client *redis.Client
}

// NewCounterStore returns a counter store over the given client.
func NewCounterStore(client *redis.Client) *CounterStore {
	return &CounterStore{client: client}
}

func (s *CounterStore) Load(ctx context.Context, key string) (*domain.CounterState, error) {
	raw, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var st domain.CounterState
	if err = json.Unmarshal([]byte(raw), &st); err != nil {
		return nil, fmt.Errorf("unmarshal counter state %s: %w", key, err)
	}
	return &st, nil
}

func (s *CounterStore) Save(ctx context.Context, key string, st *domain.CounterState) error {
	b, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal counter state %s: %w", key, err)
	}
	return s.client.Set(ctx, key, b, 0).Err()
}

var _ port.CounterStore = (*CounterStore)(nil)
