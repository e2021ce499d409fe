package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pactline/contract-exchange/internal/domain"
	"github.com/pactline/contract-exchange/internal/ports"
)

const idempotencyPrefix = "contracts:idem:"

type idempotencyEntry struct {
	State       string `json:"state"`
	RequestHash string `json:"request_hash"`
	StatusCode  int    `json:"status_code,omitempty"`
	Body        []byte `json:"body,omitempty"`
}

const (
	idemStatePending   = "pending"
	idemStateCompleted = "completed"
)

// RedisIdempotencyStore reserves idempotency keys with SET NX so two racing
// requests with the same key cannot both execute.
type RedisIdempotencyStore struct {
	client *redis.Client
}

func NewRedisIdempotencyStore(client *redis.Client) *RedisIdempotencyStore {
	return &RedisIdempotencyStore{client: client}
}

func (s *RedisIdempotencyStore) Reserve(ctx context.Context, key, requestHash string, ttl time.Duration) (*ports.IdempotencyOutcome, bool, error) {
	entry, err := json.Marshal(idempotencyEntry{State: idemStatePending, RequestHash: requestHash})
	if err != nil {
		return nil, false, err
	}

	ok, err := s.client.SetNX(ctx, idempotencyPrefix+key, entry, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("reserve idempotency key: %w", err)
	}
	if ok {
		return nil, true, nil
	}

	raw, err := s.client.Get(ctx, idempotencyPrefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			// The previous reservation expired between SETNX and GET; the
			// caller retries and wins the next reservation.
			return nil, false, domain.ErrConflict
		}
		return nil, false, fmt.Errorf("load idempotency key: %w", err)
	}

	var existing idempotencyEntry
	if err := json.Unmarshal([]byte(raw), &existing); err != nil {
		return nil, false, fmt.Errorf("decode idempotency entry: %w", err)
	}
	if existing.RequestHash != requestHash {
		return nil, false, domain.ErrIdempotencyConflict
	}
	if existing.State != idemStateCompleted {
		return nil, false, domain.ErrConflict
	}
	return &ports.IdempotencyOutcome{
		RequestHash: existing.RequestHash,
		StatusCode:  existing.StatusCode,
		Body:        existing.Body,
	}, false, nil
}

func (s *RedisIdempotencyStore) Complete(ctx context.Context, key string, outcome ports.IdempotencyOutcome, ttl time.Duration) error {
	entry, err := json.Marshal(idempotencyEntry{
		State:       idemStateCompleted,
		RequestHash: outcome.RequestHash,
		StatusCode:  outcome.StatusCode,
		Body:        outcome.Body,
	})
	if err != nil {
		return err
	}
	return s.client.Set(ctx, idempotencyPrefix+key, entry, ttl).Err()
}

func (s *RedisIdempotencyStore) Release(ctx context.Context, key string) error {
	return s.client.Del(ctx, idempotencyPrefix+key).Err()
}
