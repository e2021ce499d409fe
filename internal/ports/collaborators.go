package ports

import (
	"context"
	"time"
)

// EventPublisher delivers committed contract events to the message broker.
// Publication is fire-and-forget from the caller's perspective; retries are
// the outbox worker's job.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, payload []byte, partitionKey string) error
	Close() error
}

// BlobStore holds contract document bytes keyed by content address.
type BlobStore interface {
	// Put stores the blob and returns its reference. Storing the same bytes
	// twice returns the same reference.
	Put(ctx context.Context, data []byte) (string, error)
	Get(ctx context.Context, ref string) ([]byte, error)
}

// IdentityClaims is the caller identity carried by an access token.
type IdentityClaims struct {
	UserID   string
	Username string
	Email    string
	FullName string
}

// IdentityResolver validates a bearer credential and extracts the caller.
// Returns domain.ErrUnauthenticated for missing, expired or forged tokens.
type IdentityResolver interface {
	Resolve(ctx context.Context, token string) (*IdentityClaims, error)
}

// IdempotencyOutcome is a previously stored response for a replayed key.
type IdempotencyOutcome struct {
	RequestHash string
	StatusCode  int
	Body        []byte
}

// IdempotencyStore reserves keys for in-flight requests and replays stored
// outcomes for retries. A reservation with a different request hash is an
// idempotency conflict.
type IdempotencyStore interface {
	// Reserve returns (nil, true, nil) when the key is newly reserved,
	// (outcome, false, nil) when a completed outcome exists, and
	// domain.ErrConflict when the key is reserved but not yet completed.
	Reserve(ctx context.Context, key, requestHash string, ttl time.Duration) (*IdempotencyOutcome, bool, error)
	Complete(ctx context.Context, key string, outcome IdempotencyOutcome, ttl time.Duration) error
	Release(ctx context.Context, key string) error
}
