// Package ports declares the interfaces the application layer depends on.
// Adapters implement them; the service never imports an adapter package.
package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/pactline/contract-exchange/internal/domain"
)

// ContractMutation is applied to a contract loaded under a row lock. The
// repository commits the returned state, the optional new version row, and
// the optional outbox event in the same transaction, so a mutation either
// lands fully or not at all.
type ContractMutation func(c *domain.Contract) (*domain.Version, *domain.ContractEvent, error)

// ContractRepository persists contracts and their version ledger.
type ContractRepository interface {
	// Create stores a new contract with its initial version and enqueues the
	// event in one transaction.
	Create(ctx context.Context, c *domain.Contract, initial *domain.Version, ev *domain.ContractEvent) error
	// GetByID loads a contract with its versions ordered by version number.
	// Returns domain.ErrNotFound when absent.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Contract, error)
	// ListByParticipant returns contracts where the user is sender or
	// recipient, newest first.
	ListByParticipant(ctx context.Context, userID uuid.UUID) ([]domain.Contract, error)
	// Mutate loads the contract FOR UPDATE, applies mutate, and commits the
	// resulting state atomically. An error from mutate rolls everything back
	// and is returned unwrapped so sentinels survive errors.Is.
	Mutate(ctx context.Context, id uuid.UUID, mutate ContractMutation) (*domain.Contract, error)
}

// OutboxRecord is a pending event awaiting publication, with retry metadata.
type OutboxRecord struct {
	OutboxID     uuid.UUID
	EventType    string
	PartitionKey string
	Payload      []byte
	RetryCount   int
	LastError    *string
	CreatedAt    time.Time
	ClaimToken   *string
	ClaimUntil   *time.Time
}

// OutboxRepository drains the transactional outbox. Claim tokens with a
// lease keep two workers from publishing the same record twice while still
// letting a crashed worker's claims expire.
type OutboxRepository interface {
	ClaimUnpublished(ctx context.Context, limit int, claimToken string, claimUntil time.Time) ([]OutboxRecord, error)
	MarkPublished(ctx context.Context, outboxID uuid.UUID, claimToken string, at time.Time) error
	MarkFailed(ctx context.Context, outboxID uuid.UUID, claimToken, errMsg string, at time.Time) error
	MarkDeadLettered(ctx context.Context, outboxID uuid.UUID, claimToken, errMsg string, at time.Time) error
}

// IdentityDirectory resolves and provisions platform users.
type IdentityDirectory interface {
	// ByID returns domain.ErrNotFound when the user does not exist.
	ByID(ctx context.Context, id uuid.UUID) (*domain.Identity, error)
	// ByHandle resolves a username or email. Returns domain.ErrRecipientNotFound
	// when no user matches.
	ByHandle(ctx context.Context, handle string) (*domain.Identity, error)
	// Search matches usernames, emails and full names by substring.
	Search(ctx context.Context, query string, limit int) ([]domain.Identity, error)
	// Ensure upserts a directory entry for an externally authenticated user.
	Ensure(ctx context.Context, id domain.Identity) error
}
