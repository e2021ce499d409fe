package domain

import "errors"

var (
	// ErrNotFound is returned when the requested contract or version does not
	// exist. Keeping this sentinel in domain lets adapters map it consistently
	// to 404/NOT_FOUND.
	ErrNotFound = errors.New("resource not found")
	// ErrRecipientNotFound is distinct from ErrNotFound so create can tell the
	// caller the problem is the recipient reference, not the contract.
	ErrRecipientNotFound = errors.New("recipient not found")
	// ErrUnauthenticated signals a missing or unresolvable caller identity.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden signals an authenticated caller who is not a participant in
	// the contract, or not the actor the operation requires.
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidState is returned when the status state machine rejects the
	// requested transition. Not retriable without re-fetching the contract.
	ErrInvalidState = errors.New("invalid contract state")
	// ErrAlreadyLocked: a different user holds the edit lock.
	ErrAlreadyLocked = errors.New("contract already locked by another user")
	// ErrNotLocked: the operation requires the caller to hold the edit lock.
	ErrNotLocked = errors.New("caller does not hold the edit lock")
	// ErrLocked: sign/deny rejected while a lock is outstanding. There is no
	// auto-release on sign; the holder must unlock first.
	ErrLocked              = errors.New("contract is locked")
	ErrConflict            = errors.New("conflict")
	ErrIdempotencyConflict = errors.New("idempotency conflict")
	// ErrUpstreamUnavailable wraps collaborator timeouts/outages so callers can
	// retry with backoff instead of treating the failure as permanent.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)
