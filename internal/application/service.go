// Package application implements the contract lifecycle engine. All state
// transitions go through Service; nothing else mutates contract state.
package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pactline/contract-exchange/internal/domain"
	"github.com/pactline/contract-exchange/internal/ports"
)

const initialVersionNotes = "Initial version"

const defaultUpstreamTimeout = 5 * time.Second

// Service coordinates the contract repository, blob store and identity
// directory. Every mutating operation runs inside one repository transaction
// so a transition either lands fully or not at all.
type Service struct {
	contracts       ports.ContractRepository
	directory       ports.IdentityDirectory
	blobs           ports.BlobStore
	logger          *slog.Logger
	now             func() time.Time
	upstreamTimeout time.Duration
}

func NewService(contracts ports.ContractRepository, directory ports.IdentityDirectory, blobs ports.BlobStore, logger *slog.Logger) *Service {
	return &Service{
		contracts:       contracts,
		directory:       directory,
		blobs:           blobs,
		logger:          logger,
		now:             time.Now,
		upstreamTimeout: defaultUpstreamTimeout,
	}
}

// WithClock overrides the time source. Tests use it to pin timestamps.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// WithUpstreamTimeout overrides the per-call deadline on blob store and
// identity directory calls.
func (s *Service) WithUpstreamTimeout(d time.Duration) *Service {
	if d > 0 {
		s.upstreamTimeout = d
	}
	return s
}

// upstreamCtx bounds a single collaborator call. Requests arrive without a
// deadline, so a hung blob store or directory would otherwise block forever.
func (s *Service) upstreamCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.upstreamTimeout)
}

// EnsureCaller upserts a directory entry for an externally authenticated
// caller so contracts can reference them by ID.
func (s *Service) EnsureCaller(ctx context.Context, claims ports.IdentityClaims) (uuid.UUID, error) {
	id, err := uuid.Parse(claims.UserID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: subject is not a uuid", domain.ErrUnauthenticated)
	}
	ensure := domain.Identity{
		UserID:   id,
		Username: claims.Username,
		Email:    claims.Email,
		FullName: claims.FullName,
	}
	uctx, cancel := s.upstreamCtx(ctx)
	defer cancel()
	if err := s.directory.Ensure(uctx, ensure); err != nil {
		return uuid.Nil, asUpstream(err)
	}
	return id, nil
}

// Create opens a contract in pending status with version 1 built from the
// uploaded document. The counterparty is resolved by username or email,
// exactly one of which must be supplied.
func (s *Service) Create(ctx context.Context, in CreateContractInput) (*domain.Contract, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", domain.ErrInvalidInput)
	}
	if len(in.FileBytes) == 0 {
		return nil, fmt.Errorf("%w: contract file is empty", domain.ErrInvalidInput)
	}
	username := strings.TrimSpace(in.RecipientUsername)
	email := strings.TrimSpace(in.RecipientEmail)
	if (username == "") == (email == "") {
		return nil, fmt.Errorf("%w: exactly one of recipient username or email is required", domain.ErrInvalidInput)
	}
	handle := username
	if handle == "" {
		handle = email
	}

	lookupCtx, cancelLookup := s.upstreamCtx(ctx)
	recipient, err := s.directory.ByHandle(lookupCtx, handle)
	cancelLookup()
	if err != nil {
		return nil, asUpstream(err)
	}
	if recipient.UserID == in.SenderID {
		return nil, fmt.Errorf("%w: cannot send a contract to yourself", domain.ErrInvalidInput)
	}

	putCtx, cancelPut := s.upstreamCtx(ctx)
	ref, err := s.blobs.Put(putCtx, in.FileBytes)
	cancelPut()
	if err != nil {
		return nil, asUpstream(err)
	}

	now := s.now().UTC()
	contract := &domain.Contract{
		ContractID:     uuid.New(),
		Title:          title,
		Notes:          strings.TrimSpace(in.Notes),
		Status:         domain.StatusPending,
		SenderID:       in.SenderID,
		RecipientID:    recipient.UserID,
		CurrentVersion: 1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	initial := &domain.Version{
		VersionID:     uuid.New(),
		ContractID:    contract.ContractID,
		VersionNumber: 1,
		BlobRef:       ref,
		FileName:      in.FileName,
		CreatedByID:   in.SenderID,
		CreatedAt:     now,
		ChangeNotes:   initialVersionNotes,
	}
	ev := domain.NewContractEvent(domain.EventContractCreated, contract, in.SenderID, now)

	if err := s.contracts.Create(ctx, contract, initial, &ev); err != nil {
		return nil, err
	}
	contract.Versions = []domain.Version{*initial}

	s.logger.InfoContext(ctx, "contract created",
		slog.String("contract_id", contract.ContractID.String()),
		slog.String("sender_id", in.SenderID.String()),
		slog.String("recipient_id", recipient.UserID.String()))
	return contract, nil
}

// Get returns the contract with its full version history. Only the sender
// and the recipient may read it.
func (s *Service) Get(ctx context.Context, contractID, callerID uuid.UUID) (*domain.Contract, error) {
	c, err := s.contracts.GetByID(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if !c.IsParticipant(callerID) {
		return nil, domain.ErrForbidden
	}
	return c, nil
}

// List returns every contract where the caller is sender or recipient,
// newest first.
func (s *Service) List(ctx context.Context, callerID uuid.UUID) ([]domain.Contract, error) {
	return s.contracts.ListByParticipant(ctx, callerID)
}

// Lock acquires or releases the edit lock. Re-locking by the current holder
// is a no-op success; unlocking requires holding the lock.
func (s *Service) Lock(ctx context.Context, contractID, callerID uuid.UUID, action LockAction) (*domain.Contract, error) {
	switch action {
	case LockActionAcquire, LockActionRelease:
	default:
		return nil, fmt.Errorf("%w: unknown lock action %q", domain.ErrInvalidInput, action)
	}
	return s.contracts.Mutate(ctx, contractID, func(c *domain.Contract) (*domain.Version, *domain.ContractEvent, error) {
		if !c.IsParticipant(callerID) {
			return nil, nil, domain.ErrForbidden
		}
		if action == LockActionRelease {
			if !c.IsLockedBy(callerID) {
				return nil, nil, domain.ErrForbidden
			}
			c.LockedByID = nil
			c.LockedAt = nil
			c.UpdatedAt = s.now().UTC()
			return nil, nil, nil
		}
		if c.Status.IsTerminal() {
			return nil, nil, fmt.Errorf("%w: contract is %s", domain.ErrInvalidState, c.Status)
		}
		if c.IsLockedBy(callerID) {
			// Idempotent re-lock keeps the original lockedAt.
			return nil, nil, nil
		}
		if c.Locked() {
			return nil, nil, domain.ErrAlreadyLocked
		}
		now := s.now().UTC()
		c.LockedByID = &callerID
		c.LockedAt = &now
		c.UpdatedAt = now
		return nil, nil, nil
	})
}

// ApplyEdit appends a new version from the uploaded document and releases
// the lock in the same transaction. Editing consumes the lock, so a second
// edit requires re-acquiring it.
func (s *Service) ApplyEdit(ctx context.Context, in ApplyEditInput) (*domain.Contract, error) {
	if len(in.FileBytes) == 0 {
		return nil, fmt.Errorf("%w: contract file is empty", domain.ErrInvalidInput)
	}

	putCtx, cancelPut := s.upstreamCtx(ctx)
	ref, err := s.blobs.Put(putCtx, in.FileBytes)
	cancelPut()
	if err != nil {
		return nil, asUpstream(err)
	}

	c, err := s.contracts.Mutate(ctx, in.ContractID, func(c *domain.Contract) (*domain.Version, *domain.ContractEvent, error) {
		if !c.IsParticipant(in.CallerID) {
			return nil, nil, domain.ErrForbidden
		}
		if c.Status.IsTerminal() {
			return nil, nil, fmt.Errorf("%w: contract is %s", domain.ErrInvalidState, c.Status)
		}
		if !c.IsLockedBy(in.CallerID) {
			return nil, nil, domain.ErrNotLocked
		}

		now := s.now().UTC()
		v := &domain.Version{
			VersionID:     uuid.New(),
			ContractID:    c.ContractID,
			VersionNumber: c.CurrentVersion + 1,
			BlobRef:       ref,
			FileName:      in.FileName,
			CreatedByID:   in.CallerID,
			CreatedAt:     now,
			ChangeNotes:   strings.TrimSpace(in.ChangeNotes),
		}
		c.CurrentVersion = v.VersionNumber
		c.Status = domain.StatusEdited
		c.LockedByID = nil
		c.LockedAt = nil
		c.UpdatedAt = now
		ev := domain.NewContractEvent(domain.EventContractEdited, c, in.CallerID, now)
		return v, &ev, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "contract edited",
		slog.String("contract_id", c.ContractID.String()),
		slog.Int("version", c.CurrentVersion))
	return c, nil
}

// Sign moves the contract to its signed terminal state. Only the recipient
// may sign, and never while any edit lock is held.
func (s *Service) Sign(ctx context.Context, contractID, callerID uuid.UUID) (*domain.Contract, error) {
	c, err := s.terminate(ctx, contractID, callerID, domain.StatusSigned, domain.EventContractSigned)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "contract signed", slog.String("contract_id", contractID.String()))
	return c, nil
}

// Deny moves the contract to its denied terminal state with the same actor
// and lock rules as Sign.
func (s *Service) Deny(ctx context.Context, contractID, callerID uuid.UUID) (*domain.Contract, error) {
	c, err := s.terminate(ctx, contractID, callerID, domain.StatusDenied, domain.EventContractDenied)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "contract denied", slog.String("contract_id", contractID.String()))
	return c, nil
}

func (s *Service) terminate(ctx context.Context, contractID, callerID uuid.UUID, target domain.ContractStatus, eventType string) (*domain.Contract, error) {
	return s.contracts.Mutate(ctx, contractID, func(c *domain.Contract) (*domain.Version, *domain.ContractEvent, error) {
		// Actor check comes before state and lock checks so a non-recipient
		// always sees Forbidden.
		if c.RecipientID != callerID {
			if !c.IsParticipant(callerID) {
				return nil, nil, domain.ErrForbidden
			}
			return nil, nil, fmt.Errorf("%w: only the recipient may %s", domain.ErrForbidden, target)
		}
		if !domain.CanTransition(c.Status, target) {
			return nil, nil, fmt.Errorf("%w: contract is %s", domain.ErrInvalidState, c.Status)
		}
		// A self-held lock blocks signing too; the holder must unlock first.
		if c.Locked() {
			return nil, nil, domain.ErrLocked
		}
		now := s.now().UTC()
		c.Status = target
		c.UpdatedAt = now
		if target == domain.StatusSigned {
			c.SignedAt = &now
		}
		ev := domain.NewContractEvent(eventType, c, callerID, now)
		return nil, &ev, nil
	})
}

// Describe returns contract state without a participant check. It serves
// internal service-to-service lookups that arrive over the mesh, never the
// public API.
func (s *Service) Describe(ctx context.Context, contractID uuid.UUID) (*domain.Contract, error) {
	return s.contracts.GetByID(ctx, contractID)
}

// ListVersions returns the ordered version ledger for a contract.
func (s *Service) ListVersions(ctx context.Context, contractID, callerID uuid.UUID) ([]domain.Version, error) {
	c, err := s.Get(ctx, contractID, callerID)
	if err != nil {
		return nil, err
	}
	return c.Versions, nil
}

// Download returns the document bytes for a specific version number, or for
// the current version when versionNumber is 0.
func (s *Service) Download(ctx context.Context, contractID, callerID uuid.UUID, versionNumber int) (*Document, error) {
	c, err := s.Get(ctx, contractID, callerID)
	if err != nil {
		return nil, err
	}
	if versionNumber == 0 {
		versionNumber = c.CurrentVersion
	}
	var match *domain.Version
	for i := range c.Versions {
		if c.Versions[i].VersionNumber == versionNumber {
			match = &c.Versions[i]
			break
		}
	}
	if match == nil {
		return nil, fmt.Errorf("%w: version %d", domain.ErrNotFound, versionNumber)
	}
	getCtx, cancel := s.upstreamCtx(ctx)
	data, err := s.blobs.Get(getCtx, match.BlobRef)
	cancel()
	if err != nil {
		return nil, asUpstream(err)
	}
	return &Document{FileName: match.FileName, Bytes: data}, nil
}

// SearchUsers finds directory entries matching the query by username, email
// or full name. The caller is excluded from the results.
func (s *Service) SearchUsers(ctx context.Context, callerID uuid.UUID, query string, limit int) ([]domain.Identity, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: search query is required", domain.ErrInvalidInput)
	}
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	searchCtx, cancel := s.upstreamCtx(ctx)
	found, err := s.directory.Search(searchCtx, query, limit+1)
	cancel()
	if err != nil {
		return nil, asUpstream(err)
	}
	out := make([]domain.Identity, 0, len(found))
	for _, id := range found {
		if id.UserID == callerID {
			continue
		}
		out = append(out, id)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// asUpstream folds collaborator timeouts into ErrUpstreamUnavailable so
// callers can retry with backoff. Domain sentinels pass through untouched.
func asUpstream(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrRecipientNotFound),
		errors.Is(err, domain.ErrInvalidInput):
		return err
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		return err
	default:
		return fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
}
