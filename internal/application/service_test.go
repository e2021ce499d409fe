package application

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/pactline/contract-exchange/internal/domain"
	"github.com/pactline/contract-exchange/internal/ports"
)

// memContracts is an in-memory ContractRepository. Mutate serializes per
// repository with a single mutex, which is a strictly stronger guarantee
// than the per-contract serialization the real adapter provides.
type memContracts struct {
	mu        sync.Mutex
	contracts map[uuid.UUID]*domain.Contract
	events    []domain.ContractEvent
}

func newMemContracts() *memContracts {
	return &memContracts{contracts: make(map[uuid.UUID]*domain.Contract)}
}

func (m *memContracts) Create(_ context.Context, c *domain.Contract, initial *domain.Version, ev *domain.ContractEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	cp.Versions = []domain.Version{*initial}
	m.contracts[c.ContractID] = &cp
	if ev != nil {
		m.events = append(m.events, *ev)
	}
	return nil
}

func (m *memContracts) GetByID(_ context.Context, id uuid.UUID) (*domain.Contract, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.contracts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *c
	cp.Versions = append([]domain.Version(nil), c.Versions...)
	return &cp, nil
}

func (m *memContracts) ListByParticipant(_ context.Context, userID uuid.UUID) ([]domain.Contract, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Contract
	for _, c := range m.contracts {
		if c.SenderID == userID || c.RecipientID == userID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *memContracts) Mutate(_ context.Context, id uuid.UUID, mutate ports.ContractMutation) (*domain.Contract, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.contracts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	work := *c
	work.Versions = append([]domain.Version(nil), c.Versions...)
	v, ev, err := mutate(&work)
	if err != nil {
		return nil, err
	}
	if v != nil {
		work.Versions = append(work.Versions, *v)
	}
	m.contracts[id] = &work
	if ev != nil {
		m.events = append(m.events, *ev)
	}
	result := work
	result.Versions = append([]domain.Version(nil), work.Versions...)
	return &result, nil
}

type memDirectory struct {
	mu    sync.Mutex
	users map[uuid.UUID]domain.Identity
	hang  bool
}

func newMemDirectory(users ...domain.Identity) *memDirectory {
	d := &memDirectory{users: make(map[uuid.UUID]domain.Identity)}
	for _, u := range users {
		d.users[u.UserID] = u
	}
	return d
}

func (d *memDirectory) ByID(_ context.Context, id uuid.UUID) (*domain.Identity, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	u, ok := d.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &u, nil
}

func (d *memDirectory) ByHandle(ctx context.Context, handle string) (*domain.Identity, error) {
	if d.hang {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	// Username matches win over email matches, like the real directory.
	for _, u := range d.users {
		if u.Username == handle {
			cp := u
			return &cp, nil
		}
	}
	for _, u := range d.users {
		if u.Email == handle {
			cp := u
			return &cp, nil
		}
	}
	return nil, domain.ErrRecipientNotFound
}

func (d *memDirectory) Search(_ context.Context, query string, limit int) ([]domain.Identity, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []domain.Identity
	for _, u := range d.users {
		if strings.Contains(u.Username, query) || strings.Contains(u.Email, query) || strings.Contains(u.FullName, query) {
			out = append(out, u)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (d *memDirectory) Ensure(_ context.Context, id domain.Identity) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.users[id.UserID] = id
	return nil
}

type memBlobs struct {
	mu    sync.Mutex
	blobs map[string][]byte
	fail  error
	hang  bool
}

func newMemBlobs() *memBlobs { return &memBlobs{blobs: make(map[string][]byte)} }

func (b *memBlobs) Put(ctx context.Context, data []byte) (string, error) {
	if b.hang {
		<-ctx.Done()
		return "", ctx.Err()
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fail != nil {
		return "", b.fail
	}
	sum := sha256.Sum256(data)
	ref := hex.EncodeToString(sum[:])
	b.blobs[ref] = append([]byte(nil), data...)
	return ref, nil
}

func (b *memBlobs) Get(_ context.Context, ref string) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.blobs[ref]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

type fixture struct {
	svc       *Service
	contracts *memContracts
	directory *memDirectory
	blobs     *memBlobs
	sender    domain.Identity
	recipient domain.Identity
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	sender := domain.Identity{UserID: uuid.New(), Username: "alice", Email: "alice@example.com", FullName: "Alice Moore"}
	recipient := domain.Identity{UserID: uuid.New(), Username: "bob", Email: "bob@example.com", FullName: "Bob Chen"}
	contracts := newMemContracts()
	directory := newMemDirectory(sender, recipient)
	blobs := newMemBlobs()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(contracts, directory, blobs, logger)
	return &fixture{svc: svc, contracts: contracts, directory: directory, blobs: blobs, sender: sender, recipient: recipient}
}

func (f *fixture) create(t *testing.T) *domain.Contract {
	t.Helper()
	c, err := f.svc.Create(context.Background(), CreateContractInput{
		SenderID:          f.sender.UserID,
		RecipientUsername: f.recipient.Username,
		Title:             "NDA",
		FileName:          "nda.pdf",
		FileBytes:         []byte("draft one"),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	return c
}

func TestCreateByUsername(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	c := f.create(t)
	if c.Status != domain.StatusPending {
		t.Errorf("status = %s, want pending", c.Status)
	}
	if c.CurrentVersion != 1 || len(c.Versions) != 1 {
		t.Errorf("want a single version, got current=%d count=%d", c.CurrentVersion, len(c.Versions))
	}
	if c.Versions[0].ChangeNotes != "Initial version" {
		t.Errorf("initial notes = %q", c.Versions[0].ChangeNotes)
	}
	if c.RecipientID != f.recipient.UserID {
		t.Errorf("recipient = %s, want %s", c.RecipientID, f.recipient.UserID)
	}
	if c.Locked() {
		t.Error("new contract must be unlocked")
	}
	if len(f.contracts.events) != 1 || f.contracts.events[0].Type != domain.EventContractCreated {
		t.Fatalf("want one contract.created event, got %v", f.contracts.events)
	}
	if f.contracts.events[0].RecipientID != f.recipient.UserID {
		t.Error("created event must be addressed to the recipient")
	}
}

func TestCreateValidation(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	cases := []struct {
		name string
		in   CreateContractInput
		want error
	}{
		{"missing title", CreateContractInput{SenderID: f.sender.UserID, RecipientUsername: "bob", FileBytes: []byte("x")}, domain.ErrInvalidInput},
		{"empty file", CreateContractInput{SenderID: f.sender.UserID, RecipientUsername: "bob", Title: "NDA"}, domain.ErrInvalidInput},
		{"no recipient ref", CreateContractInput{SenderID: f.sender.UserID, Title: "NDA", FileBytes: []byte("x")}, domain.ErrInvalidInput},
		{"both recipient refs", CreateContractInput{SenderID: f.sender.UserID, RecipientUsername: "bob", RecipientEmail: "bob@example.com", Title: "NDA", FileBytes: []byte("x")}, domain.ErrInvalidInput},
		{"unknown recipient", CreateContractInput{SenderID: f.sender.UserID, RecipientUsername: "nobody", Title: "NDA", FileBytes: []byte("x")}, domain.ErrRecipientNotFound},
		{"self recipient", CreateContractInput{SenderID: f.sender.UserID, RecipientUsername: "alice", Title: "NDA", FileBytes: []byte("x")}, domain.ErrInvalidInput},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := f.svc.Create(ctx, tc.in)
			if !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestCreateBlobFailureIsUpstream(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.blobs.fail = fmt.Errorf("disk on fire")

	_, err := f.svc.Create(context.Background(), CreateContractInput{
		SenderID:          f.sender.UserID,
		RecipientUsername: "bob",
		Title:             "NDA",
		FileBytes:         []byte("x"),
	})
	if !errors.Is(err, domain.ErrUpstreamUnavailable) {
		t.Fatalf("err = %v, want ErrUpstreamUnavailable", err)
	}
}

func TestHungCollaboratorsSurfaceUpstreamUnavailable(t *testing.T) {
	t.Parallel()

	in := func(f *fixture) CreateContractInput {
		return CreateContractInput{
			SenderID:          f.sender.UserID,
			RecipientUsername: "bob",
			Title:             "NDA",
			FileBytes:         []byte("x"),
		}
	}

	t.Run("blob store", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.svc.WithUpstreamTimeout(20 * time.Millisecond)
		f.blobs.hang = true

		start := time.Now()
		_, err := f.svc.Create(context.Background(), in(f))
		if !errors.Is(err, domain.ErrUpstreamUnavailable) {
			t.Fatalf("err = %v, want ErrUpstreamUnavailable", err)
		}
		if time.Since(start) > 5*time.Second {
			t.Fatal("call was not bounded by the upstream timeout")
		}
	})

	t.Run("directory", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.svc.WithUpstreamTimeout(20 * time.Millisecond)
		f.directory.hang = true

		_, err := f.svc.Create(context.Background(), in(f))
		if !errors.Is(err, domain.ErrUpstreamUnavailable) {
			t.Fatalf("err = %v, want ErrUpstreamUnavailable", err)
		}
	})
}

func TestRecipientHandlePrefersUsername(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	// One user's username collides with another user's email. The username
	// owner must win regardless of which field the caller filled in.
	byName := domain.Identity{UserID: uuid.New(), Username: "pat@corp.test", Email: "pat.jordan@corp.test"}
	byEmail := domain.Identity{UserID: uuid.New(), Username: "patricia", Email: "pat@corp.test"}
	if err := f.directory.Ensure(ctx, byName); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if err := f.directory.Ensure(ctx, byEmail); err != nil {
		t.Fatalf("ensure: %v", err)
	}

	c, err := f.svc.Create(ctx, CreateContractInput{
		SenderID:       f.sender.UserID,
		RecipientEmail: "pat@corp.test",
		Title:          "NDA",
		FileBytes:      []byte("x"),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if c.RecipientID != byName.UserID {
		t.Errorf("recipient = %s, want the username owner %s", c.RecipientID, byName.UserID)
	}
}

func TestGetAuthorization(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	c := f.create(t)

	if _, err := f.svc.Get(ctx, c.ContractID, f.sender.UserID); err != nil {
		t.Errorf("sender get: %v", err)
	}
	if _, err := f.svc.Get(ctx, c.ContractID, f.recipient.UserID); err != nil {
		t.Errorf("recipient get: %v", err)
	}
	if _, err := f.svc.Get(ctx, c.ContractID, uuid.New()); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("stranger get err = %v, want ErrForbidden", err)
	}
	if _, err := f.svc.Get(ctx, uuid.New(), f.sender.UserID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("missing get err = %v, want ErrNotFound", err)
	}
}

func TestLockContention(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	c := f.create(t)

	got, err := f.svc.Lock(ctx, c.ContractID, f.recipient.UserID, LockActionAcquire)
	if err != nil {
		t.Fatalf("first lock: %v", err)
	}
	if !got.IsLockedBy(f.recipient.UserID) || got.LockedAt == nil {
		t.Fatal("lock must set holder and timestamp together")
	}
	firstLockedAt := *got.LockedAt

	if _, err := f.svc.Lock(ctx, c.ContractID, f.sender.UserID, LockActionAcquire); !errors.Is(err, domain.ErrAlreadyLocked) {
		t.Errorf("second holder err = %v, want ErrAlreadyLocked", err)
	}

	again, err := f.svc.Lock(ctx, c.ContractID, f.recipient.UserID, LockActionAcquire)
	if err != nil {
		t.Fatalf("re-lock by holder must be a no-op success: %v", err)
	}
	if again.LockedAt == nil || !again.LockedAt.Equal(firstLockedAt) {
		t.Error("idempotent re-lock must keep the original lockedAt")
	}
}

func TestUnlockRules(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	c := f.create(t)

	if _, err := f.svc.Lock(ctx, c.ContractID, f.recipient.UserID, LockActionRelease); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("unlock while unlocked err = %v, want ErrForbidden", err)
	}

	if _, err := f.svc.Lock(ctx, c.ContractID, f.recipient.UserID, LockActionAcquire); err != nil {
		t.Fatalf("lock: %v", err)
	}
	if _, err := f.svc.Lock(ctx, c.ContractID, f.sender.UserID, LockActionRelease); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("unlock by non-holder err = %v, want ErrForbidden", err)
	}

	got, err := f.svc.Lock(ctx, c.ContractID, f.recipient.UserID, LockActionRelease)
	if err != nil {
		t.Fatalf("unlock by holder: %v", err)
	}
	if got.Locked() || got.LockedByID != nil || got.LockedAt != nil {
		t.Error("unlock must clear both holder and timestamp")
	}
}

func TestLockByStrangerForbidden(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	c := f.create(t)

	if _, err := f.svc.Lock(context.Background(), c.ContractID, uuid.New(), LockActionAcquire); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
}

func TestApplyEditConsumesLock(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	c := f.create(t)

	if _, err := f.svc.Lock(ctx, c.ContractID, f.recipient.UserID, LockActionAcquire); err != nil {
		t.Fatalf("lock: %v", err)
	}
	edited := []byte("draft two with clause 4 fixed")
	got, err := f.svc.ApplyEdit(ctx, ApplyEditInput{
		ContractID:  c.ContractID,
		CallerID:    f.recipient.UserID,
		FileName:    "nda-v2.pdf",
		FileBytes:   edited,
		ChangeNotes: "fixed clause 4",
	})
	if err != nil {
		t.Fatalf("apply edit: %v", err)
	}
	if got.Status != domain.StatusEdited {
		t.Errorf("status = %s, want edited", got.Status)
	}
	if got.CurrentVersion != 2 || len(got.Versions) != 2 {
		t.Errorf("want version 2, got current=%d count=%d", got.CurrentVersion, len(got.Versions))
	}
	if got.Locked() {
		t.Error("apply edit must release the lock")
	}
	if got.Versions[1].ChangeNotes != "fixed clause 4" {
		t.Errorf("change notes = %q", got.Versions[1].ChangeNotes)
	}

	// Round trip: download the new current version and compare bytes.
	doc, err := f.svc.Download(ctx, c.ContractID, f.sender.UserID, 0)
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	if !bytes.Equal(doc.Bytes, edited) {
		t.Error("downloaded bytes differ from submitted bytes")
	}
	if doc.FileName != "nda-v2.pdf" {
		t.Errorf("file name = %q", doc.FileName)
	}

	// A second edit needs the lock again.
	if _, err := f.svc.ApplyEdit(ctx, ApplyEditInput{
		ContractID: c.ContractID,
		CallerID:   f.recipient.UserID,
		FileBytes:  []byte("draft three"),
	}); !errors.Is(err, domain.ErrNotLocked) {
		t.Errorf("edit without lock err = %v, want ErrNotLocked", err)
	}
}

func TestApplyEditWithoutLock(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	c := f.create(t)

	_, err := f.svc.ApplyEdit(context.Background(), ApplyEditInput{
		ContractID: c.ContractID,
		CallerID:   f.sender.UserID,
		FileBytes:  []byte("sneaky edit"),
	})
	if !errors.Is(err, domain.ErrNotLocked) {
		t.Fatalf("err = %v, want ErrNotLocked", err)
	}
}

func TestSignFlow(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	c := f.create(t)

	// Sender may never sign, even while the recipient holds the lock.
	if _, err := f.svc.Lock(ctx, c.ContractID, f.recipient.UserID, LockActionAcquire); err != nil {
		t.Fatalf("lock: %v", err)
	}
	if _, err := f.svc.Sign(ctx, c.ContractID, f.sender.UserID); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("sender sign err = %v, want ErrForbidden", err)
	}

	// The recipient holding their own lock must unlock first.
	if _, err := f.svc.Sign(ctx, c.ContractID, f.recipient.UserID); !errors.Is(err, domain.ErrLocked) {
		t.Errorf("self-locked sign err = %v, want ErrLocked", err)
	}
	if _, err := f.svc.Lock(ctx, c.ContractID, f.recipient.UserID, LockActionRelease); err != nil {
		t.Fatalf("unlock: %v", err)
	}

	got, err := f.svc.Sign(ctx, c.ContractID, f.recipient.UserID)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if got.Status != domain.StatusSigned || got.SignedAt == nil {
		t.Errorf("want signed with signedAt set, got status=%s signedAt=%v", got.Status, got.SignedAt)
	}

	last := f.contracts.events[len(f.contracts.events)-1]
	if last.Type != domain.EventContractSigned || last.RecipientID != f.sender.UserID {
		t.Errorf("want contract.signed addressed to sender, got %+v", last)
	}
}

func TestDenyIsTerminal(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	c := f.create(t)

	if _, err := f.svc.Deny(ctx, c.ContractID, f.recipient.UserID); err != nil {
		t.Fatalf("deny: %v", err)
	}

	// Every further transition on a denied contract fails InvalidState.
	if _, err := f.svc.Lock(ctx, c.ContractID, f.recipient.UserID, LockActionAcquire); !errors.Is(err, domain.ErrInvalidState) {
		t.Errorf("lock after deny err = %v, want ErrInvalidState", err)
	}
	if _, err := f.svc.ApplyEdit(ctx, ApplyEditInput{ContractID: c.ContractID, CallerID: f.recipient.UserID, FileBytes: []byte("x")}); !errors.Is(err, domain.ErrInvalidState) {
		t.Errorf("edit after deny err = %v, want ErrInvalidState", err)
	}
	if _, err := f.svc.Sign(ctx, c.ContractID, f.recipient.UserID); !errors.Is(err, domain.ErrInvalidState) {
		t.Errorf("sign after deny err = %v, want ErrInvalidState", err)
	}
	if _, err := f.svc.Deny(ctx, c.ContractID, f.recipient.UserID); !errors.Is(err, domain.ErrInvalidState) {
		t.Errorf("second deny err = %v, want ErrInvalidState", err)
	}

	got, err := f.svc.Get(ctx, c.ContractID, f.sender.UserID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != domain.StatusDenied || len(got.Versions) != 1 || got.Locked() {
		t.Error("denied contract must be frozen")
	}
}

func TestConcurrentLockersExactlyOneWins(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	c := f.create(t)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	callers := []uuid.UUID{f.sender.UserID, f.recipient.UserID}
	for i, caller := range callers {
		wg.Add(1)
		go func(i int, caller uuid.UUID) {
			defer wg.Done()
			_, errs[i] = f.svc.Lock(ctx, c.ContractID, caller, LockActionAcquire)
		}(i, caller)
	}
	wg.Wait()

	var wins, contended int
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, domain.ErrAlreadyLocked):
			contended++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 || contended != 1 {
		t.Fatalf("want exactly one winner, got wins=%d contended=%d", wins, contended)
	}
}

func TestConcurrentEditsStayContiguous(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	c := f.create(t)

	const rounds = 10
	var wg sync.WaitGroup
	for i := 0; i < rounds; i++ {
		for _, caller := range []uuid.UUID{f.sender.UserID, f.recipient.UserID} {
			wg.Add(1)
			go func(i int, caller uuid.UUID) {
				defer wg.Done()
				if _, err := f.svc.Lock(ctx, c.ContractID, caller, LockActionAcquire); err != nil {
					return
				}
				_, err := f.svc.ApplyEdit(ctx, ApplyEditInput{
					ContractID: c.ContractID,
					CallerID:   caller,
					FileBytes:  []byte(fmt.Sprintf("round %d by %s", i, caller)),
				})
				if err != nil && !errors.Is(err, domain.ErrNotLocked) {
					t.Errorf("apply edit: %v", err)
				}
			}(i, caller)
		}
	}
	wg.Wait()

	got, err := f.svc.Get(ctx, c.ContractID, f.sender.UserID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	for i, v := range got.Versions {
		if v.VersionNumber != i+1 {
			t.Fatalf("version numbers not contiguous: position %d holds %d", i, v.VersionNumber)
		}
	}
	if got.CurrentVersion != len(got.Versions) {
		t.Fatalf("currentVersion=%d but ledger has %d entries", got.CurrentVersion, len(got.Versions))
	}
}

func TestListReturnsParticipantsOnly(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	f.create(t)

	for _, caller := range []uuid.UUID{f.sender.UserID, f.recipient.UserID} {
		got, err := f.svc.List(ctx, caller)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(got) != 1 {
			t.Errorf("participant list len = %d, want 1", len(got))
		}
	}
	got, err := f.svc.List(ctx, uuid.New())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("stranger list len = %d, want 0", len(got))
	}
}

func TestDownloadSpecificVersion(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	c := f.create(t)

	if _, err := f.svc.Lock(ctx, c.ContractID, f.sender.UserID, LockActionAcquire); err != nil {
		t.Fatalf("lock: %v", err)
	}
	if _, err := f.svc.ApplyEdit(ctx, ApplyEditInput{ContractID: c.ContractID, CallerID: f.sender.UserID, FileName: "v2.pdf", FileBytes: []byte("second")}); err != nil {
		t.Fatalf("edit: %v", err)
	}

	doc, err := f.svc.Download(ctx, c.ContractID, f.recipient.UserID, 1)
	if err != nil {
		t.Fatalf("download v1: %v", err)
	}
	if string(doc.Bytes) != "draft one" {
		t.Errorf("v1 bytes = %q", doc.Bytes)
	}
	if _, err := f.svc.Download(ctx, c.ContractID, f.recipient.UserID, 9); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("missing version err = %v, want ErrNotFound", err)
	}
}

func TestSearchUsersExcludesCaller(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	got, err := f.svc.SearchUsers(ctx, f.sender.UserID, "example.com", 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	for _, u := range got {
		if u.UserID == f.sender.UserID {
			t.Error("search must not return the caller")
		}
	}
	if len(got) != 1 || got[0].UserID != f.recipient.UserID {
		t.Errorf("want only the recipient, got %v", got)
	}

	if _, err := f.svc.SearchUsers(ctx, f.sender.UserID, "   ", 10); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("blank query err = %v, want ErrInvalidInput", err)
	}
}

func TestEnsureCaller(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	fresh := uuid.New()
	id, err := f.svc.EnsureCaller(ctx, ports.IdentityClaims{UserID: fresh.String(), Username: "carol", Email: "carol@example.com"})
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if id != fresh {
		t.Errorf("id = %s, want %s", id, fresh)
	}
	if _, err := f.directory.ByID(ctx, fresh); err != nil {
		t.Errorf("directory entry missing after ensure: %v", err)
	}

	if _, err := f.svc.EnsureCaller(ctx, ports.IdentityClaims{UserID: "not-a-uuid"}); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Errorf("bad subject err = %v, want ErrUnauthenticated", err)
	}
}

func TestClockIsPinnable(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	f.svc.WithClock(func() time.Time { return fixed })

	c := f.create(t)
	if !c.CreatedAt.Equal(fixed) {
		t.Errorf("createdAt = %v, want %v", c.CreatedAt, fixed)
	}
}
