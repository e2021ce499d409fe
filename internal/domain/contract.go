package domain

import (
	"time"

	"github.com/google/uuid"
)

// ContractStatus is the lifecycle status of a contract.
// Signed and denied are terminal: no transition leaves them.
type ContractStatus string

const (
	StatusPending ContractStatus = "pending"
	StatusEdited  ContractStatus = "edited"
	StatusSigned  ContractStatus = "signed"
	StatusDenied  ContractStatus = "denied"
)

// Contract is the document-exchange aggregate tracked through its lifecycle.
// The edit lock is modeled as the LockedByID/LockedAt field pair on the record
// itself rather than a separate store, because a contract has at most one
// outstanding lock and the lock never outlives the contract.
type Contract struct {
	ContractID     uuid.UUID
	Title          string
	Notes          string
	Status         ContractStatus
	SenderID       uuid.UUID
	RecipientID    uuid.UUID
	CurrentVersion int
	LockedByID     *uuid.UUID
	LockedAt       *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
	SignedAt       *time.Time
	Versions       []Version
}

// Version is one immutable snapshot in a contract's history. BlobRef points
// into the blob store; the version owns the reference, not the bytes.
type Version struct {
	VersionID     uuid.UUID
	ContractID    uuid.UUID
	VersionNumber int
	BlobRef       string
	FileName      string
	CreatedByID   uuid.UUID
	CreatedAt     time.Time
	ChangeNotes   string
}

// IsTerminal reports whether the status admits no further transitions.
func (s ContractStatus) IsTerminal() bool {
	return s == StatusSigned || s == StatusDenied
}

// IsValid reports whether the status is one of the four lifecycle statuses.
func (s ContractStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusEdited, StatusSigned, StatusDenied:
		return true
	default:
		return false
	}
}

// CanTransition reports whether the status state machine permits from -> to.
// Pending and edited may move to edited, signed, or denied; terminal statuses
// have no outgoing edges.
func CanTransition(from, to ContractStatus) bool {
	if from.IsTerminal() {
		return false
	}
	switch to {
	case StatusEdited, StatusSigned, StatusDenied:
		return from == StatusPending || from == StatusEdited
	default:
		return false
	}
}

// IsParticipant reports whether userID is the sender or the recipient.
func (c *Contract) IsParticipant(userID uuid.UUID) bool {
	return c.SenderID == userID || c.RecipientID == userID
}

// Counterparty returns the other participant relative to userID.
func (c *Contract) Counterparty(userID uuid.UUID) uuid.UUID {
	if userID == c.SenderID {
		return c.RecipientID
	}
	return c.SenderID
}

// IsLockedBy reports whether userID currently holds the edit lock.
func (c *Contract) IsLockedBy(userID uuid.UUID) bool {
	return c.LockedByID != nil && *c.LockedByID == userID
}

// Locked reports whether any edit lock is outstanding.
func (c *Contract) Locked() bool {
	return c.LockedByID != nil
}
