package application

import (
	"github.com/google/uuid"
)

// CreateContractInput carries everything needed to open a contract with a
// counterparty. Exactly one of RecipientUsername or RecipientEmail must be
// set.
type CreateContractInput struct {
	SenderID          uuid.UUID
	RecipientUsername string
	RecipientEmail    string
	Title             string
	Notes             string
	FileName          string
	FileBytes         []byte
}

// ApplyEditInput replaces the contract document with a new revision. The
// caller must hold the edit lock; applying the edit releases it.
type ApplyEditInput struct {
	ContractID  uuid.UUID
	CallerID    uuid.UUID
	FileName    string
	FileBytes   []byte
	ChangeNotes string
}

// LockAction selects between acquiring and releasing the edit lock.
type LockAction string

const (
	LockActionAcquire LockAction = "lock"
	LockActionRelease LockAction = "unlock"
)

// Document is a version payload returned for download.
type Document struct {
	FileName string
	Bytes    []byte
}
