package domain

import (
	"time"

	"github.com/google/uuid"
)

// Identity is a directory entry for a platform user. Contracts reference
// identities by ID; the directory resolves usernames and emails at create
// time so a dangling recipient can never be stored.
type Identity struct {
	UserID    uuid.UUID
	Username  string
	Email     string
	FullName  string
	CreatedAt time.Time
}
