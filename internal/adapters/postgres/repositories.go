package postgres

import (
	"gorm.io/gorm"

	"github.com/pactline/contract-exchange/internal/ports"
)

// Repositories bundles every Postgres-backed port implementation behind one
// constructor so wiring stays in bootstrap.
type Repositories struct {
	Contracts ports.ContractRepository
	Directory ports.IdentityDirectory
	Outbox    ports.OutboxRepository
}

func NewRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Contracts: &contractRepository{db: db},
		Directory: &directoryRepository{db: db},
		Outbox:    &outboxRepository{db: db},
	}
}
