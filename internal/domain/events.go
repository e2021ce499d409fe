package domain

import (
	"time"

	"github.com/google/uuid"
)

// Event types emitted after lifecycle transitions commit. Delivery is
// fire-and-forget: a publish failure never rolls back the transition.
const (
	EventContractCreated = "contract.created"
	EventContractEdited  = "contract.edited"
	EventContractSigned  = "contract.signed"
	EventContractDenied  = "contract.denied"
)

// ContractEvent is the payload published for every lifecycle transition. The
// recipient is always the counterparty of the acting user.
type ContractEvent struct {
	EventID     uuid.UUID `json:"eventId"`
	Type        string    `json:"type"`
	ContractID  uuid.UUID `json:"contractId"`
	Title       string    `json:"title"`
	ActorID     uuid.UUID `json:"actorId"`
	RecipientID uuid.UUID `json:"recipientId"`
	Version     int       `json:"version"`
	OccurredAt  time.Time `json:"occurredAt"`
}

// NewContractEvent builds an event addressed to the counterparty of actor.
func NewContractEvent(eventType string, c *Contract, actor uuid.UUID, now time.Time) ContractEvent {
	return ContractEvent{
		EventID:     uuid.New(),
		Type:        eventType,
		ContractID:  c.ContractID,
		Title:       c.Title,
		ActorID:     actor,
		RecipientID: c.Counterparty(actor),
		Version:     c.CurrentVersion,
		OccurredAt:  now.UTC(),
	}
}
