package postgres

import (
	"time"

	"github.com/google/uuid"
)

type identityModel struct {
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;primaryKey"`
	Username  string    `gorm:"column:username"`
	Email     string    `gorm:"column:email"`
	FullName  string    `gorm:"column:full_name"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (identityModel) TableName() string { return "identities" }

type contractModel struct {
	ContractID     uuid.UUID  `gorm:"column:contract_id;type:uuid;primaryKey"`
	Title          string     `gorm:"column:title"`
	Notes          string     `gorm:"column:notes"`
	Status         string     `gorm:"column:status"`
	SenderID       uuid.UUID  `gorm:"column:sender_id"`
	RecipientID    uuid.UUID  `gorm:"column:recipient_id"`
	CurrentVersion int        `gorm:"column:current_version"`
	LockedByID     *uuid.UUID `gorm:"column:locked_by_id"`
	LockedAt       *time.Time `gorm:"column:locked_at"`
	SignedAt       *time.Time `gorm:"column:signed_at"`
	CreatedAt      time.Time  `gorm:"column:created_at"`
	UpdatedAt      time.Time  `gorm:"column:updated_at"`
}

func (contractModel) TableName() string { return "contracts" }

type versionModel struct {
	VersionID     uuid.UUID `gorm:"column:version_id;type:uuid;primaryKey"`
	ContractID    uuid.UUID `gorm:"column:contract_id;type:uuid"`
	VersionNumber int       `gorm:"column:version_number"`
	BlobRef       string    `gorm:"column:blob_ref"`
	FileName      string    `gorm:"column:file_name"`
	CreatedByID   uuid.UUID `gorm:"column:created_by_id"`
	ChangeNotes   string    `gorm:"column:change_notes"`
	CreatedAt     time.Time `gorm:"column:created_at"`
}

func (versionModel) TableName() string { return "contract_versions" }

type contractOutboxModel struct {
	OutboxID       uuid.UUID  `gorm:"column:outbox_id;type:uuid;primaryKey"`
	EventType      string     `gorm:"column:event_type"`
	PartitionKey   string     `gorm:"column:partition_key"`
	Payload        string     `gorm:"column:payload;type:jsonb"`
	CreatedAt      time.Time  `gorm:"column:created_at"`
	PublishedAt    *time.Time `gorm:"column:published_at"`
	RetryCount     int        `gorm:"column:retry_count"`
	LastError      *string    `gorm:"column:last_error"`
	LastErrorAt    *time.Time `gorm:"column:last_error_at"`
	ClaimToken     *string    `gorm:"column:claim_token"`
	ClaimUntil     *time.Time `gorm:"column:claim_until"`
	DeadLetteredAt *time.Time `gorm:"column:dead_lettered_at"`
}

func (contractOutboxModel) TableName() string { return "contract_outbox" }
