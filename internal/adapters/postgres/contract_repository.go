package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pactline/contract-exchange/internal/domain"
	"github.com/pactline/contract-exchange/internal/ports"
)

type contractRepository struct {
	db *gorm.DB
}

func (r *contractRepository) Create(ctx context.Context, c *domain.Contract, initial *domain.Version, ev *domain.ContractEvent) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec := toContractModel(c)
		if err := tx.Create(&rec).Error; err != nil {
			if isUniqueViolation(err) {
				return domain.ErrConflict
			}
			return err
		}
		vrec := toVersionModel(*initial)
		if err := tx.Create(&vrec).Error; err != nil {
			return err
		}
		return enqueueOutbox(tx, ev)
	})
}

func (r *contractRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Contract, error) {
	var rec contractModel
	if err := r.db.WithContext(ctx).Where("contract_id = ?", id).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	versions, err := r.loadVersions(r.db.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	return toDomainContract(rec, versions), nil
}

func (r *contractRepository) ListByParticipant(ctx context.Context, userID uuid.UUID) ([]domain.Contract, error) {
	var recs []contractModel
	if err := r.db.WithContext(ctx).
		Where("sender_id = ? OR recipient_id = ?", userID, userID).
		Order("created_at DESC").
		Find(&recs).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Contract, 0, len(recs))
	for _, rec := range recs {
		out = append(out, *toDomainContract(rec, nil))
	}
	return out, nil
}

// Mutate loads the contract row FOR UPDATE so concurrent transitions on the
// same contract serialize at the database. The mutated state, any appended
// version and any outbox event commit in the same transaction.
func (r *contractRepository) Mutate(ctx context.Context, id uuid.UUID, mutate ports.ContractMutation) (*domain.Contract, error) {
	var result *domain.Contract
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec contractModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("contract_id = ?", id).
			Take(&rec).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			return err
		}
		versions, err := r.loadVersions(tx, id)
		if err != nil {
			return err
		}

		c := toDomainContract(rec, versions)
		v, ev, err := mutate(c)
		if err != nil {
			return err
		}

		updated := toContractModel(c)
		if err := tx.Model(&contractModel{}).
			Where("contract_id = ?", id).
			Select("status", "current_version", "locked_by_id", "locked_at", "signed_at", "updated_at").
			Updates(map[string]any{
				"status":          updated.Status,
				"current_version": updated.CurrentVersion,
				"locked_by_id":    updated.LockedByID,
				"locked_at":       updated.LockedAt,
				"signed_at":       updated.SignedAt,
				"updated_at":      updated.UpdatedAt,
			}).Error; err != nil {
			return err
		}
		if v != nil {
			vrec := toVersionModel(*v)
			if err := tx.Create(&vrec).Error; err != nil {
				if isUniqueViolation(err) {
					return domain.ErrConflict
				}
				return err
			}
			c.Versions = append(c.Versions, *v)
		}
		if err := enqueueOutbox(tx, ev); err != nil {
			return err
		}
		result = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (r *contractRepository) loadVersions(tx *gorm.DB, contractID uuid.UUID) ([]versionModel, error) {
	var versions []versionModel
	if err := tx.Where("contract_id = ?", contractID).
		Order("version_number ASC").
		Find(&versions).Error; err != nil {
		return nil, err
	}
	return versions, nil
}

// enqueueOutbox inserts the event for the publisher worker to pick up. A nil
// event means the transition does not notify anyone.
func enqueueOutbox(tx *gorm.DB, ev *domain.ContractEvent) error {
	if ev == nil {
		return nil
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal contract event: %w", err)
	}
	rec := contractOutboxModel{
		OutboxID:     ev.EventID,
		EventType:    ev.Type,
		PartitionKey: ev.ContractID.String(),
		Payload:      string(payload),
		CreatedAt:    ev.OccurredAt,
	}
	return tx.Create(&rec).Error
}
