package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pactline/contract-exchange/internal/domain"
)

type directoryRepository struct {
	db *gorm.DB
}

func (r *directoryRepository) ByID(ctx context.Context, id uuid.UUID) (*domain.Identity, error) {
	var rec identityModel
	if err := r.db.WithContext(ctx).Where("user_id = ?", id).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	out := toDomainIdentity(rec)
	return &out, nil
}

// ByHandle resolves a recipient handle. A username match wins over an email
// match so the result stays deterministic when one user's username collides
// with another user's email.
func (r *directoryRepository) ByHandle(ctx context.Context, handle string) (*domain.Identity, error) {
	var rec identityModel
	err := r.db.WithContext(ctx).Where("username = ?", handle).Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = r.db.WithContext(ctx).Where("email = ?", handle).Take(&rec).Error
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrRecipientNotFound
		}
		return nil, err
	}
	out := toDomainIdentity(rec)
	return &out, nil
}

func (r *directoryRepository) Search(ctx context.Context, query string, limit int) ([]domain.Identity, error) {
	pattern := "%" + escapeLike(query) + "%"
	var recs []identityModel
	if err := r.db.WithContext(ctx).
		Where("username ILIKE ? OR email ILIKE ? OR full_name ILIKE ?", pattern, pattern, pattern).
		Order("username ASC").
		Limit(limit).
		Find(&recs).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Identity, 0, len(recs))
	for _, rec := range recs {
		out = append(out, toDomainIdentity(rec))
	}
	return out, nil
}

// Ensure upserts the directory entry. Profile fields follow what the token
// issuer currently asserts; a changed username or email overwrites the old
// value.
func (r *directoryRepository) Ensure(ctx context.Context, id domain.Identity) error {
	now := time.Now().UTC()
	rec := identityModel{
		UserID:    id.UserID,
		Username:  id.Username,
		Email:     id.Email,
		FullName:  id.FullName,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"username", "email", "full_name", "updated_at"}),
		}).
		Create(&rec).Error
}

func escapeLike(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '%', '_', '\\':
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}
