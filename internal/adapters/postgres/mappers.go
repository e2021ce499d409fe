package postgres

import (
	"errors"

	"gorm.io/gorm"

	"github.com/pactline/contract-exchange/internal/domain"
)

func toDomainContract(m contractModel, versions []versionModel) *domain.Contract {
	c := &domain.Contract{
		ContractID:     m.ContractID,
		Title:          m.Title,
		Notes:          m.Notes,
		Status:         domain.ContractStatus(m.Status),
		SenderID:       m.SenderID,
		RecipientID:    m.RecipientID,
		CurrentVersion: m.CurrentVersion,
		LockedByID:     m.LockedByID,
		LockedAt:       m.LockedAt,
		SignedAt:       m.SignedAt,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
	for _, v := range versions {
		c.Versions = append(c.Versions, toDomainVersion(v))
	}
	return c
}

func toContractModel(c *domain.Contract) contractModel {
	return contractModel{
		ContractID:     c.ContractID,
		Title:          c.Title,
		Notes:          c.Notes,
		Status:         string(c.Status),
		SenderID:       c.SenderID,
		RecipientID:    c.RecipientID,
		CurrentVersion: c.CurrentVersion,
		LockedByID:     c.LockedByID,
		LockedAt:       c.LockedAt,
		SignedAt:       c.SignedAt,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}

func toDomainVersion(m versionModel) domain.Version {
	return domain.Version{
		VersionID:     m.VersionID,
		ContractID:    m.ContractID,
		VersionNumber: m.VersionNumber,
		BlobRef:       m.BlobRef,
		FileName:      m.FileName,
		CreatedByID:   m.CreatedByID,
		ChangeNotes:   m.ChangeNotes,
		CreatedAt:     m.CreatedAt,
	}
}

func toVersionModel(v domain.Version) versionModel {
	return versionModel{
		VersionID:     v.VersionID,
		ContractID:    v.ContractID,
		VersionNumber: v.VersionNumber,
		BlobRef:       v.BlobRef,
		FileName:      v.FileName,
		CreatedByID:   v.CreatedByID,
		ChangeNotes:   v.ChangeNotes,
		CreatedAt:     v.CreatedAt,
	}
}

func toDomainIdentity(m identityModel) domain.Identity {
	return domain.Identity{
		UserID:    m.UserID,
		Username:  m.Username,
		Email:     m.Email,
		FullName:  m.FullName,
		CreatedAt: m.CreatedAt,
	}
}

func isUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
