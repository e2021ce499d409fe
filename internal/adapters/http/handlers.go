package http

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/pactline/contract-exchange/internal/domain"
)

func (h *Handler) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "success", "message": "ok"})
}

func (h *Handler) readyz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "success", "message": "ready"})
}

type versionResponse struct {
	VersionID     uuid.UUID `json:"versionId"`
	VersionNumber int       `json:"versionNumber"`
	FileName      string    `json:"fileName"`
	CreatedBy     uuid.UUID `json:"createdBy"`
	ChangeNotes   string    `json:"changeNotes"`
	CreatedAt     time.Time `json:"createdAt"`
}

type contractResponse struct {
	ContractID     uuid.UUID         `json:"contractId"`
	Title          string            `json:"title"`
	Notes          string            `json:"notes,omitempty"`
	Status         string            `json:"status"`
	SenderID       uuid.UUID         `json:"senderId"`
	RecipientID    uuid.UUID         `json:"recipientId"`
	CurrentVersion int               `json:"currentVersion"`
	LockedBy       *uuid.UUID        `json:"lockedBy"`
	LockedAt       *time.Time        `json:"lockedAt"`
	SignedAt       *time.Time        `json:"signedAt"`
	CreatedAt      time.Time         `json:"createdAt"`
	UpdatedAt      time.Time         `json:"updatedAt"`
	Versions       []versionResponse `json:"versions,omitempty"`
}

type identityResponse struct {
	UserID   uuid.UUID `json:"userId"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
	FullName string    `json:"fullName,omitempty"`
}

func toVersionResponse(v domain.Version) versionResponse {
	return versionResponse{
		VersionID:     v.VersionID,
		VersionNumber: v.VersionNumber,
		FileName:      v.FileName,
		CreatedBy:     v.CreatedByID,
		ChangeNotes:   v.ChangeNotes,
		CreatedAt:     v.CreatedAt,
	}
}

// toVersionResponses presents the ledger newest first. The ledger itself is
// ordered ascending by number; clients show the latest draft on top.
func toVersionResponses(versions []domain.Version) []versionResponse {
	out := make([]versionResponse, 0, len(versions))
	for i := len(versions) - 1; i >= 0; i-- {
		out = append(out, toVersionResponse(versions[i]))
	}
	return out
}

func toContractResponse(c *domain.Contract) contractResponse {
	resp := contractResponse{
		ContractID:     c.ContractID,
		Title:          c.Title,
		Notes:          c.Notes,
		Status:         string(c.Status),
		SenderID:       c.SenderID,
		RecipientID:    c.RecipientID,
		CurrentVersion: c.CurrentVersion,
		LockedBy:       c.LockedByID,
		LockedAt:       c.LockedAt,
		SignedAt:       c.SignedAt,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
	if len(c.Versions) > 0 {
		resp.Versions = toVersionResponses(c.Versions)
	}
	return resp
}

func toIdentityResponse(id domain.Identity) identityResponse {
	return identityResponse{
		UserID:   id.UserID,
		Username: id.Username,
		Email:    id.Email,
		FullName: id.FullName,
	}
}
