package http

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pactline/contract-exchange/internal/application"
)

func (h *Handler) createContract(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "missing caller identity")
		return
	}

	fileName, fileBytes, err := readUpload(r)
	if err != nil {
		writeValidationError(r.Context(), w, "create_contract", err)
		return
	}
	in := application.CreateContractInput{
		SenderID:          caller,
		RecipientUsername: r.FormValue("recipient_username"),
		RecipientEmail:    r.FormValue("recipient_email"),
		Title:             r.FormValue("title"),
		Notes:             r.FormValue("notes"),
		FileName:          fileName,
		FileBytes:         fileBytes,
	}

	hash := requestHash(
		[]byte("create"),
		[]byte(caller.String()),
		[]byte(in.RecipientUsername),
		[]byte(in.RecipientEmail),
		[]byte(in.Title),
		fileBytes,
	)
	h.withIdempotency(w, r, "create_contract", hash, func() (int, any, error) {
		c, err := h.service.Create(r.Context(), in)
		if err != nil {
			return 0, nil, err
		}
		return http.StatusCreated, toContractResponse(c), nil
	})
}

func (h *Handler) listContracts(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "missing caller identity")
		return
	}

	contracts, err := h.service.List(r.Context(), caller)
	if err != nil {
		writeMappedError(r.Context(), w, "list_contracts", err)
		return
	}
	out := make([]contractResponse, 0, len(contracts))
	for i := range contracts {
		out = append(out, toContractResponse(&contracts[i]))
	}
	writeSuccess(w, http.StatusOK, out)
}

func (h *Handler) getContract(w http.ResponseWriter, r *http.Request) {
	caller, contractID, ok := h.callerAndContract(w, r)
	if !ok {
		return
	}

	c, err := h.service.Get(r.Context(), contractID, caller)
	if err != nil {
		writeMappedError(r.Context(), w, "get_contract", err)
		return
	}
	writeSuccess(w, http.StatusOK, toContractResponse(c))
}

func (h *Handler) listVersions(w http.ResponseWriter, r *http.Request) {
	caller, contractID, ok := h.callerAndContract(w, r)
	if !ok {
		return
	}

	versions, err := h.service.ListVersions(r.Context(), contractID, caller)
	if err != nil {
		writeMappedError(r.Context(), w, "list_versions", err)
		return
	}
	writeSuccess(w, http.StatusOK, toVersionResponses(versions))
}

func (h *Handler) downloadCurrent(w http.ResponseWriter, r *http.Request) {
	h.download(w, r, 0)
}

func (h *Handler) downloadVersion(w http.ResponseWriter, r *http.Request) {
	number, err := strconv.Atoi(chi.URLParam(r, "version_number"))
	if err != nil || number < 1 {
		writeValidationError(r.Context(), w, "download_version", errors.New("version number must be a positive integer"))
		return
	}
	h.download(w, r, number)
}

func (h *Handler) download(w http.ResponseWriter, r *http.Request, versionNumber int) {
	caller, contractID, ok := h.callerAndContract(w, r)
	if !ok {
		return
	}

	doc, err := h.service.Download(r.Context(), contractID, caller, versionNumber)
	if err != nil {
		writeMappedError(r.Context(), w, "download_version", err)
		return
	}

	name := doc.FileName
	if name == "" {
		name = "contract"
	}
	contentType := mime.TypeByExtension(filepath.Ext(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Length", strconv.Itoa(len(doc.Bytes)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc.Bytes)
}

type lockRequest struct {
	Action string `json:"action"`
}

func (h *Handler) lockContract(w http.ResponseWriter, r *http.Request) {
	caller, contractID, ok := h.callerAndContract(w, r)
	if !ok {
		return
	}

	var req lockRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "lock_contract", err)
		return
	}

	c, err := h.service.Lock(r.Context(), contractID, caller, application.LockAction(strings.ToLower(strings.TrimSpace(req.Action))))
	if err != nil {
		writeMappedError(r.Context(), w, "lock_contract", err)
		return
	}
	writeSuccess(w, http.StatusOK, toContractResponse(c))
}

func (h *Handler) applyEdit(w http.ResponseWriter, r *http.Request) {
	caller, contractID, ok := h.callerAndContract(w, r)
	if !ok {
		return
	}

	fileName, fileBytes, err := readUpload(r)
	if err != nil {
		writeValidationError(r.Context(), w, "apply_edit", err)
		return
	}
	in := application.ApplyEditInput{
		ContractID:  contractID,
		CallerID:    caller,
		FileName:    fileName,
		FileBytes:   fileBytes,
		ChangeNotes: r.FormValue("change_notes"),
	}

	hash := requestHash(
		[]byte("edit"),
		[]byte(caller.String()),
		[]byte(contractID.String()),
		[]byte(in.ChangeNotes),
		fileBytes,
	)
	h.withIdempotency(w, r, "apply_edit", hash, func() (int, any, error) {
		c, err := h.service.ApplyEdit(r.Context(), in)
		if err != nil {
			return 0, nil, err
		}
		return http.StatusOK, toContractResponse(c), nil
	})
}

func (h *Handler) signContract(w http.ResponseWriter, r *http.Request) {
	caller, contractID, ok := h.callerAndContract(w, r)
	if !ok {
		return
	}

	c, err := h.service.Sign(r.Context(), contractID, caller)
	if err != nil {
		writeMappedError(r.Context(), w, "sign_contract", err)
		return
	}
	writeSuccess(w, http.StatusOK, toContractResponse(c))
}

func (h *Handler) denyContract(w http.ResponseWriter, r *http.Request) {
	caller, contractID, ok := h.callerAndContract(w, r)
	if !ok {
		return
	}

	c, err := h.service.Deny(r.Context(), contractID, caller)
	if err != nil {
		writeMappedError(r.Context(), w, "deny_contract", err)
		return
	}
	writeSuccess(w, http.StatusOK, toContractResponse(c))
}

func (h *Handler) searchUsers(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "missing caller identity")
		return
	}

	limit := parseIntDefault(r.URL.Query().Get("limit"), 20)
	found, err := h.service.SearchUsers(r.Context(), caller, r.URL.Query().Get("q"), limit)
	if err != nil {
		writeMappedError(r.Context(), w, "search_users", err)
		return
	}
	out := make([]identityResponse, 0, len(found))
	for _, id := range found {
		out = append(out, toIdentityResponse(id))
	}
	writeSuccess(w, http.StatusOK, out)
}

func (h *Handler) callerAndContract(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	caller, ok := callerFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "missing caller identity")
		return uuid.Nil, uuid.Nil, false
	}
	contractID, err := uuid.Parse(chi.URLParam(r, "contract_id"))
	if err != nil {
		writeValidationError(r.Context(), w, "parse_contract_id", errors.New("contract id must be a uuid"))
		return uuid.Nil, uuid.Nil, false
	}
	return caller, contractID, true
}
