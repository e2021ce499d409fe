package http

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/pactline/contract-exchange/internal/ports"
)

// maxUploadBytes bounds contract document uploads.
const maxUploadBytes = 25 << 20

func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("request body must contain a single JSON value")
	}
	return nil
}

func parseIntDefault(raw string, fallback int) int {
	if strings.TrimSpace(raw) == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

// readUpload pulls the "file" part plus form fields out of a multipart
// request.
func readUpload(r *http.Request) (fileName string, fileBytes []byte, err error) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return "", nil, fmt.Errorf("parse multipart form: %w", err)
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return "", nil, errors.New("multipart field 'file' is required")
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		return "", nil, fmt.Errorf("read upload: %w", err)
	}
	if len(data) > maxUploadBytes {
		return "", nil, errors.New("uploaded file exceeds the size limit")
	}
	return header.Filename, data, nil
}

func writeMappedError(ctx context.Context, w http.ResponseWriter, operation string, err error) {
	status, code, msg := mapDomainError(err)
	logHTTPOperationError(ctx, operation, status, code, msg, err)
	writeError(w, status, code, msg)
}

func writeValidationError(ctx context.Context, w http.ResponseWriter, operation string, err error) {
	code := "VALIDATION_ERROR"
	msg := err.Error()
	logHTTPOperationError(ctx, operation, http.StatusBadRequest, code, msg, err)
	writeError(w, http.StatusBadRequest, code, msg)
}

func requestHash(parts ...[]byte) string {
	hasher := sha256.New()
	for _, p := range parts {
		hasher.Write(p)
		hasher.Write([]byte{0})
	}
	return hex.EncodeToString(hasher.Sum(nil))
}

// withIdempotency executes fn once per Idempotency-Key and replays the
// stored response for retries. Requests without a key, or when no store is
// configured, execute directly.
func (h *Handler) withIdempotency(w http.ResponseWriter, r *http.Request, operation, hash string, fn func() (int, any, error)) {
	key := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	if key == "" || h.idempotency == nil {
		status, data, err := fn()
		if err != nil {
			writeMappedError(r.Context(), w, operation, err)
			return
		}
		writeSuccess(w, status, data)
		return
	}

	ctx := r.Context()
	outcome, reserved, err := h.idempotency.Reserve(ctx, key, hash, h.idempotencyTTL)
	if err != nil {
		writeMappedError(ctx, w, operation, err)
		return
	}
	if !reserved {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(outcome.StatusCode)
		_, _ = w.Write(outcome.Body)
		return
	}

	status, data, err := fn()
	if err != nil {
		// Releasing the key lets the caller retry after a failure instead of
		// being stuck behind a reservation for a request that never landed.
		_ = h.idempotency.Release(ctx, key)
		writeMappedError(ctx, w, operation, err)
		return
	}

	body, err := json.Marshal(map[string]any{"status": "success", "data": data})
	if err != nil {
		writeMappedError(ctx, w, operation, err)
		return
	}
	_ = h.idempotency.Complete(ctx, key, ports.IdempotencyOutcome{
		RequestHash: hash,
		StatusCode:  status,
		Body:        body,
	}, h.idempotencyTTL)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
