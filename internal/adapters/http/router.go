// Package http exposes the contract lifecycle operations over REST.
package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pactline/contract-exchange/internal/application"
	"github.com/pactline/contract-exchange/internal/ports"
)

// Handler is the HTTP adapter entrypoint for contract use-cases.
// Keeping only application and port dependencies here preserves clean
// adapter boundaries.
type Handler struct {
	service        *application.Service
	resolver       ports.IdentityResolver
	idempotency    ports.IdempotencyStore
	idempotencyTTL time.Duration
}

// NewHandler constructs an HTTP handler bound to the application service.
// The idempotency store may be nil, which disables Idempotency-Key support.
func NewHandler(service *application.Service, resolver ports.IdentityResolver, idempotency ports.IdempotencyStore, idempotencyTTL time.Duration) *Handler {
	if idempotencyTTL <= 0 {
		idempotencyTTL = 24 * time.Hour
	}
	return &Handler{
		service:        service,
		resolver:       resolver,
		idempotency:    idempotency,
		idempotencyTTL: idempotencyTTL,
	}
}

// NewRouter registers contract HTTP routes and the middleware stack.
// Centralizing routes here ensures consistent auth and error behavior across
// endpoints.
func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(recoverMiddleware)
	r.Use(loggingMiddleware)

	r.Get("/healthz", handler.healthz)
	r.Get("/readyz", handler.readyz)

	r.Route("/contracts/v1", func(r chi.Router) {
		r.Use(handler.authMiddleware)

		r.Get("/users/search", handler.searchUsers)

		r.Post("/", handler.createContract)
		r.Get("/", handler.listContracts)
		r.Route("/{contract_id}", func(r chi.Router) {
			r.Get("/", handler.getContract)
			r.Get("/versions", handler.listVersions)
			r.Get("/download", handler.downloadCurrent)
			r.Get("/versions/{version_number}/download", handler.downloadVersion)
			r.Post("/lock", handler.lockContract)
			r.Post("/edit", handler.applyEdit)
			r.Post("/sign", handler.signContract)
			r.Post("/deny", handler.denyContract)
		})
	})

	return r
}
