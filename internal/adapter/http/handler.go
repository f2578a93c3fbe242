package httpadapter

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"adrelay/internal/core/port"
)

// Handler contains dependencies and routes. It is the inbound HTTP
// adapter: it builds the request context for the serving core, dispatches
// to the attribution pipeline and the synchronizer, and maps core errors
// to HTTP statuses.
type Handler struct {
	svc        port.AdUseCase
	syncer     port.Syncer
	classifier port.Classifier
	logger     *slog.Logger
	router     chi.Router
}

// NewHandler creates a handler with all routes configured.
func NewHandler(svc port.AdUseCase, syncer port.Syncer, classifier port.Classifier, logger *slog.Logger) *Handler {
	h := &Handler{svc: svc, syncer: syncer, classifier: classifier, logger: logger}
	r := chi.NewRouter()

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/serve/{zoneID}", h.handleServe)
		r.Get("/click/{campaignID}/{zoneID}", h.handleClick)
		r.Get("/stats/{campaignID}", h.handleStats)
		r.Post("/admin/resync", h.handleResync)
	})
	h.router = r
	return h
}

// Router returns the underlying http.Handler.
func (h *Handler) Router() http.Handler {
	return h.router
}
