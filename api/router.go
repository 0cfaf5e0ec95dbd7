package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// NewRouter mounts the handler endpoints.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(cors)
	r.Use(requestLog(h.logger))

	r.Get("/healthz", h.Healthz)
	r.Get("/supported", h.Supported)
	r.Post("/create-tip-link", h.CreateTipLink)
	r.Get("/tip-metadata", h.TipMetadata)
	r.Post("/tip-start", h.TipStart)
	r.Get("/tip-events", h.TipEvents)

	// Same routes under the /api prefix used by tip pages
	r.Route("/api", func(api chi.Router) {
		api.Post("/create-tip-link", h.CreateTipLink)
		api.Get("/tip-metadata", h.TipMetadata)
		api.Post("/tip-start", h.TipStart)
	})
	return r
}
