package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all risk analysis routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/risk", func(r chi.Router) {
		r.Post("/analyze", h.HandleAnalyze)
		r.Post("/limits", h.HandleLimits)
		r.Get("/scenarios", h.HandleListScenarios)
	})
}
