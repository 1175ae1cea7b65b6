package tasks

import (
	"github.com/go-chi/chi/v5"

	"github.com/chairline/chairline/internal/rbac"
)

// MountRoutes attaches task queue endpoints. Every department uses the queue,
// so mutation scoping lives in the service, not the router.
func (h *Handler) MountRoutes(r chi.Router, guard rbac.Middleware) {
	r.Group(func(r chi.Router) {
		r.Use(guard.RequireAuthenticated())
		r.Post("/", h.Assign)
		r.Get("/my", h.Current)
		r.Get("/my/history", h.History)
		r.Get("/delayed", h.Delayed)
		r.Post("/{taskID}/complete", h.Complete)
	})
}
