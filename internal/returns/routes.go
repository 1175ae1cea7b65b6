package returns

import (
	"github.com/go-chi/chi/v5"

	"github.com/chairline/chairline/internal/rbac"
	"github.com/chairline/chairline/internal/shared"
)

// MountRoutes attaches returns triage endpoints.
func (h *Handler) MountRoutes(r chi.Router, guard rbac.Middleware) {
	r.Group(func(r chi.Router) {
		r.Use(guard.RequireAuthenticated())
		r.Get("/", h.List)
		r.Get("/defects", h.ListDefects)
		r.Get("/{returnID}", h.Show)
	})
	r.Group(func(r chi.Router) {
		r.Use(guard.RequireAny(shared.RoleSales))
		r.Post("/", h.Create)
		r.Post("/{returnID}/move-to-fitting", h.MoveToFitting)
	})
	r.Group(func(r chi.Router) {
		r.Use(guard.RequireAny(shared.RoleFitting))
		r.Post("/{returnID}/decide", h.Decide)
		r.Patch("/defects/{defectID}", h.UpdateDefect)
	})
}
