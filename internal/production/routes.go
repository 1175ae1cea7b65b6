package production

import (
	"github.com/go-chi/chi/v5"

	"github.com/chairline/chairline/internal/rbac"
	"github.com/chairline/chairline/internal/shared"
)

// MountRoutes attaches production inward endpoints.
func (h *Handler) MountRoutes(r chi.Router, guard rbac.Middleware) {
	r.Group(func(r chi.Router) {
		r.Use(guard.RequireAny(shared.RoleProduction, shared.RoleWarehouse))
		r.Get("/inwards", h.List)
		r.Get("/inwards/{inwardID}", h.Show)
	})
	r.Group(func(r chi.Router) {
		r.Use(guard.RequireAny(shared.RoleProduction))
		r.Post("/inwards", h.Create)
	})
	r.Group(func(r chi.Router) {
		r.Use(guard.RequireAny(shared.RoleWarehouse))
		r.Post("/inwards/{inwardID}/accept", h.Accept)
	})
}
