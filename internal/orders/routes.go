package orders

import (
	"github.com/go-chi/chi/v5"

	"github.com/chairline/chairline/internal/rbac"
	"github.com/chairline/chairline/internal/shared"
)

// MountRoutes attaches order pipeline endpoints.
func (h *Handler) MountRoutes(r chi.Router, guard rbac.Middleware) {
	r.Group(func(r chi.Router) {
		r.Use(guard.RequireAuthenticated())
		r.Get("/", h.List)
		r.Get("/{orderID}", h.Show)
	})
	r.Group(func(r chi.Router) {
		r.Use(guard.RequireAny(shared.RoleSales))
		r.Post("/", h.Create)
		r.Patch("/{orderID}", h.Amend)
		r.Delete("/{orderID}", h.Delete)
	})
	r.Group(func(r chi.Router) {
		r.Use(guard.RequireAny(shared.RoleSales, shared.RoleWarehouse, shared.RoleFitting))
		r.Post("/{orderID}/advance", h.Advance)
	})
}
