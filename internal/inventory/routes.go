package inventory

import (
	"github.com/go-chi/chi/v5"

	"github.com/chairline/chairline/internal/rbac"
	"github.com/chairline/chairline/internal/shared"
)

// MountRoutes attaches ledger read endpoints.
func (h *Handler) MountRoutes(r chi.Router, guard rbac.Middleware) {
	r.Group(func(r chi.Router) {
		r.Use(guard.RequireAny(shared.RoleWarehouse, shared.RoleFitting))
		r.Get("/records", h.ListRecords)
	})
	r.Group(func(r chi.Router) {
		r.Use(guard.RequireAny(shared.RoleWarehouse))
		r.Get("/availability", h.Availability)
		r.Get("/movements", h.ListMovements)
	})
}
