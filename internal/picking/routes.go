package picking

import (
	"github.com/go-chi/chi/v5"

	"github.com/chairline/chairline/internal/rbac"
	"github.com/chairline/chairline/internal/shared"
)

// MountRoutes attaches allocation engine endpoints.
func (h *Handler) MountRoutes(r chi.Router, guard rbac.Middleware) {
	r.Group(func(r chi.Router) {
		r.Use(guard.RequireAny(shared.RoleWarehouse))
		r.Get("/availability", h.Availability)
		r.Post("/orders/{orderID}/pick", h.Pick)
		r.Get("/orders/{orderID}/allocations", h.ListAllocations)
	})
}
