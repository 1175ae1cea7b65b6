package app

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/chairline/chairline/internal/inventory"
	"github.com/chairline/chairline/internal/observability"
	"github.com/chairline/chairline/internal/orders"
	"github.com/chairline/chairline/internal/picking"
	"github.com/chairline/chairline/internal/platform/httpx"
	"github.com/chairline/chairline/internal/production"
	"github.com/chairline/chairline/internal/rbac"
	"github.com/chairline/chairline/internal/returns"
	"github.com/chairline/chairline/internal/shared"
	"github.com/chairline/chairline/internal/tasks"
	"github.com/chairline/chairline/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger        *slog.Logger
	Config        *Config
	ActorResolver *shared.ActorResolver
	Audit         *shared.AuditLogger
	RBAC          rbac.Middleware

	InventoryHandler  *inventory.Handler
	OrdersHandler     *orders.Handler
	PickingHandler    *picking.Handler
	ProductionHandler *production.Handler
	ReturnsHandler    *returns.Handler
	TasksHandler      *tasks.Handler
	JobsHandler       *jobs.Handler

	Metrics *observability.Metrics
}

// NewRouter constructs the chi.Router with application defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:        params.Logger,
		Config:        params.Config,
		ActorResolver: params.ActorResolver,
		Metrics:       params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/inventory", func(r chi.Router) {
		params.InventoryHandler.MountRoutes(r, params.RBAC)
	})
	r.Route("/orders", func(r chi.Router) {
		params.OrdersHandler.MountRoutes(r, params.RBAC)
	})
	r.Route("/picking", func(r chi.Router) {
		params.PickingHandler.MountRoutes(r, params.RBAC)
	})
	r.Route("/production", func(r chi.Router) {
		params.ProductionHandler.MountRoutes(r, params.RBAC)
	})
	r.Route("/returns", func(r chi.Router) {
		params.ReturnsHandler.MountRoutes(r, params.RBAC)
	})
	r.Route("/tasks", func(r chi.Router) {
		params.TasksHandler.MountRoutes(r, params.RBAC)
	})

	if params.JobsHandler != nil {
		r.Route("/jobs", func(r chi.Router) {
			r.Use(params.RBAC.RequireAny(shared.RoleAdmin))
			params.JobsHandler.MountRoutes(r)
		})
	}

	r.Group(func(r chi.Router) {
		r.Use(params.RBAC.RequireAny(shared.RoleAdmin))
		r.Get("/audit", func(w http.ResponseWriter, req *http.Request) {
			limit := 100
			if raw := req.URL.Query().Get("limit"); raw != "" {
				if n, err := strconv.Atoi(raw); err == nil && n > 0 {
					limit = n
				}
			}
			logs, err := params.Audit.List(req.Context(), limit)
			if err != nil {
				params.Logger.Error("audit list", slog.Any("error", err))
				httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
				return
			}
			httpx.JSON(w, http.StatusOK, map[string]any{"logs": logs})
		})
	})

	return r
}
