package picking

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/chairline/chairline/internal/inventory"
	"github.com/chairline/chairline/internal/observability"
	"github.com/chairline/chairline/internal/orders"
	"github.com/chairline/chairline/internal/platform/httpx"
	"github.com/chairline/chairline/internal/shared"
)

// PickRequest is the commit payload for one pick.
type PickRequest struct {
	Lines []PickLine `json:"lines" validate:"required,min=1,dive"`
}

// Handler serves the allocation engine endpoints.
type Handler struct {
	logger      *slog.Logger
	service     *Service
	metrics     *observability.Metrics
	idempotency *shared.IdempotencyStore
}

// NewHandler constructs Handler.
func NewHandler(logger *slog.Logger, service *Service, metrics *observability.Metrics, idempotency *shared.IdempotencyStore) *Handler {
	return &Handler{logger: logger, service: service, metrics: metrics, idempotency: idempotency}
}

// Pick handles POST /picking/orders/{orderID}/pick. Clients may send an
// Idempotency-Key header; a retried key is rejected before any stock moves.
func (h *Handler) Pick(w http.ResponseWriter, r *http.Request) {
	var req PickRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Malformed Request", err.Error())
		return
	}

	idemKey := r.Header.Get("Idempotency-Key")
	if idemKey != "" {
		if err := h.idempotency.CheckAndInsert(r.Context(), idemKey, "picking"); err != nil {
			if errors.Is(err, shared.ErrIdempotencyConflict) {
				httpx.Problem(w, http.StatusConflict, "Duplicate Request", "pick with this idempotency key was already committed")
				return
			}
			h.respondError(w, err)
			return
		}
	}

	actor := shared.ActorFromContext(r.Context())
	result, err := h.service.Pick(r.Context(), chi.URLParam(r, "orderID"), req.Lines, *actor)
	if err != nil {
		if idemKey != "" {
			_ = h.idempotency.Delete(r.Context(), idemKey)
		}
		h.metrics.CountPick("rejected")
		h.respondError(w, err)
		return
	}
	h.metrics.CountPick("committed")
	httpx.JSON(w, http.StatusOK, result)
}

// Availability handles GET /picking/availability?part=.
func (h *Handler) Availability(w http.ResponseWriter, r *http.Request) {
	part := r.URL.Query().Get("part")
	entries, err := h.service.ComputeAvailability(r.Context(), part)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"part":      inventory.CanonicalPart(part),
		"locations": entries,
	})
}

// ListAllocations handles GET /picking/orders/{orderID}/allocations.
func (h *Handler) ListAllocations(w http.ResponseWriter, r *http.Request) {
	allocations, err := h.service.ListAllocations(r.Context(), chi.URLParam(r, "orderID"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"allocations": allocations})
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	var insufficient *inventory.InsufficientStockError
	switch {
	case errors.As(err, &insufficient):
		httpx.JSON(w, http.StatusConflict, map[string]any{
			"title":  "Insufficient Stock",
			"status": http.StatusConflict,
			"detail": insufficient.Error(),
			"line":   insufficient,
		})
	case errors.Is(err, ErrEmptySelection):
		httpx.Problem(w, http.StatusBadRequest, "Empty Selection", err.Error())
	case errors.Is(err, ErrValidation), errors.Is(err, inventory.ErrPartRequired), errors.Is(err, inventory.ErrInvalidQuantity):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, orders.ErrNotFound), errors.Is(err, inventory.ErrRecordNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, orders.ErrInvalidState):
		httpx.Problem(w, http.StatusConflict, "Invalid State", err.Error())
	default:
		h.logger.Error("picking handler", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
