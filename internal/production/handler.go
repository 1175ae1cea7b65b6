package production

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/chairline/chairline/internal/observability"
	"github.com/chairline/chairline/internal/platform/httpx"
	"github.com/chairline/chairline/internal/shared"
)

// Handler serves the production inward endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	metrics *observability.Metrics
}

// NewHandler constructs Handler.
func NewHandler(logger *slog.Logger, service *Service, metrics *observability.Metrics) *Handler {
	return &Handler{logger: logger, service: service, metrics: metrics}
}

// Create handles POST /production/inwards.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateInwardRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Malformed Request", err.Error())
		return
	}
	if err := httpx.Validate(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	actor := shared.ActorFromContext(r.Context())
	inward, err := h.service.Create(r.Context(), *actor, CreateInput{
		PartName:   req.PartName,
		Qty:        req.Qty,
		AssignedTo: req.AssignedTo,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, inward)
}

// Accept handles POST /production/inwards/{inwardID}/accept.
func (h *Handler) Accept(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "inwardID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Malformed Request", "inward id must be numeric")
		return
	}

	actor := shared.ActorFromContext(r.Context())
	inward, err := h.service.Accept(r.Context(), *actor, id)
	if err != nil {
		h.metrics.CountInward("rejected")
		h.respondError(w, err)
		return
	}
	h.metrics.CountInward("accepted")
	httpx.JSON(w, http.StatusOK, inward)
}

// Show handles GET /production/inwards/{inwardID}.
func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "inwardID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Malformed Request", "inward id must be numeric")
		return
	}
	inward, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inward)
}

// List handles GET /production/inwards?status=&assignedTo=.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	filter := ListFilter{Status: InwardStatus(r.URL.Query().Get("status"))}
	if raw := r.URL.Query().Get("assignedTo"); raw != "" {
		assignedTo, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Malformed Request", "assignedTo must be numeric")
			return
		}
		filter.AssignedTo = assignedTo
	}
	inwards, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"inwards": inwards})
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrValidation):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrAlreadyProcessed):
		httpx.Problem(w, http.StatusConflict, "Already Processed", err.Error())
	default:
		h.logger.Error("production handler", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
