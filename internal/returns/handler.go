package returns

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/chairline/chairline/internal/observability"
	"github.com/chairline/chairline/internal/orders"
	"github.com/chairline/chairline/internal/platform/httpx"
	"github.com/chairline/chairline/internal/shared"
)

// Handler serves the returns triage endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	metrics *observability.Metrics
}

// NewHandler constructs Handler.
func NewHandler(logger *slog.Logger, service *Service, metrics *observability.Metrics) *Handler {
	return &Handler{logger: logger, service: service, metrics: metrics}
}

// Create handles POST /returns.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateReturnRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Malformed Request", err.Error())
		return
	}
	if err := httpx.Validate(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	input := CreateInput{OrderID: req.OrderID, Category: req.Category, Description: req.Description}
	if req.ReturnDate != nil {
		input.ReturnDate = *req.ReturnDate
	}
	actor := shared.ActorFromContext(r.Context())
	record, err := h.service.Create(r.Context(), *actor, input)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, record)
}

// MoveToFitting handles POST /returns/{returnID}/move-to-fitting.
func (h *Handler) MoveToFitting(w http.ResponseWriter, r *http.Request) {
	id, ok := h.returnID(w, r)
	if !ok {
		return
	}
	actor := shared.ActorFromContext(r.Context())
	record, err := h.service.MoveToFitting(r.Context(), *actor, id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, record)
}

// Decide handles POST /returns/{returnID}/decide.
func (h *Handler) Decide(w http.ResponseWriter, r *http.Request) {
	id, ok := h.returnID(w, r)
	if !ok {
		return
	}
	var req DecideReturnRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Malformed Request", err.Error())
		return
	}
	if err := httpx.Validate(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	actor := shared.ActorFromContext(r.Context())
	result, err := h.service.Decide(r.Context(), *actor, id, DecideInput{Decision: req.Decision, Remarks: req.Remarks})
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.metrics.CountReturnDecision(strings.ToLower(string(result.Return.Status)))
	httpx.JSON(w, http.StatusOK, result)
}

// Show handles GET /returns/{returnID}.
func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, ok := h.returnID(w, r)
	if !ok {
		return
	}
	record, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, record)
}

// List handles GET /returns?status=&orderId=.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	filter := ListFilter{
		Status:  Status(r.URL.Query().Get("status")),
		OrderID: r.URL.Query().Get("orderId"),
	}
	records, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"returns": records})
}

// ListDefects handles GET /returns/defects.
func (h *Handler) ListDefects(w http.ResponseWriter, r *http.Request) {
	defects, err := h.service.ListDefects(r.Context(), 0)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"defects": defects})
}

// UpdateDefect handles PATCH /returns/defects/{defectID}.
func (h *Handler) UpdateDefect(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "defectID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Malformed Request", "defect id must be numeric")
		return
	}
	var req UpdateDefectRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Malformed Request", err.Error())
		return
	}
	if err := httpx.Validate(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	actor := shared.ActorFromContext(r.Context())
	defect, err := h.service.UpdateDefect(r.Context(), *actor, id, UpdateDefectInput{
		Severity:       req.Severity,
		WarrantyStatus: req.WarrantyStatus,
		RepairStatus:   req.RepairStatus,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, defect)
}

func (h *Handler) returnID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "returnID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Malformed Request", "return id must be numeric")
		return 0, false
	}
	return id, true
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, orders.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrValidation):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrAlreadyDecided):
		httpx.Problem(w, http.StatusConflict, "Already Decided", err.Error())
	case errors.Is(err, ErrInvalidTransition):
		httpx.Problem(w, http.StatusConflict, "Invalid Transition", err.Error())
	default:
		h.logger.Error("returns handler", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
