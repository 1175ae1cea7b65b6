package inventory

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/chairline/chairline/internal/platform/httpx"
)

// Handler serves ledger read endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// Availability handles GET /inventory/availability?part=.
func (h *Handler) Availability(w http.ResponseWriter, r *http.Request) {
	part := r.URL.Query().Get("part")
	entries, err := h.service.Availability(r.Context(), part)
	if err != nil {
		if errors.Is(err, ErrPartRequired) {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
			return
		}
		h.logger.Error("availability", slog.String("part", part), slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"part":      CanonicalPart(part),
		"locations": entries,
	})
}

// ListRecords handles GET /inventory/records.
func (h *Handler) ListRecords(w http.ResponseWriter, r *http.Request) {
	filter := RecordFilter{
		PartName: r.URL.Query().Get("part"),
		Location: r.URL.Query().Get("location"),
		Kind:     RecordKind(r.URL.Query().Get("kind")),
	}
	records, err := h.service.ListRecords(r.Context(), filter)
	if err != nil {
		h.logger.Error("list records", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"records": records})
}

// ListMovements handles GET /inventory/movements.
func (h *Handler) ListMovements(w http.ResponseWriter, r *http.Request) {
	filter := MovementFilter{
		PartName:  r.URL.Query().Get("part"),
		Location:  r.URL.Query().Get("location"),
		RefModule: r.URL.Query().Get("ref_module"),
	}
	movements, err := h.service.ListMovements(r.Context(), filter)
	if err != nil {
		h.logger.Error("list movements", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"movements": movements})
}
