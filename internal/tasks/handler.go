package tasks

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/chairline/chairline/internal/platform/httpx"
	"github.com/chairline/chairline/internal/shared"
)

// Handler serves the task queue endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// Assign handles POST /tasks.
func (h *Handler) Assign(w http.ResponseWriter, r *http.Request) {
	var req AssignTaskRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Malformed Request", err.Error())
		return
	}
	if err := httpx.Validate(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	actor := shared.ActorFromContext(r.Context())
	task, err := h.service.Assign(r.Context(), *actor, AssignInput{
		AssignedTo:  req.AssignedTo,
		Department:  req.Department,
		Description: req.Description,
		DueAt:       req.DueAt,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, viewOf(task, time.Now()))
}

// Complete handles POST /tasks/{taskID}/complete.
func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "taskID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Malformed Request", "task id must be numeric")
		return
	}

	actor := shared.ActorFromContext(r.Context())
	task, err := h.service.Complete(r.Context(), *actor, id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, viewOf(task, time.Now()))
}

// Current handles GET /tasks/my: the actor's pending tasks, earliest first.
func (h *Handler) Current(w http.ResponseWriter, r *http.Request) {
	actor := shared.ActorFromContext(r.Context())
	tasks, err := h.service.Current(r.Context(), actor.ID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"tasks": viewsOf(tasks)})
}

// History handles GET /tasks/my/history: the actor's completed tasks.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	actor := shared.ActorFromContext(r.Context())
	tasks, err := h.service.History(r.Context(), actor.ID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"tasks": viewsOf(tasks)})
}

// Delayed handles GET /tasks/delayed.
func (h *Handler) Delayed(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.service.Delayed(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"tasks": viewsOf(tasks)})
}

func viewOf(task Task, now time.Time) TaskView {
	return TaskView{Task: task, Delayed: task.IsDelayed(now)}
}

func viewsOf(tasks []Task) []TaskView {
	now := time.Now()
	views := make([]TaskView, 0, len(tasks))
	for _, task := range tasks {
		views = append(views, viewOf(task, now))
	}
	return views
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrValidation):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrNotYourTask), errors.Is(err, ErrDepartmentScope):
		httpx.Problem(w, http.StatusForbidden, "Forbidden", err.Error())
	case errors.Is(err, ErrAlreadyCompleted):
		httpx.Problem(w, http.StatusConflict, "Already Completed", err.Error())
	default:
		h.logger.Error("tasks handler", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
