package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"go-task-manager/internal/middleware"
	"go-task-manager/internal/model"
)

type taskService interface {
	List(ctx context.Context, identity model.Identity, statusFilter string) ([]model.Task, error)
	Create(ctx context.Context, identity model.Identity, req model.CreateTaskRequest) (model.Task, error)
	Get(ctx context.Context, identity model.Identity, id int64) (model.Task, error)
	Update(ctx context.Context, identity model.Identity, id int64, req model.UpdateTaskRequest) (model.Task, error)
	Delete(ctx context.Context, identity model.Identity, id int64) error
}

// TaskHandler serves /api/tasks. It must sit behind the gateway, which
// attaches the verified identity.
type TaskHandler struct {
	service      taskService
	maxBodyBytes int64
}

func NewTaskHandler(service taskService, maxBodyBytes int64) *TaskHandler {
	return &TaskHandler{service: service, maxBodyBytes: maxBodyBytes}
}

func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, model.ErrUnauthorized)
		return
	}

	tasks, err := h.service.List(r.Context(), identity, r.URL.Query().Get("status"))
	if err != nil {
		writeError(w, err)
		return
	}
	if tasks == nil {
		tasks = []model.Task{}
	}

	writeSuccess(w, http.StatusOK, tasks)
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, model.ErrUnauthorized)
		return
	}

	var payload model.CreateTaskRequest
	if err := decodeJSON(w, r, h.maxBodyBytes, &payload); err != nil {
		writeError(w, err)
		return
	}

	task, err := h.service.Create(r.Context(), identity, payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, task)
}

func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	identity, id, ok := h.target(w, r)
	if !ok {
		return
	}

	task, err := h.service.Get(r.Context(), identity, id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, task)
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	identity, id, ok := h.target(w, r)
	if !ok {
		return
	}

	var payload model.UpdateTaskRequest
	if err := decodeJSON(w, r, h.maxBodyBytes, &payload); err != nil {
		writeError(w, err)
		return
	}

	task, err := h.service.Update(r.Context(), identity, id, payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, task)
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity, id, ok := h.target(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), identity, id); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, model.MessageResponse{Message: "Task deleted successfully"})
}

// target resolves the caller and the {id} path parameter. Ids that do not
// parse are reported as missing tasks.
func (h *TaskHandler) target(w http.ResponseWriter, r *http.Request) (model.Identity, int64, bool) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, model.ErrUnauthorized)
		return model.Identity{}, 0, false
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, model.ErrTaskNotFound)
		return model.Identity{}, 0, false
	}

	return identity, id, true
}
