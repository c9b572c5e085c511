package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"go-task-manager/internal/model"
)

type pinger interface {
	Health(ctx context.Context) error
}

type HealthHandler struct {
	db      pinger
	service string
}

func NewHealthHandler(db pinger, service string) *HealthHandler {
	return &HealthHandler{db: db, service: service}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := h.db.Health(ctx); err != nil {
			slog.Warn("health check failed", "service", h.service, "error", err)
			writeSuccess(w, http.StatusServiceUnavailable, model.HealthResponse{Status: "unavailable", Service: h.service})
			return
		}
	}

	writeSuccess(w, http.StatusOK, model.HealthResponse{Status: "ok", Service: h.service})
}
