package tasks

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/JaimeStill/weles/pkg/handlers"
	"github.com/JaimeStill/weles/pkg/routes"
)

// Monitor is the polling surface of a Tracker.
type Monitor interface {
	Status(id uuid.UUID) (Snapshot, error)
	Cancel(id uuid.UUID) error
}

// Handler provides HTTP endpoints for polling and cancelling tasks.
type Handler struct {
	tasks  Monitor
	logger *slog.Logger
}

func NewHandler(tasks Monitor, logger *slog.Logger) *Handler {
	return &Handler{
		tasks:  tasks,
		logger: logger.With("handler", "tasks"),
	}
}

// Handler returns the HTTP handler for the tracker.
func (tr *Tracker) Handler() *Handler {
	return NewHandler(tr, tr.logger)
}

// Routes returns the route group definition for task endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/tasks",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/{id}", Handler: h.Status, Doc: docs.Status},
			{Method: "DELETE", Pattern: "/{id}", Handler: h.Cancel, Doc: docs.Cancel},
		},
	}
}

// Status answers a poll. Polls of a finished task count toward its
// eviction.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	snap, err := h.tasks.Status(id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, snap)
}

func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	if err := h.tasks.Cancel(id); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func parseID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %w", ErrInvalidID, err)
	}
	return id, nil
}
