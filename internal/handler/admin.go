package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/todo/internal/auth"
	"github.com/dukerupert/todo/internal/service"
)

type AdminHandler struct {
	tasks  *service.TaskService
	logger *slog.Logger
}

func NewAdminHandler(tasks *service.TaskService, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{tasks: tasks, logger: logger}
}

func (h *AdminHandler) FetchAll(w http.ResponseWriter, r *http.Request) {
	id, err := auth.RequireAdmin(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	tasks, err := h.tasks.AdminListAll(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (h *AdminHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := auth.RequireAdmin(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	taskID, err := parseIDParam(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if err := h.tasks.AdminDelete(r.Context(), id, taskID); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.logger.Info("admin deleted task", "task_id", taskID, "admin_id", id.UserID)
	w.WriteHeader(http.StatusNoContent)
}
