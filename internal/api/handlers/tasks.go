package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/ramonskie/tubearchivarr/internal/services"
	"github.com/ramonskie/tubearchivarr/internal/storage"
	"github.com/rs/zerolog/log"
)

// TaskRunner reports and triggers the reconciliation tasks
type TaskRunner interface {
	States() []services.TaskState
	Trigger(name storage.JobType, trigger string) (string, error)
}

// TasksHandler handles task listing and manual runs
type TasksHandler struct {
	tasks TaskRunner
}

// NewTasksHandler creates a new TasksHandler
func NewTasksHandler(tasks TaskRunner) *TasksHandler {
	return &TasksHandler{tasks: tasks}
}

// TaskRunResponse is returned when a run is accepted or already in flight
type TaskRunResponse struct {
	Task    storage.JobType `json:"task"`
	JobID   string          `json:"job_id"`
	Message string          `json:"message"`
}

// ListTasks handles GET /api/tasks
func (h *TasksHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"tasks": h.tasks.States(),
	})
}

// RunTask handles POST /api/tasks/{name}/run
func (h *TasksHandler) RunTask(w http.ResponseWriter, r *http.Request) {
	name := storage.JobType(chi.URLParam(r, "name"))

	jobID, err := h.tasks.Trigger(name, "api")
	switch {
	case errors.Is(err, services.ErrUnknownTask):
		writeError(w, http.StatusNotFound, "Unknown task")
		return
	case errors.Is(err, services.ErrTaskRunning):
		writeJSON(w, http.StatusConflict, TaskRunResponse{
			Task:    name,
			JobID:   jobID,
			Message: "Task already running",
		})
		return
	case err != nil:
		log.Error().Err(err).Str("task", string(name)).Msg("Failed to trigger task")
		writeError(w, http.StatusInternalServerError, "Failed to trigger task")
		return
	}

	log.Info().Str("task", string(name)).Str("job_id", jobID).Msg("Task triggered via API")
	writeJSON(w, http.StatusAccepted, TaskRunResponse{
		Task:    name,
		JobID:   jobID,
		Message: "Task started",
	})
}
