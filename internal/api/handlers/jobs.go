package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/ramonskie/tubearchivarr/internal/storage"
)

// JobsHandler handles job history requests
type JobsHandler struct {
	jobs *storage.JobsFile
}

// NewJobsHandler creates a new JobsHandler
func NewJobsHandler(jobs *storage.JobsFile) *JobsHandler {
	return &JobsHandler{
		jobs: jobs,
	}
}

// ListJobs handles GET /api/jobs. An optional ?limit=N returns the N most recent.
func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	var jobs []storage.Job
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		jobs = h.jobs.GetRecent(limit)
	} else {
		jobs = h.jobs.GetAll()
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"jobs":  jobs,
		"total": len(jobs),
	})
}

// GetJob handles GET /api/jobs/{id}
func (h *JobsHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "Job ID required")
		return
	}

	job, found := h.jobs.Get(id)
	if !found {
		writeError(w, http.StatusNotFound, "Job not found")
		return
	}

	writeJSON(w, http.StatusOK, job)
}

// GetLatestJob handles GET /api/jobs/latest. ?type= narrows it to one task.
func (h *JobsHandler) GetLatestJob(w http.ResponseWriter, r *http.Request) {
	var (
		job   storage.Job
		found bool
	)
	if jobType := r.URL.Query().Get("type"); jobType != "" {
		job, found = h.jobs.GetLatestOfType(storage.JobType(jobType))
	} else {
		job, found = h.jobs.GetLatest()
	}
	if !found {
		writeError(w, http.StatusNotFound, "No jobs found")
		return
	}

	writeJSON(w, http.StatusOK, job)
}
