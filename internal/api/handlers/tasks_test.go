package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/ramonskie/tubearchivarr/internal/services"
	"github.com/ramonskie/tubearchivarr/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFakeTasks() *fakeTasks {
	return &fakeTasks{
		states: []services.TaskState{
			{Name: storage.JobTypeProgressPush, Enabled: true, Interval: 600},
			{Name: storage.JobTypePlaylistsPull, Enabled: false, Interval: 3600},
		},
		running: map[storage.JobType]string{},
	}
}

func TestTasksHandler_ListTasks(t *testing.T) {
	handler := NewTasksHandler(newFakeTasks())

	w := httptest.NewRecorder()
	handler.ListTasks(w, httptest.NewRequest(http.MethodGet, "/api/tasks", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	var response struct {
		Tasks []services.TaskState `json:"tasks"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	require.Len(t, response.Tasks, 2)
	assert.Equal(t, storage.JobTypeProgressPush, response.Tasks[0].Name)
	assert.True(t, response.Tasks[0].Enabled)
	assert.Equal(t, 3600, response.Tasks[1].Interval)
}

func TestTasksHandler_RunTask(t *testing.T) {
	run := func(h *TasksHandler, name string) (*httptest.ResponseRecorder, TaskRunResponse) {
		req := withURLParam(httptest.NewRequest(http.MethodPost, "/api/tasks/"+name+"/run", nil), "name", name)
		w := httptest.NewRecorder()
		h.RunTask(w, req)

		var resp TaskRunResponse
		_ = json.Unmarshal(w.Body.Bytes(), &resp)
		return w, resp
	}

	t.Run("accepts a known task", func(t *testing.T) {
		tasks := newFakeTasks()
		w, resp := run(NewTasksHandler(tasks), "progress_push")

		assert.Equal(t, http.StatusAccepted, w.Code)
		assert.Equal(t, "job-progress_push", resp.JobID)
		assert.Equal(t, []storage.JobType{storage.JobTypeProgressPush}, tasks.started)
	})

	t.Run("conflicts while running", func(t *testing.T) {
		tasks := newFakeTasks()
		tasks.running[storage.JobTypePlaylistsPull] = "in-flight"
		w, resp := run(NewTasksHandler(tasks), "playlists_pull")

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "in-flight", resp.JobID)
		assert.Empty(t, tasks.started)
	})

	t.Run("unknown task", func(t *testing.T) {
		w, _ := run(NewTasksHandler(newFakeTasks()), "defrag")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
