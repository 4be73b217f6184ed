package storage

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
)

// JobStatus represents the status of a task run
type JobStatus string

const (
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusCancelled JobStatus = "cancelled"
	JobStatusFailed    JobStatus = "failed"
)

// JobType names the reconciliation task a job ran
type JobType string

const (
	JobTypeProgressPush  JobType = "progress_push"
	JobTypeProgressPull  JobType = "progress_pull"
	JobTypePlaylistsPush JobType = "playlists_push"
	JobTypePlaylistsPull JobType = "playlists_pull"
)

// Job represents one task run
type Job struct {
	ID          string         `json:"id"`
	Type        JobType        `json:"type"`
	Trigger     string         `json:"trigger,omitempty"`
	Status      JobStatus      `json:"status"`
	StartedAt   time.Time      `json:"started_at"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
	DurationMs  int64          `json:"duration_ms"`
	Progress    float64        `json:"progress"`
	Summary     map[string]any `json:"summary,omitempty"`
	Error       string         `json:"error,omitempty"`
}

// JobsFile represents the jobs.json structure
type JobsFile struct {
	Version  string `json:"version"`
	Jobs     []Job  `json:"jobs"`
	mu       sync.RWMutex
	filePath string
	maxJobs  int
}

type jobsDocument struct {
	Version string `json:"version"`
	Jobs    []Job  `json:"jobs"`
}

// NewJobsFile creates or loads a jobs file
func NewJobsFile(dataPath string, maxJobs int) (*JobsFile, error) {
	filePath := filepath.Join(dataPath, "jobs.json")

	if err := os.MkdirAll(dataPath, 0755); err != nil {
		return nil, err
	}

	if maxJobs == 0 {
		maxJobs = 100
	}

	jf := &JobsFile{
		Version:  "1.0",
		Jobs:     make([]Job, 0),
		filePath: filePath,
		maxJobs:  maxJobs,
	}

	if _, err := os.Stat(filePath); err == nil {
		if err := jf.load(); err != nil {
			log.Warn().Err(err).Msg("Failed to load jobs file, starting fresh")
		}
	}

	// A process that died mid-run leaves running jobs behind
	for i := range jf.Jobs {
		if jf.Jobs[i].Status == JobStatusRunning {
			jf.Jobs[i].Status = JobStatusFailed
			jf.Jobs[i].Error = "interrupted"
		}
	}

	return jf, nil
}

// Add adds a new job to the front of the history
func (jf *JobsFile) Add(job Job) error {
	jf.mu.Lock()
	defer jf.mu.Unlock()

	jf.Jobs = append([]Job{job}, jf.Jobs...)
	if len(jf.Jobs) > jf.maxJobs {
		jf.Jobs = jf.Jobs[:jf.maxJobs]
	}

	return jf.save()
}

// Update replaces an existing job by ID
func (jf *JobsFile) Update(job Job) error {
	jf.mu.Lock()
	defer jf.mu.Unlock()

	for i, j := range jf.Jobs {
		if j.ID == job.ID {
			jf.Jobs[i] = job
			return jf.save()
		}
	}

	return nil
}

// Get retrieves a job by ID
func (jf *JobsFile) Get(id string) (Job, bool) {
	jf.mu.RLock()
	defer jf.mu.RUnlock()

	for _, job := range jf.Jobs {
		if job.ID == id {
			return job, true
		}
	}
	return Job{}, false
}

// GetAll returns all jobs
func (jf *JobsFile) GetAll() []Job {
	jf.mu.RLock()
	defer jf.mu.RUnlock()

	jobs := make([]Job, len(jf.Jobs))
	copy(jobs, jf.Jobs)
	return jobs
}

// GetRecent returns the N most recent jobs
func (jf *JobsFile) GetRecent(n int) []Job {
	jf.mu.RLock()
	defer jf.mu.RUnlock()

	if n > len(jf.Jobs) {
		n = len(jf.Jobs)
	}

	jobs := make([]Job, n)
	copy(jobs, jf.Jobs[:n])
	return jobs
}

// GetLatest returns the most recent job
func (jf *JobsFile) GetLatest() (Job, bool) {
	jf.mu.RLock()
	defer jf.mu.RUnlock()

	if len(jf.Jobs) == 0 {
		return Job{}, false
	}

	return jf.Jobs[0], true
}

// GetLatestOfType returns the most recent job of the given type
func (jf *JobsFile) GetLatestOfType(jobType JobType) (Job, bool) {
	jf.mu.RLock()
	defer jf.mu.RUnlock()

	for _, job := range jf.Jobs {
		if job.Type == jobType {
			return job, true
		}
	}
	return Job{}, false
}

// load reads the jobs file from disk
func (jf *JobsFile) load() error {
	data, err := os.ReadFile(jf.filePath)
	if err != nil {
		return err
	}

	var doc jobsDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}

	jf.Version = doc.Version
	if doc.Jobs != nil {
		jf.Jobs = doc.Jobs
	}

	log.Info().Int("count", len(jf.Jobs)).Msg("Loaded jobs from file")
	return nil
}

// save writes the jobs file through a temp file and rename
func (jf *JobsFile) save() error {
	data, err := json.MarshalIndent(jobsDocument{Version: jf.Version, Jobs: jf.Jobs}, "", "  ")
	if err != nil {
		return err
	}

	tmp := jf.filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	if err := os.Rename(tmp, jf.filePath); err != nil {
		return err
	}

	log.Debug().Int("count", len(jf.Jobs)).Msg("Saved jobs to file")
	return nil
}
