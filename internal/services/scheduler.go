package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ramonskie/tubearchivarr/internal/config"
	"github.com/ramonskie/tubearchivarr/internal/metrics"
	"github.com/ramonskie/tubearchivarr/internal/models"
	"github.com/ramonskie/tubearchivarr/internal/storage"
	"github.com/rs/zerolog/log"
)

var (
	ErrTaskRunning = errors.New("task already running")
	ErrUnknownTask = errors.New("unknown task")
)

// TaskFunc runs one reconciliation pass and returns its summary
type TaskFunc func(ctx context.Context, progress models.TaskProgress) (map[string]any, error)

// TaskState describes a task for the API
type TaskState struct {
	Name         storage.JobType `json:"name"`
	Enabled      bool            `json:"enabled"`
	Interval     int             `json:"interval"`
	Running      bool            `json:"running"`
	Progress     float64         `json:"progress"`
	CurrentJobID string          `json:"current_job_id,omitempty"`
	LastJob      *storage.Job    `json:"last_job,omitempty"`
}

type runState struct {
	jobID    string
	progress float64
}

// Scheduler runs the reconciliation tasks on their intervals and on demand.
// At most one instance of each task runs at a time.
type Scheduler struct {
	cfg   ConfigFunc
	jobs  *storage.JobsFile
	tasks map[storage.JobType]TaskFunc
	order []storage.JobType

	mu      sync.Mutex
	running map[storage.JobType]*runState

	loopLock sync.Mutex
	started  bool
	parent   context.Context
	tickers  []*time.Ticker
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewScheduler registers the four reconciliation tasks
func NewScheduler(cfg ConfigFunc, jobs *storage.JobsFile, progress *ProgressReconciler, playlists *PlaylistReconciler) *Scheduler {
	s := &Scheduler{
		cfg:     cfg,
		jobs:    jobs,
		tasks:   make(map[storage.JobType]TaskFunc),
		running: make(map[storage.JobType]*runState),
	}

	s.register(storage.JobTypeProgressPush, func(ctx context.Context, p models.TaskProgress) (map[string]any, error) {
		summary, err := progress.Push(ctx, p)
		return summary.ToMap(), err
	})
	s.register(storage.JobTypeProgressPull, func(ctx context.Context, p models.TaskProgress) (map[string]any, error) {
		summary, err := progress.Pull(ctx, p)
		return summary.ToMap(), err
	})
	s.register(storage.JobTypePlaylistsPush, func(ctx context.Context, p models.TaskProgress) (map[string]any, error) {
		summary, err := playlists.Push(ctx, p)
		return summary.ToMap(), err
	})
	s.register(storage.JobTypePlaylistsPull, func(ctx context.Context, p models.TaskProgress) (map[string]any, error) {
		summary, err := playlists.Pull(ctx, p)
		return summary.ToMap(), err
	})

	return s
}

func (s *Scheduler) register(name storage.JobType, fn TaskFunc) {
	if _, exists := s.tasks[name]; !exists {
		s.order = append(s.order, name)
	}
	s.tasks[name] = fn
}

// Tasks returns the registered task names in registration order
func (s *Scheduler) Tasks() []storage.JobType {
	return append([]storage.JobType(nil), s.order...)
}

func taskConfig(cfg *config.Config, name storage.JobType) config.TaskConfig {
	switch name {
	case storage.JobTypeProgressPush:
		return cfg.Sync.ProgressPush.TaskConfig
	case storage.JobTypeProgressPull:
		return cfg.Sync.ProgressPull.TaskConfig
	case storage.JobTypePlaylistsPush:
		return cfg.Sync.PlaylistsPush
	case storage.JobTypePlaylistsPull:
		return cfg.Sync.PlaylistsPull.TaskConfig
	}
	return config.TaskConfig{}
}

// Start launches one ticker loop per enabled task. Task runs inherit ctx,
// so cancelling it aborts in-flight sweeps.
func (s *Scheduler) Start(ctx context.Context) error {
	s.loopLock.Lock()
	defer s.loopLock.Unlock()

	if s.started {
		return fmt.Errorf("scheduler already running")
	}
	s.started = true
	s.parent = ctx
	s.stopChan = make(chan struct{})
	s.tickers = nil

	cfg := s.cfg()
	var enabled []storage.JobType
	for _, name := range s.order {
		tc := taskConfig(cfg, name)
		if !tc.Enabled || tc.Interval <= 0 {
			log.Info().Str("task", string(name)).Msg("Task disabled, not scheduling")
			continue
		}
		enabled = append(enabled, name)

		interval := time.Duration(tc.Interval) * time.Second
		ticker := time.NewTicker(interval)
		s.tickers = append(s.tickers, ticker)

		s.wg.Add(1)
		go s.loop(ctx, name, ticker, s.stopChan)

		log.Info().Str("task", string(name)).Dur("interval", interval).Msg("Task scheduled")
	}

	if cfg.Sync.RunOnStart && len(enabled) > 0 {
		s.wg.Add(1)
		go func(stop <-chan struct{}) {
			defer s.wg.Done()
			for _, name := range enabled {
				select {
				case <-stop:
					return
				default:
				}
				if _, err := s.RunSync(ctx, name, "startup"); err != nil && !errors.Is(err, ErrTaskRunning) {
					log.Error().Err(err).Str("task", string(name)).Msg("Startup run failed")
				}
			}
		}(s.stopChan)
	}

	log.Info().Int("tasks", len(enabled)).Bool("run_on_start", cfg.Sync.RunOnStart).Msg("Scheduler started")
	return nil
}

func (s *Scheduler) loop(ctx context.Context, name storage.JobType, ticker *time.Ticker, stop <-chan struct{}) {
	defer s.wg.Done()
	for {
		select {
		case <-ticker.C:
			_, err := s.RunSync(ctx, name, "schedule")
			switch {
			case errors.Is(err, ErrTaskRunning):
				log.Debug().Str("task", string(name)).Msg("Previous run still in progress, skipping tick")
			case err != nil:
				log.Error().Err(err).Str("task", string(name)).Msg("Scheduled run failed")
			}
		case <-stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Stop halts the ticker loops. Runs already in progress finish on their own.
func (s *Scheduler) Stop() {
	s.loopLock.Lock()
	defer s.loopLock.Unlock()

	if !s.started {
		return
	}
	s.started = false
	close(s.stopChan)
	for _, t := range s.tickers {
		t.Stop()
	}
	s.tickers = nil

	log.Info().Msg("Scheduler stopped")
}

// Wait blocks until the loops and any asynchronous runs have returned
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

// RestartScheduler re-reads intervals and enabled flags from the config
func (s *Scheduler) RestartScheduler() error {
	s.loopLock.Lock()
	wasRunning := s.started
	parent := s.parent
	s.loopLock.Unlock()

	if !wasRunning {
		log.Info().Msg("Scheduler was not running, skipping restart")
		return nil
	}

	s.Stop()
	if err := s.Start(parent); err != nil {
		return fmt.Errorf("failed to restart scheduler: %w", err)
	}
	return nil
}

func (s *Scheduler) reserve(name storage.JobType) (string, error) {
	if _, ok := s.tasks[name]; !ok {
		return "", fmt.Errorf("%q: %w", name, ErrUnknownTask)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if state, ok := s.running[name]; ok {
		return state.jobID, fmt.Errorf("%q: %w", name, ErrTaskRunning)
	}
	jobID := uuid.New().String()
	s.running[name] = &runState{jobID: jobID}
	return jobID, nil
}

// Trigger starts a task in the background and returns its job id. The run
// is bound to the scheduler's context, not the caller's.
func (s *Scheduler) Trigger(name storage.JobType, trigger string) (string, error) {
	jobID, err := s.reserve(name)
	if err != nil {
		return jobID, err
	}

	s.loopLock.Lock()
	ctx := s.parent
	s.loopLock.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.execute(ctx, name, jobID, trigger)
	}()
	return jobID, nil
}

// RunSync runs a task on the calling goroutine. The returned error is the
// task's own error; the job records it as well.
func (s *Scheduler) RunSync(ctx context.Context, name storage.JobType, trigger string) (storage.Job, error) {
	jobID, err := s.reserve(name)
	if err != nil {
		return storage.Job{}, err
	}
	job := s.execute(ctx, name, jobID, trigger)
	if job.Status != storage.JobStatusCompleted {
		return job, errors.New(job.Error)
	}
	return job, nil
}

func (s *Scheduler) execute(ctx context.Context, name storage.JobType, jobID, trigger string) storage.Job {
	startTime := time.Now()
	log.Info().Str("job_id", jobID).Str("task", string(name)).Str("trigger", trigger).Msg("Starting task")

	job := storage.Job{
		ID:        jobID,
		Type:      name,
		Trigger:   trigger,
		Status:    storage.JobStatusRunning,
		StartedAt: startTime,
		Summary:   make(map[string]any),
	}
	if s.jobs != nil {
		if err := s.jobs.Add(job); err != nil {
			log.Warn().Err(err).Msg("Failed to create job entry")
		}
	}

	progress := func(percent float64) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if state, ok := s.running[name]; ok {
			state.progress = percent
		}
	}

	summary, err := s.tasks[name](ctx, progress)

	s.mu.Lock()
	if state, ok := s.running[name]; ok {
		job.Progress = state.progress
	}
	delete(s.running, name)
	s.mu.Unlock()

	completedAt := time.Now()
	duration := completedAt.Sub(startTime)
	job.CompletedAt = &completedAt
	job.DurationMs = duration.Milliseconds()
	for k, v := range summary {
		job.Summary[k] = v
	}

	switch {
	case err == nil:
		job.Status = storage.JobStatusCompleted
		job.Progress = 100
	case errors.Is(err, context.Canceled):
		job.Status = storage.JobStatusCancelled
		job.Error = err.Error()
	default:
		job.Status = storage.JobStatusFailed
		job.Error = err.Error()
	}

	if s.jobs != nil {
		if err := s.jobs.Update(job); err != nil {
			log.Warn().Err(err).Msg("Failed to update job")
		}
	}
	metrics.RecordTask(string(name), string(job.Status), duration)

	event := log.Info()
	if job.Status == storage.JobStatusFailed {
		event = log.Error().Str("error", job.Error)
	}
	event.
		Str("job_id", jobID).
		Str("task", string(name)).
		Str("status", string(job.Status)).
		Dur("duration", duration).
		Msg("Task finished")

	return job
}

// States reports every task's schedule and run state
func (s *Scheduler) States() []TaskState {
	cfg := s.cfg()

	s.mu.Lock()
	defer s.mu.Unlock()

	states := make([]TaskState, 0, len(s.order))
	for _, name := range s.order {
		tc := taskConfig(cfg, name)
		state := TaskState{Name: name, Enabled: tc.Enabled, Interval: tc.Interval}
		if run, ok := s.running[name]; ok {
			state.Running = true
			state.Progress = run.progress
			state.CurrentJobID = run.jobID
		}
		if s.jobs != nil {
			if last, ok := s.jobs.GetLatestOfType(name); ok {
				state.LastJob = &last
			}
		}
		states = append(states, state)
	}
	return states
}
