package handlers

import (
	"context"
	"fmt"
	"sync"

	"github.com/ramonskie/tubearchivarr/internal/clients"
	"github.com/ramonskie/tubearchivarr/internal/models"
	"github.com/ramonskie/tubearchivarr/internal/services"
	"github.com/ramonskie/tubearchivarr/internal/storage"
)

type fakeArchive struct {
	up      bool
	breaker string
}

func (f *fakeArchive) Ping(context.Context) *clients.ArchivePing {
	if !f.up {
		return nil
	}
	return &clients.ArchivePing{Response: "pong", Version: "v0.5.0"}
}

func (f *fakeArchive) BreakerState() string { return f.breaker }

type fakeTasks struct {
	states  []services.TaskState
	running map[storage.JobType]string
	started []storage.JobType
}

func (f *fakeTasks) States() []services.TaskState { return f.states }

func (f *fakeTasks) Trigger(name storage.JobType, trigger string) (string, error) {
	known := false
	for _, st := range f.states {
		if st.Name == name {
			known = true
		}
	}
	if !known {
		return "", fmt.Errorf("%w: %s", services.ErrUnknownTask, name)
	}
	if id, ok := f.running[name]; ok {
		return id, fmt.Errorf("%w: %s", services.ErrTaskRunning, name)
	}
	f.started = append(f.started, name)
	return "job-" + string(name), nil
}

type fakeSink struct {
	mu     sync.Mutex
	full   bool
	events []models.Event
}

func (f *fakeSink) Enqueue(event models.Event) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.full {
		return false
	}
	f.events = append(f.events, event)
	return true
}

func (f *fakeSink) QueueDepth() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

type fakeMetadata struct {
	episodes map[string]models.EpisodeMetadata
	series   map[string]models.SeriesMetadata
}

func (f *fakeMetadata) Episode(_ context.Context, id string) (*models.EpisodeMetadata, error) {
	meta, ok := f.episodes[id]
	if !ok {
		return nil, fmt.Errorf("video %q: %w", id, services.ErrMetadataNotFound)
	}
	return &meta, nil
}

func (f *fakeMetadata) Series(_ context.Context, id string) (*models.SeriesMetadata, error) {
	meta, ok := f.series[id]
	if !ok {
		return nil, fmt.Errorf("channel %q: %w", id, services.ErrMetadataNotFound)
	}
	return &meta, nil
}

type fakeCollection string

func (f fakeCollection) CollectionID() string { return string(f) }

type fakeSocket bool

func (f fakeSocket) IsConnected() bool { return bool(f) }
