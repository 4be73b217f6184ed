package main

import (
	"fmt"

	"github.com/ramonskie/tubearchivarr/internal/cache"
	"github.com/ramonskie/tubearchivarr/internal/clients"
	"github.com/ramonskie/tubearchivarr/internal/config"
	"github.com/ramonskie/tubearchivarr/internal/services"
	"github.com/ramonskie/tubearchivarr/internal/storage"
	"github.com/rs/zerolog/log"
)

// app holds the wired components shared by serve and run
type app struct {
	cache      *cache.Cache
	jobs       *storage.JobsFile
	jellyfin   *clients.JellyfinClient
	archive    *clients.ArchiveClient
	membership *services.MembershipResolver
	progress   *services.ProgressReconciler
	playlists  *services.PlaylistReconciler
	dispatcher *services.EventDispatcher
	scheduler  *services.Scheduler
	metadata   *services.MetadataService
	auth       *services.AuthService
}

// newApp builds every component from the loaded config. Components read the
// live snapshot through config.Get so reloads reach them without rewiring.
func newApp(cfg *config.Config) (*app, error) {
	jobs, err := storage.NewJobsFile(cfg.Data.Path, cfg.Data.MaxJobs)
	if err != nil {
		return nil, fmt.Errorf("initializing jobs storage: %w", err)
	}
	log.Info().Int("jobs", len(jobs.GetAll())).Msg("Jobs loaded")

	a := &app{
		cache: cache.New(),
		jobs:  jobs,
	}
	current := services.ConfigFunc(config.Get)

	a.jellyfin = clients.NewJellyfinClient(cfg.Jellyfin, a.cache)
	a.archive = clients.NewArchiveClient(cfg.Archive)

	a.membership = services.NewMembershipResolver(a.jellyfin, current)
	a.progress = services.NewProgressReconciler(a.jellyfin, a.archive, a.membership, current)
	a.playlists = services.NewPlaylistReconciler(a.jellyfin, a.archive, current)
	a.dispatcher = services.NewEventDispatcher(a.jellyfin, a.membership, a.progress, current)
	a.scheduler = services.NewScheduler(current, jobs, a.progress, a.playlists)
	a.metadata = services.NewMetadataService(a.archive, current)
	a.auth = services.NewAuthService(current)

	return a, nil
}

// applyConfig pushes a reloaded config into the components that cache
// parts of it
func (a *app) applyConfig(cfg *config.Config) {
	a.archive.SetBaseURL(cfg.Archive.URL)
	a.archive.SetAPIKey(cfg.Archive.APIKey)
	a.jellyfin.InvalidateCache()
}
