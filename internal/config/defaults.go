package config

import "github.com/ramonskie/tubearchivarr/internal/identity"

// DefaultCollectionTitle is the library folder mapped to the archive when none is configured
const DefaultCollectionTitle = "YouTube"

// DefaultConfig returns a Config struct with all default values
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 9710,
		},
		Archive: ArchiveConfig{
			BaseIntegrationConfig: BaseIntegrationConfig{
				Timeout: "30s",
			},
			RateLimit:            10,
			MaxDescriptionLength: 500,
		},
		Jellyfin: JellyfinConfig{
			BaseIntegrationConfig: BaseIntegrationConfig{
				Timeout: "30s",
			},
			CollectionTitle: DefaultCollectionTitle,
			WebSocket:       true,
		},
		Sync: SyncConfig{
			ProgressPush:   ProgressPushConfig{TaskConfig: TaskConfig{Interval: 600}},
			ProgressPull:   ProgressPullConfig{TaskConfig: TaskConfig{Interval: 600}},
			PlaylistsPush:  TaskConfig{Interval: 3600},
			PlaylistsPull:  PlaylistsPullConfig{TaskConfig: TaskConfig{Interval: 3600}},
			RunOnStart:     true,
			EventWorkers:   4,
			EventQueueSize: 256,
		},
		Metadata: MetadataConfig{
			NumberingScheme: NumberingDefault,
		},
		Data: DataConfig{
			Path:    "./data",
			MaxJobs: 100,
		},
	}
}

// SetDefaults applies default values to missing config fields
func SetDefaults(cfg *Config) {
	defaults := DefaultConfig()

	// Server defaults
	if cfg.Server.Host == "" {
		cfg.Server.Host = defaults.Server.Host
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = defaults.Server.Port
	}

	// Integration defaults
	cfg.Archive.URL = identity.NormalizeBaseURL(cfg.Archive.URL)
	cfg.Jellyfin.URL = identity.NormalizeBaseURL(cfg.Jellyfin.URL)
	if cfg.Archive.Timeout == "" {
		cfg.Archive.Timeout = defaults.Archive.Timeout
	}
	if cfg.Jellyfin.Timeout == "" {
		cfg.Jellyfin.Timeout = defaults.Jellyfin.Timeout
	}
	if cfg.Archive.MaxDescriptionLength == 0 {
		cfg.Archive.MaxDescriptionLength = defaults.Archive.MaxDescriptionLength
	}
	if cfg.Jellyfin.CollectionTitle == "" {
		cfg.Jellyfin.CollectionTitle = defaults.Jellyfin.CollectionTitle
	}

	// Sync defaults
	if cfg.Sync.ProgressPush.Interval == 0 {
		cfg.Sync.ProgressPush.Interval = defaults.Sync.ProgressPush.Interval
	}
	if cfg.Sync.ProgressPull.Interval == 0 {
		cfg.Sync.ProgressPull.Interval = defaults.Sync.ProgressPull.Interval
	}
	if cfg.Sync.PlaylistsPush.Interval == 0 {
		cfg.Sync.PlaylistsPush.Interval = defaults.Sync.PlaylistsPush.Interval
	}
	if cfg.Sync.PlaylistsPull.Interval == 0 {
		cfg.Sync.PlaylistsPull.Interval = defaults.Sync.PlaylistsPull.Interval
	}
	if cfg.Sync.EventWorkers == 0 {
		cfg.Sync.EventWorkers = defaults.Sync.EventWorkers
	}
	if cfg.Sync.EventQueueSize == 0 {
		cfg.Sync.EventQueueSize = defaults.Sync.EventQueueSize
	}

	if cfg.Metadata.NumberingScheme == "" {
		cfg.Metadata.NumberingScheme = defaults.Metadata.NumberingScheme
	}

	// Data defaults
	if cfg.Data.Path == "" {
		cfg.Data.Path = defaults.Data.Path
	}
	if cfg.Data.MaxJobs == 0 {
		cfg.Data.MaxJobs = defaults.Data.MaxJobs
	}
}
