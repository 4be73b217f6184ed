package config

import "strings"

// Config represents the complete application configuration
type Config struct {
	Admin    AdminConfig    `mapstructure:"admin" yaml:"admin"`
	Server   ServerConfig   `mapstructure:"server" yaml:"server"`
	Archive  ArchiveConfig  `mapstructure:"archive" yaml:"archive"`
	Jellyfin JellyfinConfig `mapstructure:"jellyfin" yaml:"jellyfin"`
	Sync     SyncConfig     `mapstructure:"sync" yaml:"sync"`
	Metadata MetadataConfig `mapstructure:"metadata" yaml:"metadata"`
	Data     DataConfig     `mapstructure:"data" yaml:"data"`
}

// AdminConfig holds admin user credentials
type AdminConfig struct {
	Username    string `mapstructure:"username" yaml:"username"`
	Password    string `mapstructure:"password" yaml:"password"`
	DisableAuth bool   `mapstructure:"disable_auth" yaml:"disable_auth"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port int    `mapstructure:"port" yaml:"port"`
}

// BaseIntegrationConfig holds common integration settings
type BaseIntegrationConfig struct {
	URL     string `mapstructure:"url" yaml:"url"`
	APIKey  string `mapstructure:"api_key" yaml:"api_key"`
	Timeout string `mapstructure:"timeout" yaml:"timeout"`
}

// ArchiveConfig holds TubeArchivist settings
type ArchiveConfig struct {
	BaseIntegrationConfig `mapstructure:",squash" yaml:",inline"`
	RateLimit             float64 `mapstructure:"rate_limit" yaml:"rate_limit"`
	MaxDescriptionLength  int     `mapstructure:"max_description_length" yaml:"max_description_length"`
}

// JellyfinConfig holds library host settings
type JellyfinConfig struct {
	BaseIntegrationConfig `mapstructure:",squash" yaml:",inline"`
	CollectionTitle       string `mapstructure:"collection_title" yaml:"collection_title"`
	WebSocket             bool   `mapstructure:"websocket" yaml:"websocket"`
}

// SyncConfig holds reconciliation task settings
type SyncConfig struct {
	ProgressPush   ProgressPushConfig  `mapstructure:"progress_push" yaml:"progress_push"`
	ProgressPull   ProgressPullConfig  `mapstructure:"progress_pull" yaml:"progress_pull"`
	PlaylistsPush  TaskConfig          `mapstructure:"playlists_push" yaml:"playlists_push"`
	PlaylistsPull  PlaylistsPullConfig `mapstructure:"playlists_pull" yaml:"playlists_pull"`
	RunOnStart     bool                `mapstructure:"run_on_start" yaml:"run_on_start"`
	EventWorkers   int                 `mapstructure:"event_workers" yaml:"event_workers"`
	EventQueueSize int                 `mapstructure:"event_queue_size" yaml:"event_queue_size"`
}

// TaskConfig enables a task and sets its interval in seconds
type TaskConfig struct {
	Enabled  bool `mapstructure:"enabled" yaml:"enabled"`
	Interval int  `mapstructure:"interval" yaml:"interval"`
}

// ProgressPushConfig controls library to archive progress sync
type ProgressPushConfig struct {
	TaskConfig `mapstructure:",squash" yaml:",inline"`
	Username   string `mapstructure:"username" yaml:"username"`
}

// ProgressPullConfig controls archive to library progress sync
type ProgressPullConfig struct {
	TaskConfig `mapstructure:",squash" yaml:",inline"`
	Usernames  string `mapstructure:"usernames" yaml:"usernames"`
}

// UsernameList splits the comma separated usernames, dropping blanks
func (c ProgressPullConfig) UsernameList() []string {
	var names []string
	for _, name := range strings.Split(c.Usernames, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// HasUsername reports whether name is one of the configured destination users
func (c ProgressPullConfig) HasUsername(name string) bool {
	for _, n := range c.UsernameList() {
		if strings.EqualFold(n, name) {
			return true
		}
	}
	return false
}

// PlaylistsPullConfig controls archive to library playlist sync
type PlaylistsPullConfig struct {
	TaskConfig    `mapstructure:",squash" yaml:",inline"`
	DeleteOrphans bool `mapstructure:"delete_orphans" yaml:"delete_orphans"`
}

// NumberingScheme selects how episode index numbers are derived
type NumberingScheme string

const (
	NumberingDefault  NumberingScheme = "Default"
	NumberingYYYYMMDD NumberingScheme = "YYYYMMDD"
)

// MetadataConfig holds metadata mapping settings
type MetadataConfig struct {
	NumberingScheme NumberingScheme `mapstructure:"numbering_scheme" yaml:"numbering_scheme"`
}

// DataConfig holds local storage settings
type DataConfig struct {
	Path    string `mapstructure:"path" yaml:"path"`
	MaxJobs int    `mapstructure:"max_jobs" yaml:"max_jobs"`
}
