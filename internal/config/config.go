package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

var (
	globalConfig atomic.Pointer[Config]
	configPath   string
)

// Load loads configuration from file and environment variables
func Load(path string) (*Config, error) {
	v := viper.New()

	// Set config file path
	if path == "" {
		path = getDefaultConfigPath()
	}
	configPath = path

	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Environment variable support
	v.SetEnvPrefix("TUBEARCHIVARR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
			log.Warn().Str("path", path).Msg("Config file not found, using defaults and environment variables")
		} else {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Start with defaults
	cfg := DefaultConfig()

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	SetDefaults(cfg)

	log.Debug().
		Str("archive_url", cfg.Archive.URL).
		Str("jellyfin_url", cfg.Jellyfin.URL).
		Str("collection", cfg.Jellyfin.CollectionTitle).
		Bool("has_archive_key", cfg.Archive.APIKey != "").
		Msg("Config after applying defaults")

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	globalConfig.Store(cfg)
	return cfg, nil
}

// Get returns the current config snapshot
func Get() *Config {
	return globalConfig.Load()
}

// SetTestConfig sets a test config (for testing only - bypasses validation)
func SetTestConfig(cfg *Config) {
	globalConfig.Store(cfg)
}

// GetPath returns the current config file path
func GetPath() string {
	return configPath
}

// Reload reloads the configuration from disk
func Reload() error {
	log.Info().Msg("Reloading configuration from disk")
	cfg, err := Load(configPath)
	if err != nil {
		return err
	}
	log.Info().
		Str("collection", cfg.Jellyfin.CollectionTitle).
		Bool("progress_push", cfg.Sync.ProgressPush.Enabled).
		Bool("progress_pull", cfg.Sync.ProgressPull.Enabled).
		Bool("playlists_push", cfg.Sync.PlaylistsPush.Enabled).
		Bool("playlists_pull", cfg.Sync.PlaylistsPull.Enabled).
		Msg("Configuration reloaded successfully")
	return nil
}

// getDefaultConfigPath returns the default config file path
func getDefaultConfigPath() string {
	if path := os.Getenv("TUBEARCHIVARR_CONFIG_PATH"); path != "" {
		return path
	}

	paths := []string{
		"./config/config.yaml",
		"/app/config/config.yaml",
		"./config.yaml",
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return paths[0]
}
