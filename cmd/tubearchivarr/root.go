package main

import (
	"fmt"
	"os"
	"time"

	"github.com/ramonskie/tubearchivarr/internal/config"
	"github.com/ramonskie/tubearchivarr/internal/utils"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// version is set at build time via ldflags.
var version = "1.0.0-dev"

var (
	flagConfigPath string
	flagVerbose    bool
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "tubearchivarr",
		Short:         "Sync TubeArchivist and Jellyfin",
		Long:          "Keeps watch progress, watched state and playlists in step between a TubeArchivist archive and a Jellyfin library.",
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	cmd.PersistentFlags().StringVar(&flagConfigPath, "config", "", "config file path (default: TUBEARCHIVARR_CONFIG_PATH or ./config/config.yaml)")
	cmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newPingCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// initLogging sets up the global logger. Commands that print results to
// stdout log to stderr and skip the log files.
func initLogging(component string, interactive bool) {
	opts := utils.LogOptions{
		Level:     getEnv("LOG_LEVEL", "info"),
		Format:    getEnv("LOG_FORMAT", "json"),
		Component: component,
	}
	if flagVerbose {
		opts.Level = "debug"
	}
	if interactive {
		opts.Format = getEnv("LOG_FORMAT", "text")
		opts.Dir = "-"
		opts.Console = os.Stderr
	}
	utils.InitLogger(opts)
}

// loadConfig resolves the config path (flag, then environment, then the
// default search paths) and loads it
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(flagConfigPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	log.Info().
		Str("config_path", config.GetPath()).
		Str("archive_url", cfg.Archive.URL).
		Str("jellyfin_url", cfg.Jellyfin.URL).
		Str("collection", cfg.Jellyfin.CollectionTitle).
		Msg("Configuration loaded")
	return cfg, nil
}

func initJWT() {
	expiry, err := time.ParseDuration(getEnv("JWT_EXPIRATION", "24h"))
	if err != nil {
		log.Warn().Err(err).Msg("Invalid JWT_EXPIRATION, using 24h")
		expiry = 24 * time.Hour
	}
	utils.InitJWT(os.Getenv("JWT_SECRET"), expiry)
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "tubearchivarr", version)
		},
	}
}
