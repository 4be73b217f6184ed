package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/ramonskie/tubearchivarr/internal/clients"
	"github.com/ramonskie/tubearchivarr/internal/config"
	"github.com/spf13/cobra"
)

const pingTimeout = 15 * time.Second

var errPingFailed = errors.New("one or more services unreachable")

func newPingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the archive and Jellyfin answer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			initLogging("cli", true)

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			ctx, cancel := context.WithTimeout(ctx, pingTimeout)
			defer cancel()

			return runPing(ctx, cmd.OutOrStdout(), cfg)
		},
	}
}

func runPing(ctx context.Context, out io.Writer, cfg *config.Config) error {
	ok := true

	archive := clients.NewArchiveClient(cfg.Archive)
	if ping := archive.Ping(ctx); ping != nil {
		fmt.Fprintf(out, "archive   ok    %s (version %s)\n", cfg.Archive.URL, ping.Version)
	} else {
		ok = false
		fmt.Fprintf(out, "archive   FAIL  %s\n", cfg.Archive.URL)
	}

	jellyfin := clients.NewJellyfinClient(cfg.Jellyfin, nil)
	if info, err := jellyfin.Ping(ctx); err == nil {
		fmt.Fprintf(out, "jellyfin  ok    %s (%s %s)\n", cfg.Jellyfin.URL, info.ServerName, info.Version)
	} else {
		ok = false
		fmt.Fprintf(out, "jellyfin  FAIL  %s: %v\n", cfg.Jellyfin.URL, err)
	}

	if !ok {
		return errPingFailed
	}
	return nil
}
