package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/ramonskie/tubearchivarr/internal/api"
	"github.com/ramonskie/tubearchivarr/internal/clients"
	"github.com/ramonskie/tubearchivarr/internal/config"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 30 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the scheduler, live event handling and HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			initLogging("backend", false)
			return runServe(cmd.Context())
		},
	}
}

func runServe(parent context.Context) error {
	log.Info().Str("version", version).Msg("Starting tubearchivarr...")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	initJWT()

	a, err := newApp(cfg)
	if err != nil {
		return err
	}

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if id := a.membership.Refresh(ctx); id == "" {
		log.Warn().Str("collection", cfg.Jellyfin.CollectionTitle).Msg("Collection not found yet, membership checks will retry")
	}

	if ping := a.archive.Ping(ctx); ping == nil {
		log.Warn().Str("url", cfg.Archive.URL).Msg("Archive not reachable at startup")
	} else {
		log.Info().Str("version", ping.Version).Msg("Archive reachable")
	}

	group, gctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return a.dispatcher.Run(gctx)
	})

	var eventSource *clients.JellyfinEventSource
	if cfg.Jellyfin.WebSocket {
		eventSource = clients.NewJellyfinEventSource(cfg.Jellyfin.URL, cfg.Jellyfin.APIKey, a.dispatcher, a.cache)
		group.Go(func() error {
			return eventSource.Run(gctx)
		})
	}

	if err := a.scheduler.Start(gctx); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}
	log.Info().Msg("Scheduler started")

	if err := config.StartWatcher(gctx, func(reloaded *config.Config) {
		log.Info().Msg("Configuration reloaded, refreshing collection and task schedule")
		if reloaded.Jellyfin.URL != cfg.Jellyfin.URL {
			log.Warn().Msg("Jellyfin URL changed, restart to apply")
		}
		a.applyConfig(reloaded)
		a.membership.Refresh(gctx)
		if err := a.scheduler.RestartScheduler(); err != nil {
			log.Error().Err(err).Msg("Failed to restart scheduler")
		}
	}); err != nil {
		log.Warn().Err(err).Msg("Failed to start config watcher, hot-reload disabled")
	}

	deps := &api.RouterDependencies{
		Version:     version,
		AuthService: a.auth,
		Tasks:       a.scheduler,
		JobsFile:    a.jobs,
		Events:      a.dispatcher,
		Archive:     a.archive,
		Membership:  a.membership,
		Metadata:    a.metadata,
	}
	if eventSource != nil {
		deps.EventSource = eventSource
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      api.NewRouter(deps),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 75 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	group.Go(func() error {
		log.Info().Str("address", addr).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	group.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		a.scheduler.Stop()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Server forced to shutdown")
		}

		done := make(chan struct{})
		go func() {
			a.scheduler.Wait()
			close(done)
		}()
		select {
		case <-done:
			log.Info().Msg("Running tasks finished")
		case <-shutdownCtx.Done():
			log.Warn().Msg("Tasks still running after grace period")
		}
		return nil
	})

	log.Info().Msg("tubearchivarr started successfully")

	err = group.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info().Msg("Server stopped")
	return nil
}
