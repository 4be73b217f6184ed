package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// reloadDebounce coalesces the burst of events editors emit on save
const reloadDebounce = 250 * time.Millisecond

// StartWatcher watches the config file and reloads it on change until ctx is done.
// onReload receives the new snapshot after a successful reload.
func StartWatcher(ctx context.Context, onReload func(*Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	// Watch the directory so atomic renames (vim, k8s configmaps) are seen
	dir := filepath.Dir(configPath)
	target := filepath.Clean(configPath)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return err
	}

	go func() {
		defer watcher.Close()

		var pending <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
					pending = time.After(reloadDebounce)
				}

			case <-pending:
				pending = nil
				log.Info().Str("file", target).Msg("Config file changed, reloading...")

				if err := Reload(); err != nil {
					log.Error().Err(err).Msg("Failed to reload configuration")
					continue
				}
				if onReload != nil {
					onReload(Get())
				}

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Error().Err(err).Msg("Config watcher error")
			}
		}
	}()

	log.Info().Str("path", configPath).Msg("Config file watcher started")
	return nil
}
