package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/ramonskie/tubearchivarr/internal/clients"
	"github.com/ramonskie/tubearchivarr/internal/identity"
	"github.com/ramonskie/tubearchivarr/internal/metrics"
	"github.com/ramonskie/tubearchivarr/internal/models"
	"github.com/ramonskie/tubearchivarr/internal/utils"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// playlistWorkers bounds how many playlists are pushed at once. Actions
// within one playlist always run in order on a single goroutine.
const playlistWorkers = 4

// PlaylistSummary counts the outcome of one playlist sweep
type PlaylistSummary struct {
	Playlists int `json:"playlists"`
	Created   int `json:"created"`
	Updated   int `json:"updated"`
	Deleted   int `json:"deleted"`
	Actions   int `json:"actions"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

// ToMap flattens the summary for job storage
func (s PlaylistSummary) ToMap() map[string]any {
	return map[string]any{
		"playlists": s.Playlists,
		"created":   s.Created,
		"updated":   s.Updated,
		"deleted":   s.Deleted,
		"actions":   s.Actions,
		"skipped":   s.Skipped,
		"failed":    s.Failed,
	}
}

// PlaylistReconciler mirrors playlists between the library and the archive
type PlaylistReconciler struct {
	host    LibraryHost
	archive ArchiveAPI
	cfg     ConfigFunc
}

// NewPlaylistReconciler creates a playlist reconciler
func NewPlaylistReconciler(host LibraryHost, archive ArchiveAPI, cfg ConfigFunc) *PlaylistReconciler {
	return &PlaylistReconciler{host: host, archive: archive, cfg: cfg}
}

type pushCandidate struct {
	playlist  models.Playlist
	archiveID string
	items     []models.LibraryItem
}

// Push brings archive custom playlists in line with the source user's
// managed library playlists. Library playlists without an embedded archive
// id are ignored.
func (r *PlaylistReconciler) Push(ctx context.Context, progress models.TaskProgress) (PlaylistSummary, error) {
	var summary PlaylistSummary

	username := r.cfg().Sync.ProgressPush.Username
	user, err := r.host.GetUserByName(ctx, username)
	if err != nil {
		log.Warn().Err(err).Str("username", username).Msg("Source user not found, skipping playlist push")
		return summary, fmt.Errorf("%q: %w", username, ErrUserNotFound)
	}

	libraryPlaylists, err := r.host.ListPlaylists(ctx, user.ID)
	if err != nil {
		return summary, fmt.Errorf("listing library playlists: %w", err)
	}

	archivePlaylists := r.archive.ListPlaylists(ctx)
	if archivePlaylists == nil {
		return summary, ErrArchiveUnavailable
	}
	byID := make(map[string]clients.ArchivePlaylist, len(archivePlaylists))
	for _, pl := range archivePlaylists {
		byID[pl.ID] = pl
	}

	var candidates []pushCandidate
	totalVideos := 0
	for _, p := range libraryPlaylists {
		archiveID := identity.PlaylistIDFromDisplayName(p.Name)
		if archiveID == "" {
			log.Debug().Str("playlist", p.Name).Msg("Playlist is not managed, skipping")
			continue
		}
		items, err := r.host.PlaylistItems(ctx, user.ID, p.ID)
		if err != nil {
			log.Error().Err(err).Str("playlist", p.Name).Msg("Failed to list playlist items")
			summary.Failed++
			continue
		}
		candidates = append(candidates, pushCandidate{playlist: p, archiveID: archiveID, items: items})
		totalVideos += len(items)
	}
	summary.Playlists = len(candidates)

	var (
		mu        sync.Mutex
		processed int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(playlistWorkers)

	for _, c := range candidates {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			var result PlaylistSummary
			if archive, ok := byID[c.archiveID]; ok {
				r.pushExisting(gctx, c, archive, &result)
			} else {
				r.pushNew(gctx, c, &result)
			}

			mu.Lock()
			summary.Created += result.Created
			summary.Updated += result.Updated
			summary.Actions += result.Actions
			summary.Skipped += result.Skipped
			summary.Failed += result.Failed
			processed += len(c.items)
			reportProgress(progress, processed, totalVideos)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return summary, err
	}

	log.Info().
		Str("username", user.Name).
		Int("playlists", summary.Playlists).
		Int("created", summary.Created).
		Int("actions", summary.Actions).
		Int("failed", summary.Failed).
		Msg("Playlist push completed")

	return summary, nil
}

func (r *PlaylistReconciler) pushExisting(ctx context.Context, c pushCandidate, archive clients.ArchivePlaylist, summary *PlaylistSummary) {
	if !archive.IsCustom() {
		log.Warn().
			Str("playlist", c.playlist.Name).
			Str("playlist_id", archive.ID).
			Msg("Archive playlist is not a custom playlist, changes cannot be pushed")
		summary.Skipped++
		return
	}

	plan := ComputePlaylistActions(c.items, archive.Entries)
	for _, err := range plan.Skipped {
		log.Error().Err(err).Str("playlist", c.playlist.Name).Msg("Cannot derive video id, skipping playlist entry")
	}
	summary.Skipped += len(plan.Skipped)

	if len(plan.Actions) == 0 {
		log.Debug().Str("playlist", c.playlist.Name).Msg("Playlist already in sync")
		return
	}

	r.applyActions(ctx, archive.ID, c.playlist.Name, plan.Actions, summary)
	summary.Updated++
}

func (r *PlaylistReconciler) pushNew(ctx context.Context, c pushCandidate, summary *PlaylistSummary) {
	title := identity.PlaylistTitleFromDisplayName(c.playlist.Name)
	if title == "" {
		log.Error().Str("playlist", c.playlist.Name).Msg("Cannot decode playlist title, skipping")
		summary.Skipped++
		return
	}

	created := r.archive.CreateCustomPlaylist(ctx, title)
	if created == nil {
		utils.Critical().Str("playlist", c.playlist.Name).Str("title", title).Msg("Failed to create archive playlist")
		metrics.PlaylistActions.WithLabelValues("create_playlist", "failure").Inc()
		summary.Failed++
		return
	}
	metrics.PlaylistActions.WithLabelValues("create_playlist", "success").Inc()
	summary.Created++

	itemIDs := make([]string, len(c.items))
	for i, item := range c.items {
		itemIDs[i] = item.ID
	}
	newName := identity.ComposeUpdatedDisplayName(c.playlist.Name, created.ID)
	if err := r.host.UpdatePlaylist(ctx, c.playlist.ID, newName, itemIDs); err != nil {
		log.Error().Err(err).Str("playlist", c.playlist.Name).Str("new_name", newName).Msg("Failed to rename library playlist")
	} else {
		log.Info().Str("playlist", c.playlist.Name).Str("new_name", newName).Msg("Renamed library playlist to embed archive id")
	}

	var actions []models.SyncAction
	for _, item := range c.items {
		videoID, err := identity.VideoIDFromPath(item.Path)
		if err != nil {
			log.Error().Err(err).Str("playlist", c.playlist.Name).Str("item", item.Name).Msg("Cannot derive video id, skipping playlist entry")
			summary.Skipped++
			continue
		}
		actions = append(actions, models.SyncAction{Kind: models.ActionCreate, VideoID: videoID, Label: item.Name})
	}
	r.applyActions(ctx, created.ID, c.playlist.Name, actions, summary)
}

// applyActions runs the actions in order. A failed call drops the rest of
// that action only, so a failed create never tries to move its video.
func (r *PlaylistReconciler) applyActions(ctx context.Context, playlistID, playlistName string, actions []models.SyncAction, summary *PlaylistSummary) {
	for _, action := range actions {
		if ctx.Err() != nil {
			return
		}

		ok := true
		for _, kind := range ActionCalls(action) {
			status := r.archive.ApplyPlaylistEntryAction(ctx, playlistID, kind, action.VideoID)
			if status < 200 || status >= 300 {
				utils.Critical().
					Int("status", status).
					Str("playlist", playlistName).
					Str("playlist_id", playlistID).
					Str("action", action.String()).
					Msg("Playlist entry action failed")
				ok = false
				break
			}
		}

		if ok {
			summary.Actions++
			metrics.PlaylistActions.WithLabelValues(string(action.Kind), "success").Inc()
			log.Debug().Str("playlist", playlistName).Str("action", action.String()).Msg("Applied playlist action")
		} else {
			summary.Failed++
			metrics.PlaylistActions.WithLabelValues(string(action.Kind), "failure").Inc()
		}
	}
}

// Pull rebuilds every destination user's library playlists from the archive.
// Nothing is touched when the archive listing fails, so an outage can never
// be mistaken for an empty archive and delete playlists.
func (r *PlaylistReconciler) Pull(ctx context.Context, progress models.TaskProgress) (PlaylistSummary, error) {
	var summary PlaylistSummary
	cfg := r.cfg()

	usernames := cfg.Sync.ProgressPull.UsernameList()
	if len(usernames) == 0 {
		log.Warn().Msg("No destination users configured, skipping playlist pull")
		return summary, nil
	}

	archivePlaylists := r.archive.ListPlaylists(ctx)
	if archivePlaylists == nil {
		return summary, ErrArchiveUnavailable
	}
	summary.Playlists = len(archivePlaylists)

	// Provider id lookups are shared by every user of this pass
	resolved := make(map[string]string)
	total := len(usernames) * len(archivePlaylists)
	done := 0

	for _, username := range usernames {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		user, err := r.host.GetUserByName(ctx, username)
		if err != nil {
			log.Warn().Err(err).Str("username", username).Msg("Destination user not found, skipping")
			summary.Skipped++
			done += len(archivePlaylists)
			reportProgress(progress, done, total)
			continue
		}

		existing, err := r.host.ListPlaylists(ctx, user.ID)
		if err != nil {
			log.Error().Err(err).Str("username", username).Msg("Failed to list library playlists")
			summary.Failed++
			done += len(archivePlaylists)
			reportProgress(progress, done, total)
			continue
		}
		byName := make(map[string]models.Playlist, len(existing))
		for _, p := range existing {
			byName[p.Name] = p
		}

		for _, pl := range archivePlaylists {
			if err := ctx.Err(); err != nil {
				return summary, err
			}
			r.pullPlaylist(ctx, user, pl, byName, resolved, &summary)
			done++
			reportProgress(progress, done, total)
		}

		if cfg.Sync.PlaylistsPull.DeleteOrphans {
			r.deleteOrphans(ctx, user, existing, archivePlaylists, &summary)
		}
	}

	log.Info().
		Int("users", len(usernames)).
		Int("playlists", summary.Playlists).
		Int("created", summary.Created).
		Int("updated", summary.Updated).
		Int("deleted", summary.Deleted).
		Msg("Playlist pull completed")

	return summary, nil
}

func (r *PlaylistReconciler) pullPlaylist(ctx context.Context, user *models.User, pl clients.ArchivePlaylist, byName map[string]models.Playlist, resolved map[string]string, summary *PlaylistSummary) {
	name := identity.ComposeDisplayName(pl.Name, pl.Channel, pl.ID, !pl.IsCustom())

	itemIDs := make([]string, 0, len(pl.Entries))
	for _, entry := range pl.Entries {
		if !entry.IsDownloaded {
			log.Warn().Str("playlist", name).Str("video_id", entry.YoutubeID).Msg("Playlist entry not downloaded yet, skipping")
			continue
		}
		itemID, ok := r.resolveVideo(ctx, entry.YoutubeID, resolved)
		if !ok {
			log.Warn().Str("playlist", name).Str("video_id", entry.YoutubeID).Msg("Video not found in library, omitting from playlist")
			continue
		}
		itemIDs = append(itemIDs, itemID)
	}

	if existing, ok := byName[name]; ok {
		if err := r.host.UpdatePlaylist(ctx, existing.ID, name, itemIDs); err != nil {
			utils.Critical().Err(err).Str("playlist", name).Str("username", user.Name).Msg("Failed to update library playlist")
			summary.Failed++
			return
		}
		summary.Updated++
		log.Debug().Str("playlist", name).Int("items", len(itemIDs)).Msg("Updated library playlist")
		return
	}

	id, err := r.host.CreatePlaylist(ctx, user.ID, name, itemIDs)
	if err != nil {
		utils.Critical().Err(err).Str("playlist", name).Str("username", user.Name).Msg("Failed to create library playlist")
		summary.Failed++
		return
	}
	byName[name] = models.Playlist{ID: id, Name: name, OwnerID: user.ID}
	summary.Created++
	log.Info().Str("playlist", name).Str("username", user.Name).Int("items", len(itemIDs)).Msg("Created library playlist")
}

func (r *PlaylistReconciler) resolveVideo(ctx context.Context, videoID string, resolved map[string]string) (string, bool) {
	if id, ok := resolved[videoID]; ok {
		return id, id != ""
	}
	item, err := r.host.FindItemByProviderID(ctx, models.ProviderName, videoID)
	if err != nil || item == nil {
		resolved[videoID] = ""
		return "", false
	}
	resolved[videoID] = item.ID
	return item.ID, true
}

// deleteOrphans removes managed library playlists whose archive id no longer exists.
// Playlists without an embedded id are never touched.
func (r *PlaylistReconciler) deleteOrphans(ctx context.Context, user *models.User, existing []models.Playlist, archive []clients.ArchivePlaylist, summary *PlaylistSummary) {
	live := make(map[string]bool, len(archive))
	for _, pl := range archive {
		live[pl.ID] = true
	}

	for _, p := range existing {
		archiveID := identity.PlaylistIDFromDisplayName(p.Name)
		if archiveID == "" || live[archiveID] {
			continue
		}
		if err := r.host.DeletePlaylist(ctx, p.ID); err != nil {
			log.Error().Err(err).Str("playlist", p.Name).Str("username", user.Name).Msg("Failed to delete orphaned playlist")
			summary.Failed++
			continue
		}
		summary.Deleted++
		log.Info().Str("playlist", p.Name).Str("username", user.Name).Msg("Deleted orphaned playlist")
	}
}
