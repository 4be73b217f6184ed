package services

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ramonskie/tubearchivarr/internal/identity"
	"github.com/ramonskie/tubearchivarr/internal/metrics"
	"github.com/ramonskie/tubearchivarr/internal/models"
	"github.com/ramonskie/tubearchivarr/internal/utils"
	"github.com/rs/zerolog/log"
)

// ProgressSummary counts the outcome of one progress sweep
type ProgressSummary struct {
	Users    int `json:"users"`
	Channels int `json:"channels"`
	Videos   int `json:"videos"`
	Synced   int `json:"synced"`
	Failed   int `json:"failed"`
	Skipped  int `json:"skipped"`
}

// ToMap flattens the summary for job storage
func (s ProgressSummary) ToMap() map[string]any {
	return map[string]any{
		"users":    s.Users,
		"channels": s.Channels,
		"videos":   s.Videos,
		"synced":   s.Synced,
		"failed":   s.Failed,
		"skipped":  s.Skipped,
	}
}

// ProgressReconciler syncs playback position and watched state between the
// library and the archive.
type ProgressReconciler struct {
	host       LibraryHost
	archive    ArchiveAPI
	membership *MembershipResolver
	cfg        ConfigFunc
}

// NewProgressReconciler creates a progress reconciler
func NewProgressReconciler(host LibraryHost, archive ArchiveAPI, membership *MembershipResolver, cfg ConfigFunc) *ProgressReconciler {
	return &ProgressReconciler{host: host, archive: archive, membership: membership, cfg: cfg}
}

// Push sends the source user's watched flags and positions to the archive.
// A fully watched channel is marked watched once and its videos' watched
// flags are not sent individually; positions are always sent.
func (r *ProgressReconciler) Push(ctx context.Context, progress models.TaskProgress) (ProgressSummary, error) {
	var summary ProgressSummary

	username := r.cfg().Sync.ProgressPush.Username
	user, err := r.host.GetUserByName(ctx, username)
	if err != nil {
		log.Warn().Err(err).Str("username", username).Msg("Source user not found, skipping progress push")
		return summary, fmt.Errorf("%q: %w", username, ErrUserNotFound)
	}
	summary.Users = 1

	collectionID, err := r.membership.ResolveCollection(ctx)
	if err != nil {
		return summary, err
	}

	series, err := r.host.ListChildren(ctx, collectionID, models.KindSeries, user.ID)
	if err != nil {
		return summary, fmt.Errorf("listing channels: %w", err)
	}

	for i, s := range series {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		r.pushChannel(ctx, user, s, &summary)
		reportProgress(progress, i+1, len(series))
	}

	log.Info().
		Str("username", user.Name).
		Int("channels", summary.Channels).
		Int("videos", summary.Videos).
		Int("failed", summary.Failed).
		Msg("Progress push completed")

	return summary, nil
}

func (r *ProgressReconciler) pushChannel(ctx context.Context, user *models.User, series models.LibraryItem, summary *ProgressSummary) {
	channelID, err := identity.ChannelIDFromPath(series.Path)
	if err != nil {
		log.Error().Err(err).Str("series", series.Name).Msg("Cannot derive channel id, skipping channel")
		summary.Skipped++
		return
	}
	summary.Channels++

	pushVideoWatched := true
	if data, err := r.host.GetUserData(ctx, user.ID, series.ID); err != nil {
		log.Warn().Err(err).Str("series", series.Name).Msg("Failed to read channel user data")
	} else if data.Played {
		status := r.archive.SetWatchedStatus(ctx, channelID, true)
		if status == http.StatusOK {
			pushVideoWatched = false
			metrics.RecordSync("push", "channel_watched", true)
		} else {
			utils.Critical().
				Int("status", status).
				Str("channel_id", channelID).
				Str("series", series.Name).
				Msg("POST /watched failed for channel")
			metrics.RecordSync("push", "channel_watched", false)
		}
	}

	episodes, err := r.episodes(ctx, series.ID, user.ID)
	if err != nil {
		log.Error().Err(err).Str("series", series.Name).Msg("Failed to list channel videos")
		summary.Failed++
		return
	}

	for _, ep := range episodes {
		if ctx.Err() != nil {
			return
		}
		summary.Videos++
		if r.pushEpisode(ctx, user.ID, ep, pushVideoWatched) {
			summary.Synced++
		} else {
			summary.Failed++
		}
	}
}

// pushEpisode sends one episode's state. It returns false when anything failed.
func (r *ProgressReconciler) pushEpisode(ctx context.Context, userID string, ep models.LibraryItem, pushWatched bool) bool {
	videoID, err := identity.VideoIDFromPath(ep.Path)
	if err != nil {
		log.Error().Err(err).Str("item", ep.Name).Msg("Cannot derive video id, skipping video")
		return false
	}

	data, err := r.host.GetUserData(ctx, userID, ep.ID)
	if err != nil {
		log.Error().Err(err).Str("video_id", videoID).Msg("Failed to read video user data")
		return false
	}

	ok := true
	if pushWatched {
		ok = r.setWatched(ctx, videoID, ep.Name, data.Played)
	}
	return r.setProgress(ctx, videoID, ep.Name, data.PositionSeconds()) && ok
}

func (r *ProgressReconciler) setWatched(ctx context.Context, videoID, name string, watched bool) bool {
	status := r.archive.SetWatchedStatus(ctx, videoID, watched)
	ok := status == http.StatusOK
	if !ok {
		utils.Critical().
			Int("status", status).
			Str("video_id", videoID).
			Str("item", name).
			Bool("watched", watched).
			Msg("POST /watched failed")
	}
	metrics.RecordSync("push", "watched", ok)
	return ok
}

func (r *ProgressReconciler) setProgress(ctx context.Context, videoID, name string, seconds int64) bool {
	status := r.archive.SetProgress(ctx, videoID, seconds)
	ok := status == http.StatusOK
	if !ok {
		utils.Critical().
			Int("status", status).
			Str("video_id", videoID).
			Str("item", name).
			Int64("seconds", seconds).
			Msg("POST /video/progress failed")
	}
	metrics.RecordSync("push", "progress", ok)
	return ok
}

// Pull writes archive positions and watched flags into every destination user's data
func (r *ProgressReconciler) Pull(ctx context.Context, progress models.TaskProgress) (ProgressSummary, error) {
	var summary ProgressSummary

	usernames := r.cfg().Sync.ProgressPull.UsernameList()
	if len(usernames) == 0 {
		log.Warn().Msg("No destination users configured, skipping progress pull")
		return summary, nil
	}

	collectionID, err := r.membership.ResolveCollection(ctx)
	if err != nil {
		return summary, err
	}

	for i, username := range usernames {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		user, err := r.host.GetUserByName(ctx, username)
		if err != nil {
			log.Warn().Err(err).Str("username", username).Msg("Destination user not found, skipping")
			summary.Skipped++
			continue
		}
		summary.Users++

		if err := r.pullUser(ctx, collectionID, user, &summary); err != nil {
			if ctx.Err() != nil {
				return summary, ctx.Err()
			}
			log.Error().Err(err).Str("username", username).Msg("Progress pull failed for user")
			summary.Failed++
		}
		reportProgress(progress, i+1, len(usernames))
	}

	log.Info().
		Int("users", summary.Users).
		Int("videos", summary.Videos).
		Int("synced", summary.Synced).
		Int("failed", summary.Failed).
		Msg("Progress pull completed")

	return summary, nil
}

func (r *ProgressReconciler) pullUser(ctx context.Context, collectionID string, user *models.User, summary *ProgressSummary) error {
	series, err := r.host.ListChildren(ctx, collectionID, models.KindSeries, user.ID)
	if err != nil {
		return fmt.Errorf("listing channels: %w", err)
	}

	for _, s := range series {
		summary.Channels++
		episodes, err := r.episodes(ctx, s.ID, user.ID)
		if err != nil {
			log.Error().Err(err).Str("series", s.Name).Msg("Failed to list channel videos")
			summary.Failed++
			continue
		}

		for _, ep := range episodes {
			if err := ctx.Err(); err != nil {
				return err
			}
			summary.Videos++
			if r.pullEpisode(ctx, user, ep) {
				summary.Synced++
			} else {
				summary.Failed++
			}
		}
	}
	return nil
}

func (r *ProgressReconciler) pullEpisode(ctx context.Context, user *models.User, ep models.LibraryItem) bool {
	videoID, err := identity.VideoIDFromPath(ep.Path)
	if err != nil {
		log.Error().Err(err).Str("item", ep.Name).Msg("Cannot derive video id, skipping video")
		return false
	}

	video := r.archive.GetVideo(ctx, videoID)
	if video == nil {
		log.Warn().Str("video_id", videoID).Msg("Video not found in archive")
		metrics.RecordSync("pull", "progress", false)
		return false
	}

	data := models.UserData{
		PlaybackPositionTicks: int64(video.Player.Position) * models.TicksPerSecond,
		Played:                video.Player.IsWatched,
	}
	if err := r.host.SaveUserData(ctx, user.ID, ep.ID, data); err != nil {
		log.Error().Err(err).Str("video_id", videoID).Str("username", user.Name).Msg("Failed to save user data")
		metrics.RecordSync("pull", "progress", false)
		return false
	}

	log.Debug().
		Str("video_id", videoID).
		Str("username", user.Name).
		Int64("position", int64(video.Player.Position)).
		Bool("played", data.Played).
		Msg("Pulled video progress")
	metrics.RecordSync("pull", "progress", true)
	return true
}

// episodes lists every episode of a series, season by season
func (r *ProgressReconciler) episodes(ctx context.Context, seriesID, userID string) ([]models.LibraryItem, error) {
	seasons, err := r.host.ListChildren(ctx, seriesID, models.KindSeason, userID)
	if err != nil {
		return nil, fmt.Errorf("listing seasons: %w", err)
	}

	var episodes []models.LibraryItem
	for _, season := range seasons {
		items, err := r.host.ListChildren(ctx, season.ID, models.KindEpisode, userID)
		if err != nil {
			return nil, fmt.Errorf("listing videos of season %s: %w", season.Name, err)
		}
		episodes = append(episodes, items...)
	}
	return episodes, nil
}

// PushItemProgress sends a single episode's position
func (r *ProgressReconciler) PushItemProgress(ctx context.Context, item *models.LibraryItem, positionTicks int64) bool {
	videoID, err := identity.VideoIDFromPath(item.Path)
	if err != nil {
		log.Error().Err(err).Str("item", item.Name).Msg("Cannot derive video id for progress event")
		return false
	}
	return r.setProgress(ctx, videoID, item.Name, positionTicks/models.TicksPerSecond)
}

// PushItemWatched sends a single series or episode watched flag. For
// episodes the user's current position follows.
func (r *ProgressReconciler) PushItemWatched(ctx context.Context, userID string, item *models.LibraryItem, played bool) bool {
	switch item.Kind {
	case models.KindSeries:
		channelID, err := identity.ChannelIDFromPath(item.Path)
		if err != nil {
			log.Error().Err(err).Str("item", item.Name).Msg("Cannot derive channel id for watched event")
			return false
		}
		return r.setWatched(ctx, channelID, item.Name, played)

	case models.KindEpisode:
		videoID, err := identity.VideoIDFromPath(item.Path)
		if err != nil {
			log.Error().Err(err).Str("item", item.Name).Msg("Cannot derive video id for watched event")
			return false
		}
		ok := r.setWatched(ctx, videoID, item.Name, played)

		data, err := r.host.GetUserData(ctx, userID, item.ID)
		if err != nil {
			log.Warn().Err(err).Str("video_id", videoID).Msg("Failed to read position after watched change")
			return false
		}
		return r.setProgress(ctx, videoID, item.Name, data.PositionSeconds()) && ok
	}
	return false
}
