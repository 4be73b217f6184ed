package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/ramonskie/tubearchivarr/internal/clients"
	"github.com/ramonskie/tubearchivarr/internal/config"
	"github.com/ramonskie/tubearchivarr/internal/identity"
	"github.com/ramonskie/tubearchivarr/internal/models"
)

// ErrMetadataNotFound is returned when the archive has no such video or channel
var ErrMetadataNotFound = fmt.Errorf("metadata: %w", clients.ErrNotFound)

// FormatDescription cuts s to maxLen runes when maxLen is positive and turns
// newlines into <br>.
func FormatDescription(s string, maxLen int) string {
	if maxLen > 0 {
		if runes := []rune(s); len(runes) > maxLen {
			s = string(runes[:maxLen])
		}
	}
	return strings.ReplaceAll(s, "\n", "<br>")
}

// archiveImageURL resolves a path the archive returns against its base URL
func archiveImageURL(baseURL, path string) string {
	if path == "" {
		return ""
	}
	if strings.Contains(path, "://") {
		return path
	}
	return strings.TrimRight(identity.JoinURL(baseURL, path), "/")
}

// MapEpisode maps an archive video onto episode fields. Videos are bucketed
// into one season per published year.
func MapEpisode(video *clients.ArchiveVideo, scheme config.NumberingScheme, maxLen int, baseURL string) models.EpisodeMetadata {
	published := video.Published.Time

	meta := models.EpisodeMetadata{
		Name:              video.Title,
		Overview:          FormatDescription(video.Description, maxLen),
		PremiereDate:      published,
		ProductionYear:    published.Year(),
		ParentIndexNumber: published.Year(),
		SeriesName:        video.Channel.Name,
		Tags:              nonNilTags(video.Tags),
		ProviderIds:       map[string]string{models.ProviderName: video.YoutubeID},
		ImageURL:          archiveImageURL(baseURL, video.ThumbURL),
		RuntimeTicks:      video.Player.Duration * models.TicksPerSecond,
	}

	if scheme == config.NumberingYYYYMMDD && !published.IsZero() {
		index := published.Year()*10000 + int(published.Month())*100 + published.Day()
		meta.IndexNumber = &index
	}

	return meta
}

// MapSeries maps an archive channel onto series fields
func MapSeries(channel *clients.ArchiveChannel, maxLen int, baseURL string) models.SeriesMetadata {
	return models.SeriesMetadata{
		Name:        channel.Name,
		Overview:    FormatDescription(channel.Description, maxLen),
		Tags:        nonNilTags(channel.Tags),
		ProviderIds: map[string]string{models.ProviderName: channel.ID},
		ThumbURL:    archiveImageURL(baseURL, channel.ThumbURL),
		BannerURL:   archiveImageURL(baseURL, channel.BannerURL),
		ArtURL:      archiveImageURL(baseURL, channel.TvartURL),
	}
}

func nonNilTags(tags clients.Tags) []string {
	if tags == nil {
		return []string{}
	}
	return []string(tags)
}

// MetadataService looks archive items up and maps them with the current settings
type MetadataService struct {
	archive ArchiveAPI
	cfg     ConfigFunc
}

// NewMetadataService creates a metadata service
func NewMetadataService(archive ArchiveAPI, cfg ConfigFunc) *MetadataService {
	return &MetadataService{archive: archive, cfg: cfg}
}

// Episode returns the mapped metadata of an archive video
func (s *MetadataService) Episode(ctx context.Context, videoID string) (*models.EpisodeMetadata, error) {
	video := s.archive.GetVideo(ctx, videoID)
	if video == nil {
		return nil, fmt.Errorf("video %q: %w", videoID, ErrMetadataNotFound)
	}
	cfg := s.cfg()
	meta := MapEpisode(video, cfg.Metadata.NumberingScheme, cfg.Archive.MaxDescriptionLength, cfg.Archive.URL)
	return &meta, nil
}

// Series returns the mapped metadata of an archive channel
func (s *MetadataService) Series(ctx context.Context, channelID string) (*models.SeriesMetadata, error) {
	channel := s.archive.GetChannel(ctx, channelID)
	if channel == nil {
		return nil, fmt.Errorf("channel %q: %w", channelID, ErrMetadataNotFound)
	}
	cfg := s.cfg()
	meta := MapSeries(channel, cfg.Archive.MaxDescriptionLength, cfg.Archive.URL)
	return &meta, nil
}
