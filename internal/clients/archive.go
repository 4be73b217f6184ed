package clients

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/ramonskie/tubearchivarr/internal/config"
	"github.com/ramonskie/tubearchivarr/internal/identity"
	"github.com/ramonskie/tubearchivarr/internal/metrics"
	"github.com/ramonskie/tubearchivarr/internal/models"
	"github.com/ramonskie/tubearchivarr/internal/utils"
	"github.com/rs/zerolog/log"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
)

const (
	archiveBreakerName = "archive-api"
	maxRedirects       = 10
)

// archiveResponse is a fully read HTTP response
type archiveResponse struct {
	status   int
	location string
	url      string
	body     []byte
}

// ArchiveClient handles communication with the TubeArchivist API.
//
// Getters return nil on any failure and setters return the HTTP status code,
// or 0 when no response was received. Expected remote conditions never
// surface as errors.
type ArchiveClient struct {
	baseURL atomic.Pointer[string]
	apiKey  atomic.Pointer[string]
	client  *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[*archiveResponse]
}

// NewArchiveClient creates a new archive client
func NewArchiveClient(cfg config.ArchiveConfig) *ArchiveClient {
	c := &ArchiveClient{
		client: &http.Client{
			Timeout: parseTimeout(cfg.Timeout),
			// Redirects are followed by hand so every hop is sanitized and counted
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		breaker: newBreaker[*archiveResponse](archiveBreakerName),
	}
	if cfg.RateLimit > 0 {
		burst := int(cfg.RateLimit)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	c.SetBaseURL(cfg.URL)
	c.SetAPIKey(cfg.APIKey)
	return c
}

// SetBaseURL swaps the archive base URL. In-flight requests keep the old one.
func (c *ArchiveClient) SetBaseURL(url string) {
	url = identity.NormalizeBaseURL(url)
	c.baseURL.Store(&url)
}

// BaseURL returns the current archive base URL
func (c *ArchiveClient) BaseURL() string {
	return *c.baseURL.Load()
}

// SetAPIKey swaps the API key used for the auth header
func (c *ArchiveClient) SetAPIKey(key string) {
	c.apiKey.Store(&key)
}

// BreakerState returns the circuit breaker state name
func (c *ArchiveClient) BreakerState() string {
	return breakerStateString(c.breaker.State())
}

// GetChannel fetches a channel by its external id
func (c *ArchiveClient) GetChannel(ctx context.Context, channelID string) *ArchiveChannel {
	var channel ArchiveChannel
	if !c.getJSON(ctx, "get_channel", c.endpoint("/api/channel/"+channelID), &channel) {
		return nil
	}
	return &channel
}

// GetVideo fetches a video by its external id
func (c *ArchiveClient) GetVideo(ctx context.Context, videoID string) *ArchiveVideo {
	var video ArchiveVideo
	if !c.getJSON(ctx, "get_video", c.endpoint("/api/video/"+videoID), &video) {
		return nil
	}
	return &video
}

// Ping validates connection and authentication
func (c *ArchiveClient) Ping(ctx context.Context) *ArchivePing {
	var pong ArchivePing
	if !c.getJSON(ctx, "ping", c.endpoint("/api/ping/"), &pong) {
		return nil
	}
	return &pong
}

// SetProgress sends a playback position in seconds
func (c *ArchiveClient) SetProgress(ctx context.Context, videoID string, seconds int64) int {
	url := c.endpoint(fmt.Sprintf("/api/video/%s/progress/", videoID))
	return c.post(ctx, "set_progress", url, ArchiveProgress{Position: seconds})
}

// GetProgress reads the playback position from the video's player state
func (c *ArchiveClient) GetProgress(ctx context.Context, videoID string) *ArchiveProgress {
	video := c.GetVideo(ctx, videoID)
	if video == nil {
		return nil
	}
	log.Debug().Str("video_id", videoID).Float64("position", video.Player.Position).Msg("Retrieved progress")
	return &ArchiveProgress{YoutubeID: videoID, Position: int64(video.Player.Position)}
}

// SetWatchedStatus marks a video, channel or playlist as watched or unwatched
func (c *ArchiveClient) SetWatchedStatus(ctx context.Context, itemID string, watched bool) int {
	return c.post(ctx, "set_watched", c.endpoint("/api/watched/"), ArchiveWatched{ID: itemID, IsWatched: watched})
}

// ListPlaylists fetches every playlist, following pagination.
// A failed page ends the listing and returns what was collected so far.
func (c *ArchiveClient) ListPlaylists(ctx context.Context) []ArchivePlaylist {
	var page ArchivePlaylistPage
	if !c.getJSON(ctx, "list_playlists", c.endpoint("/api/playlist/"), &page) {
		return nil
	}

	playlists := make([]ArchivePlaylist, 0, len(page.Data))
	seen := make(map[string]struct{}, len(page.Data))
	merge := func(data []ArchivePlaylist) {
		for _, p := range data {
			if _, dup := seen[p.ID]; dup {
				continue
			}
			seen[p.ID] = struct{}{}
			playlists = append(playlists, p)
		}
	}
	merge(page.Data)

	paginate := page.Paginate
	for paginate != nil && paginate.CurrentPage < int(paginate.LastPage) {
		if ctx.Err() != nil {
			break
		}
		log.Info().
			Int("current_page", paginate.CurrentPage).
			Int("last_page", int(paginate.LastPage)).
			Int("total_hits", paginate.TotalHits).
			Msg("Playlist pagination")

		nextPage := paginate.CurrentPage + 1
		var next ArchivePlaylistPage
		url := c.endpoint(fmt.Sprintf("/api/playlist/?page=%d", nextPage))
		if !c.getJSON(ctx, "list_playlists", url, &next) {
			utils.Critical().Int("page", nextPage).Msg("Failed to retrieve playlist page during pagination")
			metrics.ArchivePaginationFailures.Inc()
			break
		}
		merge(next.Data)

		if next.Paginate == nil || next.Paginate.CurrentPage <= paginate.CurrentPage {
			break
		}
		paginate = next.Paginate
	}

	return playlists
}

// CreateCustomPlaylist creates an empty custom playlist
func (c *ArchiveClient) CreateCustomPlaylist(ctx context.Context, name string) *ArchivePlaylist {
	resp := c.send(ctx, "create_playlist", http.MethodPost, c.endpoint("/api/playlist/custom/"), customPlaylistCreation{Name: name})
	if resp == nil || !isSuccess(resp.status) {
		return nil
	}

	var playlist ArchivePlaylist
	if err := json.Unmarshal(resp.body, &playlist); err != nil {
		log.Error().Err(err).Str("name", name).Msg("Failed to decode created playlist")
		return nil
	}
	log.Info().Str("playlist_id", playlist.ID).Str("name", name).Msg("Created custom playlist")
	return &playlist
}

// ApplyPlaylistEntryAction sends one positional mutation for a custom playlist entry
func (c *ArchiveClient) ApplyPlaylistEntryAction(ctx context.Context, playlistID string, action models.ActionKind, videoID string) int {
	url := c.endpoint("/api/playlist/custom/" + playlistID)
	return c.post(ctx, "playlist_action", url, customPlaylistEntryAction{Action: string(action), VideoID: videoID})
}

// DeletePlaylist deletes a playlist; true only on 204 No Content
func (c *ArchiveClient) DeletePlaylist(ctx context.Context, playlistID string) bool {
	resp := c.send(ctx, "delete_playlist", http.MethodDelete, c.endpoint("/api/playlist/"+playlistID), nil)
	return resp != nil && resp.status == http.StatusNoContent
}

func (c *ArchiveClient) endpoint(path string) string {
	return identity.JoinURL(c.BaseURL(), path)
}

// getJSON GETs url, following redirects, and decodes a 2xx body into out
func (c *ArchiveClient) getJSON(ctx context.Context, op, url string, out any) bool {
	resp := c.send(ctx, op, http.MethodGet, url, nil)
	for hops := 0; resp != nil && isRedirect(resp.status); hops++ {
		if hops >= maxRedirects || resp.location == "" {
			log.Warn().Str("url", resp.url).Int("hops", hops).Msg("Giving up on archive redirect chain")
			return false
		}
		log.Debug().Str("location", resp.location).Msg("Received redirect")
		resp = c.send(ctx, op, http.MethodGet, resp.location, nil)
	}
	if resp == nil || !isSuccess(resp.status) {
		return false
	}

	if err := json.Unmarshal(resp.body, out); err != nil {
		log.Error().Err(err).Str("url", resp.url).Msg("Failed to decode archive response")
		return false
	}
	return true
}

// post sends a JSON body and returns the status code, 0 without a response
func (c *ArchiveClient) post(ctx context.Context, op, url string, body any) int {
	resp := c.send(ctx, op, http.MethodPost, url, body)
	if resp == nil {
		return 0
	}
	return resp.status
}

// send performs one request through the limiter and breaker.
// It returns nil when no response was received.
func (c *ArchiveClient) send(ctx context.Context, op, method, url string, body any) *archiveResponse {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			log.Debug().Err(err).Str("operation", op).Msg("Archive request cancelled while rate limited")
			return nil
		}
	}

	start := time.Now()
	resp, err := c.breaker.Execute(func() (*archiveResponse, error) {
		return c.roundTrip(ctx, method, url, body)
	})
	recordBreakerResult(c.breaker, err)

	status := 0
	if resp != nil {
		status = resp.status
	}
	metrics.RecordArchiveRequest(op, status, time.Since(start))

	if resp == nil {
		log.Warn().Err(err).Str("operation", op).Str("url", url).Msg("Archive request failed")
		return nil
	}

	log.Debug().Str("method", method).Str("url", url).Int("status", resp.status).Msg("Archive request")
	return resp
}

func (c *ArchiveClient) roundTrip(ctx context.Context, method, url string, body any) (*archiveResponse, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+*c.apiKey.Load())
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("making request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	out := &archiveResponse{status: resp.StatusCode, url: url, body: data}
	if loc := resp.Header.Get("Location"); loc != "" {
		if target, err := req.URL.Parse(loc); err == nil {
			out.location = identity.SanitizeURL(target.String())
		}
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		return out, errServerStatus
	}
	return out, nil
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

func isRedirect(status int) bool {
	switch status {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		return true
	}
	return false
}

// parseTimeout parses a Go duration, defaulting to 30 seconds
func parseTimeout(s string) time.Duration {
	if s != "" {
		if d, err := time.ParseDuration(s); err == nil && d > 0 {
			return d
		}
	}
	return 30 * time.Second
}
