package clients

import (
	"bytes"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// ArchiveChannel represents a channel from the archive API
type ArchiveChannel struct {
	ID          string `json:"channel_id"`
	Name        string `json:"channel_name"`
	Description string `json:"channel_description"`
	ThumbURL    string `json:"channel_thumb_url"`
	BannerURL   string `json:"channel_banner_url"`
	TvartURL    string `json:"channel_tvart_url"`
	Tags        Tags   `json:"channel_tags"`
}

// ArchiveVideo represents a video from the archive API
type ArchiveVideo struct {
	YoutubeID   string         `json:"youtube_id"`
	Channel     ArchiveChannel `json:"channel"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Published   ArchiveTime    `json:"published"`
	ThumbURL    string         `json:"vid_thumb_url"`
	Tags        Tags           `json:"tags"`
	Player      ArchivePlayer  `json:"player"`
}

// ArchivePlayer holds the archive's playback state for a video
type ArchivePlayer struct {
	Duration  int64   `json:"duration"`
	IsWatched bool    `json:"watched"`
	Position  float64 `json:"position"`
}

// ArchiveProgress is a playback position in seconds
type ArchiveProgress struct {
	YoutubeID string `json:"youtube_id,omitempty"`
	UserID    int    `json:"user_id,omitempty"`
	Position  int64  `json:"position"`
}

// ArchiveWatched is the body of a watched status update
type ArchiveWatched struct {
	ID        string `json:"id"`
	IsWatched bool   `json:"is_watched"`
}

// PlaylistType distinguishes mirrored playlists from user-built ones
type PlaylistType string

const (
	PlaylistRegular PlaylistType = "regular"
	PlaylistCustom  PlaylistType = "custom"
)

// ArchivePlaylist represents a playlist from the archive API
type ArchivePlaylist struct {
	ID          string                 `json:"playlist_id"`
	Name        string                 `json:"playlist_name"`
	Channel     string                 `json:"playlist_channel"`
	ChannelID   string                 `json:"playlist_channel_id"`
	Description string                 `json:"playlist_description"`
	Thumbnail   string                 `json:"playlist_thumbnail"`
	Type        PlaylistType           `json:"playlist_type"`
	IsActive    bool                   `json:"playlist_active"`
	Entries     []ArchivePlaylistEntry `json:"playlist_entries"`
}

// IsCustom reports whether the playlist can be modified through the API
func (p ArchivePlaylist) IsCustom() bool {
	return strings.EqualFold(string(p.Type), string(PlaylistCustom))
}

// ArchivePlaylistEntry is one ordered entry of an archive playlist
type ArchivePlaylistEntry struct {
	YoutubeID    string `json:"youtube_id"`
	Title        string `json:"title"`
	Uploader     string `json:"uploader"`
	Index        int    `json:"idx"`
	IsDownloaded bool   `json:"downloaded"`
}

// ArchivePagination is the paginate block of list responses
type ArchivePagination struct {
	PageSize    int     `json:"page_size"`
	PageFrom    int     `json:"page_from"`
	PrevPages   any     `json:"prev_pages"`
	CurrentPage int     `json:"current_page"`
	MaxHits     any     `json:"max_hits"`
	Params      any     `json:"params"`
	LastPage    FlexInt `json:"last_page"`
	NextPages   any     `json:"next_pages"`
	TotalHits   int     `json:"total_hits"`
}

// ArchivePlaylistPage is one page of the playlist listing
type ArchivePlaylistPage struct {
	Data     []ArchivePlaylist  `json:"data"`
	Paginate *ArchivePagination `json:"paginate"`
}

// ArchivePing is the liveness response
type ArchivePing struct {
	Response string `json:"response"`
	User     int    `json:"user"`
	Version  string `json:"version"`
}

type customPlaylistCreation struct {
	Name string `json:"playlist_name"`
}

type customPlaylistEntryAction struct {
	Action  string `json:"action"`
	VideoID string `json:"video_id"`
}

// Tags decodes a JSON array of strings. Any other JSON value yields an empty list.
type Tags []string

func (t *Tags) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '[' {
		*t = Tags{}
		return nil
	}

	var raw []any
	if err := json.Unmarshal(data, &raw); err != nil {
		*t = Tags{}
		return nil
	}

	tags := make(Tags, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			tags = append(tags, s)
		}
	}
	*t = tags
	return nil
}

// FlexInt accepts a JSON number, a numeric string, or false/null (zero)
type FlexInt int

func (f *FlexInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(bytes.TrimSpace(data)), `"`)
	switch s {
	case "", "null", "false", "true":
		*f = 0
		return nil
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*f = 0
		return nil
	}
	*f = FlexInt(n)
	return nil
}

var archiveTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ArchiveTime parses the date formats the archive emits for published dates
type ArchiveTime struct {
	time.Time
}

func (t *ArchiveTime) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(bytes.TrimSpace(data)), `"`)
	if s == "" || s == "null" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range archiveTimeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	// Unknown layouts leave the date unset rather than failing the whole document
	t.Time = time.Time{}
	return nil
}

func (t ArchiveTime) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.Format(time.RFC3339))
}
