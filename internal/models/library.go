package models

// ProviderName is the provider id key the archive registers on library items
const ProviderName = "TubeArchivist"

// TicksPerSecond converts library playback positions to seconds
const TicksPerSecond int64 = 10_000_000

// ItemKind represents the kind of a library item
type ItemKind string

const (
	KindCollection ItemKind = "Collection"
	KindSeries     ItemKind = "Series"
	KindSeason     ItemKind = "Season"
	KindEpisode    ItemKind = "Episode"
	KindPlaylist   ItemKind = "Playlist"
	KindOther      ItemKind = "Other"
)

// LibraryItem represents an item in the library host hierarchy
type LibraryItem struct {
	ID                 string   `json:"id"`
	Kind               ItemKind `json:"kind"`
	Name               string   `json:"name"`
	ParentID           string   `json:"parent_id,omitempty"`
	Path               string   `json:"path,omitempty"`
	ProviderExternalID string   `json:"provider_external_id,omitempty"`
}

// User represents a library host user
type User struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// UserData is the per-(user,item) playback state
type UserData struct {
	PlaybackPositionTicks int64 `json:"playback_position_ticks"`
	Played                bool  `json:"played"`
}

// PositionSeconds converts the stored ticks to whole seconds, rounding down.
func (d UserData) PositionSeconds() int64 {
	return d.PlaybackPositionTicks / TicksPerSecond
}

// Playlist represents a library host playlist
type Playlist struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	OwnerID string `json:"owner_id,omitempty"`
}
