package clients

import (
	"github.com/ramonskie/tubearchivarr/internal/models"
)

// JellyfinItem represents a Jellyfin library item
type JellyfinItem struct {
	ID          string            `json:"Id"`
	Name        string            `json:"Name"`
	Type        string            `json:"Type"`
	ParentID    string            `json:"ParentId"`
	Path        string            `json:"Path"`
	ProviderIds map[string]string `json:"ProviderIds"`
	UserData    *JellyfinUserData `json:"UserData,omitempty"`
}

// ToModel converts the Jellyfin item to the library item model
func (i JellyfinItem) ToModel() models.LibraryItem {
	return models.LibraryItem{
		ID:                 i.ID,
		Kind:               jellyfinKind(i.Type),
		Name:               i.Name,
		ParentID:           i.ParentID,
		Path:               i.Path,
		ProviderExternalID: i.ProviderIds[models.ProviderName],
	}
}

// JellyfinUserData represents user-specific data for a Jellyfin item
type JellyfinUserData struct {
	PlaybackPositionTicks int64  `json:"PlaybackPositionTicks"`
	Played                bool   `json:"Played"`
	ItemID                string `json:"ItemId,omitempty"`
}

// JellyfinItemsResponse represents the response from Jellyfin items endpoint
type JellyfinItemsResponse struct {
	Items            []JellyfinItem `json:"Items"`
	TotalRecordCount int            `json:"TotalRecordCount"`
}

// JellyfinUser represents a Jellyfin user
type JellyfinUser struct {
	ID   string `json:"Id"`
	Name string `json:"Name"`
}

type jellyfinCreatePlaylist struct {
	Name      string   `json:"Name"`
	Ids       []string `json:"Ids"`
	UserID    string   `json:"UserId"`
	MediaType string   `json:"MediaType"`
}

type jellyfinUpdatePlaylist struct {
	Name string   `json:"Name"`
	Ids  []string `json:"Ids"`
}

type jellyfinPlaylistCreated struct {
	ID string `json:"Id"`
}

// JellyfinSystemInfo is the subset of /System/Info used for pings
type JellyfinSystemInfo struct {
	ServerName string `json:"ServerName"`
	Version    string `json:"Version"`
	ID         string `json:"Id"`
}

func jellyfinKind(t string) models.ItemKind {
	switch t {
	case "CollectionFolder":
		return models.KindCollection
	case "Series":
		return models.KindSeries
	case "Season":
		return models.KindSeason
	case "Episode":
		return models.KindEpisode
	case "Playlist":
		return models.KindPlaylist
	default:
		return models.KindOther
	}
}

func jellyfinType(kind models.ItemKind) string {
	if kind == models.KindCollection {
		return "CollectionFolder"
	}
	return string(kind)
}
