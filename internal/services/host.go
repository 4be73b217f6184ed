package services

import (
	"context"
	"errors"

	"github.com/ramonskie/tubearchivarr/internal/clients"
	"github.com/ramonskie/tubearchivarr/internal/config"
	"github.com/ramonskie/tubearchivarr/internal/models"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrCollectionNotFound = errors.New("collection not found")
	ErrArchiveUnavailable = errors.New("archive unavailable")
)

// LibraryHost is the slice of the media library the reconcilers need.
// clients.JellyfinClient implements it.
type LibraryHost interface {
	GetItem(ctx context.Context, id string) (*models.LibraryItem, error)
	ListChildren(ctx context.Context, parentID string, kind models.ItemKind, userID string) ([]models.LibraryItem, error)
	ListTopLevelFolders(ctx context.Context) ([]models.LibraryItem, error)
	FindItemByProviderID(ctx context.Context, provider, externalID string) (*models.LibraryItem, error)

	GetUserByName(ctx context.Context, name string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	GetUserData(ctx context.Context, userID, itemID string) (*models.UserData, error)
	SaveUserData(ctx context.Context, userID, itemID string, data models.UserData) error

	ListPlaylists(ctx context.Context, userID string) ([]models.Playlist, error)
	PlaylistItems(ctx context.Context, userID, playlistID string) ([]models.LibraryItem, error)
	CreatePlaylist(ctx context.Context, userID, name string, itemIDs []string) (string, error)
	UpdatePlaylist(ctx context.Context, playlistID, name string, itemIDs []string) error
	DeletePlaylist(ctx context.Context, playlistID string) error
}

// ArchiveAPI is the archive surface the reconcilers need.
// clients.ArchiveClient implements it.
type ArchiveAPI interface {
	GetChannel(ctx context.Context, channelID string) *clients.ArchiveChannel
	GetVideo(ctx context.Context, videoID string) *clients.ArchiveVideo
	Ping(ctx context.Context) *clients.ArchivePing
	SetProgress(ctx context.Context, videoID string, seconds int64) int
	GetProgress(ctx context.Context, videoID string) *clients.ArchiveProgress
	SetWatchedStatus(ctx context.Context, itemID string, watched bool) int
	ListPlaylists(ctx context.Context) []clients.ArchivePlaylist
	CreateCustomPlaylist(ctx context.Context, name string) *clients.ArchivePlaylist
	ApplyPlaylistEntryAction(ctx context.Context, playlistID string, action models.ActionKind, videoID string) int
	DeletePlaylist(ctx context.Context, playlistID string) bool
}

// ConfigFunc returns the current configuration snapshot
type ConfigFunc func() *config.Config

var (
	_ LibraryHost = (*clients.JellyfinClient)(nil)
	_ ArchiveAPI  = (*clients.ArchiveClient)(nil)
)

func reportProgress(progress models.TaskProgress, done, total int) {
	if progress == nil {
		return
	}
	if total <= 0 {
		progress(100)
		return
	}
	progress(float64(done) * 100 / float64(total))
}
