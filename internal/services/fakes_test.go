package services

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"net/http"
	"slices"
	"sync"

	"github.com/ramonskie/tubearchivarr/internal/clients"
	"github.com/ramonskie/tubearchivarr/internal/config"
	"github.com/ramonskie/tubearchivarr/internal/models"
)

var errFake = errors.New("fake failure")

func testConfig(mutate func(*config.Config)) ConfigFunc {
	cfg := config.DefaultConfig()
	cfg.Jellyfin.CollectionTitle = "YouTube"
	cfg.Sync.ProgressPush.Enabled = true
	cfg.Sync.ProgressPush.Username = "alice"
	cfg.Sync.ProgressPull.Enabled = true
	cfg.Sync.ProgressPull.Usernames = "alice,bob"
	if mutate != nil {
		mutate(cfg)
	}
	return func() *config.Config { return cfg }
}

type savedUserData struct {
	UserID string
	ItemID string
	Data   models.UserData
}

type playlistWrite struct {
	ID     string
	UserID string
	Name   string
	Items  []string
}

// fakeHost is an in-memory library host
type fakeHost struct {
	mu sync.Mutex

	items      map[string]*models.LibraryItem
	folders    []models.LibraryItem
	foldersErr error
	users      map[string]*models.User
	userData   map[string]models.UserData
	providers  map[string]string

	playlists     map[string][]models.Playlist
	playlistItems map[string][]models.LibraryItem
	failUpdate    bool

	getItemCalls int
	saved        []savedUserData
	created      []playlistWrite
	updated      []playlistWrite
	deleted      []string
}

func newFakeHost() *fakeHost {
	return &fakeHost{
		items:         make(map[string]*models.LibraryItem),
		users:         make(map[string]*models.User),
		userData:      make(map[string]models.UserData),
		providers:     make(map[string]string),
		playlists:     make(map[string][]models.Playlist),
		playlistItems: make(map[string][]models.LibraryItem),
	}
}

func (h *fakeHost) add(items ...models.LibraryItem) {
	for i := range items {
		item := items[i]
		h.items[item.ID] = &item
	}
}

func (h *fakeHost) addUser(id, name string) {
	h.users[name] = &models.User{ID: id, Name: name}
}

func (h *fakeHost) setUserData(userID, itemID string, data models.UserData) {
	h.userData[userID+"/"+itemID] = data
}

func (h *fakeHost) GetItem(_ context.Context, id string) (*models.LibraryItem, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.getItemCalls++
	item, ok := h.items[id]
	if !ok {
		return nil, clients.ErrNotFound
	}
	cp := *item
	return &cp, nil
}

func (h *fakeHost) ListChildren(_ context.Context, parentID string, kind models.ItemKind, _ string) ([]models.LibraryItem, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []models.LibraryItem
	for _, id := range slices.Sorted(maps.Keys(h.items)) {
		item := h.items[id]
		if item.ParentID == parentID && item.Kind == kind {
			out = append(out, *item)
		}
	}
	return out, nil
}

func (h *fakeHost) ListTopLevelFolders(context.Context) ([]models.LibraryItem, error) {
	if h.foldersErr != nil {
		return nil, h.foldersErr
	}
	return h.folders, nil
}

func (h *fakeHost) FindItemByProviderID(_ context.Context, provider, externalID string) (*models.LibraryItem, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if provider != models.ProviderName {
		return nil, fmt.Errorf("unexpected provider %q", provider)
	}
	id, ok := h.providers[externalID]
	if !ok {
		return nil, clients.ErrNotFound
	}
	return &models.LibraryItem{ID: id, Kind: models.KindEpisode, ProviderExternalID: externalID}, nil
}

func (h *fakeHost) GetUserByName(_ context.Context, name string) (*models.User, error) {
	if u, ok := h.users[name]; ok {
		return u, nil
	}
	return nil, clients.ErrNotFound
}

func (h *fakeHost) GetUserByID(_ context.Context, id string) (*models.User, error) {
	for _, u := range h.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, clients.ErrNotFound
}

func (h *fakeHost) GetUserData(_ context.Context, userID, itemID string) (*models.UserData, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	data := h.userData[userID+"/"+itemID]
	return &data, nil
}

func (h *fakeHost) SaveUserData(_ context.Context, userID, itemID string, data models.UserData) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.saved = append(h.saved, savedUserData{UserID: userID, ItemID: itemID, Data: data})
	h.userData[userID+"/"+itemID] = data
	return nil
}

func (h *fakeHost) ListPlaylists(_ context.Context, userID string) ([]models.Playlist, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]models.Playlist(nil), h.playlists[userID]...), nil
}

func (h *fakeHost) PlaylistItems(_ context.Context, _ string, playlistID string) ([]models.LibraryItem, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.playlistItems[playlistID], nil
}

func (h *fakeHost) CreatePlaylist(_ context.Context, userID, name string, itemIDs []string) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := fmt.Sprintf("pl-new-%d", len(h.created)+1)
	h.created = append(h.created, playlistWrite{ID: id, UserID: userID, Name: name, Items: itemIDs})
	return id, nil
}

func (h *fakeHost) UpdatePlaylist(_ context.Context, playlistID, name string, itemIDs []string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.failUpdate {
		return errFake
	}
	h.updated = append(h.updated, playlistWrite{ID: playlistID, Name: name, Items: itemIDs})
	return nil
}

func (h *fakeHost) DeletePlaylist(_ context.Context, playlistID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.deleted = append(h.deleted, playlistID)
	return nil
}

type watchedCall struct {
	ID      string
	Watched bool
}

type progressCall struct {
	VideoID string
	Seconds int64
}

type entryCall struct {
	PlaylistID string
	Action     models.ActionKind
	VideoID    string
}

// fakeArchive records writes and keeps custom playlist entries in order,
// applying entry actions the way the archive does.
type fakeArchive struct {
	mu sync.Mutex

	videos    map[string]*clients.ArchiveVideo
	playlists []clients.ArchivePlaylist

	watchedStatus  map[string]int
	progressStatus int
	failAction     func(action models.ActionKind, videoID string) bool
	failCreate     bool

	watched         []watchedCall
	progress        []progressCall
	entryCalls      []entryCall
	createdPlaylist []string
	deletedPlaylist []string
}

func newFakeArchive() *fakeArchive {
	return &fakeArchive{
		videos:         make(map[string]*clients.ArchiveVideo),
		playlists:      []clients.ArchivePlaylist{},
		watchedStatus:  make(map[string]int),
		progressStatus: http.StatusOK,
	}
}

func (a *fakeArchive) GetChannel(context.Context, string) *clients.ArchiveChannel { return nil }

func (a *fakeArchive) GetVideo(_ context.Context, videoID string) *clients.ArchiveVideo {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.videos[videoID]
}

func (a *fakeArchive) Ping(context.Context) *clients.ArchivePing {
	return &clients.ArchivePing{Response: "pong", User: 1, Version: "v0.5.0"}
}

func (a *fakeArchive) SetProgress(_ context.Context, videoID string, seconds int64) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.progress = append(a.progress, progressCall{VideoID: videoID, Seconds: seconds})
	return a.progressStatus
}

func (a *fakeArchive) GetProgress(_ context.Context, videoID string) *clients.ArchiveProgress {
	a.mu.Lock()
	defer a.mu.Unlock()
	if v, ok := a.videos[videoID]; ok {
		return &clients.ArchiveProgress{YoutubeID: videoID, Position: int64(v.Player.Position)}
	}
	return nil
}

func (a *fakeArchive) SetWatchedStatus(_ context.Context, itemID string, watched bool) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.watched = append(a.watched, watchedCall{ID: itemID, Watched: watched})
	if status, ok := a.watchedStatus[itemID]; ok {
		return status
	}
	return http.StatusOK
}

func (a *fakeArchive) ListPlaylists(context.Context) []clients.ArchivePlaylist {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.playlists == nil {
		return nil
	}
	out := make([]clients.ArchivePlaylist, len(a.playlists))
	for i, pl := range a.playlists {
		pl.Entries = append([]clients.ArchivePlaylistEntry(nil), pl.Entries...)
		out[i] = pl
	}
	return out
}

func (a *fakeArchive) CreateCustomPlaylist(_ context.Context, name string) *clients.ArchivePlaylist {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.failCreate {
		return nil
	}
	a.createdPlaylist = append(a.createdPlaylist, name)
	pl := clients.ArchivePlaylist{
		ID:   fmt.Sprintf("custom-%d", len(a.createdPlaylist)),
		Name: name,
		Type: clients.PlaylistCustom,
	}
	a.playlists = append(a.playlists, pl)
	return &pl
}

func (a *fakeArchive) ApplyPlaylistEntryAction(_ context.Context, playlistID string, action models.ActionKind, videoID string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entryCalls = append(a.entryCalls, entryCall{PlaylistID: playlistID, Action: action, VideoID: videoID})
	if a.failAction != nil && a.failAction(action, videoID) {
		return http.StatusInternalServerError
	}

	for i := range a.playlists {
		if a.playlists[i].ID == playlistID {
			a.playlists[i].Entries = applyEntryAction(a.playlists[i].Entries, action, videoID)
			return http.StatusOK
		}
	}
	return http.StatusNotFound
}

func (a *fakeArchive) DeletePlaylist(_ context.Context, playlistID string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.deletedPlaylist = append(a.deletedPlaylist, playlistID)
	return true
}

func (a *fakeArchive) entryIDs(playlistID string) []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, pl := range a.playlists {
		if pl.ID == playlistID {
			ids := make([]string, len(pl.Entries))
			for i, e := range pl.Entries {
				ids[i] = e.YoutubeID
			}
			return ids
		}
	}
	return nil
}

// applyEntryAction mutates entries like the archive's custom playlist endpoint
func applyEntryAction(entries []clients.ArchivePlaylistEntry, action models.ActionKind, videoID string) []clients.ArchivePlaylistEntry {
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.YoutubeID
	}
	p := indexOf(ids, videoID)

	switch action {
	case models.ActionCreate:
		if p < 0 {
			ids = append(ids, videoID)
		}
	case models.ActionRemove:
		if p >= 0 {
			ids = append(ids[:p], ids[p+1:]...)
		}
	case models.ActionTop:
		ids = move(ids, p, 0)
	case models.ActionBottom:
		ids = move(ids, p, len(ids)-1)
	case models.ActionUp:
		if p > 0 {
			ids = move(ids, p, p-1)
		}
	case models.ActionDown:
		if p >= 0 && p < len(ids)-1 {
			ids = move(ids, p, p+1)
		}
	}

	out := make([]clients.ArchivePlaylistEntry, len(ids))
	for i, id := range ids {
		out[i] = clients.ArchivePlaylistEntry{YoutubeID: id, Title: id, Index: i, IsDownloaded: true}
	}
	return out
}
