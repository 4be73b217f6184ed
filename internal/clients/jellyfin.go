package clients

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/ramonskie/tubearchivarr/internal/cache"
	"github.com/ramonskie/tubearchivarr/internal/config"
	"github.com/ramonskie/tubearchivarr/internal/identity"
	"github.com/ramonskie/tubearchivarr/internal/metrics"
	"github.com/ramonskie/tubearchivarr/internal/models"
	"github.com/rs/zerolog/log"
)

// ErrNotFound is returned when the library host has no such item or user
var ErrNotFound = errors.New("not found")

const (
	itemFields          = "Path,ProviderIds,ParentId"
	providerLookupLimit = 20
)

// JellyfinClient handles communication with Jellyfin API
type JellyfinClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
	cache   *cache.Cache
}

// NewJellyfinClient creates a new Jellyfin client. Lookups of users and
// items are cached in c; a nil cache gets a private one.
func NewJellyfinClient(cfg config.JellyfinConfig, c *cache.Cache) *JellyfinClient {
	if c == nil {
		c = cache.New()
	}
	return &JellyfinClient{
		baseURL: identity.NormalizeBaseURL(cfg.URL),
		apiKey:  cfg.APIKey,
		client: &http.Client{
			Timeout: parseTimeout(cfg.Timeout),
		},
		cache: c,
	}
}

// BaseURL returns the Jellyfin base URL
func (c *JellyfinClient) BaseURL() string {
	return c.baseURL
}

// APIKey returns the Jellyfin API key
func (c *JellyfinClient) APIKey() string {
	return c.apiKey
}

// GetItem fetches a single item by id
func (c *JellyfinClient) GetItem(ctx context.Context, id string) (*models.LibraryItem, error) {
	if id == "" {
		return nil, ErrNotFound
	}

	key := fmt.Sprintf(cache.CacheKeyJellyfinItem, id)
	if cached, ok := c.cache.Get(key); ok {
		item := cached.(models.LibraryItem)
		return &item, nil
	}

	query := url.Values{}
	query.Set("ids", id)
	query.Set("Fields", itemFields)

	var result JellyfinItemsResponse
	if err := c.do(ctx, "get_item", http.MethodGet, "/Items", query, nil, &result); err != nil {
		return nil, err
	}
	if len(result.Items) == 0 {
		return nil, ErrNotFound
	}

	item := result.Items[0].ToModel()
	c.cache.Set(key, item, cache.TTLJellyfinItem)
	return &item, nil
}

// ListChildren lists the direct children of parentID with the given kind.
// userID scopes the query to a user's view when set.
func (c *JellyfinClient) ListChildren(ctx context.Context, parentID string, kind models.ItemKind, userID string) ([]models.LibraryItem, error) {
	query := url.Values{}
	query.Set("ParentId", parentID)
	query.Set("IncludeItemTypes", jellyfinType(kind))
	query.Set("Recursive", "false")
	query.Set("Fields", itemFields)
	if userID != "" {
		query.Set("userId", userID)
	}

	items, err := c.getItems(ctx, "list_children", "/Items", query)
	if err != nil {
		return nil, err
	}

	log.Debug().
		Str("parent_id", parentID).
		Str("kind", string(kind)).
		Int("count", len(items)).
		Msg("Fetched children from Jellyfin")

	return items, nil
}

// ListTopLevelFolders lists the library root folders
func (c *JellyfinClient) ListTopLevelFolders(ctx context.Context) ([]models.LibraryItem, error) {
	return c.getItems(ctx, "list_media_folders", "/Library/MediaFolders", nil)
}

// FindItemByProviderID finds the first item carrying the given provider id.
// Results are matched against externalID client side since not every server
// version honours AnyProviderIdEquals.
func (c *JellyfinClient) FindItemByProviderID(ctx context.Context, provider, externalID string) (*models.LibraryItem, error) {
	query := url.Values{}
	query.Set("Recursive", "true")
	query.Set("AnyProviderIdEquals", provider+"."+externalID)
	query.Set("Fields", itemFields)
	query.Set("Limit", strconv.Itoa(providerLookupLimit))

	items, err := c.getItems(ctx, "find_by_provider_id", "/Items", query)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if items[i].ProviderExternalID == externalID {
			return &items[i], nil
		}
	}
	if len(items) > 0 {
		log.Debug().
			Str("provider_id", externalID).
			Int("results", len(items)).
			Msg("Provider id lookup returned no matching item")
	}
	return nil, ErrNotFound
}

// GetUserByName resolves a user by name, case-insensitively
func (c *JellyfinClient) GetUserByName(ctx context.Context, name string) (*models.User, error) {
	users, err := c.users(ctx)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		if strings.EqualFold(u.Name, name) {
			return &models.User{ID: u.ID, Name: u.Name}, nil
		}
	}
	return nil, fmt.Errorf("user %q: %w", name, ErrNotFound)
}

// GetUserByID resolves a user by id
func (c *JellyfinClient) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	users, err := c.users(ctx)
	if err == nil {
		for _, u := range users {
			if u.ID == id {
				return &models.User{ID: u.ID, Name: u.Name}, nil
			}
		}
	}

	var user JellyfinUser
	if err := c.do(ctx, "get_user", http.MethodGet, "/Users/"+id, nil, nil, &user); err != nil {
		return nil, err
	}
	return &models.User{ID: user.ID, Name: user.Name}, nil
}

func (c *JellyfinClient) users(ctx context.Context) ([]JellyfinUser, error) {
	val, err := c.cache.GetOrSet(cache.CacheKeyJellyfinUsers, cache.TTLJellyfinUsers, func() (any, error) {
		var users []JellyfinUser
		if err := c.do(ctx, "list_users", http.MethodGet, "/Users", nil, nil, &users); err != nil {
			return nil, err
		}
		return users, nil
	})
	if err != nil {
		return nil, err
	}
	return val.([]JellyfinUser), nil
}

// GetUserData fetches a user's playback state for an item
func (c *JellyfinClient) GetUserData(ctx context.Context, userID, itemID string) (*models.UserData, error) {
	query := url.Values{}
	query.Set("userId", userID)

	var data JellyfinUserData
	if err := c.do(ctx, "get_user_data", http.MethodGet, "/UserItems/"+itemID+"/UserData", query, nil, &data); err != nil {
		return nil, err
	}
	return &models.UserData{PlaybackPositionTicks: data.PlaybackPositionTicks, Played: data.Played}, nil
}

// SaveUserData writes a user's playback state for an item
func (c *JellyfinClient) SaveUserData(ctx context.Context, userID, itemID string, data models.UserData) error {
	query := url.Values{}
	query.Set("userId", userID)

	body := JellyfinUserData{PlaybackPositionTicks: data.PlaybackPositionTicks, Played: data.Played}
	return c.do(ctx, "save_user_data", http.MethodPost, "/UserItems/"+itemID+"/UserData", query, body, nil)
}

// ListPlaylists lists the playlists visible to a user
func (c *JellyfinClient) ListPlaylists(ctx context.Context, userID string) ([]models.Playlist, error) {
	query := url.Values{}
	query.Set("IncludeItemTypes", "Playlist")
	query.Set("Recursive", "true")
	query.Set("userId", userID)

	items, err := c.getItems(ctx, "list_playlists", "/Items", query)
	if err != nil {
		return nil, err
	}

	playlists := make([]models.Playlist, 0, len(items))
	for _, item := range items {
		playlists = append(playlists, models.Playlist{ID: item.ID, Name: item.Name, OwnerID: userID})
	}
	return playlists, nil
}

// PlaylistItems lists a playlist's items in playback order
func (c *JellyfinClient) PlaylistItems(ctx context.Context, userID, playlistID string) ([]models.LibraryItem, error) {
	query := url.Values{}
	query.Set("userId", userID)
	query.Set("Fields", itemFields)
	return c.getItems(ctx, "playlist_items", "/Playlists/"+playlistID+"/Items", query)
}

// CreatePlaylist creates a playlist owned by userID and returns its id
func (c *JellyfinClient) CreatePlaylist(ctx context.Context, userID, name string, itemIDs []string) (string, error) {
	body := jellyfinCreatePlaylist{Name: name, Ids: nonNil(itemIDs), UserID: userID, MediaType: "Video"}

	var created jellyfinPlaylistCreated
	if err := c.do(ctx, "create_playlist", http.MethodPost, "/Playlists", nil, body, &created); err != nil {
		return "", err
	}

	log.Info().Str("playlist_id", created.ID).Str("name", name).Int("items", len(itemIDs)).Msg("Created Jellyfin playlist")
	return created.ID, nil
}

// UpdatePlaylist replaces a playlist's name and ordered items
func (c *JellyfinClient) UpdatePlaylist(ctx context.Context, playlistID, name string, itemIDs []string) error {
	body := jellyfinUpdatePlaylist{Name: name, Ids: nonNil(itemIDs)}
	if err := c.do(ctx, "update_playlist", http.MethodPost, "/Playlists/"+playlistID, nil, body, nil); err != nil {
		return err
	}
	c.cache.Delete(fmt.Sprintf(cache.CacheKeyJellyfinItem, playlistID))
	return nil
}

// DeletePlaylist deletes a playlist
func (c *JellyfinClient) DeletePlaylist(ctx context.Context, playlistID string) error {
	if err := c.do(ctx, "delete_playlist", http.MethodDelete, "/Items/"+playlistID, nil, nil, nil); err != nil {
		return err
	}
	c.cache.Delete(fmt.Sprintf(cache.CacheKeyJellyfinItem, playlistID))
	log.Info().Str("playlist_id", playlistID).Msg("Deleted Jellyfin playlist")
	return nil
}

// Ping checks if Jellyfin is reachable
func (c *JellyfinClient) Ping(ctx context.Context) (*JellyfinSystemInfo, error) {
	var info JellyfinSystemInfo
	if err := c.do(ctx, "ping", http.MethodGet, "/System/Info", nil, nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// InvalidateCache drops cached users and items
func (c *JellyfinClient) InvalidateCache() {
	c.cache.DeletePrefix(cache.PrefixJellyfin)
}

func (c *JellyfinClient) getItems(ctx context.Context, op, path string, query url.Values) ([]models.LibraryItem, error) {
	var result JellyfinItemsResponse
	if err := c.do(ctx, op, http.MethodGet, path, query, nil, &result); err != nil {
		return nil, err
	}

	items := make([]models.LibraryItem, 0, len(result.Items))
	for _, item := range result.Items {
		items = append(items, item.ToModel())
	}
	return items, nil
}

// do performs one request. out may be nil when the body is not needed.
func (c *JellyfinClient) do(ctx context.Context, op, method, path string, query url.Values, body, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("X-Emby-Token", c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		metrics.RecordJellyfinRequest(op, 0)
		return fmt.Errorf("making request: %w", err)
	}
	defer resp.Body.Close()

	metrics.RecordJellyfinRequest(op, resp.StatusCode)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
