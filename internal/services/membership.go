package services

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/ramonskie/tubearchivarr/internal/metrics"
	"github.com/ramonskie/tubearchivarr/internal/models"
	"github.com/rs/zerolog/log"
)

const (
	// maxAncestorHops bounds the cached-id walk so cyclic or very deep trees terminate
	maxAncestorHops = 10

	// Fallback depths below the collection: episode -> season -> series -> collection
	episodeDepth = 3
	seriesDepth  = 1
)

// MembershipResolver decides whether library items live under the
// configured archive collection. The collection id is cached and swapped
// atomically; readers fall back to a fixed-depth walk while it is unset.
type MembershipResolver struct {
	host         LibraryHost
	cfg          ConfigFunc
	collectionID atomic.Pointer[string]
}

// NewMembershipResolver creates a resolver with an empty cache. Call Refresh to populate it.
func NewMembershipResolver(host LibraryHost, cfg ConfigFunc) *MembershipResolver {
	return &MembershipResolver{host: host, cfg: cfg}
}

// CollectionID returns the cached collection id, or ""
func (r *MembershipResolver) CollectionID() string {
	if id := r.collectionID.Load(); id != nil {
		return *id
	}
	return ""
}

func (r *MembershipResolver) setCollectionID(id string) {
	if id == "" {
		r.collectionID.Store(nil)
		return
	}
	r.collectionID.Store(&id)
}

// Refresh looks the configured collection up among the top-level folders and
// caches its id. The cache is cleared when the title is empty, the lookup
// fails or nothing matches. Returns the cached id.
func (r *MembershipResolver) Refresh(ctx context.Context) string {
	title := strings.TrimSpace(r.cfg().Jellyfin.CollectionTitle)
	if title == "" {
		log.Warn().Msg("Collection title is empty, clearing collection cache")
		r.setCollectionID("")
		metrics.CollectionCacheRefreshes.WithLabelValues("error").Inc()
		return ""
	}

	folders, err := r.host.ListTopLevelFolders(ctx)
	if err != nil {
		log.Error().Err(err).Str("collection", title).Msg("Failed to list library folders, clearing collection cache")
		r.setCollectionID("")
		metrics.CollectionCacheRefreshes.WithLabelValues("error").Inc()
		return ""
	}

	for _, folder := range folders {
		if strings.EqualFold(folder.Name, title) {
			r.setCollectionID(folder.ID)
			metrics.CollectionCacheRefreshes.WithLabelValues("found").Inc()
			log.Info().Str("collection", title).Str("collection_id", folder.ID).Msg("Cached archive collection id")
			return folder.ID
		}
	}

	r.setCollectionID("")
	metrics.CollectionCacheRefreshes.WithLabelValues("not_found").Inc()
	log.Warn().Str("collection", title).Int("folders", len(folders)).Msg("Archive collection not found among library folders")
	return ""
}

// ResolveCollection returns the cached collection id, refreshing once when unset
func (r *MembershipResolver) ResolveCollection(ctx context.Context) (string, error) {
	if id := r.CollectionID(); id != "" {
		return id, nil
	}
	if id := r.Refresh(ctx); id != "" {
		return id, nil
	}
	return "", fmt.Errorf("%q: %w", r.cfg().Jellyfin.CollectionTitle, ErrCollectionNotFound)
}

// IsMember reports whether an episode belongs to the archive collection.
// Any other kind is not a member. Lookup failures count as not a member.
func (r *MembershipResolver) IsMember(ctx context.Context, item *models.LibraryItem) bool {
	if item == nil || item.Kind != models.KindEpisode {
		return false
	}
	return r.isMember(ctx, item, episodeDepth)
}

// IsChannelMember reports whether a series belongs to the archive collection
func (r *MembershipResolver) IsChannelMember(ctx context.Context, item *models.LibraryItem) bool {
	if item == nil || item.Kind != models.KindSeries {
		return false
	}
	return r.isMember(ctx, item, seriesDepth)
}

func (r *MembershipResolver) isMember(ctx context.Context, item *models.LibraryItem, depth int) bool {
	if cached := r.CollectionID(); cached != "" {
		return r.hasAncestor(ctx, item, cached)
	}
	return r.ancestorNamed(ctx, item, depth, r.cfg().Jellyfin.CollectionTitle)
}

// hasAncestor walks at most maxAncestorHops parents looking for id
func (r *MembershipResolver) hasAncestor(ctx context.Context, item *models.LibraryItem, id string) bool {
	if item.ID == id {
		return true
	}

	current := item
	for hop := 1; hop <= maxAncestorHops; hop++ {
		if current.ParentID == "" {
			return false
		}
		if current.ParentID == id {
			return true
		}
		if hop == maxAncestorHops {
			break
		}

		parent, err := r.host.GetItem(ctx, current.ParentID)
		if err != nil || parent == nil {
			return false
		}
		current = parent
	}

	log.Debug().Str("item_id", item.ID).Int("hops", maxAncestorHops).Msg("Ancestor walk reached its bound")
	return false
}

// ancestorNamed checks whether the ancestor exactly depth levels up is named title
func (r *MembershipResolver) ancestorNamed(ctx context.Context, item *models.LibraryItem, depth int, title string) bool {
	if title == "" {
		return false
	}

	current := item
	for i := 0; i < depth; i++ {
		if current.ParentID == "" {
			return false
		}
		parent, err := r.host.GetItem(ctx, current.ParentID)
		if err != nil || parent == nil {
			return false
		}
		current = parent
	}
	return strings.EqualFold(current.Name, title)
}
