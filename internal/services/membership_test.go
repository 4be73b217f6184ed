package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/ramonskie/tubearchivarr/internal/config"
	"github.com/ramonskie/tubearchivarr/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// archiveTree builds YouTube -> channel -> 2024 -> video
func archiveTree() *fakeHost {
	host := newFakeHost()
	host.folders = []models.LibraryItem{
		{ID: "movies", Kind: models.KindCollection, Name: "Movies"},
		{ID: "col", Kind: models.KindCollection, Name: "YouTube"},
	}
	host.add(
		models.LibraryItem{ID: "col", Kind: models.KindCollection, Name: "YouTube"},
		models.LibraryItem{ID: "ser", Kind: models.KindSeries, Name: "Channel", ParentID: "col", Path: "/youtube/UC123"},
		models.LibraryItem{ID: "sea", Kind: models.KindSeason, Name: "2024", ParentID: "ser"},
		models.LibraryItem{ID: "ep", Kind: models.KindEpisode, Name: "Video", ParentID: "sea", Path: "/youtube/UC123/2024/vid1.mp4"},
	)
	return host
}

func TestMembershipResolver_Refresh(t *testing.T) {
	ctx := context.Background()

	t.Run("caches matching folder case-insensitively", func(t *testing.T) {
		host := archiveTree()
		r := NewMembershipResolver(host, testConfig(func(c *config.Config) { c.Jellyfin.CollectionTitle = "youtube" }))

		assert.Equal(t, "col", r.Refresh(ctx))
		assert.Equal(t, "col", r.CollectionID())
	})

	t.Run("clears cache when not found", func(t *testing.T) {
		host := archiveTree()
		r := NewMembershipResolver(host, testConfig(nil))
		require.Equal(t, "col", r.Refresh(ctx))

		host.folders = host.folders[:1]
		assert.Empty(t, r.Refresh(ctx))
		assert.Empty(t, r.CollectionID())
	})

	t.Run("clears cache on lookup error", func(t *testing.T) {
		host := archiveTree()
		r := NewMembershipResolver(host, testConfig(nil))
		require.Equal(t, "col", r.Refresh(ctx))

		host.foldersErr = errFake
		assert.Empty(t, r.Refresh(ctx))
		assert.Empty(t, r.CollectionID())
	})

	t.Run("clears cache on empty title", func(t *testing.T) {
		host := archiveTree()
		cfg := config.DefaultConfig()
		cfg.Jellyfin.CollectionTitle = "YouTube"
		r := NewMembershipResolver(host, func() *config.Config { return cfg })
		require.Equal(t, "col", r.Refresh(ctx))

		cfg.Jellyfin.CollectionTitle = "  "
		assert.Empty(t, r.Refresh(ctx))
		assert.Empty(t, r.CollectionID())
	})
}

func TestMembershipResolver_ResolveCollection(t *testing.T) {
	ctx := context.Background()

	host := archiveTree()
	r := NewMembershipResolver(host, testConfig(nil))
	id, err := r.ResolveCollection(ctx)
	require.NoError(t, err)
	assert.Equal(t, "col", id)

	host.folders = nil
	r = NewMembershipResolver(host, testConfig(nil))
	_, err = r.ResolveCollection(ctx)
	assert.True(t, errors.Is(err, ErrCollectionNotFound))
}

func TestMembershipResolver_IsMember(t *testing.T) {
	ctx := context.Background()

	t.Run("cached id", func(t *testing.T) {
		host := archiveTree()
		r := NewMembershipResolver(host, testConfig(nil))
		r.Refresh(ctx)

		ep, _ := host.GetItem(ctx, "ep")
		ser, _ := host.GetItem(ctx, "ser")
		sea, _ := host.GetItem(ctx, "sea")

		assert.True(t, r.IsMember(ctx, ep))
		assert.True(t, r.IsChannelMember(ctx, ser))
		assert.False(t, r.IsMember(ctx, sea), "only episodes are eligible")
		assert.False(t, r.IsMember(ctx, ser))
		assert.False(t, r.IsChannelMember(ctx, ep))
		assert.False(t, r.IsMember(ctx, nil))
	})

	t.Run("cached id outside collection", func(t *testing.T) {
		host := archiveTree()
		host.add(
			models.LibraryItem{ID: "other-sea", Kind: models.KindSeason, ParentID: "movies"},
			models.LibraryItem{ID: "other-ep", Kind: models.KindEpisode, ParentID: "other-sea"},
		)
		r := NewMembershipResolver(host, testConfig(nil))
		r.Refresh(ctx)

		ep, _ := host.GetItem(ctx, "other-ep")
		assert.False(t, r.IsMember(ctx, ep))
	})

	t.Run("fallback compares the name three levels up", func(t *testing.T) {
		host := archiveTree()
		host.folders = nil
		r := NewMembershipResolver(host, testConfig(func(c *config.Config) { c.Jellyfin.CollectionTitle = "YOUTUBE" }))
		require.Empty(t, r.Refresh(ctx))

		ep, _ := host.GetItem(ctx, "ep")
		ser, _ := host.GetItem(ctx, "ser")
		assert.True(t, r.IsMember(ctx, ep))
		assert.True(t, r.IsChannelMember(ctx, ser))
	})

	t.Run("fallback fails closed on a missing link", func(t *testing.T) {
		host := archiveTree()
		host.folders = nil
		delete(host.items, "sea")
		r := NewMembershipResolver(host, testConfig(nil))

		ep := &models.LibraryItem{ID: "ep", Kind: models.KindEpisode, ParentID: "sea"}
		assert.False(t, r.IsMember(ctx, ep))
	})

	t.Run("fallback rejects an episode nested one level deeper", func(t *testing.T) {
		host := archiveTree()
		host.folders = nil
		host.add(
			models.LibraryItem{ID: "extra", Kind: models.KindSeason, ParentID: "sea"},
			models.LibraryItem{ID: "deep", Kind: models.KindEpisode, ParentID: "extra"},
		)
		r := NewMembershipResolver(host, testConfig(nil))

		deep, _ := host.GetItem(ctx, "deep")
		assert.False(t, r.IsMember(ctx, deep))
	})
}

func TestMembershipResolver_AncestorBound(t *testing.T) {
	ctx := context.Background()

	// n0 is the episode; n(k) is k hops above it
	host := newFakeHost()
	for i := 0; i <= 12; i++ {
		kind := models.KindSeason
		if i == 0 {
			kind = models.KindEpisode
		}
		host.add(models.LibraryItem{
			ID:       fmt.Sprintf("n%d", i),
			Kind:     kind,
			ParentID: fmt.Sprintf("n%d", i+1),
		})
	}
	ep, _ := host.GetItem(ctx, "n0")

	tests := []struct {
		collection string
		want       bool
	}{
		{"n0", true},
		{"n1", true},
		{"n10", true},
		{"n11", false},
		{"n12", false},
	}
	for _, tt := range tests {
		t.Run(tt.collection, func(t *testing.T) {
			r := NewMembershipResolver(host, testConfig(nil))
			r.setCollectionID(tt.collection)
			assert.Equal(t, tt.want, r.IsMember(ctx, ep))
		})
	}

	t.Run("cycle terminates", func(t *testing.T) {
		cyclic := newFakeHost()
		cyclic.add(
			models.LibraryItem{ID: "a", Kind: models.KindEpisode, ParentID: "b"},
			models.LibraryItem{ID: "b", Kind: models.KindSeason, ParentID: "a"},
		)
		r := NewMembershipResolver(cyclic, testConfig(nil))
		r.setCollectionID("elsewhere")

		item, _ := cyclic.GetItem(ctx, "a")
		assert.False(t, r.IsMember(ctx, item))
		assert.LessOrEqual(t, cyclic.getItemCalls, maxAncestorHops+1)
	})
}
