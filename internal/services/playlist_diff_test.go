package services

import (
	"testing"

	"github.com/ramonskie/tubearchivarr/internal/clients"
	"github.com/ramonskie/tubearchivarr/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func libraryOrder(ids ...string) []models.LibraryItem {
	items := make([]models.LibraryItem, len(ids))
	for i, id := range ids {
		items[i] = models.LibraryItem{ID: "item-" + id, Kind: models.KindEpisode, Name: id, Path: "/youtube/UC1/2024/" + id + ".mp4"}
	}
	return items
}

func archiveOrder(ids ...string) []clients.ArchivePlaylistEntry {
	entries := make([]clients.ArchivePlaylistEntry, len(ids))
	for i, id := range ids {
		entries[i] = clients.ArchivePlaylistEntry{YoutubeID: id, Title: id, Index: i, IsDownloaded: true}
	}
	return entries
}

// replay applies a plan with the archive's single-step semantics
func replay(entries []clients.ArchivePlaylistEntry, plan PlaylistPlan) []clients.ArchivePlaylistEntry {
	for _, action := range plan.Actions {
		for _, kind := range ActionCalls(action) {
			entries = applyEntryAction(entries, kind, action.VideoID)
		}
	}
	return entries
}

func entryIDs(entries []clients.ArchivePlaylistEntry) []string {
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.YoutubeID
	}
	return ids
}

func TestComputePlaylistActions(t *testing.T) {
	tests := []struct {
		name    string
		archive []string
		library []string
		want    []models.SyncAction
	}{
		{
			name:    "in sync",
			archive: []string{"A", "B", "C"},
			library: []string{"A", "B", "C"},
			want:    nil,
		},
		{
			name:    "rotation moves one entry to the top",
			archive: []string{"A", "B", "C"},
			library: []string{"C", "A", "B"},
			want:    []models.SyncAction{{Kind: models.ActionTop, VideoID: "C", Label: "C"}},
		},
		{
			name:    "first entry sent to the bottom",
			archive: []string{"A", "B", "C"},
			library: []string{"B", "C", "A"},
			want:    []models.SyncAction{{Kind: models.ActionTop, VideoID: "B", Label: "B"}, {Kind: models.ActionUp, VideoID: "C", Label: "C", Steps: 1}},
		},
		{
			name:    "middle swap",
			archive: []string{"A", "B", "C", "D"},
			library: []string{"A", "C", "B", "D"},
			want:    []models.SyncAction{{Kind: models.ActionUp, VideoID: "C", Label: "C", Steps: 1}},
		},
		{
			name:    "multi-step move",
			archive: []string{"A", "B", "C", "D", "E"},
			library: []string{"A", "D", "B", "C", "E"},
			want:    []models.SyncAction{{Kind: models.ActionUp, VideoID: "D", Label: "D", Steps: 2}},
		},
		{
			name:    "removals come first",
			archive: []string{"A", "X", "B"},
			library: []string{"B", "N", "A"},
			want: []models.SyncAction{
				{Kind: models.ActionRemove, VideoID: "X", Label: "X"},
				{Kind: models.ActionTop, VideoID: "B", Label: "B"},
				{Kind: models.ActionCreate, VideoID: "N", Label: "N", Steps: -1},
			},
		},
		{
			name:    "empty archive appends in order",
			archive: nil,
			library: []string{"A", "B"},
			want: []models.SyncAction{
				{Kind: models.ActionCreate, VideoID: "A", Label: "A"},
				{Kind: models.ActionCreate, VideoID: "B", Label: "B"},
			},
		},
		{
			name:    "empty library clears the archive",
			archive: []string{"A", "B"},
			library: nil,
			want: []models.SyncAction{
				{Kind: models.ActionRemove, VideoID: "A", Label: "A"},
				{Kind: models.ActionRemove, VideoID: "B", Label: "B"},
			},
		},
		{
			name:    "new entry at the top",
			archive: []string{"A", "B"},
			library: []string{"N", "A", "B"},
			want:    []models.SyncAction{{Kind: models.ActionCreate, VideoID: "N", Label: "N", Steps: -2}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			archive := archiveOrder(tt.archive...)
			plan := ComputePlaylistActions(libraryOrder(tt.library...), archive)
			assert.Empty(t, plan.Skipped)
			assert.Equal(t, tt.want, plan.Actions)

			result := replay(archive, plan)
			want := tt.library
			if want == nil {
				want = []string{}
			}
			assert.Equal(t, want, entryIDs(result))

			again := ComputePlaylistActions(libraryOrder(tt.library...), result)
			assert.Empty(t, again.Actions, "second diff must be empty")
		})
	}
}

func TestComputePlaylistActions_Reorders(t *testing.T) {
	orders := [][]string{
		{"E", "D", "C", "B", "A"},
		{"B", "A", "D", "C", "E"},
		{"C", "E", "A", "B", "D"},
		{"A", "E", "B", "D", "C"},
		{"F", "C", "G", "A"},
	}
	for _, library := range orders {
		archive := archiveOrder("A", "B", "C", "D", "E")
		plan := ComputePlaylistActions(libraryOrder(library...), archive)
		result := replay(archive, plan)
		assert.Equal(t, library, entryIDs(result), "library order %v", library)
		assert.Empty(t, ComputePlaylistActions(libraryOrder(library...), result).Actions)
	}
}

func TestComputePlaylistActions_SkipsUnidentifiedAndDuplicates(t *testing.T) {
	library := libraryOrder("A", "B")
	library = append(library,
		models.LibraryItem{ID: "broken", Name: "No path"},
		models.LibraryItem{ID: "dup", Name: "A again", Path: "/youtube/UC1/2024/A.webm"},
	)

	plan := ComputePlaylistActions(library, archiveOrder("B", "A"))
	require.Len(t, plan.Skipped, 1)
	assert.Contains(t, plan.Skipped[0].Error(), "No path")
	assert.Equal(t, []models.SyncAction{{Kind: models.ActionTop, VideoID: "A", Label: "A"}}, plan.Actions)
}

func TestActionCalls(t *testing.T) {
	assert.Equal(t, []models.ActionKind{models.ActionTop}, ActionCalls(models.SyncAction{Kind: models.ActionTop}))
	assert.Equal(t, []models.ActionKind{models.ActionRemove}, ActionCalls(models.SyncAction{Kind: models.ActionRemove}))
	assert.Equal(t,
		[]models.ActionKind{models.ActionDown, models.ActionDown, models.ActionDown},
		ActionCalls(models.SyncAction{Kind: models.ActionDown, Steps: 3}))
	assert.Equal(t,
		[]models.ActionKind{models.ActionCreate, models.ActionUp, models.ActionUp},
		ActionCalls(models.SyncAction{Kind: models.ActionCreate, Steps: -2}))
	assert.Equal(t,
		[]models.ActionKind{models.ActionCreate, models.ActionDown},
		ActionCalls(models.SyncAction{Kind: models.ActionCreate, Steps: 1}))
	assert.Equal(t, []models.ActionKind{models.ActionCreate}, ActionCalls(models.SyncAction{Kind: models.ActionCreate}))
}
