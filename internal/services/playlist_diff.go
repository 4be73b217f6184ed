package services

import (
	"fmt"

	"github.com/ramonskie/tubearchivarr/internal/clients"
	"github.com/ramonskie/tubearchivarr/internal/identity"
	"github.com/ramonskie/tubearchivarr/internal/models"
)

// PlaylistPlan is the ordered action list that brings an archive playlist in
// line with a library playlist, plus the library entries that had to be skipped.
type PlaylistPlan struct {
	Actions []models.SyncAction
	Skipped []error
}

// ComputePlaylistActions diffs the library order against the archive order.
//
// Removals come first. Then each library position i is visited in order
// against a simulated archive list that already reflects every earlier
// action, so after visiting i the simulated prefix [0..i] equals the library
// prefix. An entry already at i yields nothing; position 0 uses Top and the
// last position uses Bottom; anything else moves Up or Down by the distance.
// Missing videos are appended and then moved up into place.
//
// Applying the plan and diffing again yields no actions.
func ComputePlaylistActions(library []models.LibraryItem, archive []clients.ArchivePlaylistEntry) PlaylistPlan {
	var plan PlaylistPlan

	type target struct {
		videoID string
		label   string
	}

	wanted := make([]target, 0, len(library))
	inLibrary := make(map[string]bool, len(library))
	for _, item := range library {
		videoID, err := identity.VideoIDFromPath(item.Path)
		if err != nil {
			plan.Skipped = append(plan.Skipped, fmt.Errorf("%s: %w", item.Name, err))
			continue
		}
		if inLibrary[videoID] {
			continue
		}
		inLibrary[videoID] = true
		wanted = append(wanted, target{videoID: videoID, label: item.Name})
	}

	sim := make([]string, 0, len(archive)+len(wanted))
	for _, entry := range archive {
		if inLibrary[entry.YoutubeID] {
			sim = append(sim, entry.YoutubeID)
			continue
		}
		plan.Actions = append(plan.Actions, models.SyncAction{
			Kind:    models.ActionRemove,
			VideoID: entry.YoutubeID,
			Label:   entry.Title,
		})
	}

	last := len(wanted) - 1
	for i, t := range wanted {
		p := indexOf(sim, t.videoID)
		if p == i {
			continue
		}

		action := models.SyncAction{VideoID: t.videoID, Label: t.label}
		switch {
		case p < 0:
			sim = append(sim, t.videoID)
			p = len(sim) - 1
			action.Kind = models.ActionCreate
			action.Steps = i - p
		case i == 0:
			action.Kind = models.ActionTop
		case i == last:
			action.Kind = models.ActionBottom
		case i < p:
			action.Kind = models.ActionUp
			action.Steps = p - i
		default:
			action.Kind = models.ActionDown
			action.Steps = i - p
		}

		if action.Kind == models.ActionBottom {
			sim = move(sim, p, len(sim)-1)
		} else {
			sim = move(sim, p, i)
		}
		plan.Actions = append(plan.Actions, action)
	}

	return plan
}

// ActionCalls expands an action into the single-step entry actions the archive accepts
func ActionCalls(action models.SyncAction) []models.ActionKind {
	abs := action.Steps
	if abs < 0 {
		abs = -abs
	}

	switch action.Kind {
	case models.ActionCreate:
		calls := []models.ActionKind{models.ActionCreate}
		step := models.ActionUp
		if action.Steps > 0 {
			step = models.ActionDown
		}
		for n := 0; n < abs; n++ {
			calls = append(calls, step)
		}
		return calls
	case models.ActionUp, models.ActionDown:
		if abs == 0 {
			abs = 1
		}
		calls := make([]models.ActionKind, abs)
		for n := range calls {
			calls[n] = action.Kind
		}
		return calls
	default:
		return []models.ActionKind{action.Kind}
	}
}

func indexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}

// move relocates ids[from] to index to, shifting the elements in between
func move(ids []string, from, to int) []string {
	if from == to || from < 0 || from >= len(ids) {
		return ids
	}
	v := ids[from]
	ids = append(ids[:from], ids[from+1:]...)
	if to >= len(ids) {
		return append(ids, v)
	}
	ids = append(ids[:to+1], ids[to:]...)
	ids[to] = v
	return ids
}
