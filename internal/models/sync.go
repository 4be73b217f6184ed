package models

import "fmt"

// ActionKind is a positional mutation on an archive custom playlist.
// The string values are the archive's wire names.
type ActionKind string

const (
	ActionCreate ActionKind = "create"
	ActionRemove ActionKind = "remove"
	ActionTop    ActionKind = "top"
	ActionBottom ActionKind = "bottom"
	ActionUp     ActionKind = "up"
	ActionDown   ActionKind = "down"
)

// SyncAction is one step of a playlist reconciliation.
//
// Steps is the number of single-position moves for Up and Down. For Create it
// is the signed offset applied after appending: negative moves up, positive
// moves down.
type SyncAction struct {
	Kind    ActionKind `json:"kind"`
	VideoID string     `json:"video_id"`
	Label   string     `json:"label"`
	Steps   int        `json:"steps,omitempty"`
}

func (a SyncAction) String() string {
	switch a.Kind {
	case ActionUp, ActionDown:
		return fmt.Sprintf("%s %s(%d) %q", a.VideoID, a.Kind, a.Steps, a.Label)
	case ActionCreate:
		if a.Steps != 0 {
			return fmt.Sprintf("%s create%+d %q", a.VideoID, a.Steps, a.Label)
		}
	}
	return fmt.Sprintf("%s %s %q", a.VideoID, a.Kind, a.Label)
}

// TaskProgress receives a completion percentage between 0 and 100
type TaskProgress func(percent float64)
