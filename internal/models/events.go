package models

// EventKind identifies a live library event
type EventKind string

const (
	EventProgress EventKind = "progress"
	EventWatched  EventKind = "watched"
)

// Event is a single-item change reported by the library host
type Event struct {
	Kind          EventKind `json:"type"`
	UserID        string    `json:"user_id"`
	UserName      string    `json:"user_name,omitempty"`
	ItemID        string    `json:"item_id"`
	PositionTicks int64     `json:"position_ticks,omitempty"`
	Played        bool      `json:"played,omitempty"`
	Source        string    `json:"source,omitempty"`
}
