package handlers

import (
	"context"
	"net/http"
)

// ArchiveStatus exposes the archive client's liveness and breaker
type ArchiveStatus interface {
	ArchivePinger
	BreakerState() string
}

// CollectionSource reports the cached collection id
type CollectionSource interface {
	CollectionID() string
}

// QueueSource reports how many live events are waiting
type QueueSource interface {
	QueueDepth() int
}

// ConnectionSource reports whether the live event feed is connected
type ConnectionSource interface {
	IsConnected() bool
}

// StatusHandler reports the bridge's view of its two ends
type StatusHandler struct {
	archive    ArchiveStatus
	collection CollectionSource
	queue      QueueSource
	socket     ConnectionSource
}

// NewStatusHandler creates a new StatusHandler. queue and socket may be nil.
func NewStatusHandler(archive ArchiveStatus, collection CollectionSource, queue QueueSource, socket ConnectionSource) *StatusHandler {
	return &StatusHandler{
		archive:    archive,
		collection: collection,
		queue:      queue,
		socket:     socket,
	}
}

// ArchiveState is the archive part of StatusResponse
type ArchiveState struct {
	Reachable bool   `json:"reachable"`
	Version   string `json:"version,omitempty"`
	Breaker   string `json:"breaker"`
}

// StatusResponse represents GET /api/status
type StatusResponse struct {
	Archive            ArchiveState `json:"archive"`
	CollectionID       string       `json:"collection_id"`
	WebSocketEnabled   bool         `json:"websocket_enabled"`
	WebSocketConnected bool         `json:"websocket_connected"`
	EventQueueDepth    int          `json:"event_queue_depth"`
}

// Handle handles GET /api/status
func (h *StatusHandler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), archivePingTimeout)
	defer cancel()

	response := StatusResponse{
		Archive:      ArchiveState{Breaker: h.archive.BreakerState()},
		CollectionID: h.collection.CollectionID(),
	}
	if ping := h.archive.Ping(ctx); ping != nil {
		response.Archive.Reachable = true
		response.Archive.Version = ping.Version
	}
	if h.queue != nil {
		response.EventQueueDepth = h.queue.QueueDepth()
	}
	if h.socket != nil {
		response.WebSocketEnabled = true
		response.WebSocketConnected = h.socket.IsConnected()
	}

	writeJSON(w, http.StatusOK, response)
}
