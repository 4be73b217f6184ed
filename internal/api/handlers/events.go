package handlers

import (
	"net/http"

	"github.com/goccy/go-json"
	"github.com/ramonskie/tubearchivarr/internal/clients"
	"github.com/ramonskie/tubearchivarr/internal/metrics"
	"github.com/ramonskie/tubearchivarr/internal/models"
	"github.com/rs/zerolog/log"
)

const eventSourceAPI = "api"

// EventsHandler accepts progress and watched events pushed over HTTP, for
// hosts that notify through a webhook instead of the socket feed
type EventsHandler struct {
	sink clients.EventSink
}

// NewEventsHandler creates a new EventsHandler
func NewEventsHandler(sink clients.EventSink) *EventsHandler {
	return &EventsHandler{sink: sink}
}

// PostEvent handles POST /api/events
func (h *EventsHandler) PostEvent(w http.ResponseWriter, r *http.Request) {
	var event models.Event
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if event.Kind != models.EventProgress && event.Kind != models.EventWatched {
		writeError(w, http.StatusBadRequest, "type must be progress or watched")
		return
	}
	if event.UserID == "" || event.ItemID == "" {
		writeError(w, http.StatusBadRequest, "user_id and item_id are required")
		return
	}
	if event.PositionTicks < 0 {
		writeError(w, http.StatusBadRequest, "position_ticks must not be negative")
		return
	}
	event.Source = eventSourceAPI

	metrics.EventsReceived.WithLabelValues(string(event.Kind), eventSourceAPI).Inc()
	if !h.sink.Enqueue(event) {
		writeError(w, http.StatusServiceUnavailable, "Event queue full")
		return
	}

	log.Debug().
		Str("type", string(event.Kind)).
		Str("item_id", event.ItemID).
		Str("user_id", event.UserID).
		Msg("Event accepted")
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}
