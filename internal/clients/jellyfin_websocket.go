package clients

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/ramonskie/tubearchivarr/internal/cache"
	"github.com/ramonskie/tubearchivarr/internal/metrics"
	"github.com/ramonskie/tubearchivarr/internal/models"
	"github.com/rs/zerolog/log"
)

const (
	wsKeepAliveInterval = 30 * time.Second
	wsReadTimeout       = 90 * time.Second
	wsMinReconnectDelay = 1 * time.Second
	wsMaxReconnectDelay = 32 * time.Second
	wsProgressInterval  = 10 * time.Second
	eventSourceWS       = "websocket"
)

// EventSink accepts live library events. Enqueue must not block.
type EventSink interface {
	Enqueue(event models.Event) bool
}

// jellyfinWSMessage is the envelope of every socket message
type jellyfinWSMessage struct {
	MessageType string          `json:"MessageType"`
	Data        json.RawMessage `json:"Data,omitempty"`
}

type jellyfinSession struct {
	ID             string `json:"Id"`
	UserID         string `json:"UserId"`
	UserName       string `json:"UserName"`
	NowPlayingItem *struct {
		ID   string `json:"Id"`
		Type string `json:"Type"`
	} `json:"NowPlayingItem"`
	PlayState struct {
		PositionTicks int64 `json:"PositionTicks"`
		IsPaused      bool  `json:"IsPaused"`
	} `json:"PlayState"`
}

type jellyfinUserDataChanged struct {
	UserID       string             `json:"UserId"`
	UserDataList []JellyfinUserData `json:"UserDataList"`
}

// playbackState is the throttle state of one (user,item) pair
type playbackState struct {
	latest   models.Event
	lastSent time.Time
	pending  bool
}

// JellyfinEventSource turns the Jellyfin socket feed into progress and
// watched events. Progress is sent at most once per wsProgressInterval per
// (user,item); the latest position inside a window is held back and sent
// when the window closes or playback of the item stops. Watched events are
// emitted on the first sighting of an item and whenever its played flag flips.
type JellyfinEventSource struct {
	wsURL     string
	sink      EventSink
	cache     *cache.Cache
	dialer    websocket.Dialer
	connected atomic.Bool
	writeMu   sync.Mutex
	now       func() time.Time

	playbackMu sync.Mutex
	playback   map[string]*playbackState
}

// NewJellyfinEventSource creates an event source for the Jellyfin at baseURL
func NewJellyfinEventSource(baseURL, apiKey string, sink EventSink, c *cache.Cache) *JellyfinEventSource {
	if c == nil {
		c = cache.New()
	}
	return &JellyfinEventSource{
		wsURL:    websocketURL(baseURL, apiKey),
		sink:     sink,
		cache:    c,
		now:      time.Now,
		playback: make(map[string]*playbackState),
		dialer: websocket.Dialer{
			HandshakeTimeout:  10 * time.Second,
			EnableCompression: true,
		},
	}
}

// websocketURL maps an http(s) base URL to the Jellyfin socket endpoint
func websocketURL(baseURL, apiKey string) string {
	u := strings.TrimRight(baseURL, "/")
	switch {
	case strings.HasPrefix(u, "https://"):
		u = "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		u = "ws://" + strings.TrimPrefix(u, "http://")
	}
	return u + "/socket?api_key=" + url.QueryEscape(apiKey)
}

// IsConnected reports whether the socket is currently up
func (s *JellyfinEventSource) IsConnected() bool {
	return s.connected.Load()
}

// Run connects and reconnects with exponential backoff until ctx is done
func (s *JellyfinEventSource) Run(ctx context.Context) error {
	delay := wsMinReconnectDelay
	for {
		established, err := s.session(ctx)
		if ctx.Err() != nil {
			log.Info().Msg("Jellyfin event source stopped")
			return nil
		}
		if established {
			delay = wsMinReconnectDelay
		}

		log.Warn().Err(err).Dur("delay", delay).Msg("Jellyfin websocket disconnected, reconnecting")
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(delay):
		}

		delay *= 2
		if delay > wsMaxReconnectDelay {
			delay = wsMaxReconnectDelay
		}
	}
}

// session runs one connection until it fails. established reports whether
// the dial succeeded.
func (s *JellyfinEventSource) session(ctx context.Context) (established bool, err error) {
	conn, resp, err := s.dialer.DialContext(ctx, s.wsURL, nil)
	if err != nil {
		if resp != nil {
			return false, fmt.Errorf("websocket dial failed (status %d): %w", resp.StatusCode, err)
		}
		return false, fmt.Errorf("websocket dial failed: %w", err)
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}

	s.connected.Store(true)
	metrics.WSConnected.Set(1)
	defer func() {
		s.connected.Store(false)
		metrics.WSConnected.Set(0)
		conn.Close()
		s.flushPlayback(time.Time{}, true)
	}()

	log.Info().Msg("Connected to Jellyfin websocket")

	if err := s.write(conn, jellyfinWSMessage{MessageType: "SessionsStart", Data: json.RawMessage(`"0,1500"`)}); err != nil {
		return true, fmt.Errorf("subscribing to sessions: %w", err)
	}

	done := make(chan struct{})
	defer close(done)
	go s.keepAlive(ctx, conn, done)

	for {
		if err := conn.SetReadDeadline(time.Now().Add(wsReadTimeout)); err != nil {
			return true, err
		}
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return true, fmt.Errorf("connection closed: %w", err)
			}
			return true, fmt.Errorf("reading message: %w", err)
		}
		s.handleMessage(conn, message)
	}
}

// keepAlive pings on an interval and closes conn when ctx ends
func (s *JellyfinEventSource) keepAlive(ctx context.Context, conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(wsKeepAliveInterval)
	defer ticker.Stop()
	flush := time.NewTicker(wsProgressInterval / 2)
	defer flush.Stop()

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			s.writeMu.Lock()
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			s.writeMu.Unlock()
			conn.Close()
			return
		case <-flush.C:
			s.flushPlayback(s.now(), false)
		case <-ticker.C:
			if err := s.write(conn, jellyfinWSMessage{MessageType: "KeepAlive"}); err != nil {
				log.Debug().Err(err).Msg("Keep-alive failed")
				conn.Close()
				return
			}
		}
	}
}

func (s *JellyfinEventSource) write(conn *websocket.Conn, msg jellyfinWSMessage) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := conn.SetWriteDeadline(time.Now().Add(10 * time.Second)); err != nil {
		return err
	}
	return conn.WriteJSON(msg)
}

func (s *JellyfinEventSource) handleMessage(conn *websocket.Conn, data []byte) {
	var msg jellyfinWSMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Debug().Err(err).Msg("Failed to parse websocket message")
		return
	}

	switch msg.MessageType {
	case "Sessions":
		var sessions []jellyfinSession
		if err := json.Unmarshal(msg.Data, &sessions); err != nil {
			log.Debug().Err(err).Msg("Failed to parse sessions")
			return
		}
		s.handleSessions(sessions)

	case "UserDataChanged":
		var changed jellyfinUserDataChanged
		if err := json.Unmarshal(msg.Data, &changed); err != nil {
			log.Debug().Err(err).Msg("Failed to parse user data change")
			return
		}
		s.handleUserDataChanged(changed)

	case "ForceKeepAlive":
		if conn != nil {
			if err := s.write(conn, jellyfinWSMessage{MessageType: "KeepAlive"}); err != nil {
				log.Debug().Err(err).Msg("Keep-alive reply failed")
			}
		}

	case "KeepAlive":

	default:
		log.Trace().Str("type", msg.MessageType).Msg("Ignoring websocket message")
	}
}

func playbackKey(userID, itemID string) string {
	return userID + "/" + itemID
}

// handleSessions records the playing position of every active session.
// A Sessions message lists all sessions, so a (user,item) pair missing from
// it has stopped playing and its held-back position is sent.
func (s *JellyfinEventSource) handleSessions(sessions []jellyfinSession) {
	now := s.now()
	var out []models.Event

	s.playbackMu.Lock()
	active := make(map[string]struct{}, len(sessions))
	for _, session := range sessions {
		if session.NowPlayingItem == nil || session.UserID == "" || session.NowPlayingItem.ID == "" {
			continue
		}

		key := playbackKey(session.UserID, session.NowPlayingItem.ID)
		active[key] = struct{}{}
		event := models.Event{
			Kind:          models.EventProgress,
			UserID:        session.UserID,
			UserName:      session.UserName,
			ItemID:        session.NowPlayingItem.ID,
			PositionTicks: session.PlayState.PositionTicks,
			Source:        eventSourceWS,
		}

		state, ok := s.playback[key]
		if !ok {
			s.playback[key] = &playbackState{latest: event, lastSent: now}
			out = append(out, event)
			continue
		}
		if state.latest.PositionTicks == event.PositionTicks && !state.pending {
			continue
		}
		state.latest = event
		if now.Sub(state.lastSent) >= wsProgressInterval {
			state.lastSent = now
			state.pending = false
			out = append(out, event)
		} else {
			state.pending = true
		}
	}

	for key, state := range s.playback {
		if _, ok := active[key]; ok {
			continue
		}
		if state.pending {
			out = append(out, state.latest)
		}
		delete(s.playback, key)
	}
	s.playbackMu.Unlock()

	for _, event := range out {
		s.emit(event)
	}
}

// flushPlayback sends held-back positions whose window has closed. With all
// set every pending position is sent and the state is reset.
func (s *JellyfinEventSource) flushPlayback(now time.Time, all bool) {
	var out []models.Event

	s.playbackMu.Lock()
	for key, state := range s.playback {
		if state.pending && (all || now.Sub(state.lastSent) >= wsProgressInterval) {
			state.pending = false
			state.lastSent = now
			out = append(out, state.latest)
		}
		if all {
			delete(s.playback, key)
		}
	}
	s.playbackMu.Unlock()

	for _, event := range out {
		s.emit(event)
	}
}

func (s *JellyfinEventSource) handleUserDataChanged(changed jellyfinUserDataChanged) {
	if changed.UserID == "" {
		return
	}

	for _, data := range changed.UserDataList {
		if data.ItemID == "" {
			continue
		}

		key := fmt.Sprintf(cache.CacheKeyPlayedState, changed.UserID, data.ItemID)
		prev, found := s.cache.Swap(key, data.Played, cache.TTLPlayedState)
		wasPlayed, _ := prev.(bool)
		if found && wasPlayed == data.Played {
			continue
		}

		s.emit(models.Event{
			Kind:          models.EventWatched,
			UserID:        changed.UserID,
			ItemID:        data.ItemID,
			PositionTicks: data.PlaybackPositionTicks,
			Played:        data.Played,
			Source:        eventSourceWS,
		})
	}
}

func (s *JellyfinEventSource) emit(event models.Event) {
	metrics.EventsReceived.WithLabelValues(string(event.Kind), event.Source).Inc()
	if s.sink != nil {
		s.sink.Enqueue(event)
	}
}
