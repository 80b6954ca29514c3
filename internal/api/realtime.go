package api

import (
	"encoding/json"
	"io"
	"net/http"
	"slices"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stwalsh4118/grooveray/internal/config"
	"github.com/stwalsh4118/grooveray/internal/logger"
	"github.com/stwalsh4118/grooveray/internal/middleware"
	"github.com/stwalsh4118/grooveray/internal/realtime"
	"github.com/stwalsh4118/grooveray/internal/station"
)

// Websocket client message types
const (
	msgSubscribe   = "subscribe"
	msgUnsubscribe = "unsubscribe"
)

// Websocket server control events, sent alongside station events
const (
	eventSubscribed   = "subscribed"
	eventUnsubscribed = "unsubscribed"
	eventError        = "error"
)

const (
	maxClientMessageBytes = 1024
	defaultPingInterval   = 30 * time.Second
	defaultWriteTimeout   = 10 * time.Second
)

// ClientMessage is what websocket clients send
type ClientMessage struct {
	Type      string `json:"type"`
	StationID string `json:"station_id"`
}

// TimeEvent carries the server clock so clients can correct for skew
type TimeEvent struct {
	ServerTime   time.Time `json:"server_time"`
	ServerTimeMS int64     `json:"server_time_ms"`
}

func newTimeEvent() TimeEvent {
	now := time.Now().UTC()
	return TimeEvent{ServerTime: now, ServerTimeMS: now.UnixMilli()}
}

// RealtimeHandler serves the websocket and SSE transports of the hub
type RealtimeHandler struct {
	hub      *realtime.Hub
	stations *station.StationService
	cfg      config.RealtimeConfig
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

// NewRealtimeHandler creates a new realtime handler instance
func NewRealtimeHandler(hub *realtime.Hub, stations *station.StationService, cfg config.RealtimeConfig) *RealtimeHandler {
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = defaultPingInterval
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = defaultWriteTimeout
	}

	h := &RealtimeHandler{
		hub:      hub,
		stations: stations,
		cfg:      cfg,
		log:      logger.Component("realtime"),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *RealtimeHandler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(h.cfg.AllowedOrigins) == 0 {
		return true
	}
	return slices.Contains(h.cfg.AllowedOrigins, "*") || slices.Contains(h.cfg.AllowedOrigins, origin)
}

// ServeWS handles GET /api/ws. Clients send subscribe and unsubscribe
// messages naming a station and receive that station's events until they
// leave or disconnect.
func (h *RealtimeHandler) ServeWS(c *gin.Context) {
	ws, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Debug().Err(err).Msg("Websocket upgrade failed")
		return
	}

	connID := uuid.NewString()
	conn := h.hub.Connect(connID)
	h.clientLog(c, connID).Msg("Websocket client connected")
	control := make(chan realtime.Event, 8)
	done := make(chan struct{})

	go h.writePump(ws, conn, control, done)

	defer func() {
		h.hub.Disconnect(connID)
		<-done
		_ = ws.Close()
	}()

	h.readPump(c, ws, connID, control)
}

// readPump handles client messages until the socket fails or closes
func (h *RealtimeHandler) readPump(c *gin.Context, ws *websocket.Conn, connID string, control chan<- realtime.Event) {
	pongWait := 2 * h.cfg.PingInterval
	ws.SetReadLimit(maxClientMessageBytes)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	reply := func(ev realtime.Event) {
		select {
		case control <- ev:
		default:
		}
	}

	for {
		var msg ClientMessage
		if err := ws.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug().Err(err).Str("conn_id", connID).Msg("Websocket read failed")
			}
			return
		}

		stationID, err := uuid.Parse(msg.StationID)
		if err != nil {
			reply(realtime.Event{Event: eventError, Data: "invalid station_id"})
			continue
		}

		switch msg.Type {
		case msgSubscribe:
			if err := h.stations.Exists(c.Request.Context(), stationID); err != nil {
				reply(realtime.Event{Event: eventError, StationID: stationID, Data: "station not found"})
				continue
			}
			if err := h.hub.Subscribe(connID, stationID); err != nil {
				return
			}
			reply(realtime.Event{Event: eventSubscribed, StationID: stationID, Data: newTimeEvent()})
		case msgUnsubscribe:
			h.hub.Unsubscribe(connID, stationID)
			reply(realtime.Event{Event: eventUnsubscribed, StationID: stationID})
		default:
			reply(realtime.Event{Event: eventError, Data: "unknown message type"})
		}
	}
}

// writePump is the only writer of the socket
func (h *RealtimeHandler) writePump(ws *websocket.Conn, conn *realtime.Conn, control <-chan realtime.Event, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(h.cfg.PingInterval)
	defer ticker.Stop()

	write := func(ev realtime.Event) bool {
		_ = ws.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout))
		return ws.WriteJSON(ev) == nil
	}

	for {
		select {
		case ev, ok := <-conn.Events():
			if !ok {
				_ = ws.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout))
				_ = ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if !write(ev) {
				// unblock the reader so the connection is torn down
				_ = ws.Close()
				drain(conn)
				return
			}
		case ev := <-control:
			if !write(ev) {
				_ = ws.Close()
				drain(conn)
				return
			}
		case <-ticker.C:
			_ = ws.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout))
			if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = ws.Close()
				drain(conn)
				return
			}
		}
	}
}

// drain discards events until the hub closes the connection
func drain(conn *realtime.Conn) {
	for range conn.Events() {
	}
}

// ServeSSE handles GET /api/stations/:id/events: a server-sent event stream
// of one station, starting with a time event
func (h *RealtimeHandler) ServeSSE(c *gin.Context) {
	stationID, ok := parseIDParam(c, "id", "station")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if err := h.stations.Exists(ctx, stationID); err != nil {
		respondError(c, err, "events")
		return
	}

	connID := uuid.NewString()
	conn := h.hub.Connect(connID)
	defer h.hub.Disconnect(connID)
	if err := h.hub.Subscribe(connID, stationID); err != nil {
		respondError(c, err, "events")
		return
	}
	h.clientLog(c, connID).Str("station_id", stationID.String()).Msg("SSE client connected")

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	sendEvent(c, realtime.EventTime, newTimeEvent())
	c.Writer.Flush()

	ticker := time.NewTicker(h.cfg.PingInterval)
	defer ticker.Stop()

	c.Stream(func(_ io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case ev, ok := <-conn.Events():
			if !ok {
				return false
			}
			sendEvent(c, ev.Event, ev.Data)
			return true
		case <-ticker.C:
			sendEvent(c, realtime.EventTime, newTimeEvent())
			return true
		}
	})
}

// sendEvent writes data as JSON, so a nil payload becomes "null"
func sendEvent(c *gin.Context, event string, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		logger.Log.Error().Err(err).Str("event", event).Msg("Failed to encode event")
		return
	}
	c.SSEvent(event, string(payload))
}

// clientLog starts a connection log entry, tagged with the user when the
// client sent a valid token
func (h *RealtimeHandler) clientLog(c *gin.Context, connID string) *zerolog.Event {
	event := h.log.Info().Str("conn_id", connID)
	if userID, ok := middleware.UserID(c); ok {
		event = event.Str("user_id", userID)
	}
	return event
}

// SetupRealtimeRoutes registers the websocket and SSE endpoints. They are
// long lived and must not sit behind the request timeout. Listening is
// anonymous; a token only labels the connection.
func SetupRealtimeRoutes(apiGroup *gin.RouterGroup, hub *realtime.Hub, stations *station.StationService, auth *middleware.Authenticator, cfg config.RealtimeConfig) {
	handler := NewRealtimeHandler(hub, stations, cfg)
	apiGroup.GET("/ws", auth.OptionalAuth(), handler.ServeWS)
	apiGroup.GET("/stations/:id/events", auth.OptionalAuth(), handler.ServeSSE)
}
