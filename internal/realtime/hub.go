// Package realtime fans station events out to connected listeners.
//
// Delivery is at-most-once and in publish order per connection. There is no
// replay: a connection that subscribes late, or whose buffer is full, simply
// misses events and re-fetches state over HTTP.
package realtime

import (
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/stwalsh4118/grooveray/internal/logger"
	"github.com/stwalsh4118/grooveray/internal/metrics"
)

// Event names
const (
	EventQueue      = "queue"
	EventNowPlaying = "nowPlaying"
	EventTime       = "time"
)

// DefaultBuffer is the per-connection outbound buffer when none is configured
const DefaultBuffer = 32

// ErrUnknownConnection is returned when subscribing a connection that is not registered
var ErrUnknownConnection = errors.New("unknown realtime connection")

// Broadcaster publishes station events. Publishing to a station nobody
// listens to is a no-op.
type Broadcaster interface {
	Publish(stationID uuid.UUID, event string, payload any)
}

// Event is one message delivered to a connection
type Event struct {
	Event     string    `json:"event"`
	StationID uuid.UUID `json:"station_id"`
	Data      any       `json:"data"`
}

// Conn is a registered listener. Events arrive on the channel returned by
// Events until the connection is disconnected, at which point it is closed.
type Conn struct {
	ID   string
	send chan Event

	// guarded by Hub.mu
	stations map[uuid.UUID]struct{}
}

// Events returns the connection's outbound stream
func (c *Conn) Events() <-chan Event {
	return c.send
}

// Hub tracks connections and their station subscriptions
type Hub struct {
	mu       sync.Mutex
	buffer   int
	conns    map[string]*Conn
	stations map[uuid.UUID]map[string]*Conn
}

// NewHub creates a hub whose connections buffer up to buffer events
func NewHub(buffer int) *Hub {
	if buffer < 1 {
		buffer = DefaultBuffer
	}
	return &Hub{
		buffer:   buffer,
		conns:    make(map[string]*Conn),
		stations: make(map[uuid.UUID]map[string]*Conn),
	}
}

// Connect registers a connection. Reusing an ID replaces the old connection.
func (h *Hub) Connect(connID string) *Conn {
	h.mu.Lock()
	defer h.mu.Unlock()

	if old, ok := h.conns[connID]; ok {
		h.removeLocked(old)
	}

	conn := &Conn{
		ID:       connID,
		send:     make(chan Event, h.buffer),
		stations: make(map[uuid.UUID]struct{}),
	}
	h.conns[connID] = conn
	metrics.RealtimeConnections.Inc()

	logger.Log.Debug().Str("conn_id", connID).Msg("Realtime connection registered")
	return conn
}

// Disconnect drops a connection and all of its subscriptions
func (h *Hub) Disconnect(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if conn, ok := h.conns[connID]; ok {
		h.removeLocked(conn)
		logger.Log.Debug().Str("conn_id", connID).Msg("Realtime connection closed")
	}
}

func (h *Hub) removeLocked(conn *Conn) {
	for stationID := range conn.stations {
		h.unsubscribeLocked(conn, stationID)
	}
	delete(h.conns, conn.ID)
	close(conn.send)
	metrics.RealtimeConnections.Dec()
}

// Subscribe starts delivering a station's events to a connection. Subscribing
// twice is harmless.
func (h *Hub) Subscribe(connID string, stationID uuid.UUID) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	conn, ok := h.conns[connID]
	if !ok {
		return ErrUnknownConnection
	}

	subs, ok := h.stations[stationID]
	if !ok {
		subs = make(map[string]*Conn)
		h.stations[stationID] = subs
	}
	subs[connID] = conn
	conn.stations[stationID] = struct{}{}
	return nil
}

// Unsubscribe stops delivering a station's events to a connection
func (h *Hub) Unsubscribe(connID string, stationID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if conn, ok := h.conns[connID]; ok {
		h.unsubscribeLocked(conn, stationID)
	}
}

func (h *Hub) unsubscribeLocked(conn *Conn, stationID uuid.UUID) {
	delete(conn.stations, stationID)
	if subs, ok := h.stations[stationID]; ok {
		delete(subs, conn.ID)
		if len(subs) == 0 {
			delete(h.stations, stationID)
		}
	}
}

// Publish delivers an event to every subscriber of the station without
// blocking. Publishes are serialised so all subscribers observe the same order.
func (h *Hub) Publish(stationID uuid.UUID, event string, payload any) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs := h.stations[stationID]
	if len(subs) == 0 {
		return
	}

	msg := Event{Event: event, StationID: stationID, Data: payload}
	for _, conn := range subs {
		select {
		case conn.send <- msg:
			metrics.RealtimeEvents.WithLabelValues(event).Inc()
		default:
			metrics.RealtimeDropped.WithLabelValues(event).Inc()
			logger.Log.Warn().
				Str("conn_id", conn.ID).
				Str("station_id", stationID.String()).
				Str("event", event).
				Msg("Realtime buffer full, dropping event")
		}
	}
}

// SubscriberCount returns how many connections listen to a station
func (h *Hub) SubscriberCount(stationID uuid.UUID) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.stations[stationID])
}

// ConnectionCount returns the number of registered connections
func (h *Hub) ConnectionCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}
