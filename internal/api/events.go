package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"swiftgo/pkg/sim"
)

const (
	writeWait    = 10 * time.Second
	pingInterval = 30 * time.Second
	clientBuffer = 64
)

// Event types pushed to websocket clients.
const (
	EventConnection = "connection"
	EventRendering  = "rendering"
	EventAddFailed  = "add_failed"
)

// Event is one lifecycle notification.
type Event struct {
	Type     string    `json:"type"`
	Callsign string    `json:"callsign,omitempty"`
	State    sim.State `json:"state,omitempty"`
	Rendered bool      `json:"rendered,omitempty"`
	Disabled bool      `json:"disabled,omitempty"`
	Message  string    `json:"message,omitempty"`
	At       time.Time `json:"at"`
}

type subscriber struct {
	conn *websocket.Conn
	send chan []byte
}

// EventHub streams manager notifications to websocket clients. It is a
// sim.StatusListener and never blocks the caller: slow clients are dropped.
type EventHub struct {
	upgrader websocket.Upgrader
	now      func() time.Time

	mu      sync.Mutex
	clients map[*subscriber]struct{}
}

var _ sim.StatusListener = (*EventHub)(nil)

// NewEventHub creates an empty hub.
func NewEventHub() *EventHub {
	return &EventHub{
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		now:      time.Now,
		clients:  make(map[*subscriber]struct{}),
	}
}

// ServeHTTP upgrades the request and streams events until the client leaves.
func (h *EventHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Debug("Websocket upgrade failed", "error", err)
		return
	}
	s := &subscriber{conn: conn, send: make(chan []byte, clientBuffer)}
	h.mu.Lock()
	h.clients[s] = struct{}{}
	h.mu.Unlock()
	slog.Debug("Event client connected", "remote", r.RemoteAddr)

	go h.writeLoop(s)

	// Clients only listen; reading detects the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.drop(s)
}

func (h *EventHub) writeLoop(s *subscriber) {
	ping := time.NewTicker(pingInterval)
	defer ping.Stop()
	defer s.conn.Close()
	for {
		select {
		case msg, ok := <-s.send:
			if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if !ok {
				_ = s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ping.C:
			if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *EventHub) drop(s *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[s]; ok {
		delete(h.clients, s)
		close(s.send)
	}
}

// Clients returns the number of connected clients.
func (h *EventHub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Broadcast sends ev to every client.
func (h *EventHub) Broadcast(ev Event) {
	if ev.At.IsZero() {
		ev.At = h.now()
	}
	msg, err := json.Marshal(ev)
	if err != nil {
		slog.Error("Encoding event failed", "error", err)
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.clients {
		select {
		case s.send <- msg:
		default:
			slog.Warn("Event client too slow, dropping")
			delete(h.clients, s)
			close(s.send)
		}
	}
}

// Close disconnects all clients.
func (h *EventHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.clients {
		delete(h.clients, s)
		close(s.send)
	}
}

func (h *EventHub) PhysicallyAddingRemoteModelFailed(ac sim.Aircraft, disabled bool, message string) {
	h.Broadcast(Event{Type: EventAddFailed, Callsign: ac.Callsign, Disabled: disabled, Message: message})
}

func (h *EventHub) ConnectionStatusChanged(_, to sim.State) {
	h.Broadcast(Event{Type: EventConnection, State: to})
}

func (h *EventHub) AircraftRenderingChanged(ac sim.Aircraft, rendered bool) {
	h.Broadcast(Event{Type: EventRendering, Callsign: ac.Callsign, Rendered: rendered})
}
