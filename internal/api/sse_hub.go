package api

import (
	"encoding/json"
	"io"
	"sync"
	"time"

	"shoptrends/internal"

	"github.com/gin-gonic/gin"
)

// Event types pushed to dashboard pages
const (
	EventOutputs = "outputs"
	EventReset   = "reset"
	EventExpired = "expired"
)

// SSEClient is one open event stream
type SSEClient struct {
	SessionID string
	Channel   chan DashboardEvent
}

// DashboardEvent carries the outputs of one tick to a session's pages
type DashboardEvent struct {
	SessionID string      `json:"session_id"`
	EventType string      `json:"event_type"`
	Tick      uint64      `json:"tick"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// SSEHub fans events out to every stream of a session. Sends never block: a full
// client channel drops the event for that client.
type SSEHub struct {
	clients    map[string]map[chan DashboardEvent]bool
	clientsMu  sync.RWMutex
	register   chan SSEClient
	unregister chan SSEClient
	broadcast  chan DashboardEvent
	done       chan struct{}
	logger     *internal.Logger

	// KeepAlive is the ping interval of idle streams
	KeepAlive time.Duration
}

// NewSSEHub creates a hub and starts its loop
func NewSSEHub(logger *internal.Logger) *SSEHub {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	hub := &SSEHub{
		clients:    make(map[string]map[chan DashboardEvent]bool),
		register:   make(chan SSEClient, 10),
		unregister: make(chan SSEClient, 10),
		broadcast:  make(chan DashboardEvent, 100),
		done:       make(chan struct{}),
		logger:     logger,
		KeepAlive:  30 * time.Second,
	}

	go hub.run()
	return hub
}

// run processes SSE hub operations
func (h *SSEHub) run() {
	for {
		select {
		case <-h.done:
			return

		case client := <-h.register:
			h.clientsMu.Lock()
			if h.clients[client.SessionID] == nil {
				h.clients[client.SessionID] = make(map[chan DashboardEvent]bool)
			}
			h.clients[client.SessionID][client.Channel] = true
			h.logger.Debug("[SSE] Client registered for session %s (total clients: %d)",
				client.SessionID, len(h.clients[client.SessionID]))
			h.clientsMu.Unlock()

		case client := <-h.unregister:
			h.clientsMu.Lock()
			if clients, exists := h.clients[client.SessionID]; exists {
				delete(clients, client.Channel)
				h.logger.Debug("[SSE] Client unregistered from session %s (remaining clients: %d)",
					client.SessionID, len(clients))
				if len(clients) == 0 {
					delete(h.clients, client.SessionID)
				}
			}
			h.clientsMu.Unlock()

		case event := <-h.broadcast:
			h.clientsMu.RLock()
			for clientChan := range h.clients[event.SessionID] {
				select {
				case clientChan <- event:
				default:
					h.logger.Warn("[SSE] Client channel full for session %s, skipping event", event.SessionID)
				}
			}
			h.clientsMu.RUnlock()
		}
	}
}

// Stop ends the hub loop
func (h *SSEHub) Stop() {
	close(h.done)
}

// Broadcast queues an event for every stream of event.SessionID
func (h *SSEHub) Broadcast(event DashboardEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	select {
	case h.broadcast <- event:
	default:
		h.logger.Warn("[SSE] Broadcast channel full, dropping event: %s", event.EventType)
	}
}

// Subscribe registers a stream for sessionID. The returned cancel function must be
// called when the stream ends.
func (h *SSEHub) Subscribe(sessionID string) (<-chan DashboardEvent, func()) {
	ch := make(chan DashboardEvent, 10)
	h.register <- SSEClient{SessionID: sessionID, Channel: ch}
	return ch, func() {
		h.unregister <- SSEClient{SessionID: sessionID, Channel: ch}
	}
}

// Stream writes events for sessionID to the response until the client goes away
func (h *SSEHub) Stream(c *gin.Context, sessionID string) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	events, cancel := h.Subscribe(sessionID)
	defer cancel()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case event := <-events:
			eventJSON, err := json.Marshal(event)
			if err != nil {
				h.logger.Error("[SSE] Failed to marshal event: %v", err)
				return true
			}
			c.SSEvent(event.EventType, string(eventJSON))
			return event.EventType != EventExpired

		case <-time.After(h.KeepAlive):
			c.SSEvent("ping", `{"status": "alive", "timestamp": "`+time.Now().Format(time.RFC3339)+`"}`)
			return true

		case <-ctx.Done():
			return false
		}
	})
}

// ActiveSessions returns sessions with open streams
func (h *SSEHub) ActiveSessions() []string {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()

	sessions := make([]string, 0, len(h.clients))
	for sessionID := range h.clients {
		sessions = append(sessions, sessionID)
	}
	return sessions
}

// ClientCount returns the number of open streams of a session
func (h *SSEHub) ClientCount(sessionID string) int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients[sessionID])
}
