package api

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"campus-chat/internal/logging"
	"campus-chat/internal/models"
)

// Event is a Server-Sent Event
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// EventBroadcaster manages SSE clients and fans events out per session
type EventBroadcaster struct {
	mu      sync.RWMutex
	clients map[string]map[chan Event]struct{} // sessionID -> clients
	logger  *zap.Logger
}

// NewEventBroadcaster creates a new event broadcaster
func NewEventBroadcaster(logger *zap.Logger) *EventBroadcaster {
	return &EventBroadcaster{
		clients: make(map[string]map[chan Event]struct{}),
		logger:  logging.Named(logger, "sse"),
	}
}

// Subscribe adds a client for a session's events
func (b *EventBroadcaster) Subscribe(sessionID string) chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, 10)

	if b.clients[sessionID] == nil {
		b.clients[sessionID] = make(map[chan Event]struct{})
	}
	b.clients[sessionID][ch] = struct{}{}

	b.logger.Debug("Client subscribed",
		zap.String("session_id", sessionID),
		zap.Int("total_clients", len(b.clients[sessionID])))

	return ch
}

// Unsubscribe removes a client and closes its channel
func (b *EventBroadcaster) Unsubscribe(sessionID string, ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if clients, ok := b.clients[sessionID]; ok {
		if _, subscribed := clients[ch]; subscribed {
			delete(clients, ch)
			close(ch)
		}
		if len(clients) == 0 {
			delete(b.clients, sessionID)
		}
	}

	b.logger.Debug("Client unsubscribed", zap.String("session_id", sessionID))
}

// Broadcast sends an event to every client of the session.
// A client whose buffer is full misses the event.
func (b *EventBroadcaster) Broadcast(sessionID string, event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	clients := b.clients[sessionID]
	if len(clients) == 0 {
		return
	}

	b.logger.Debug("Broadcasting event",
		zap.String("type", event.Type),
		zap.String("session_id", sessionID),
		zap.Int("clients", len(clients)))

	for ch := range clients {
		select {
		case ch <- event:
		default:
			b.logger.Warn("Client channel full, skipping event", zap.String("session_id", sessionID))
		}
	}
}

// BroadcastMessage sends a new message event
func (b *EventBroadcaster) BroadcastMessage(sessionID string, message any) {
	b.Broadcast(sessionID, Event{Type: "message", Data: message})
}

// BroadcastTyping sends the AI typing indicator
func (b *EventBroadcaster) BroadcastTyping(sessionID string, typing bool) {
	b.Broadcast(sessionID, Event{
		Type: "typing",
		Data: map[string]any{"typing": typing},
	})
}

// BroadcastStatus sends a session status change
func (b *EventBroadcaster) BroadcastStatus(sessionID string, status models.SessionStatus) {
	b.Broadcast(sessionID, Event{
		Type: "session_status",
		Data: map[string]any{"session_id": sessionID, "status": status},
	})
}

// ClientCount returns the number of clients subscribed to a session
func (b *EventBroadcaster) ClientCount(sessionID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients[sessionID])
}

// TotalClientCount returns the number of clients across all sessions
func (b *EventBroadcaster) TotalClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	total := 0
	for _, clients := range b.clients {
		total += len(clients)
	}
	return total
}

// FormatSSE formats an event in SSE wire format
func FormatSSE(event Event) ([]byte, error) {
	data, err := json.Marshal(event.Data)
	if err != nil {
		return nil, err
	}
	return []byte("event: " + event.Type + "\ndata: " + string(data) + "\n\n"), nil
}
