package api

import (
	"encoding/json"
	"testing"
	"time"

	"go.uber.org/zap"

	"campus-chat/internal/models"
)

func receive(t *testing.T, ch chan Event) Event {
	t.Helper()
	select {
	case event := <-ch:
		return event
	case <-time.After(time.Second):
		t.Fatal("Timeout waiting for event")
	}
	return Event{}
}

func TestNewEventBroadcaster(t *testing.T) {
	b := NewEventBroadcaster(zap.NewNop())
	if b == nil {
		t.Fatal("NewEventBroadcaster returned nil")
	}
	if b.clients == nil {
		t.Fatal("clients map is nil")
	}
}

func TestEventBroadcaster_Subscribe(t *testing.T) {
	b := NewEventBroadcaster(nil)

	ch := b.Subscribe("chat-1")
	if ch == nil {
		t.Fatal("Subscribe returned nil channel")
	}
	if b.ClientCount("chat-1") != 1 {
		t.Errorf("Expected 1 client, got %d", b.ClientCount("chat-1"))
	}
	if b.TotalClientCount() != 1 {
		t.Errorf("Expected 1 total client, got %d", b.TotalClientCount())
	}
}

func TestEventBroadcaster_MultipleSubscribers(t *testing.T) {
	b := NewEventBroadcaster(nil)

	ch1 := b.Subscribe("chat-1")
	ch2 := b.Subscribe("chat-1")
	ch3 := b.Subscribe("chat-2")

	if b.ClientCount("chat-1") != 2 {
		t.Errorf("Expected 2 clients for chat-1, got %d", b.ClientCount("chat-1"))
	}
	if b.ClientCount("chat-2") != 1 {
		t.Errorf("Expected 1 client for chat-2, got %d", b.ClientCount("chat-2"))
	}
	if b.TotalClientCount() != 3 {
		t.Errorf("Expected 3 total clients, got %d", b.TotalClientCount())
	}

	b.Unsubscribe("chat-1", ch1)
	b.Unsubscribe("chat-1", ch2)
	b.Unsubscribe("chat-2", ch3)
	if b.TotalClientCount() != 0 {
		t.Errorf("Expected 0 total clients, got %d", b.TotalClientCount())
	}
}

func TestEventBroadcaster_UnsubscribeTwice(t *testing.T) {
	b := NewEventBroadcaster(nil)

	ch := b.Subscribe("chat-1")
	b.Unsubscribe("chat-1", ch)
	b.Unsubscribe("chat-1", ch)

	if b.ClientCount("chat-1") != 0 {
		t.Errorf("Expected 0 clients after unsubscribe, got %d", b.ClientCount("chat-1"))
	}
	if _, open := <-ch; open {
		t.Error("Expected channel to be closed")
	}
}

func TestEventBroadcaster_BroadcastToWrongSession(t *testing.T) {
	b := NewEventBroadcaster(nil)

	ch := b.Subscribe("chat-1")
	defer b.Unsubscribe("chat-1", ch)

	b.Broadcast("chat-2", Event{Type: "test", Data: "should not receive"})

	select {
	case <-ch:
		t.Fatal("Should not receive event for different session")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestEventBroadcaster_FullClientMissesEvent(t *testing.T) {
	b := NewEventBroadcaster(nil)

	ch := b.Subscribe("chat-1")
	defer b.Unsubscribe("chat-1", ch)

	for i := 0; i < cap(ch)+5; i++ {
		b.Broadcast("chat-1", Event{Type: "test", Data: i})
	}
	if len(ch) != cap(ch) {
		t.Errorf("Expected buffered events %d, got %d", cap(ch), len(ch))
	}
}

func TestEventBroadcaster_BroadcastMessage(t *testing.T) {
	b := NewEventBroadcaster(nil)

	ch := b.Subscribe("chat-1")
	defer b.Unsubscribe("chat-1", ch)

	b.BroadcastMessage("chat-1", models.Message{ID: "m1", Text: "Hello"})

	event := receive(t, ch)
	if event.Type != "message" {
		t.Errorf("Expected event type 'message', got '%s'", event.Type)
	}
	m, ok := event.Data.(models.Message)
	if !ok {
		t.Fatal("Event data is not models.Message")
	}
	if m.Text != "Hello" {
		t.Errorf("Expected text 'Hello', got '%s'", m.Text)
	}
}

func TestEventBroadcaster_BroadcastTyping(t *testing.T) {
	b := NewEventBroadcaster(nil)

	ch := b.Subscribe(models.AISessionID)
	defer b.Unsubscribe(models.AISessionID, ch)

	b.BroadcastTyping(models.AISessionID, true)

	event := receive(t, ch)
	if event.Type != "typing" {
		t.Errorf("Expected event type 'typing', got '%s'", event.Type)
	}
	data, ok := event.Data.(map[string]any)
	if !ok {
		t.Fatal("Event data is not map[string]any")
	}
	if data["typing"] != true {
		t.Errorf("Expected typing true, got '%v'", data["typing"])
	}
}

func TestEventBroadcaster_BroadcastStatus(t *testing.T) {
	b := NewEventBroadcaster(nil)

	ch := b.Subscribe("chat-3")
	defer b.Unsubscribe("chat-3", ch)

	b.BroadcastStatus("chat-3", models.SessionStatusBlocked)

	event := receive(t, ch)
	if event.Type != "session_status" {
		t.Errorf("Expected event type 'session_status', got '%s'", event.Type)
	}
	data, ok := event.Data.(map[string]any)
	if !ok {
		t.Fatal("Event data is not map[string]any")
	}
	if data["status"] != models.SessionStatusBlocked {
		t.Errorf("Expected status blocked, got '%v'", data["status"])
	}
}

func TestFormatSSE(t *testing.T) {
	event := Event{
		Type: "message",
		Data: map[string]string{"content": "Hello"},
	}

	data, err := FormatSSE(event)
	if err != nil {
		t.Fatalf("FormatSSE returned error: %v", err)
	}

	expected := "event: message\ndata: "
	if len(data) < len(expected) {
		t.Fatalf("FormatSSE output too short")
	}
	if string(data[:len(expected)]) != expected {
		t.Errorf("Expected prefix '%s', got '%s'", expected, string(data[:len(expected)]))
	}

	jsonEnd := len(data) - 2 // trailing \n\n
	var parsed map[string]string
	if err := json.Unmarshal(data[len(expected):jsonEnd], &parsed); err != nil {
		t.Fatalf("Failed to parse JSON data: %v", err)
	}
	if parsed["content"] != "Hello" {
		t.Errorf("Expected content 'Hello', got '%s'", parsed["content"])
	}
}
