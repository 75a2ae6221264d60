package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wricardo/agent-office/game/engine"
)

func newTestClient(hub *Hub, officeID string) *Client {
	return &Client{
		hub:      hub,
		officeID: officeID,
		send:     make(chan []byte, sendBuffer),
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met within timeout")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestNewHub(t *testing.T) {
	hub := NewHub()

	if hub.offices == nil {
		t.Error("Hub offices map is nil")
	}
	if hub.broadcast == nil || hub.register == nil || hub.unregister == nil {
		t.Error("Hub channels not initialized")
	}
}

func TestHubRegisterAndUnregister(t *testing.T) {
	hub := NewHub()
	client1 := newTestClient(hub, "office-1")
	client2 := newTestClient(hub, "office-1")

	hub.registerClient(client1)
	hub.registerClient(client2)
	if hub.ClientCount("office-1") != 2 {
		t.Errorf("Expected 2 clients, got %d", hub.ClientCount("office-1"))
	}

	hub.unregisterClient(client1)
	if hub.ClientCount("office-1") != 1 {
		t.Errorf("Expected 1 client remaining, got %d", hub.ClientCount("office-1"))
	}
	if _, ok := <-client1.send; ok {
		t.Error("Expected send channel of unregistered client to be closed")
	}

	hub.unregisterClient(client2)
	if _, exists := hub.offices["office-1"]; exists {
		t.Error("Office should be cleaned up after last client unregistered")
	}

	// unregistering twice is harmless
	hub.unregisterClient(client2)
}

func TestHubBroadcastMessage(t *testing.T) {
	hub := NewHub()
	watcher := newTestClient(hub, "office-1")
	other := newTestClient(hub, "office-2")
	hub.registerClient(watcher)
	hub.registerClient(other)

	snap := &engine.Snapshot{Tick: 7, Cols: 3, Rows: 2}
	hub.broadcastMessage(&Message{OfficeID: "office-1", Event: EventSnapshot, Snapshot: snap})

	select {
	case data := <-watcher.send:
		var message Message
		if err := json.Unmarshal(data, &message); err != nil {
			t.Fatalf("Failed to unmarshal message: %v", err)
		}
		if message.OfficeID != "office-1" || message.Event != EventSnapshot {
			t.Errorf("Unexpected message %+v", message)
		}
		if message.Snapshot == nil || message.Snapshot.Tick != 7 {
			t.Error("Snapshot not correctly transmitted")
		}
	default:
		t.Fatal("No message queued for watcher")
	}

	select {
	case <-other.send:
		t.Error("Client of another office received the message")
	default:
	}
}

func TestHubDropsSlowClient(t *testing.T) {
	hub := NewHub()
	slow := &Client{hub: hub, officeID: "office-1", send: make(chan []byte, 1)}
	hub.registerClient(slow)

	hub.broadcastMessage(&Message{OfficeID: "office-1", Event: EventAgent})
	hub.broadcastMessage(&Message{OfficeID: "office-1", Event: EventAgent})

	if hub.ClientCount("office-1") != 0 {
		t.Error("Expected slow client to be dropped")
	}
}

func TestHubPublishSkipsUnwatchedOffices(t *testing.T) {
	hub := NewHub()
	hub.Publish("nobody", &engine.Snapshot{})
	if len(hub.broadcast) != 0 {
		t.Errorf("Expected no queued frames, got %d", len(hub.broadcast))
	}

	hub.registerClient(newTestClient(hub, "watched"))
	hub.Publish("watched", &engine.Snapshot{})
	if len(hub.broadcast) != 1 {
		t.Errorf("Expected 1 queued frame, got %d", len(hub.broadcast))
	}
}

func TestHubBroadcastEvent(t *testing.T) {
	hub := NewHub()
	hub.BroadcastEvent("event-test", EventLayout, "payload")

	select {
	case message := <-hub.broadcast:
		if message.OfficeID != "event-test" || message.Event != EventLayout || message.Data != "payload" {
			t.Errorf("Unexpected message %+v", message)
		}
	default:
		t.Fatal("No broadcast message queued")
	}
}

func TestWebSocketSnapshotStream(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub()
	go hub.Run(ctx)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r, r.URL.Query().Get("office"), &engine.Snapshot{Tick: 1})
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "?office=ws-test"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect to WebSocket: %v", err)
	}
	defer conn.Close()

	read := func() Message {
		t.Helper()
		conn.SetReadDeadline(time.Now().Add(time.Second))
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("Failed to read WebSocket message: %v", err)
		}
		var message Message
		if err := json.Unmarshal(data, &message); err != nil {
			t.Fatalf("Failed to unmarshal message: %v", err)
		}
		return message
	}

	if first := read(); first.Snapshot == nil || first.Snapshot.Tick != 1 {
		t.Fatalf("Expected initial snapshot at tick 1, got %+v", first)
	}

	waitFor(t, func() bool { return hub.ClientCount("ws-test") == 1 })
	hub.Publish("ws-test", &engine.Snapshot{Tick: 2})

	if next := read(); next.Snapshot == nil || next.Snapshot.Tick != 2 {
		t.Fatalf("Expected published snapshot at tick 2, got %+v", next)
	}

	conn.Close()
	waitFor(t, func() bool { return hub.ClientCount("ws-test") == 0 })
}
