package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/inconshreveable/log15/v3"

	"github.com/wricardo/agent-office/game/engine"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512

	// Queued outbound frames per client before it is dropped as slow.
	sendBuffer = 64
)

// Event names sent to clients
const (
	EventSnapshot      = "snapshot"
	EventAgent         = "agent"
	EventLayout        = "layout_changed"
	EventOfficeDeleted = "office_deleted"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Message is one frame sent to clients of an office
type Message struct {
	OfficeID string           `json:"office_id"`
	Event    string           `json:"event"`
	Snapshot *engine.Snapshot `json:"snapshot,omitempty"`
	Data     any              `json:"data,omitempty"`
}

// Client represents a WebSocket client
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	send     chan []byte
	officeID string
}

// Hub maintains the set of active clients per office and fans out frames
type Hub struct {
	// Registered clients by office ID
	offices map[string]map[*Client]bool
	mu      sync.RWMutex

	// Outbound messages
	broadcast chan *Message

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	logger log15.Logger
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	return &Hub{
		offices:    make(map[string]map[*Client]bool),
		broadcast:  make(chan *Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     log15.New("module", "websocket"),
	}
}

// Run processes hub events until ctx is done
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastMessage(message)
		}
	}
}

// ServeWS upgrades the request and subscribes the connection to an office.
// A non-nil initial snapshot is sent before any broadcast.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, officeID string, initial *engine.Snapshot) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "err", err)
		return
	}

	client := &Client{
		hub:      h,
		conn:     conn,
		send:     make(chan []byte, sendBuffer),
		officeID: officeID,
	}
	if initial != nil {
		if data, err := json.Marshal(&Message{OfficeID: officeID, Event: EventSnapshot, Snapshot: initial}); err == nil {
			client.send <- data
		}
	}

	h.register <- client

	go client.writePump()
	go client.readPump()
}

// Publish queues a tick snapshot for the clients of an office. It never
// blocks the caller; frames are dropped when the hub is saturated.
func (h *Hub) Publish(officeID string, snap *engine.Snapshot) {
	if h.ClientCount(officeID) == 0 {
		return
	}
	h.enqueue(&Message{OfficeID: officeID, Event: EventSnapshot, Snapshot: snap})
}

// BroadcastEvent sends a custom event to all clients of an office
func (h *Hub) BroadcastEvent(officeID string, event string, data any) {
	h.enqueue(&Message{OfficeID: officeID, Event: event, Data: data})
}

func (h *Hub) enqueue(message *Message) {
	select {
	case h.broadcast <- message:
	default:
		h.logger.Debug("hub saturated, dropping frame", "office", message.OfficeID, "event", message.Event)
	}
}

// ClientCount returns the number of clients watching an office
func (h *Hub) ClientCount(officeID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.offices[officeID])
}

// registerClient adds a client to an office
func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.offices[client.officeID] == nil {
		h.offices[client.officeID] = make(map[*Client]bool)
	}
	h.offices[client.officeID][client] = true

	h.logger.Debug("client registered", "office", client.officeID, "clients", len(h.offices[client.officeID]))
}

// unregisterClient removes a client from an office
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.offices[client.officeID]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}
	delete(clients, client)
	close(client.send)

	if len(clients) == 0 {
		delete(h.offices, client.officeID)
	}
	h.logger.Debug("client unregistered", "office", client.officeID, "clients", len(clients))
}

// broadcastMessage sends a message to all clients of an office. Clients
// whose queue is full are dropped.
func (h *Hub) broadcastMessage(message *Message) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.offices[message.OfficeID]))
	for client := range h.offices[message.OfficeID] {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	if len(clients) == 0 {
		return
	}

	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("failed to marshal message", "office", message.OfficeID, "err", err)
		return
	}

	for _, client := range clients {
		select {
		case client.send <- data:
		default:
			h.logger.Warn("dropping slow client", "office", message.OfficeID)
			h.unregisterClient(client)
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, clients := range h.offices {
		for client := range clients {
			close(client.send)
		}
		delete(h.offices, id)
	}
}

// readPump drains the connection so pongs and close frames are processed
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Debug("websocket read error", "office", c.officeID, "err", err)
			}
			break
		}
	}
}

// writePump pumps messages from the hub to the WebSocket connection.
// Each frame is written as its own message.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
