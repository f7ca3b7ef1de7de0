// Package ws pushes live capacity updates to clients watching an inventory
// item, so browsers see seats disappear as other users book them.
package ws

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Zeeshan-Hamid/Travel-Ease/internal/models"
)

// MessageType represents the type of WebSocket message.
type MessageType string

const (
	MessageTypeCapacityUpdated MessageType = "capacity_updated"
)

// Message is a capacity snapshot pushed to watchers of an item.
type Message struct {
	Type      MessageType `json:"type"`
	ItemID    string      `json:"itemId"`
	Capacity  int         `json:"capacity"`
	Version   int64       `json:"version"`
	Timestamp int64       `json:"timestamp"`
}

// Client is one WebSocket connection watching one item.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	itemID uuid.UUID
}

// Hub manages WebSocket connections per inventory item.
type Hub struct {
	clients    map[uuid.UUID]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan *Message
	logger     *zap.Logger
	mu         sync.RWMutex
}

// NewHub creates a hub. Call Run on it before serving connections.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients:    make(map[uuid.UUID]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *Message, 256),
		logger:     logger,
	}
}

// Run starts the hub's main loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.itemID] == nil {
				h.clients[client.itemID] = make(map[*Client]bool)
			}
			h.clients[client.itemID][client] = true
			h.mu.Unlock()
			h.logger.Debug("ws client registered", zap.String("itemId", client.itemID.String()))

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.clients[client.itemID]; ok {
				if _, ok := clients[client]; ok {
					delete(clients, client)
					close(client.send)
					if len(clients) == 0 {
						delete(h.clients, client.itemID)
					}
				}
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			itemID, err := uuid.Parse(message.ItemID)
			if err != nil {
				continue
			}

			data, err := json.Marshal(message)
			if err != nil {
				h.logger.Warn("failed to marshal ws message", zap.Error(err))
				continue
			}

			h.mu.RLock()
			clients := h.clients[itemID]
			h.mu.RUnlock()

			for client := range clients {
				select {
				case client.send <- data:
				default:
					h.mu.Lock()
					delete(h.clients[itemID], client)
					close(client.send)
					h.mu.Unlock()
				}
			}
		}
	}
}

// NotifyCapacity broadcasts a capacity snapshot to everyone watching the
// item. Implements the reservation service's CapacityNotifier.
func (h *Hub) NotifyCapacity(item *models.InventoryItem) {
	msg := &Message{
		Type:      MessageTypeCapacityUpdated,
		ItemID:    item.ID.String(),
		Capacity:  item.Capacity,
		Version:   item.Version,
		Timestamp: time.Now().UnixMilli(),
	}
	select {
	case h.broadcast <- msg:
	default:
		// Queue full. The next update carries the current capacity.
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ServeHTTP upgrades GET /api/items/{id}/ws connections.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	itemID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid item id", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", zap.Error(err))
		return
	}

	client := &Client{
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, 16),
		itemID: itemID,
	}
	h.register <- client

	go client.writePump()
	go client.readPump()
}

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		// Clients never send application data; the read loop just detects
		// disconnects and keeps the pong handler running.
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
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
