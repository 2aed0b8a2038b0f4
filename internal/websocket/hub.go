package websocket

import (
	"encoding/json"
	"log"
	"sync"
	"time"
)

// Hub maintains active WebSocket connections and delivers booking lifecycle
// events to the affected user or driver.
type Hub struct {
	// Registered clients (userID -> Client)
	clients map[string]*Client

	// Outbound events
	broadcast chan *Message

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	mu sync.RWMutex
}

// Message carries one event addressed to a single user.
type Message struct {
	UserID string
	Data   interface{}
}

// Event is the wire format for booking lifecycle notifications.
type Event struct {
	Type      string  `json:"type"`
	BookingID string  `json:"booking_id"`
	Status    string  `json:"status"`
	Fare      float64 `json:"fare,omitempty"`
	Timestamp int64   `json:"timestamp"`
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		broadcast:  make(chan *Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// NotifyBooking queues a lifecycle event for the given user. Safe to call
// with an empty userID (no assigned driver yet) — the event is dropped.
func (h *Hub) NotifyBooking(userID, eventType, bookingID, status string, fare float64) {
	if h == nil || userID == "" {
		return
	}
	h.broadcast <- &Message{
		UserID: userID,
		Data: Event{
			Type:      eventType,
			BookingID: bookingID,
			Status:    status,
			Fare:      fare,
			Timestamp: time.Now().Unix(),
		},
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.UserID] = client
			h.mu.Unlock()
			log.Printf("✅ [WEBSOCKET] Client connected: %s (total: %d)", client.UserID, h.clientCount())

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.UserID]; ok {
				delete(h.clients, client.UserID)
				close(client.send)
				log.Printf("🔴 [WEBSOCKET] Client disconnected: %s (remaining: %d)", client.UserID, len(h.clients))
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.Lock()
			if client, ok := h.clients[message.UserID]; ok {
				data, err := json.Marshal(message.Data)
				if err != nil {
					log.Printf("❌ Failed to marshal message: %v", err)
					h.mu.Unlock()
					continue
				}

				select {
				case client.send <- data:
				default:
					// Client buffer full, disconnect
					close(client.send)
					delete(h.clients, message.UserID)
					log.Printf("⚠️ Client buffer full, disconnecting: %s", message.UserID)
				}
			}
			h.mu.Unlock()
		}
	}
}

func (h *Hub) clientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
