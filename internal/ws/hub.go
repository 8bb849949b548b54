package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mo0hamed-shoaib/naafe-backend/internal/goroutine"
	"github.com/mo0hamed-shoaib/naafe-backend/internal/logger"
)

// NotificationSaver persists an event so offline parties see it later.
type NotificationSaver interface {
	CreateNotification(ctx context.Context, userID uuid.UUID, event string, data interface{}) error
}

// Hub manages all WebSocket clients. Negotiation and lifecycle events are
// fanned out to every open connection of the target user.
type Hub struct {
	mu                sync.RWMutex
	clients           map[uuid.UUID]map[*Client]struct{}
	register          chan *Client
	unregister        chan *Client
	broadcast         chan message
	notificationSaver NotificationSaver
	ctx               context.Context
}

type message struct {
	userID  uuid.UUID
	payload []byte
}

// NewHub creates a hub bound to the server lifetime context.
func NewHub(ctx context.Context) *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan message, 32),
		ctx:        ctx,
	}
}

// SetNotificationSaver installs the persistence hook for broadcast events.
func (h *Hub) SetNotificationSaver(saver NotificationSaver) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.notificationSaver = saver
}

// Run is the hub's main loop. It exits when the hub's context is cancelled.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case msg := <-h.broadcast:
			h.send(msg.userID, msg.payload)
		case <-h.ctx.Done():
			return
		}
	}
}

// Register adds a client.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a client.
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// BroadcastToUser sends an event to one user and persists it as a
// notification. The wire envelope is {"type": event, "data": payload}.
func (h *Hub) BroadcastToUser(userID uuid.UUID, event string, data any) error {
	payload := map[string]any{
		"type": event,
		"data": data,
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("ws: marshal message: %w", err)
	}

	h.mu.RLock()
	saver := h.notificationSaver
	h.mu.RUnlock()

	if saver != nil {
		// Persist asynchronously so a slow database never delays delivery.
		// The write runs on its own deadline, detached from the server
		// context: an event emitted during shutdown drain must still land.
		goroutine.SafeGo(func() {
			ctx, cancel := context.WithTimeout(context.WithoutCancel(h.ctx), 5*time.Second)
			defer cancel()
			if err := saver.CreateNotification(ctx, userID, event, data); err != nil {
				logger.Log.Errorf("ws: save notification: %v", err)
			}
		})
	}

	h.broadcast <- message{userID: userID, payload: raw}
	return nil
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.userID]; !ok {
		h.clients[client.userID] = make(map[*Client]struct{})
	}
	h.clients[client.userID][client] = struct{}{}
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.clients[client.userID]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.clients, client.userID)
		}
	}
}

func (h *Hub) send(userID uuid.UUID, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients[userID] {
		select {
		case client.send <- payload:
		default:
			// Slow consumer, drop the connection off the hot path.
			goroutine.SafeGo(client.Close)
		}
	}
}
