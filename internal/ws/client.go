package ws

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/mo0hamed-shoaib/naafe-backend/internal/logger"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Client represents a single WebSocket connection.
type Client struct {
	conn   *websocket.Conn
	hub    *Hub
	userID uuid.UUID
	send   chan []byte
}

// NewClient creates a client for an upgraded connection.
func NewClient(conn *websocket.Conn, hub *Hub, userID uuid.UUID) *Client {
	return &Client{
		conn:   conn,
		hub:    hub,
		userID: userID,
		send:   make(chan []byte, 16),
	}
}

// Run processes inbound and outbound traffic until the connection dies.
func (c *Client) Run(ctx context.Context) {
	go c.writePumpSafe()
	c.readPump(ctx)
}

func (c *Client) writePumpSafe() {
	defer func() {
		if r := recover(); r != nil {
			logger.Log.Errorf("ws: writePump panic recovered: %v\n%s", r, debug.Stack())
			c.Close()
		}
	}()
	c.writePump()
}

// Close unregisters the client and closes the connection.
func (c *Client) Close() {
	c.hub.Unregister(c)
	c.conn.Close()
}

func (c *Client) readPump(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			logger.Log.Errorf("ws: readPump panic recovered: %v\n%s", r, debug.Stack())
		}
		c.Close()
	}()

	c.conn.SetReadLimit(512 * 1024)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		select {
		case <-ctx.Done():
			return
		default:
			// Clients only receive; inbound frames keep the deadline fresh.
			_, _, err := c.conn.ReadMessage()
			if err != nil {
				return
			}
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
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
