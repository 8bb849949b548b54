package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/mo0hamed-shoaib/naafe-backend/internal/service"
	"github.com/mo0hamed-shoaib/naafe-backend/internal/ws"
)

// WSHandler upgrades connections for the real-time negotiation feed.
type WSHandler struct {
	hub          *ws.Hub
	tokenManager *service.TokenManager
	upgrader     websocket.Upgrader
}

// NewWSHandler creates the handler.
func NewWSHandler(hub *ws.Hub, tokens *service.TokenManager) *WSHandler {
	return &WSHandler{
		hub:          hub,
		tokenManager: tokens,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Handle serves GET /api/ws?token=...
func (h *WSHandler) Handle(c *gin.Context) {
	rawToken := c.Query("token")
	if rawToken == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "access token is required"})
		return
	}

	userID, _, err := h.tokenManager.ParseAccess(rawToken)
	if err != nil || userID == uuid.Nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "access token is invalid"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	client := ws.NewClient(conn, h.hub, userID)
	h.hub.Register(client)

	client.Run(c.Request.Context())
}
