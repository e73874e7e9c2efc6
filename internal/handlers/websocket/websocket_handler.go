// internal/handlers/websocket/websocket_handler.go
package websocket

import (
	"net/http"
	"strings"

	"attendance-service/internal/pkg/response"
	ws "attendance-service/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// TODO: restrict origins once the dashboard host list is known
		return true
	},
}

type WebSocketHandler struct {
	hub    *ws.Hub
	logger *zap.Logger
}

func NewWebSocketHandler(hub *ws.Hub, logger *zap.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		hub:    hub,
		logger: logger,
	}
}

// HandleConnection authenticates and upgrades a dashboard feed connection
func (h *WebSocketHandler) HandleConnection(c *gin.Context) {
	token := h.extractToken(c)
	if token == "" {
		response.Error(c, http.StatusUnauthorized, "missing authentication token", nil)
		return
	}

	auth, err := h.hub.AuthenticateClient(c.Request.Context(), token)
	if err != nil {
		h.logger.Error("websocket authentication failed",
			zap.Error(err),
			zap.String("ip", c.ClientIP()),
		)
		response.Error(c, http.StatusUnauthorized, "authentication failed", err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed",
			zap.Error(err),
			zap.String("ip", c.ClientIP()),
		)
		return
	}

	h.logger.Info("websocket client connected",
		zap.Int64("identity_id", auth.IdentityID),
		zap.String("username", auth.Username),
	)

	// Start blocks until the connection drops
	client := ws.NewClient(h.hub, conn, auth)
	go client.Start()
}

// Stats exposes hub connection counts (superadmin only)
func (h *WebSocketHandler) Stats(c *gin.Context) {
	response.Success(c, http.StatusOK, "websocket stats", h.hub.Stats())
}

// extractToken reads the token from the query param or Authorization header.
// Browsers cannot set headers on websocket handshakes, so the query param
// comes first.
func (h *WebSocketHandler) extractToken(c *gin.Context) string {
	if token := c.Query("token"); token != "" {
		return token
	}

	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}

	return ""
}
