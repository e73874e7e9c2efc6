// internal/ws/client.go
package ws

import (
	"errors"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var ErrTokenRevoked = errors.New("token has been revoked")

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// ClientAuth is the identity established during the websocket handshake.
type ClientAuth struct {
	IdentityID int64
	SessionID  string
	Username   string
	Role       string
}

// Client is a single dashboard connection.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	identityID int64
	sessionID  string
	username   string
}

func NewClient(hub *Hub, conn *websocket.Conn, auth *ClientAuth) *Client {
	return &Client{
		hub:        hub,
		conn:       conn,
		send:       make(chan []byte, 64),
		identityID: auth.IdentityID,
		sessionID:  auth.SessionID,
		username:   auth.Username,
	}
}

// Start registers the client and runs both pumps. ReadPump blocks until the
// connection drops.
func (c *Client) Start() {
	c.hub.register <- c
	go c.writePump()
	c.readPump()
}

// trySend drops the message instead of blocking when the client is slow
func (c *Client) trySend(data []byte) {
	select {
	case c.send <- data:
	default:
		c.hub.logger.Warn("message dropped, client buffer full",
			zap.Int64("identity_id", c.identityID),
		)
	}
}

// readPump discards inbound frames. The feed is one-way but reads are still
// required to process control frames and detect disconnects.
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
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Debug("websocket read error",
					zap.Int64("identity_id", c.identityID),
					zap.Error(err),
				)
			}
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
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
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
