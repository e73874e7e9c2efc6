// internal/ws/hub.go
package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"attendance-service/internal/domain/attendance"
	"attendance-service/internal/pkg/jwt"
	"attendance-service/internal/pkg/session"

	"go.uber.org/zap"
)

// Event is the wire format pushed to connected dashboards.
type Event struct {
	Type      string      `json:"type"` // attendance:marked, auth:force_logout
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// Hub fans attendance events out to all connected admin dashboards and
// pushes force-logout notices when sessions are revoked.
type Hub struct {
	clients map[int64]map[*Client]bool
	mu      sync.RWMutex

	register    chan *Client
	unregister  chan *Client
	broadcast   chan []byte
	forceLogout chan *forceLogoutRequest

	jwtVerifier    *jwt.Verifier
	sessionManager *session.Manager
	logger         *zap.Logger
}

func NewHub(jwtVerifier *jwt.Verifier, sessionManager *session.Manager, logger *zap.Logger) *Hub {
	return &Hub{
		clients:        make(map[int64]map[*Client]bool),
		register:       make(chan *Client),
		unregister:     make(chan *Client),
		broadcast:      make(chan []byte, 256),
		forceLogout:    make(chan *forceLogoutRequest, 16),
		jwtVerifier:    jwtVerifier,
		sessionManager: sessionManager,
		logger:         logger,
	}
}

// AuthenticateClient validates the handshake token the same way the HTTP
// auth middleware does: signature, blacklist, then live session.
func (h *Hub) AuthenticateClient(ctx context.Context, token string) (*ClientAuth, error) {
	claims, err := h.jwtVerifier.VerifyAccessToken(token)
	if err != nil {
		return nil, err
	}

	blacklisted, err := h.sessionManager.IsTokenBlacklisted(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if blacklisted {
		return nil, ErrTokenRevoked
	}

	if _, err := h.sessionManager.GetSession(ctx, claims.IdentityID, claims.ID); err != nil {
		return nil, err
	}

	return &ClientAuth{
		IdentityID: claims.IdentityID,
		SessionID:  claims.ID,
		Username:   claims.Username,
		Role:       claims.Role,
	}, nil
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return

		case client := <-h.register:
			h.addClient(client)

		case client := <-h.unregister:
			h.removeClient(client)

		case data := <-h.broadcast:
			h.sendToAll(data)

		case req := <-h.forceLogout:
			h.dropSessions(req)
		}
	}
}

// PublishAttendance broadcasts a mark to every connected dashboard
func (h *Hub) PublishAttendance(rec *attendance.Record) {
	h.publish(&Event{
		Type:      "attendance:marked",
		Data:      rec,
		Timestamp: time.Now(),
	})
}

type forceLogoutRequest struct {
	identityID int64
	jti        string
	reason     string
}

// ForceLogout notifies a specific user's connections that their session was
// revoked, then drops them. The actual work runs on the hub loop so sends
// never race a concurrent unregister closing the client channel.
func (h *Hub) ForceLogout(identityID int64, jti, reason string) {
	req := &forceLogoutRequest{identityID: identityID, jti: jti, reason: reason}
	select {
	case h.forceLogout <- req:
	default:
		h.logger.Warn("force logout dropped, hub buffer full",
			zap.Int64("identity_id", identityID),
		)
	}
}

// dropSessions runs on the hub loop only.
func (h *Hub) dropSessions(req *forceLogoutRequest) {
	event := &Event{
		Type:      "auth:force_logout",
		Data:      map[string]string{"reason": req.reason},
		Timestamp: time.Now(),
	}

	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	h.mu.RLock()
	conns := make([]*Client, 0)
	for client := range h.clients[req.identityID] {
		// Empty jti means all of the user's sessions
		if req.jti == "" || client.sessionID == req.jti {
			conns = append(conns, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range conns {
		client.trySend(data)
		// Deregistering closes the send channel. The write pump drains the
		// queued notice first, then shuts the connection down.
		h.removeClient(client)
	}
}

func (h *Hub) publish(event *Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("failed to marshal event", zap.Error(err))
		return
	}

	select {
	case h.broadcast <- data:
	default:
		h.logger.Warn("event dropped, broadcast buffer full", zap.String("type", event.Type))
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[client.identityID] == nil {
		h.clients[client.identityID] = make(map[*Client]bool)
	}
	h.clients[client.identityID][client] = true

	h.logger.Info("dashboard connected",
		zap.Int64("identity_id", client.identityID),
		zap.String("username", client.username),
	)
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns, ok := h.clients[client.identityID]
	if !ok {
		return
	}
	if _, ok := conns[client]; !ok {
		return
	}

	delete(conns, client)
	if len(conns) == 0 {
		delete(h.clients, client.identityID)
	}
	close(client.send)
}

func (h *Hub) sendToAll(data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, conns := range h.clients {
		for client := range conns {
			client.trySend(data)
		}
	}
}

func (h *Hub) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, conns := range h.clients {
		for client := range conns {
			close(client.send)
			client.conn.Close()
		}
	}
	h.clients = make(map[int64]map[*Client]bool)
}

// Stats returns connection counts for the admin stats endpoint
func (h *Hub) Stats() map[string]interface{} {
	h.mu.RLock()
	defer h.mu.RUnlock()

	total := 0
	for _, conns := range h.clients {
		total += len(conns)
	}

	return map[string]interface{}{
		"connected_users": len(h.clients),
		"connections":     total,
	}
}
