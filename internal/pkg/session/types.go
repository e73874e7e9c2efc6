// internal/pkg/session/types.go
package session

import "time"

// SessionData is the redis-cached record for one issued token.
type SessionData struct {
	JTI            string    `json:"jti"`
	IdentityID     int64     `json:"identity_id"`
	Username       string    `json:"username"`
	Role           string    `json:"role"`
	Device         string    `json:"device,omitempty"`
	IPAddress      string    `json:"ip_address"`
	UserAgent      string    `json:"user_agent"`
	LoginAt        time.Time `json:"login_at"`
	LastActivityAt time.Time `json:"last_activity_at"`
	ExpiresAt      time.Time `json:"expires_at"`
	IsActive       bool      `json:"is_active"`
}
