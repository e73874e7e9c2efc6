// internal/pkg/jwt/claims.go
package jwt

import (
	"github.com/golang-jwt/jwt/v5"
)

// Claims represents the JWT claims
type Claims struct {
	IdentityID     int64  `json:"identity_id"`
	Username       string `json:"username,omitempty"`
	Role           string `json:"role,omitempty"`
	Device         string `json:"device,omitempty"`
	SessionPurpose string `json:"session_purpose"` // access
	jwt.RegisteredClaims
}

// IsSuperAdmin checks if user is a superadmin
func (c *Claims) IsSuperAdmin() bool {
	return c.Role == "superadmin"
}

// IsAdmin checks if user is an admin (including superadmin)
func (c *Claims) IsAdmin() bool {
	return c.Role == "admin" || c.Role == "superadmin"
}

// VerifyAudience checks if the expected audience is listed in the claims.
func (c *Claims) VerifyAudience(audience string, required bool) bool {
	if len(c.Audience) == 0 {
		return !required
	}

	for _, aud := range c.Audience {
		if aud == audience {
			return true
		}
	}

	return false
}
