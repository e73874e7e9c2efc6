// internal/client/session/role.go
package session

import "strings"

// Role is the closed set of roles a device session recognizes. Raw role
// strings enter the system in exactly two places (login response, persisted
// record at bootstrap) and are parsed there; everything downstream works
// with the enum.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "superadmin"
	RoleUnknown    Role = "unknown"
)

// ParseRole normalizes a raw role string. Comparison is case and whitespace
// insensitive. A server that omits the role means a plain admin; that is the
// documented fallback, not a guess.
func ParseRole(raw string) Role {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", string(RoleAdmin):
		return RoleAdmin
	case string(RoleSuperAdmin):
		return RoleSuperAdmin
	default:
		return RoleUnknown
	}
}
