// internal/domain/auth/entity.go
package auth

import (
	"database/sql"
	"time"
)

// AdminUser represents an administrator account that can mark attendance
// and manage employees.
type AdminUser struct {
	ID                  int64          `json:"id" db:"id"`
	Username            string         `json:"username" db:"username"`
	Email               sql.NullString `json:"email" db:"email"`
	FullName            sql.NullString `json:"full_name" db:"full_name"`
	PasswordHash        string         `json:"-" db:"password_hash"`
	Role                string         `json:"role" db:"role"`     // admin, superadmin
	Status              string         `json:"status" db:"status"` // active, inactive, suspended
	LastLogin           sql.NullTime   `json:"last_login" db:"last_login"`
	FailedLoginAttempts int            `json:"-" db:"failed_login_attempts"`
	LockedUntil         sql.NullTime   `json:"-" db:"locked_until"`
	CreatedAt           time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at" db:"updated_at"`
	DeletedAt           sql.NullTime   `json:"-" db:"deleted_at"`
}

// IsLocked reports whether the account is under a temporary lockout.
func (u *AdminUser) IsLocked(now time.Time) bool {
	return u.LockedUntil.Valid && u.LockedUntil.Time.After(now)
}
