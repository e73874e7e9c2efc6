// internal/repository/postgres/auth_repo.go
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"attendance-service/internal/domain/auth"
	xerrors "attendance-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
)

type AuthRepository struct {
	db *DB
}

func NewAuthRepository(db *DB) *AuthRepository {
	return &AuthRepository{db: db}
}

// CreateAdmin inserts a new admin account
func (r *AuthRepository) CreateAdmin(ctx context.Context, u *auth.AdminUser) error {
	query := `
		INSERT INTO admin_users (
			username, email, full_name, password_hash, role, status
		) VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(
		ctx, query,
		u.Username, u.Email, u.FullName, u.PasswordHash, u.Role, u.Status,
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}

	return nil
}

// FindByUsername retrieves an admin by username
func (r *AuthRepository) FindByUsername(ctx context.Context, username string) (*auth.AdminUser, error) {
	query := `
		SELECT id, username, email, full_name, password_hash, role, status,
		       last_login, failed_login_attempts, locked_until,
		       created_at, updated_at, deleted_at
		FROM admin_users
		WHERE username = $1 AND deleted_at IS NULL
	`

	var u auth.AdminUser
	err := r.db.QueryRow(ctx, query, username).Scan(
		&u.ID, &u.Username, &u.Email, &u.FullName, &u.PasswordHash, &u.Role, &u.Status,
		&u.LastLogin, &u.FailedLoginAttempts, &u.LockedUntil,
		&u.CreatedAt, &u.UpdatedAt, &u.DeletedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find admin: %w", err)
	}

	return &u, nil
}

// FindByID retrieves an admin by ID
func (r *AuthRepository) FindByID(ctx context.Context, id int64) (*auth.AdminUser, error) {
	query := `
		SELECT id, username, email, full_name, password_hash, role, status,
		       last_login, failed_login_attempts, locked_until,
		       created_at, updated_at, deleted_at
		FROM admin_users
		WHERE id = $1 AND deleted_at IS NULL
	`

	var u auth.AdminUser
	err := r.db.QueryRow(ctx, query, id).Scan(
		&u.ID, &u.Username, &u.Email, &u.FullName, &u.PasswordHash, &u.Role, &u.Status,
		&u.LastLogin, &u.FailedLoginAttempts, &u.LockedUntil,
		&u.CreatedAt, &u.UpdatedAt, &u.DeletedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find admin: %w", err)
	}

	return &u, nil
}

// ExistsByUsername checks whether a username is taken
func (r *AuthRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM admin_users WHERE username = $1 AND deleted_at IS NULL)`

	var exists bool
	if err := r.db.QueryRow(ctx, query, username).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check username: %w", err)
	}

	return exists, nil
}

// ListAdmins returns all non-deleted admin accounts
func (r *AuthRepository) ListAdmins(ctx context.Context) ([]*auth.AdminUser, error) {
	query := `
		SELECT id, username, email, full_name, password_hash, role, status,
		       last_login, failed_login_attempts, locked_until,
		       created_at, updated_at, deleted_at
		FROM admin_users
		WHERE deleted_at IS NULL
		ORDER BY created_at
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list admins: %w", err)
	}
	defer rows.Close()

	var admins []*auth.AdminUser
	for rows.Next() {
		var u auth.AdminUser
		if err := rows.Scan(
			&u.ID, &u.Username, &u.Email, &u.FullName, &u.PasswordHash, &u.Role, &u.Status,
			&u.LastLogin, &u.FailedLoginAttempts, &u.LockedUntil,
			&u.CreatedAt, &u.UpdatedAt, &u.DeletedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan admin: %w", err)
		}
		admins = append(admins, &u)
	}

	return admins, rows.Err()
}

// UpdateLastLogin resets failed attempts and stamps the last login time
func (r *AuthRepository) UpdateLastLogin(ctx context.Context, id int64) error {
	query := `
		UPDATE admin_users
		SET last_login = NOW(), failed_login_attempts = 0, locked_until = NULL, updated_at = NOW()
		WHERE id = $1
	`

	if _, err := r.db.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}

	return nil
}

// IncrementFailedLoginAttempts bumps the counter and locks the account once
// the threshold is crossed.
func (r *AuthRepository) IncrementFailedLoginAttempts(ctx context.Context, id int64, lockAfter int, lockFor time.Duration) error {
	query := `
		UPDATE admin_users
		SET failed_login_attempts = failed_login_attempts + 1,
		    locked_until = CASE
		        WHEN failed_login_attempts + 1 >= $2 THEN NOW() + $3::interval
		        ELSE locked_until
		    END,
		    updated_at = NOW()
		WHERE id = $1
	`

	interval := fmt.Sprintf("%d seconds", int(lockFor.Seconds()))
	if _, err := r.db.Exec(ctx, query, id, lockAfter, interval); err != nil {
		return fmt.Errorf("failed to increment login attempts: %w", err)
	}

	return nil
}

// UpdateStatus sets the account status (active, inactive, suspended)
func (r *AuthRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	query := `UPDATE admin_users SET status = $2, updated_at = NOW() WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}

	return nil
}

// UpdatePassword replaces the stored password hash
func (r *AuthRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	query := `UPDATE admin_users SET password_hash = $2, updated_at = NOW() WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id, passwordHash)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}

	return nil
}
