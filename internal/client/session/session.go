// internal/client/session/session.go

// Package session holds the device's authentication state: who is logged in,
// whether the startup check has finished, and the durable token + user copy
// that survives restarts. It is the only writer of the credential keys; the
// gateway reads the token but never writes it.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"attendance-service/internal/client/gateway"
	"attendance-service/internal/client/storage"

	"go.uber.org/zap"
)

// User is the in-memory session user.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
	FullName string `json:"full_name,omitempty"`
	Email    string `json:"email,omitempty"`
}

// LoginResult is the outcome of a login attempt. Login never returns a Go
// error; network and server failures are folded into the failure shape so
// callers can show Message without unwrapping anything.
type LoginResult struct {
	Success bool
	Message string
}

// Store is the single source of truth for "is this device logged in, as
// whom". One Store per process; dependencies are injected rather than
// reached through globals.
type Store struct {
	mu      sync.Mutex
	storage storage.Storage
	gw      *gateway.Gateway
	logger  *zap.Logger

	user            *User
	isLoading       bool
	isAuthenticated bool
}

func NewStore(st storage.Storage, gw *gateway.Gateway, logger *zap.Logger) *Store {
	return &Store{
		storage:   st,
		gw:        gw,
		logger:    logger,
		isLoading: true,
	}
}

// Bootstrap decides the initial auth state from persisted credentials. It is
// called once per process, before any UI decision. Failures never surface:
// an unverifiable session degrades to unauthenticated, it does not block
// startup. Whatever happens, isLoading flips to false exactly once and never
// back.
func (s *Store) Bootstrap(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() { s.isLoading = false }()

	token, tokenErr := s.storage.Get(storage.KeyToken)
	userRaw, userErr := s.storage.Get(storage.KeyUser)

	if tokenErr != nil || userErr != nil || token == "" {
		// A token without a user (or the reverse) means a crash landed
		// between the two writes. That is not a session; clean it up.
		if tokenErr == nil || userErr == nil {
			s.clearStoredLocked()
		}
		return
	}

	var persisted struct {
		ID       int64  `json:"id"`
		Username string `json:"username"`
		Role     string `json:"role"`
		FullName string `json:"full_name"`
		Email    string `json:"email"`
	}
	if err := json.Unmarshal([]byte(userRaw), &persisted); err != nil {
		s.logger.Warn("stored user record is corrupt, discarding session", zap.Error(err))
		s.clearStoredLocked()
		return
	}

	if _, err := s.gw.VerifyToken(ctx); err != nil {
		// A 401 already wiped storage gateway-side; clearing again is
		// harmless and covers network failures too
		s.logger.Info("stored session failed verification", zap.Error(err))
		s.clearStoredLocked()
		return
	}

	s.user = &User{
		ID:       persisted.ID,
		Username: persisted.Username,
		Role:     ParseRole(persisted.Role),
		FullName: persisted.FullName,
		Email:    persisted.Email,
	}
	s.isAuthenticated = true
}

// Login authenticates and persists the session. On failure nothing changes:
// an already-established session survives a failed re-login untouched.
// Write order is token first, then user, then the in-memory flip, so a
// reader that observes an authenticated store can rely on the persisted
// token being at least as new.
func (s *Store) Login(ctx context.Context, username, password string) LoginResult {
	payload, err := s.gw.Login(ctx, username, password)
	if err != nil {
		return LoginResult{Success: false, Message: loginFailureMessage(err)}
	}
	if payload.Token == "" {
		return LoginResult{Success: false, Message: "server did not return a token"}
	}

	user := &User{
		ID:       payload.User.ID,
		Username: payload.User.Username,
		Role:     ParseRole(payload.User.Role),
		FullName: payload.User.FullName,
		Email:    payload.User.Email,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.storage.Set(storage.KeyToken, payload.Token); err != nil {
		s.logger.Error("failed to persist token", zap.Error(err))
		return LoginResult{Success: false, Message: "failed to save session"}
	}

	userData, err := json.Marshal(user)
	if err == nil {
		err = s.storage.Set(storage.KeyUser, string(userData))
	}
	if err != nil {
		// Storage is left as-is. Wiping here would also destroy a prior
		// session's keys; the next bootstrap verifies whatever is on disk
		// and cleans up anything half-written.
		s.logger.Error("failed to persist user record", zap.Error(err))
		return LoginResult{Success: false, Message: "failed to save session"}
	}

	s.user = user
	s.isAuthenticated = true

	s.logger.Info("logged in",
		zap.String("username", user.Username),
		zap.String("role", string(user.Role)),
	)

	return LoginResult{Success: true}
}

// Logout clears the session locally. It is idempotent and never fails from
// the caller's point of view; the server-side session revocation is best
// effort. isLoading is left alone.
func (s *Store) Logout(ctx context.Context) {
	s.mu.Lock()
	wasAuthenticated := s.isAuthenticated

	if wasAuthenticated {
		s.mu.Unlock()
		if err := s.gw.Logout(ctx); err != nil {
			s.logger.Debug("server logout failed", zap.Error(err))
		}
		s.mu.Lock()
	}

	s.clearStoredLocked()
	s.user = nil
	s.isAuthenticated = false
	s.mu.Unlock()
}

func (s *Store) clearStoredLocked() {
	if err := s.storage.Delete(storage.KeyToken); err != nil {
		s.logger.Warn("failed to delete stored token", zap.Error(err))
	}
	if err := s.storage.Delete(storage.KeyUser); err != nil {
		s.logger.Warn("failed to delete stored user", zap.Error(err))
	}
}

// User returns a copy of the session user, or nil when unauthenticated.
func (s *Store) User() *User {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *Store) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isAuthenticated
}

func (s *Store) IsLoading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isLoading
}

func loginFailureMessage(err error) string {
	var apiErr *gateway.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return "network error, please try again"
}
