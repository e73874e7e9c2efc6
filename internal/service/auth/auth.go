// internal/service/auth/auth.go
package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"attendance-service/internal/domain/auth"
	xerrors "attendance-service/internal/pkg/errors"
	"attendance-service/internal/pkg/jwt"
	"attendance-service/internal/pkg/session"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	lockAfterAttempts = 5
	lockDuration      = 30 * time.Minute
)

type AuthRepository interface {
	CreateAdmin(ctx context.Context, u *auth.AdminUser) error
	FindByUsername(ctx context.Context, username string) (*auth.AdminUser, error)
	FindByID(ctx context.Context, id int64) (*auth.AdminUser, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ListAdmins(ctx context.Context) ([]*auth.AdminUser, error)
	UpdateLastLogin(ctx context.Context, id int64) error
	IncrementFailedLoginAttempts(ctx context.Context, id int64, lockAfter int, lockFor time.Duration) error
	UpdateStatus(ctx context.Context, id int64, status string) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
}

// RevocationNotifier pushes a revocation notice to a user's live
// connections. An empty jti targets all of the user's sessions.
type RevocationNotifier interface {
	ForceLogout(identityID int64, jti, reason string)
}

type AuthService struct {
	authRepo       AuthRepository
	jwtManager     *jwt.Manager
	sessionManager *session.Manager
	rateLimiter    *session.RateLimiter
	notifier       RevocationNotifier
	logger         *zap.Logger
}

func NewAuthService(
	authRepo AuthRepository,
	jwtManager *jwt.Manager,
	sessionManager *session.Manager,
	rateLimiter *session.RateLimiter,
	notifier RevocationNotifier,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		authRepo:       authRepo,
		jwtManager:     jwtManager,
		sessionManager: sessionManager,
		rateLimiter:    rateLimiter,
		notifier:       notifier,
		logger:         logger,
	}
}

// NormalizeRole lower-cases and trims a role string. Roles enter the system
// in exactly two places (login and admin provisioning) and are normalized
// there, never downstream. An empty role falls back to admin.
func NormalizeRole(role string) string {
	role = strings.ToLower(strings.TrimSpace(role))
	if role == "" {
		return "admin"
	}
	return role
}

// ========== Login ==========

// Login authenticates an admin with username/password
func (s *AuthService) Login(ctx context.Context, req *auth.LoginRequest) (*auth.LoginResponse, error) {
	// Rate limiting
	allowed, remaining, err := s.rateLimiter.CheckLoginAttempt(ctx, req.IPAddress, req.Username)
	if err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}
	if !allowed {
		return nil, fmt.Errorf("too many login attempts, please try again in 15 minutes: %w", xerrors.ErrRateLimited)
	}

	user, err := s.authRepo.FindByUsername(ctx, req.Username)
	if err != nil {
		return nil, fmt.Errorf("invalid credentials")
	}

	if user.Status == "inactive" {
		return nil, fmt.Errorf("account is inactive")
	}
	if user.Status == "suspended" {
		return nil, fmt.Errorf("account is suspended")
	}
	if user.IsLocked(time.Now()) {
		return nil, fmt.Errorf("account is temporarily locked until %s", user.LockedUntil.Time.Format(time.RFC3339))
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.authRepo.IncrementFailedLoginAttempts(ctx, user.ID, lockAfterAttempts, lockDuration)
		return nil, fmt.Errorf("invalid credentials (attempts remaining: %d)", remaining-1)
	}

	if err := s.authRepo.UpdateLastLogin(ctx, user.ID); err != nil {
		s.logger.Error("failed to update last login", zap.Error(err))
	}
	s.rateLimiter.ResetLoginAttempts(ctx, req.IPAddress, req.Username)

	return s.issueSession(ctx, user, req.Device, req.IPAddress, req.UserAgent)
}

// issueSession generates a token and records the session
func (s *AuthService) issueSession(ctx context.Context, user *auth.AdminUser, device, ipAddress, userAgent string) (*auth.LoginResponse, error) {
	role := NormalizeRole(user.Role)

	token, jti, err := s.jwtManager.Generator.GenerateAccessToken(user.ID, user.Username, role, device)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	expiresAt := time.Now().Add(s.jwtManager.Generator.Ttl)

	sessionData := &session.SessionData{
		JTI:            jti,
		IdentityID:     user.ID,
		Username:       user.Username,
		Role:           role,
		Device:         device,
		IPAddress:      ipAddress,
		UserAgent:      userAgent,
		LoginAt:        time.Now(),
		LastActivityAt: time.Now(),
		ExpiresAt:      expiresAt,
		IsActive:       true,
	}

	if err := s.sessionManager.CreateSession(ctx, sessionData); err != nil {
		return nil, fmt.Errorf("failed to create session cache: %w", err)
	}

	return &auth.LoginResponse{
		Token:     token,
		TokenType: "Bearer",
		ExpiresIn: int(s.jwtManager.Generator.Ttl.Seconds()),
		ExpiresAt: expiresAt,
		User:      userInfo(user, role),
	}, nil
}

func userInfo(user *auth.AdminUser, role string) auth.UserInfo {
	return auth.UserInfo{
		ID:       user.ID,
		Username: user.Username,
		Role:     role,
		FullName: user.FullName.String,
		Email:    user.Email.String,
	}
}

// ========== Token Validation ==========

// ValidateToken validates a JWT token and its backing session
func (s *AuthService) ValidateToken(ctx context.Context, token string) (*jwt.Claims, error) {
	claims, err := s.jwtManager.Verifier.VerifyAccessToken(token)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	blacklisted, err := s.sessionManager.IsTokenBlacklisted(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check blacklist: %w", err)
	}
	if blacklisted {
		return nil, fmt.Errorf("token has been revoked")
	}

	if _, err := s.sessionManager.GetSession(ctx, claims.IdentityID, claims.ID); err != nil {
		return nil, fmt.Errorf("session not found or expired: %w", err)
	}

	return claims, nil
}

// Verify resolves the current user for an already-validated token.
// Backs GET /auth/verify, the endpoint device clients use at bootstrap.
func (s *AuthService) Verify(ctx context.Context, identityID int64) (*auth.VerifyResponse, error) {
	user, err := s.authRepo.FindByID(ctx, identityID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if user.Status != "active" {
		return nil, xerrors.ErrSessionExpired
	}

	return &auth.VerifyResponse{User: userInfo(user, NormalizeRole(user.Role))}, nil
}

// ========== Logout ==========

// Logout invalidates the current session and blacklists its token
func (s *AuthService) Logout(ctx context.Context, identityID int64, jti string) error {
	if err := s.sessionManager.InvalidateSession(ctx, identityID, jti); err != nil {
		return fmt.Errorf("failed to invalidate session: %w", err)
	}

	if err := s.sessionManager.BlacklistToken(ctx, jti, s.jwtManager.Generator.Ttl); err != nil {
		return fmt.Errorf("failed to blacklist token: %w", err)
	}

	if s.notifier != nil {
		s.notifier.ForceLogout(identityID, jti, "logged out")
	}

	return nil
}

// LogoutAllSessions invalidates all sessions for a user
func (s *AuthService) LogoutAllSessions(ctx context.Context, identityID int64) error {
	if err := s.sessionManager.InvalidateAllUserSessions(ctx, identityID); err != nil {
		return fmt.Errorf("failed to invalidate sessions: %w", err)
	}

	if s.notifier != nil {
		s.notifier.ForceLogout(identityID, "", "all sessions revoked")
	}

	return nil
}

// ========== Password Management ==========

// ChangePassword changes an admin's password (requires current password)
func (s *AuthService) ChangePassword(ctx context.Context, identityID int64, req *auth.ChangePasswordRequest) error {
	user, err := s.authRepo.FindByID(ctx, identityID)
	if err != nil {
		return fmt.Errorf("user not found: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		return fmt.Errorf("current password is incorrect")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.authRepo.UpdatePassword(ctx, identityID, string(hashed)); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	// All outstanding tokens die with the old password
	if err := s.LogoutAllSessions(ctx, identityID); err != nil {
		return fmt.Errorf("failed to invalidate sessions: %w", err)
	}

	return nil
}

// ========== Admin Management (Superadmin Only) ==========

// CreateAdmin creates a new admin account
func (s *AuthService) CreateAdmin(ctx context.Context, req *auth.CreateAdminRequest) (*auth.UserInfo, error) {
	exists, err := s.authRepo.ExistsByUsername(ctx, req.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if exists {
		return nil, xerrors.ErrDuplicateEntry
	}

	role := NormalizeRole(req.Role)
	if role != "admin" && role != "superadmin" {
		return nil, fmt.Errorf("unknown role %q", req.Role)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &auth.AdminUser{
		Username:     req.Username,
		Email:        nullString(req.Email),
		FullName:     nullString(req.FullName),
		PasswordHash: string(hashed),
		Role:         role,
		Status:       "active",
	}

	if err := s.authRepo.CreateAdmin(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create admin: %w", err)
	}

	s.logger.Info("admin created",
		zap.String("username", user.Username),
		zap.String("role", role),
	)

	info := userInfo(user, role)
	return &info, nil
}

// ListAdmins lists all admin accounts
func (s *AuthService) ListAdmins(ctx context.Context) ([]auth.UserInfo, error) {
	admins, err := s.authRepo.ListAdmins(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list admins: %w", err)
	}

	infos := make([]auth.UserInfo, 0, len(admins))
	for _, u := range admins {
		infos = append(infos, userInfo(u, NormalizeRole(u.Role)))
	}

	return infos, nil
}

// DeactivateAdmin deactivates an admin account and kills its sessions
func (s *AuthService) DeactivateAdmin(ctx context.Context, identityID int64) error {
	if err := s.authRepo.UpdateStatus(ctx, identityID, "inactive"); err != nil {
		return fmt.Errorf("failed to deactivate admin: %w", err)
	}

	if err := s.LogoutAllSessions(ctx, identityID); err != nil {
		return fmt.Errorf("failed to invalidate sessions: %w", err)
	}

	return nil
}

// EnsureSuperAdminExists provisions the seed superadmin on first boot
func (s *AuthService) EnsureSuperAdminExists(ctx context.Context, username, password, fullName string) error {
	exists, err := s.authRepo.ExistsByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("failed to check superadmin: %w", err)
	}
	if exists {
		return nil
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user := &auth.AdminUser{
		Username:     username,
		FullName:     nullString(fullName),
		PasswordHash: string(hashed),
		Role:         "superadmin",
		Status:       "active",
	}

	if err := s.authRepo.CreateAdmin(ctx, user); err != nil {
		return fmt.Errorf("failed to create superadmin: %w", err)
	}

	s.logger.Info("superadmin provisioned", zap.String("username", username))
	return nil
}
