package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"database/sql"
	"errors"
	"testing"
	"time"

	"attendance-service/internal/domain/auth"
	xerrors "attendance-service/internal/pkg/errors"
	"attendance-service/internal/pkg/jwt"
	"attendance-service/internal/pkg/session"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type mockAuthRepo struct {
	users map[string]*auth.AdminUser

	incrementCalls  int
	lastLoginCalls  int
	createdAdmins   []*auth.AdminUser
	updatedStatuses map[int64]string
}

func newMockAuthRepo() *mockAuthRepo {
	return &mockAuthRepo{
		users:           make(map[string]*auth.AdminUser),
		updatedStatuses: make(map[int64]string),
	}
}

func (m *mockAuthRepo) CreateAdmin(ctx context.Context, u *auth.AdminUser) error {
	u.ID = int64(len(m.users) + 1)
	m.users[u.Username] = u
	m.createdAdmins = append(m.createdAdmins, u)
	return nil
}

func (m *mockAuthRepo) FindByUsername(ctx context.Context, username string) (*auth.AdminUser, error) {
	u, ok := m.users[username]
	if !ok {
		return nil, xerrors.ErrNotFound
	}
	return u, nil
}

func (m *mockAuthRepo) FindByID(ctx context.Context, id int64) (*auth.AdminUser, error) {
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, xerrors.ErrNotFound
}

func (m *mockAuthRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	_, ok := m.users[username]
	return ok, nil
}

func (m *mockAuthRepo) ListAdmins(ctx context.Context) ([]*auth.AdminUser, error) {
	admins := make([]*auth.AdminUser, 0, len(m.users))
	for _, u := range m.users {
		admins = append(admins, u)
	}
	return admins, nil
}

func (m *mockAuthRepo) UpdateLastLogin(ctx context.Context, id int64) error {
	m.lastLoginCalls++
	return nil
}

func (m *mockAuthRepo) IncrementFailedLoginAttempts(ctx context.Context, id int64, lockAfter int, lockFor time.Duration) error {
	m.incrementCalls++
	return nil
}

func (m *mockAuthRepo) UpdateStatus(ctx context.Context, id int64, status string) error {
	m.updatedStatuses[id] = status
	for _, u := range m.users {
		if u.ID == id {
			u.Status = status
		}
	}
	return nil
}

func (m *mockAuthRepo) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	for _, u := range m.users {
		if u.ID == id {
			u.PasswordHash = passwordHash
		}
	}
	return nil
}

func newTestService(t *testing.T) (*AuthService, *mockAuthRepo) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}
	jwtManager := jwt.BuildFromKeys(priv, &priv.PublicKey, jwt.Config{
		Issuer:   "attendance-service",
		Audience: "attendance-admins",
		TTL:      time.Hour,
		KID:      "test-key",
	})

	repo := newMockAuthRepo()
	svc := NewAuthService(
		repo,
		jwtManager,
		session.NewManager(client),
		session.NewRateLimiter(client),
		nil,
		zap.NewNop(),
	)
	return svc, repo
}

type notifyCall struct {
	identityID int64
	jti        string
	reason     string
}

type recordingNotifier struct {
	calls []notifyCall
}

func (n *recordingNotifier) ForceLogout(identityID int64, jti, reason string) {
	n.calls = append(n.calls, notifyCall{identityID: identityID, jti: jti, reason: reason})
}

func seedAdmin(t *testing.T, repo *mockAuthRepo, username, password, role, status string) *auth.AdminUser {
	t.Helper()

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	u := &auth.AdminUser{
		ID:           int64(len(repo.users) + 1),
		Username:     username,
		PasswordHash: string(hashed),
		Role:         role,
		Status:       status,
	}
	repo.users[username] = u
	return u
}

func loginReq(username, password string) *auth.LoginRequest {
	return &auth.LoginRequest{
		Username:  username,
		Password:  password,
		Device:    "attendctl",
		IPAddress: "10.0.0.1",
		UserAgent: "test",
	}
}

func TestNormalizeRole(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"admin", "admin"},
		{" Admin ", "admin"},
		{" SuperAdmin ", "superadmin"},
		{"", "admin"},
		{"  ", "admin"},
		{"Manager", "manager"},
	}

	for _, tc := range cases {
		if got := NormalizeRole(tc.raw); got != tc.want {
			t.Errorf("NormalizeRole(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestLoginSuccess(t *testing.T) {
	svc, repo := newTestService(t)
	seedAdmin(t, repo, "gate1", "secret", " SuperAdmin ", "active")

	resp, err := svc.Login(context.Background(), loginReq("gate1", "secret"))
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	if resp.Token == "" {
		t.Error("login response should carry a token")
	}
	if resp.User.Role != "superadmin" {
		t.Errorf("role = %q, want normalized superadmin", resp.User.Role)
	}
	if repo.lastLoginCalls != 1 {
		t.Errorf("UpdateLastLogin calls = %d, want 1", repo.lastLoginCalls)
	}

	// The issued token must validate against the live session
	claims, err := svc.ValidateToken(context.Background(), resp.Token)
	if err != nil {
		t.Fatalf("issued token failed validation: %v", err)
	}
	if claims.Role != "superadmin" {
		t.Errorf("claims role = %q", claims.Role)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	svc, repo := newTestService(t)
	seedAdmin(t, repo, "gate1", "secret", "admin", "active")

	if _, err := svc.Login(context.Background(), loginReq("gate1", "wrong")); err == nil {
		t.Fatal("wrong password should fail")
	}
	if repo.incrementCalls != 1 {
		t.Errorf("failed attempt count not bumped, calls = %d", repo.incrementCalls)
	}
}

func TestLoginUnknownUser(t *testing.T) {
	svc, _ := newTestService(t)

	if _, err := svc.Login(context.Background(), loginReq("ghost", "secret")); err == nil {
		t.Fatal("unknown user should fail")
	}
}

func TestLoginInactiveAccount(t *testing.T) {
	svc, repo := newTestService(t)
	seedAdmin(t, repo, "gate1", "secret", "admin", "inactive")

	if _, err := svc.Login(context.Background(), loginReq("gate1", "secret")); err == nil {
		t.Fatal("inactive account should fail")
	}
}

func TestLoginLockedAccount(t *testing.T) {
	svc, repo := newTestService(t)
	u := seedAdmin(t, repo, "gate1", "secret", "admin", "active")
	u.LockedUntil = sql.NullTime{Time: time.Now().Add(10 * time.Minute), Valid: true}

	if _, err := svc.Login(context.Background(), loginReq("gate1", "secret")); err == nil {
		t.Fatal("locked account should fail even with the right password")
	}
}

func TestLoginRateLimited(t *testing.T) {
	svc, repo := newTestService(t)
	seedAdmin(t, repo, "gate1", "secret", "admin", "active")

	for i := 0; i < 5; i++ {
		svc.Login(context.Background(), loginReq("gate1", "wrong"))
	}

	_, err := svc.Login(context.Background(), loginReq("gate1", "secret"))
	if !errors.Is(err, xerrors.ErrRateLimited) {
		t.Errorf("want ErrRateLimited after exhausting attempts, got %v", err)
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	svc, repo := newTestService(t)
	u := seedAdmin(t, repo, "gate1", "secret", "admin", "active")

	resp, err := svc.Login(context.Background(), loginReq("gate1", "secret"))
	if err != nil {
		t.Fatal(err)
	}

	claims, err := svc.ValidateToken(context.Background(), resp.Token)
	if err != nil {
		t.Fatal(err)
	}

	if err := svc.Logout(context.Background(), u.ID, claims.ID); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}

	if _, err := svc.ValidateToken(context.Background(), resp.Token); err == nil {
		t.Error("token should be rejected after logout")
	}
}

func TestLogoutNotifiesLiveConnections(t *testing.T) {
	svc, repo := newTestService(t)
	notifier := &recordingNotifier{}
	svc.notifier = notifier
	u := seedAdmin(t, repo, "gate1", "secret", "admin", "active")

	resp, err := svc.Login(context.Background(), loginReq("gate1", "secret"))
	if err != nil {
		t.Fatal(err)
	}
	claims, err := svc.ValidateToken(context.Background(), resp.Token)
	if err != nil {
		t.Fatal(err)
	}

	if err := svc.Logout(context.Background(), u.ID, claims.ID); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}

	if len(notifier.calls) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(notifier.calls))
	}
	call := notifier.calls[0]
	if call.identityID != u.ID || call.jti != claims.ID {
		t.Errorf("notification targeted wrong session: %+v", call)
	}
}

func TestDeactivateAdminNotifiesAllSessions(t *testing.T) {
	svc, repo := newTestService(t)
	notifier := &recordingNotifier{}
	svc.notifier = notifier
	u := seedAdmin(t, repo, "gate1", "secret", "admin", "active")

	if err := svc.DeactivateAdmin(context.Background(), u.ID); err != nil {
		t.Fatalf("DeactivateAdmin failed: %v", err)
	}

	if len(notifier.calls) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(notifier.calls))
	}
	call := notifier.calls[0]
	if call.identityID != u.ID || call.jti != "" {
		t.Errorf("expected an all-sessions notification, got %+v", call)
	}
}

func TestVerifyActiveUser(t *testing.T) {
	svc, repo := newTestService(t)
	u := seedAdmin(t, repo, "gate1", "secret", " Admin ", "active")

	resp, err := svc.Verify(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if resp.User.Role != "admin" {
		t.Errorf("role = %q, want normalized admin", resp.User.Role)
	}
}

func TestVerifyInactiveUser(t *testing.T) {
	svc, repo := newTestService(t)
	u := seedAdmin(t, repo, "gate1", "secret", "admin", "inactive")

	if _, err := svc.Verify(context.Background(), u.ID); !errors.Is(err, xerrors.ErrSessionExpired) {
		t.Errorf("want ErrSessionExpired for inactive user, got %v", err)
	}
}

func TestCreateAdminDuplicate(t *testing.T) {
	svc, repo := newTestService(t)
	seedAdmin(t, repo, "gate1", "secret", "admin", "active")

	_, err := svc.CreateAdmin(context.Background(), &auth.CreateAdminRequest{
		Username: "gate1",
		Password: "newpass1",
		Role:     "admin",
	})
	if !errors.Is(err, xerrors.ErrDuplicateEntry) {
		t.Errorf("want ErrDuplicateEntry, got %v", err)
	}
}

func TestCreateAdminRejectsUnknownRole(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.CreateAdmin(context.Background(), &auth.CreateAdminRequest{
		Username: "gate2",
		Password: "newpass1",
		Role:     "manager",
	})
	if err == nil {
		t.Error("unknown role should be rejected")
	}
}

func TestEnsureSuperAdminIdempotent(t *testing.T) {
	svc, repo := newTestService(t)

	if err := svc.EnsureSuperAdminExists(context.Background(), "root", "secret", "Root"); err != nil {
		t.Fatal(err)
	}
	if err := svc.EnsureSuperAdminExists(context.Background(), "root", "secret", "Root"); err != nil {
		t.Fatal(err)
	}
	if len(repo.createdAdmins) != 1 {
		t.Errorf("superadmin created %d times, want 1", len(repo.createdAdmins))
	}
}
