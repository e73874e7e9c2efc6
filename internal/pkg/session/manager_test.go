package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestManager(t *testing.T) (*Manager, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewManager(client), mr
}

func testSession(identityID int64, jti string) *SessionData {
	now := time.Now()
	return &SessionData{
		JTI:            jti,
		IdentityID:     identityID,
		Username:       "gate1",
		Role:           "admin",
		Device:         "attendctl",
		IPAddress:      "10.0.0.1",
		LoginAt:        now,
		LastActivityAt: now,
		ExpiresAt:      now.Add(time.Hour),
		IsActive:       true,
	}
}

func TestCreateAndGetSession(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	sess := testSession(7, "jti-1")
	if err := m.CreateSession(ctx, sess); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	got, err := m.GetSession(ctx, 7, "jti-1")
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if got.Username != "gate1" || got.Role != "admin" {
		t.Errorf("unexpected session data: %+v", got)
	}
}

func TestCreateExpiredSessionRejected(t *testing.T) {
	m, _ := newTestManager(t)

	sess := testSession(7, "jti-1")
	sess.ExpiresAt = time.Now().Add(-time.Minute)

	if err := m.CreateSession(context.Background(), sess); err == nil {
		t.Error("expected an error for an already expired session")
	}
}

func TestGetMissingSession(t *testing.T) {
	m, _ := newTestManager(t)

	if _, err := m.GetSession(context.Background(), 7, "nope"); err == nil {
		t.Error("expected an error for a missing session")
	}
}

func TestSessionExpiresWithTTL(t *testing.T) {
	m, mr := newTestManager(t)
	ctx := context.Background()

	if err := m.CreateSession(ctx, testSession(7, "jti-1")); err != nil {
		t.Fatal(err)
	}

	mr.FastForward(2 * time.Hour)

	if _, err := m.GetSession(ctx, 7, "jti-1"); err == nil {
		t.Error("session should have expired")
	}
}

func TestInvalidateSession(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	m.CreateSession(ctx, testSession(7, "jti-1"))

	if err := m.InvalidateSession(ctx, 7, "jti-1"); err != nil {
		t.Fatalf("InvalidateSession failed: %v", err)
	}
	if _, err := m.GetSession(ctx, 7, "jti-1"); err == nil {
		t.Error("session should be gone")
	}
}

func TestInvalidateAllUserSessions(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	m.CreateSession(ctx, testSession(7, "jti-1"))
	m.CreateSession(ctx, testSession(7, "jti-2"))
	m.CreateSession(ctx, testSession(8, "jti-3"))

	if err := m.InvalidateAllUserSessions(ctx, 7); err != nil {
		t.Fatalf("InvalidateAllUserSessions failed: %v", err)
	}

	if _, err := m.GetSession(ctx, 7, "jti-1"); err == nil {
		t.Error("user 7 session jti-1 should be gone")
	}
	if _, err := m.GetSession(ctx, 7, "jti-2"); err == nil {
		t.Error("user 7 session jti-2 should be gone")
	}
	if _, err := m.GetSession(ctx, 8, "jti-3"); err != nil {
		t.Error("user 8 session must survive")
	}
}

func TestGetUserActiveSessions(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	m.CreateSession(ctx, testSession(7, "jti-1"))
	m.CreateSession(ctx, testSession(7, "jti-2"))

	sessions, err := m.GetUserActiveSessions(ctx, 7)
	if err != nil {
		t.Fatal(err)
	}
	if len(sessions) != 2 {
		t.Errorf("got %d sessions, want 2", len(sessions))
	}
}

func TestTokenBlacklist(t *testing.T) {
	m, mr := newTestManager(t)
	ctx := context.Background()

	blacklisted, err := m.IsTokenBlacklisted(ctx, "jti-1")
	if err != nil {
		t.Fatal(err)
	}
	if blacklisted {
		t.Error("fresh jti should not be blacklisted")
	}

	if err := m.BlacklistToken(ctx, "jti-1", time.Hour); err != nil {
		t.Fatalf("BlacklistToken failed: %v", err)
	}

	blacklisted, err = m.IsTokenBlacklisted(ctx, "jti-1")
	if err != nil {
		t.Fatal(err)
	}
	if !blacklisted {
		t.Error("jti should be blacklisted")
	}

	mr.FastForward(2 * time.Hour)

	blacklisted, _ = m.IsTokenBlacklisted(ctx, "jti-1")
	if blacklisted {
		t.Error("blacklist entry should expire with the token")
	}
}

func TestBlacklistZeroTTLIsNoop(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	if err := m.BlacklistToken(ctx, "jti-1", 0); err != nil {
		t.Fatal(err)
	}
	blacklisted, _ := m.IsTokenBlacklisted(ctx, "jti-1")
	if blacklisted {
		t.Error("expired token needs no blacklist entry")
	}
}
