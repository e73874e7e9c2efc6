// internal/ws/hub_test.go
package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"attendance-service/internal/domain/attendance"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

func newTestHub(t *testing.T) *Hub {
	t.Helper()

	hub := NewHub(nil, nil, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

// dialHub connects a real websocket pair and registers the server side with
// the hub under the given identity.
func dialHub(t *testing.T, hub *Hub, auth *ClientAuth) *websocket.Conn {
	t.Helper()

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		client := NewClient(hub, conn, auth)
		go client.Start()
	}))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForConnections(t *testing.T, hub *Hub, want int) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.Stats()["connections"] == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d connections, stats=%v", want, hub.Stats())
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var event Event
	if err := conn.ReadJSON(&event); err != nil {
		t.Fatalf("failed to read event: %v", err)
	}
	return event
}

func TestPublishAttendanceReachesAllDashboards(t *testing.T) {
	hub := newTestHub(t)

	conn1 := dialHub(t, hub, &ClientAuth{IdentityID: 1, SessionID: "jti-1", Username: "gate1"})
	waitForConnections(t, hub, 1)
	conn2 := dialHub(t, hub, &ClientAuth{IdentityID: 2, SessionID: "jti-2", Username: "gate2"})
	waitForConnections(t, hub, 2)

	hub.PublishAttendance(&attendance.Record{ID: 9, EmployeeID: 3})

	for _, conn := range []*websocket.Conn{conn1, conn2} {
		if event := readEvent(t, conn); event.Type != "attendance:marked" {
			t.Errorf("unexpected event type %q", event.Type)
		}
	}
}

func TestForceLogoutDropsOnlyMatchingSession(t *testing.T) {
	hub := newTestHub(t)

	conn1 := dialHub(t, hub, &ClientAuth{IdentityID: 1, SessionID: "jti-1", Username: "gate1"})
	waitForConnections(t, hub, 1)
	conn2 := dialHub(t, hub, &ClientAuth{IdentityID: 1, SessionID: "jti-2", Username: "gate1"})
	waitForConnections(t, hub, 2)

	hub.ForceLogout(1, "jti-1", "logged out")

	// The revoked connection gets the notice, then the close
	if event := readEvent(t, conn1); event.Type != "auth:force_logout" {
		t.Errorf("unexpected event type %q", event.Type)
	}
	conn1.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn1.ReadMessage(); err == nil {
		t.Error("revoked connection should be closed")
	}
	waitForConnections(t, hub, 1)

	// The other session keeps its feed
	hub.PublishAttendance(&attendance.Record{ID: 9, EmployeeID: 3})
	if event := readEvent(t, conn2); event.Type != "attendance:marked" {
		t.Errorf("surviving session lost the feed, got %q", event.Type)
	}
}

func TestForceLogoutAllSessions(t *testing.T) {
	hub := newTestHub(t)

	conn1 := dialHub(t, hub, &ClientAuth{IdentityID: 1, SessionID: "jti-1", Username: "gate1"})
	waitForConnections(t, hub, 1)
	conn2 := dialHub(t, hub, &ClientAuth{IdentityID: 1, SessionID: "jti-2", Username: "gate1"})
	waitForConnections(t, hub, 2)

	hub.ForceLogout(1, "", "all sessions revoked")

	for _, conn := range []*websocket.Conn{conn1, conn2} {
		if event := readEvent(t, conn); event.Type != "auth:force_logout" {
			t.Errorf("unexpected event type %q", event.Type)
		}
	}
	waitForConnections(t, hub, 0)
}
