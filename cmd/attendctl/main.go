// attendctl is a terminal client for the attendance service. It drives the
// same storage, gateway, and session packages an embedded device would use:
// credentials live under a state directory and every call goes through the
// gateway's token injection and error classification.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"attendance-service/internal/client/gateway"
	"attendance-service/internal/client/session"
	"attendance-service/internal/client/storage"

	"go.uber.org/zap"
)

const usage = `Usage: attendctl [flags] <command> [args]

Commands:
  login <username> <password>   authenticate and store the session
  logout                        clear the stored session
  whoami                        verify the stored session and print the user
  mark <employee_id> <status>   mark attendance (present|absent|late|half_day)
  employees                     list employees
  summary [YYYY-MM-DD]          day summary, defaults to today

Flags:
`

func main() {
	server := flag.String("server", envOr("ATTEND_SERVER", "http://localhost:8000"), "server base URL")
	stateDir := flag.String("state-dir", envOr("ATTEND_STATE_DIR", defaultStateDir()), "credential storage directory")
	timeout := flag.Duration("timeout", 15*time.Second, "request timeout")
	date := flag.String("date", "", "date for mark/summary (YYYY-MM-DD, default today)")
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	logger := zap.NewNop()

	store, err := storage.NewFileStorage(*stateDir)
	if err != nil {
		fatalf("failed to open state dir: %v", err)
	}

	gw := gateway.New(gateway.Options{BaseURL: *server, Timeout: *timeout}, store, logger)
	sess := session.NewStore(store, gw, logger)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout+5*time.Second)
	defer cancel()

	switch args[0] {
	case "login":
		if len(args) != 3 {
			fatalf("usage: attendctl login <username> <password>")
		}
		result := sess.Login(ctx, args[1], args[2])
		if !result.Success {
			fatalf("login failed: %s", result.Message)
		}
		user := sess.User()
		fmt.Printf("logged in as %s (%s)\n", user.Username, user.Role)

	case "logout":
		sess.Logout(ctx)
		fmt.Println("logged out")

	case "whoami":
		sess.Bootstrap(ctx)
		if !sess.IsAuthenticated() {
			fatalf("not logged in")
		}
		printJSON(sess.User())

	case "mark":
		if len(args) != 3 {
			fatalf("usage: attendctl mark <employee_id> <status>")
		}
		var rec json.RawMessage
		req := map[string]interface{}{
			"employee_id": mustInt(args[1]),
			"status":      args[2],
			"date":        *date,
		}
		if err := gw.MarkAttendance(ctx, req, &rec); err != nil {
			fatalf("mark failed: %v", err)
		}
		printJSON(rec)

	case "employees":
		var list json.RawMessage
		if err := gw.ListEmployees(ctx, url.Values{}, &list); err != nil {
			fatalf("list failed: %v", err)
		}
		printJSON(list)

	case "summary":
		day := *date
		if len(args) > 1 {
			day = args[1]
		}
		var summary json.RawMessage
		if err := gw.DaySummary(ctx, day, &summary); err != nil {
			fatalf("summary failed: %v", err)
		}
		printJSON(summary)

	default:
		flag.Usage()
		os.Exit(2)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func defaultStateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".attendctl"
	}
	return filepath.Join(home, ".attendctl")
}

func mustInt(s string) int64 {
	var n int64
	if _, err := fmt.Sscanf(s, "%d", &n); err != nil {
		fatalf("invalid number %q", s)
	}
	return n
}

func printJSON(v interface{}) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fatalf("failed to encode output: %v", err)
	}
	fmt.Println(string(data))
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
