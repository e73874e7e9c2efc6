// internal/client/gateway/api.go
package gateway

import (
	"context"
	"fmt"
	"net/url"
)

// UserPayload is the user record as the server sends it. Role stays a raw
// string here; normalization is the session store's job.
type UserPayload struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	FullName string `json:"full_name,omitempty"`
	Email    string `json:"email,omitempty"`
}

type LoginPayload struct {
	Token     string      `json:"token"`
	TokenType string      `json:"token_type"`
	ExpiresIn int64       `json:"expires_in"`
	User      UserPayload `json:"user"`
}

// Login authenticates against the server. The stored token, if any, is not
// required; login works from a cold start.
func (g *Gateway) Login(ctx context.Context, username, password string) (*LoginPayload, error) {
	body := map[string]string{
		"username": username,
		"password": password,
		"device":   "attendctl",
	}

	var payload LoginPayload
	if err := g.do(ctx, "POST", "/api/v1/auth/login", body, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// VerifyToken asks the server whether the stored token is still good and
// returns the current user record when it is.
func (g *Gateway) VerifyToken(ctx context.Context) (*UserPayload, error) {
	var payload struct {
		User UserPayload `json:"user"`
	}
	if err := g.do(ctx, "GET", "/api/v1/auth/verify", nil, &payload); err != nil {
		return nil, err
	}
	return &payload.User, nil
}

// Logout invalidates the server-side session for the stored token.
func (g *Gateway) Logout(ctx context.Context) error {
	return g.do(ctx, "POST", "/api/v1/auth/logout", nil, nil)
}

// ========== Resource pass-throughs ==========

// MarkAttendance records one attendance mark.
func (g *Gateway) MarkAttendance(ctx context.Context, req, out interface{}) error {
	return g.Post(ctx, "/api/v1/attendance/mark", req, out)
}

// ListEmployees fetches employees with optional query filters.
func (g *Gateway) ListEmployees(ctx context.Context, query url.Values, out interface{}) error {
	path := "/api/v1/employees"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	return g.Get(ctx, path, out)
}

// DaySummary fetches the dashboard aggregate for one day. An empty date
// means today.
func (g *Gateway) DaySummary(ctx context.Context, date string, out interface{}) error {
	path := "/api/v1/dashboard/day"
	if date != "" {
		path += "?date=" + url.QueryEscape(date)
	}
	return g.Get(ctx, path, out)
}

// MonthSummary fetches per-employee totals for one month.
func (g *Gateway) MonthSummary(ctx context.Context, year, month int, out interface{}) error {
	return g.Get(ctx, fmt.Sprintf("/api/v1/dashboard/month?year=%d&month=%d", year, month), out)
}
