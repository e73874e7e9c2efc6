// internal/client/gateway/gateway.go

// Package gateway is the single HTTP dispatch point for attendance devices.
// Every call reads the bearer token from durable storage, every failure is
// classified into the APIError taxonomy, and a 401 clears stored credentials
// before the error reaches the caller.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"attendance-service/internal/client/storage"

	"go.uber.org/zap"
)

const defaultTimeout = 15 * time.Second

type Options struct {
	BaseURL string
	Timeout time.Duration
}

type Gateway struct {
	baseURL    string
	httpClient *http.Client
	store      storage.Storage
	logger     *zap.Logger
}

func New(opts Options, store storage.Storage, logger *zap.Logger) *Gateway {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Gateway{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		store:      store,
		logger:     logger,
	}
}

// envelope is the server's uniform response wrapper.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

func (e *envelope) serverMessage() string {
	if e.Error != "" {
		return e.Error
	}
	return e.Message
}

// do issues one request through the interceptor pair: token injection on the
// way out, 401 cleanup and error classification on the way back.
func (g *Gateway) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &APIError{Kind: KindUnknown, Message: fmt.Sprintf("failed to encode request: %v", err)}
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reqBody)
	if err != nil {
		return &APIError{Kind: KindUnknown, Message: fmt.Sprintf("failed to build request: %v", err)}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	// The token comes from durable storage, never from the session store.
	// An absent token is fine; the request goes out unauthenticated.
	tokenUsed, err := g.store.Get(storage.KeyToken)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return &APIError{Kind: KindUnknown, Message: fmt.Sprintf("failed to read token: %v", err)}
	}
	if tokenUsed != "" {
		req.Header.Set("Authorization", "Bearer "+tokenUsed)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return networkError(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return networkError(err)
	}

	var env envelope
	if len(data) > 0 {
		// A non-JSON body is tolerated; classification falls back to the
		// status code alone
		_ = json.Unmarshal(data, &env)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		g.clearCredentials(tokenUsed)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return classify(resp.StatusCode, env.serverMessage())
	}

	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return &APIError{Kind: KindUnknown, Status: resp.StatusCode,
				Message: fmt.Sprintf("failed to decode response: %v", err)}
		}
	}
	return nil
}

// clearCredentials wipes the stored token and user after a 401. The wipe is
// skipped when the stored token no longer matches the token this request was
// sent with: a 401 for a stale request must not destroy a session
// established by a newer login.
func (g *Gateway) clearCredentials(tokenUsed string) {
	current, err := g.store.Get(storage.KeyToken)
	if err == nil && current != tokenUsed {
		return
	}

	if err := g.store.Delete(storage.KeyToken); err != nil {
		g.logger.Warn("failed to clear stored token", zap.Error(err))
	}
	if err := g.store.Delete(storage.KeyUser); err != nil {
		g.logger.Warn("failed to clear stored user", zap.Error(err))
	}
}

// Get issues a pass-through GET and decodes the envelope data into out.
func (g *Gateway) Get(ctx context.Context, path string, out interface{}) error {
	return g.do(ctx, http.MethodGet, path, nil, out)
}

func (g *Gateway) Post(ctx context.Context, path string, body, out interface{}) error {
	return g.do(ctx, http.MethodPost, path, body, out)
}

func (g *Gateway) Put(ctx context.Context, path string, body, out interface{}) error {
	return g.do(ctx, http.MethodPut, path, body, out)
}

func (g *Gateway) Delete(ctx context.Context, path string) error {
	return g.do(ctx, http.MethodDelete, path, nil, nil)
}
