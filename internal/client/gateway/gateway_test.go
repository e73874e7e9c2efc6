package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"attendance-service/internal/client/storage"

	"go.uber.org/zap"
)

func newGateway(t *testing.T, handler http.Handler) (*Gateway, *storage.MemoryStorage, func()) {
	t.Helper()

	ts := httptest.NewServer(handler)
	store := storage.NewMemoryStorage()
	gw := New(Options{BaseURL: ts.URL, Timeout: 2 * time.Second}, store, zap.NewNop())
	return gw, store, ts.Close
}

func TestTokenInjection(t *testing.T) {
	var gotAuth string
	gw, store, done := newGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		fmt.Fprint(w, `{"success":true,"data":{}}`)
	}))
	defer done()

	if err := store.Set(storage.KeyToken, "tok-abc"); err != nil {
		t.Fatal(err)
	}

	var out map[string]interface{}
	if err := gw.Get(context.Background(), "/api/v1/employees", &out); err != nil {
		t.Fatal(err)
	}
	if gotAuth != "Bearer tok-abc" {
		t.Errorf("Authorization = %q, want bearer token from storage", gotAuth)
	}
}

func TestMissingTokenSendsUnauthenticated(t *testing.T) {
	var gotAuth string
	var hadHeader bool
	gw, _, done := newGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth, hadHeader = r.Header.Get("Authorization"), r.Header.Get("Authorization") != ""
		fmt.Fprint(w, `{"success":true}`)
	}))
	defer done()

	if err := gw.Get(context.Background(), "/api/v1/health", nil); err != nil {
		t.Fatal(err)
	}
	if hadHeader {
		t.Errorf("request without a stored token should carry no Authorization header, got %q", gotAuth)
	}
}

func TestErrorTaxonomy(t *testing.T) {
	cases := []struct {
		status int
		want   Kind
	}{
		{http.StatusBadRequest, KindValidation},
		{http.StatusUnprocessableEntity, KindValidation},
		{http.StatusUnauthorized, KindAuth},
		{http.StatusForbidden, KindForbidden},
		{http.StatusNotFound, KindNotFound},
		{http.StatusConflict, KindConflict},
		{http.StatusTooManyRequests, KindRateLimited},
		{http.StatusInternalServerError, KindServer},
		{http.StatusBadGateway, KindServer},
		{http.StatusTeapot, KindUnknown},
	}

	for _, tc := range cases {
		t.Run(fmt.Sprintf("status_%d", tc.status), func(t *testing.T) {
			gw, _, done := newGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				fmt.Fprint(w, `{"success":false,"message":"request failed"}`)
			}))
			defer done()

			err := gw.Get(context.Background(), "/api/v1/anything", nil)
			if err == nil {
				t.Fatal("expected an error")
			}

			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("error is not *APIError: %T", err)
			}
			if apiErr.Kind != tc.want {
				t.Errorf("kind = %v, want %v", apiErr.Kind, tc.want)
			}
			if apiErr.Status != tc.status {
				t.Errorf("status = %d, want %d", apiErr.Status, tc.status)
			}
		})
	}
}

func TestNetworkErrorKind(t *testing.T) {
	gw, _, done := newGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	done() // dead server

	err := gw.Get(context.Background(), "/api/v1/health", nil)
	if !IsKind(err, KindNetwork) {
		t.Errorf("dial failure should classify as network error, got %v", err)
	}
}

func TestServerMessagePreferred(t *testing.T) {
	gw, _, done := newGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"success":false,"message":"failed to create employee","error":"employee code already in use"}`)
	}))
	defer done()

	err := gw.Post(context.Background(), "/api/v1/employees", map[string]string{}, nil)

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error is not *APIError: %T", err)
	}
	if apiErr.Message != "employee code already in use" {
		t.Errorf("message = %q, want the server's error field", apiErr.Message)
	}
}

func Test401ClearsStoredCredentials(t *testing.T) {
	gw, store, done := newGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"success":false,"message":"invalid or expired token"}`)
	}))
	defer done()

	store.Set(storage.KeyToken, "tok-expired")
	store.Set(storage.KeyUser, `{"id":1}`)

	// Any endpoint; the cleanup is endpoint-agnostic
	err := gw.Get(context.Background(), "/api/v1/dashboard/day", nil)
	if !IsKind(err, KindAuth) {
		t.Fatalf("expected auth error, got %v", err)
	}

	if _, err := store.Get(storage.KeyToken); !errors.Is(err, storage.ErrNotFound) {
		t.Error("token should be cleared after a 401")
	}
	if _, err := store.Get(storage.KeyUser); !errors.Is(err, storage.ErrNotFound) {
		t.Error("user should be cleared after a 401")
	}
}

func TestStale401DoesNotClearNewerSession(t *testing.T) {
	var store *storage.MemoryStorage
	gw, store, done := newGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// A fresh login lands while this request is in flight
		store.Set(storage.KeyToken, "tok-new")
		store.Set(storage.KeyUser, `{"id":2}`)

		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"success":false,"message":"invalid or expired token"}`)
	}))
	defer done()

	store.Set(storage.KeyToken, "tok-old")
	store.Set(storage.KeyUser, `{"id":1}`)

	err := gw.Get(context.Background(), "/api/v1/employees", nil)
	if !IsKind(err, KindAuth) {
		t.Fatalf("expected auth error, got %v", err)
	}

	tok, err := store.Get(storage.KeyToken)
	if err != nil || tok != "tok-new" {
		t.Errorf("stale 401 must not destroy the newer session, token = %q, err = %v", tok, err)
	}
	if _, err := store.Get(storage.KeyUser); err != nil {
		t.Error("stale 401 must leave the newer user record intact")
	}
}

func TestDecodeErrors(t *testing.T) {
	gw, _, done := newGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"success":true,"data":"not-an-object"}`)
	}))
	defer done()

	var out struct{ ID int64 }
	err := gw.Get(context.Background(), "/api/v1/employees/1", &out)
	if !IsKind(err, KindUnknown) {
		t.Errorf("undecodable data should classify as unknown, got %v", err)
	}
}
