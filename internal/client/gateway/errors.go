// internal/client/gateway/errors.go
package gateway

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a gateway failure. Classification happens exactly once,
// at the gateway boundary; callers switch on Kind instead of re-inspecting
// status codes or response bodies.
type Kind int

const (
	KindUnknown Kind = iota
	KindNetwork
	KindValidation
	KindAuth
	KindForbidden
	KindNotFound
	KindConflict
	KindRateLimited
	KindServer
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindValidation:
		return "validation"
	case KindAuth:
		return "auth"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindRateLimited:
		return "rate_limited"
	case KindServer:
		return "server"
	default:
		return "unknown"
	}
}

// APIError is the one error type the gateway surfaces.
type APIError struct {
	Kind    Kind
	Status  int // 0 when no response was received
	Message string
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s (HTTP %d): %s", e.Kind, e.Status, e.Message)
}

// IsKind reports whether err is an *APIError of the given kind.
func IsKind(err error, kind Kind) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Kind == kind
}

const (
	msgNetwork     = "could not reach the server, check your connection"
	msgForbidden   = "you do not have permission to perform this action"
	msgRateLimited = "too many requests, try again later"
	msgServer      = "server error, try again later"
)

func networkError(err error) *APIError {
	return &APIError{Kind: KindNetwork, Message: msgNetwork + ": " + err.Error()}
}

// classify maps an HTTP status to the error taxonomy. serverMsg is whatever
// message the response body carried, possibly empty.
func classify(status int, serverMsg string) *APIError {
	e := &APIError{Status: status, Message: serverMsg}

	switch {
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		e.Kind = KindValidation
		if e.Message == "" {
			e.Message = "invalid request"
		}
	case status == http.StatusUnauthorized:
		e.Kind = KindAuth
		if e.Message == "" {
			e.Message = "authentication required"
		}
	case status == http.StatusForbidden:
		e.Kind = KindForbidden
		e.Message = msgForbidden
	case status == http.StatusNotFound:
		e.Kind = KindNotFound
		if e.Message == "" {
			e.Message = "resource not found"
		}
	case status == http.StatusConflict:
		e.Kind = KindConflict
		if e.Message == "" {
			e.Message = "conflict"
		}
	case status == http.StatusTooManyRequests:
		e.Kind = KindRateLimited
		e.Message = msgRateLimited
	case status >= 500:
		e.Kind = KindServer
		e.Message = msgServer
	default:
		e.Kind = KindUnknown
		if e.Message == "" {
			e.Message = fmt.Sprintf("unexpected status %d", status)
		}
	}

	return e
}
