// internal/client/storage/storage.go

// Package storage provides the durable credential store used by attendance
// devices. Two keys matter: the bearer token and the cached user record.
// Each key is independently atomic; there is no cross-key transaction, so
// readers must tolerate one key existing without the other.
package storage

import "errors"

const (
	KeyToken = "token"
	KeyUser  = "user"
)

var ErrNotFound = errors.New("key not found")

// Storage is a small key-value store for credential material.
type Storage interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
}
