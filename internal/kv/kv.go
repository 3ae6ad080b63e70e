// Package kv holds the durable key-value backends a todo store persists to.
package kv

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidKey     = errors.New("invalid key")
	ErrClosed         = errors.New("store closed")
	ErrUnknownBackend = errors.New("unknown storage backend")
)

// Store is a string-keyed durable store holding string values.
type Store interface {
	// Get returns the value under key. ok is false when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	// Set replaces the value under key.
	Set(ctx context.Context, key, value string) error
	// Close releases any resources held by the store.
	Close() error
}

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Open builds the named backend. path is a directory for the file backend
// and a database file for sqlite; memory ignores it.
func Open(ctx context.Context, backend, path string) (Store, error) {
	switch strings.ToLower(backend) {
	case BackendFile:
		return NewFile(path)
	case BackendSQLite:
		return OpenSQLite(ctx, path)
	case BackendMemory:
		return NewMemory(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
}

// CheckKey reports ErrInvalidKey for keys no backend accepts. Keys double
// as file names, so separators and dot-only names are rejected.
func CheckKey(key string) error {
	if strings.TrimSpace(key) == "" || key == "." || key == ".." ||
		strings.ContainsAny(key, `/\`) || strings.ContainsRune(key, 0) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}
