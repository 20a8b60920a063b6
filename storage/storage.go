// Package storage persists certificate snapshots by key. Every backend
// replaces the value for a key as a whole, so a reader never observes a
// partially written snapshot.
package storage

import (
	"context"
	"errors"
	"regexp"
)

var ErrNotFound = errors.New("snapshot not found")

// Storage is a key-value store for snapshot bytes. Keys are issuer specific
// file names such as "de.json".
type Storage interface {
	// Read returns the bytes stored under key, or ErrNotFound.
	Read(ctx context.Context, key string) ([]byte, error)
	// Write replaces the bytes stored under key. The replacement is atomic:
	// after a failed or interrupted write the previous value is still readable.
	Write(ctx context.Context, key string, data []byte) error
}

var invalidKeyChars = regexp.MustCompile(`[^-._a-zA-Z0-9]`)

// sanitizeKey replaces characters that are not safe in file names, object
// names, and Kubernetes data keys.
func sanitizeKey(key string) string {
	return invalidKeyChars.ReplaceAllLiteralString(key, "_")
}
