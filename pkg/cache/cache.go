// Package cache provides pluggable caching for API responses and
// compiled artifacts.
//
// The package defines a small Cache interface with three backends: a
// file-based cache for CLI usage, a Redis-backed cache for the server,
// and a null cache that disables caching entirely. Key construction is
// separated into the Keyer interface so callers never build raw key
// strings themselves.
package cache

import (
	"context"
	"time"
)

// TTLs for the different artifact classes. Documents change frequently
// while a designer is working, so they expire quickly. Rendered image
// URLs are signed links with a lifetime of days, and compiled scenes
// are keyed by document hash so they only go stale when we change the
// compiler itself.
const (
	// TTLDocument is the lifetime for fetched document trees.
	TTLDocument = 15 * time.Minute

	// TTLImages is the lifetime for image render URL maps.
	TTLImages = 12 * time.Hour

	// TTLScene is the lifetime for compiled scenes.
	TTLScene = 24 * time.Hour

	// TTLAsset is the lifetime for downloaded asset bytes.
	TTLAsset = 7 * 24 * time.Hour
)

// Cache is a byte-oriented key/value store with per-entry expiration.
//
// Implementations must be safe for concurrent use. A miss is reported
// through the bool return of Get, not through an error; errors are
// reserved for backend failures.
type Cache interface {
	// Get retrieves a value. The second return reports whether the
	// key was present and unexpired.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with the given TTL. A zero or negative TTL
	// stores the value without expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases resources held by the backend.
	Close() error
}
