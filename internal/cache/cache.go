// Package cache short-circuits repeated identical queries to the same source
// within a TTL window. Two backends implement the same contract: a
// mutex-guarded in-memory map (the default) and Redis for deployments where
// several replicas should share one cache.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/olegproektor/Idea-planner-agent/internal/sources"
)

// Payload is the cached value for one (source, query) pair.
type Payload struct {
	Products []sources.Product `json:"products"`
	CachedAt time.Time         `json:"cached_at"`
}

// Store is a TTL keyed store for per-source search results.
type Store interface {
	// Get returns the payload for (source, query) if present and not older
	// than the TTL. Expired entries are evicted on read. Absence is not an
	// error.
	Get(ctx context.Context, source, query string) (Payload, bool)
	// Set unconditionally overwrites the entry for (source, query).
	Set(ctx context.Context, source, query string, payload Payload)
	// Clear removes all entries.
	Clear(ctx context.Context) error
	// Close releases backend resources.
	Close() error
}

// Key combines the source name with a SHA-256 digest of the exact query.
// Hashing is case- and whitespace-sensitive on purpose: queries differing
// only by formatting must not alias, and callers wanting normalization
// normalize before calling.
func Key(source, query string) string {
	digest := sha256.Sum256([]byte(query))
	return source + ":" + hex.EncodeToString(digest[:])
}
