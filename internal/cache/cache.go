// Package cache is the two-tier lookup cache: a bounded in-process tier in
// front of a durable keyed store with TTL.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Store defines the durable cache tier. Implementations may fail (disk
// full, store unreachable); callers treat that as degradation, not as a
// request failure.
type Store interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key generates a cache key from an arbitrary identifier
func Key(id string) string {
	hash := sha256.Sum256([]byte(id))
	return "kys:v1:" + hex.EncodeToString(hash[:])
}
