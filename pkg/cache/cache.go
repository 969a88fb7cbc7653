// Package cache provides byte-level caching for computed page layouts.
//
// Laying out a freshly imported document (migrate, normalize, resolve) is
// deterministic: the same document bytes and engine settings always give the
// same blocks. The pipeline stores the result under a key derived from the
// document hash so repeated imports of the same file skip the engine.
//
// Three backends are provided:
//   - [FileCache] stores entries as JSON files under a directory (CLI use)
//   - [RedisCache] stores entries in Redis (server use)
//   - [NullCache] never stores anything (caching disabled)
//
// Keys are produced by a [Keyer]; [ScopedKeyer] adds a prefix for
// namespacing.
package cache

import (
	"context"
	"time"
)

// Cache stores opaque byte values under string keys.
//
// Get reports a miss with hit=false and a nil error. A zero ttl in Set means
// the entry never expires.
type Cache interface {
	Get(ctx context.Context, key string) (data []byte, hit bool, err error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}
