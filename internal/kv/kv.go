// Package kv is the key-value counter store consulted by the rate limiter.
package kv

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable wraps every failure to reach or use the backing store.
var ErrUnavailable = errors.New("kv store unavailable")

// Store holds JSON values with an optional expiry.
// Get reports ok=false for absent or expired keys.
type Store interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
