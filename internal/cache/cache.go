// Package cache stores upstream response bodies for the proxy layer.
package cache

import (
	"context"
	"time"
)

type Cache interface {
	// Get returns the cached body for key and whether it was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
