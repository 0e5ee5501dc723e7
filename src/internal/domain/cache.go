package domain

import (
	"context"
	"time"
)

// Cache is an advisory accelerator. Implementations swallow their own
// failures: an unavailable cache behaves like a permanent miss.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key string, value string, ttl time.Duration)
	Delete(ctx context.Context, keys ...string)
}
