package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/api-sage/fcy-ledger/src/internal/adapter/cache"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func TestRedisCacheUnavailableBehavesAsMiss(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	c := cache.NewRedisCacheFromClient(client)
	defer c.Close()

	ctx := context.Background()
	c.Set(ctx, "fx:rate:USD:NGN", "{}", time.Minute)
	c.Delete(ctx, "fx:rate:USD:NGN")

	val, ok := c.Get(ctx, "fx:rate:USD:NGN")
	assert.False(t, ok)
	assert.Empty(t, val)
}

func TestNoopCacheNeverHits(t *testing.T) {
	var c cache.Noop
	c.Set(context.Background(), "k", "v", time.Minute)

	_, ok := c.Get(context.Background(), "k")
	assert.False(t, ok)
}
