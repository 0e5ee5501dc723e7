package cache

import (
	"context"
	"time"

	"github.com/api-sage/fcy-ledger/src/internal/domain"
)

var _ domain.Cache = Noop{}

// Noop is the cache used when no redis address is configured.
type Noop struct{}

func (Noop) Get(context.Context, string) (string, bool)          { return "", false }
func (Noop) Set(context.Context, string, string, time.Duration) {}
func (Noop) Delete(context.Context, ...string)                  {}
