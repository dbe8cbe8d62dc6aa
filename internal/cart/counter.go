package cart

import (
	"context"
	"sync"

	"marketplace-storefront/internal/util"

	"go.uber.org/zap"
)

// CountAPI returns the server-side cart item count.
type CountAPI interface {
	Count(ctx context.Context) (int, error)
}

// Counter caches the cart count shown in the navigation badge. It is
// refreshed independently of any Page and may briefly lag behind it.
type Counter struct {
	api    CountAPI
	logger *zap.Logger

	mu    sync.RWMutex
	count int
	gen   uint64
}

func NewCounter(api CountAPI) *Counter {
	return &Counter{api: api, logger: util.GetLogger()}
}

func (c *Counter) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.count
}

// Refresh refetches the count. On failure the previous value is kept. A
// response that arrives after Reset is dropped.
func (c *Counter) Refresh(ctx context.Context) (int, error) {
	c.mu.RLock()
	gen := c.gen
	c.mu.RUnlock()

	n, err := c.api.Count(ctx)
	if err != nil {
		c.logger.Warn("Failed to refresh cart count", zap.Error(err))
		return c.Count(), err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return c.count, nil
	}
	c.count = n
	return n, nil
}

// Reset zeroes the count, e.g. after logout.
func (c *Counter) Reset() {
	c.mu.Lock()
	c.count = 0
	c.gen++
	c.mu.Unlock()
}
