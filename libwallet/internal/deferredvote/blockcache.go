package deferredvote

import (
	"context"
	"sync"
	"time"
)

// HeightSource reports the current chain height.
type HeightSource interface {
	BlockHeight(ctx context.Context) (uint64, error)
}

// BlockHeightCache holds the latest known block height. The cached value
// never moves backwards and is refreshed from the source at most once per
// interval.
type BlockHeightCache struct {
	source   HeightSource
	interval time.Duration
	now      func() time.Time

	lock      sync.RWMutex
	height    uint64
	refreshed time.Time
}

func NewBlockHeightCache(source HeightSource, interval time.Duration, now func() time.Time) *BlockHeightCache {
	if now == nil {
		now = time.Now
	}
	return &BlockHeightCache{
		source:   source,
		interval: interval,
		now:      now,
	}
}

// Get returns the cached height.
func (c *BlockHeightCache) Get() uint64 {
	c.lock.RLock()
	defer c.lock.RUnlock()

	return c.height
}

// Set stores height if it is greater than the cached one.
func (c *BlockHeightCache) Set(height uint64) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if height > c.height {
		c.height = height
	}
	c.refreshed = c.now()
}

// Refresh returns the cached height, querying the source first when the
// cached value is older than the refresh interval. On query failure the last
// known height is returned with the error.
func (c *BlockHeightCache) Refresh(ctx context.Context) (uint64, error) {
	c.lock.RLock()
	fresh := !c.refreshed.IsZero() && c.now().Sub(c.refreshed) < c.interval
	height := c.height
	c.lock.RUnlock()
	if fresh {
		return height, nil
	}

	latest, err := c.source.BlockHeight(ctx)
	if err != nil {
		return height, err
	}
	c.Set(latest)
	return c.Get(), nil
}
