package cache

import (
	"context"
	"time"
)

// LayeredCache fronts a disk cache with a memory cache
type LayeredCache struct {
	front Cache
	back  Cache
}

// NewLayeredCache creates a memory+disk cache
func NewLayeredCache(memoryTTL time.Duration, diskDir string, diskTTL time.Duration) *LayeredCache {
	return &LayeredCache{
		front: NewMemoryCache(memoryTTL, 10*time.Minute),
		back:  NewDiskCache(diskDir, diskTTL),
	}
}

// Get checks memory, then disk, promoting disk hits into memory
func (c *LayeredCache) Get(ctx context.Context, key string) ([]byte, bool) {
	if v, ok := c.front.Get(ctx, key); ok {
		return v, true
	}
	v, ok := c.back.Get(ctx, key)
	if !ok {
		return nil, false
	}
	_ = c.front.Set(ctx, key, v, 0)
	return v, true
}

func (c *LayeredCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.front.Set(ctx, key, value, ttl); err != nil {
		return err
	}
	return c.back.Set(ctx, key, value, ttl)
}

func (c *LayeredCache) Delete(ctx context.Context, key string) error {
	_ = c.front.Delete(ctx, key)
	return c.back.Delete(ctx, key)
}

func (c *LayeredCache) Clear(ctx context.Context) error {
	_ = c.front.Clear(ctx)
	return c.back.Clear(ctx)
}
