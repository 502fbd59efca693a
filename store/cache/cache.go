// Package cache provides the in-memory TTL cache and the tiered cache that fronts it with an
// optional Redis layer.
package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Config holds the configuration of an in-memory cache.
type Config struct {
	// DefaultTTL is used by Set. Zero means entries never expire.
	DefaultTTL time.Duration
	// CleanupInterval is how often expired entries are swept. Zero disables the sweeper.
	CleanupInterval time.Duration
	// MaxItems bounds the number of entries. Zero means unbounded.
	MaxItems int
	// OnEviction is called when an entry expires or is evicted to make room.
	OnEviction func(key string, value any)
}

type item struct {
	value      any
	expiration int64 // unix nanos, 0 for no expiry
}

func (i *item) expired(now int64) bool {
	return i.expiration > 0 && now > i.expiration
}

// Cache is a concurrency-safe in-memory key/value cache with per-entry TTLs.
type Cache struct {
	config    Config
	data      sync.Map
	itemCount atomic.Int64
	stop      chan struct{}
	closeOnce sync.Once
}

// New creates a cache and starts its cleanup goroutine when configured.
func New(config Config) *Cache {
	c := &Cache{
		config: config,
		stop:   make(chan struct{}),
	}
	if config.CleanupInterval > 0 {
		go c.cleanupLoop()
	}
	return c
}

func (c *Cache) Set(ctx context.Context, key string, value any) {
	c.SetWithTTL(ctx, key, value, c.config.DefaultTTL)
}

func (c *Cache) SetWithTTL(_ context.Context, key string, value any, ttl time.Duration) {
	var expiration int64
	if ttl > 0 {
		expiration = time.Now().Add(ttl).UnixNano()
	}

	if _, loaded := c.data.Load(key); !loaded {
		if c.config.MaxItems > 0 && c.itemCount.Load() >= int64(c.config.MaxItems) {
			c.evict()
		}
		c.itemCount.Add(1)
	}
	c.data.Store(key, &item{value: value, expiration: expiration})
}

func (c *Cache) Get(_ context.Context, key string) (any, bool) {
	v, ok := c.data.Load(key)
	if !ok {
		return nil, false
	}
	it := v.(*item)
	if it.expired(time.Now().UnixNano()) {
		c.remove(key, it, true)
		return nil, false
	}
	return it.value, true
}

// Take removes key and returns its value. Of several concurrent callers only one receives
// the value.
func (c *Cache) Take(_ context.Context, key string) (any, bool) {
	v, loaded := c.data.LoadAndDelete(key)
	if !loaded {
		return nil, false
	}
	c.itemCount.Add(-1)
	it := v.(*item)
	if it.expired(time.Now().UnixNano()) {
		if c.config.OnEviction != nil {
			c.config.OnEviction(key, it.value)
		}
		return nil, false
	}
	return it.value, true
}

func (c *Cache) Delete(_ context.Context, key string) {
	if _, loaded := c.data.LoadAndDelete(key); loaded {
		c.itemCount.Add(-1)
	}
}

func (c *Cache) Clear(_ context.Context) {
	c.data.Range(func(key, _ any) bool {
		c.data.Delete(key)
		return true
	})
	c.itemCount.Store(0)
}

// Size returns the number of entries, including expired ones not yet swept.
func (c *Cache) Size() int64 {
	return c.itemCount.Load()
}

// Close stops the cleanup goroutine. The cache remains usable.
func (c *Cache) Close() error {
	c.closeOnce.Do(func() {
		close(c.stop)
	})
	return nil
}

func (c *Cache) remove(key string, it *item, notify bool) {
	if c.data.CompareAndDelete(key, it) {
		c.itemCount.Add(-1)
		if notify && c.config.OnEviction != nil {
			c.config.OnEviction(key, it.value)
		}
	}
}

// evict drops expired entries, or the entry closest to expiry when none has expired.
func (c *Cache) evict() {
	now := time.Now().UnixNano()
	var (
		victimKey  string
		victim     *item
		anyExpired bool
	)
	c.data.Range(func(k, v any) bool {
		it := v.(*item)
		if it.expired(now) {
			c.remove(k.(string), it, true)
			anyExpired = true
			return true
		}
		if victim == nil || (it.expiration > 0 && (victim.expiration == 0 || it.expiration < victim.expiration)) {
			victimKey, victim = k.(string), it
		}
		return true
	})
	if !anyExpired && victim != nil {
		c.remove(victimKey, victim, true)
	}
}

func (c *Cache) cleanupLoop() {
	ticker := time.NewTicker(c.config.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.deleteExpired()
		case <-c.stop:
			return
		}
	}
}

func (c *Cache) deleteExpired() {
	now := time.Now().UnixNano()
	c.data.Range(func(k, v any) bool {
		if it := v.(*item); it.expired(now) {
			c.remove(k.(string), it, true)
		}
		return true
	})
}
