package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
)

// TieredCache layers an in-memory L1 over an optional shared L2 (Redis). Values are stored as
// JSON bytes so both tiers hold the same representation.
//
// With no L2 configured it behaves as a plain memory cache, which is the default for a
// single instance.
type TieredCache struct {
	l1    *Cache
	l2    RemoteCache
	l2TTL time.Duration

	l1Hits atomic.Int64
	l2Hits atomic.Int64
	misses atomic.Int64
}

// TieredCacheConfig holds the configuration for the tiered cache.
type TieredCacheConfig struct {
	L1MaxItems int
	L1TTL      time.Duration
	L2TTL      time.Duration
}

// DefaultTieredConfig returns the default tiered cache configuration.
func DefaultTieredConfig() *TieredCacheConfig {
	return &TieredCacheConfig{
		L1MaxItems: 1000,
		L1TTL:      5 * time.Minute,
		L2TTL:      30 * time.Minute,
	}
}

// NewTieredCache creates a tiered cache. l2 may be nil.
func NewTieredCache(config *TieredCacheConfig, l2 RemoteCache) *TieredCache {
	if config == nil {
		config = DefaultTieredConfig()
	}
	return &TieredCache{
		l1: New(Config{
			DefaultTTL:      config.L1TTL,
			CleanupInterval: time.Minute,
			MaxItems:        config.L1MaxItems,
		}),
		l2:    l2,
		l2TTL: config.L2TTL,
	}
}

// Get returns the cached bytes for key, checking L1 then L2. L2 hits are promoted to L1.
func (t *TieredCache) Get(ctx context.Context, key string) ([]byte, bool) {
	if v, ok := t.l1.Get(ctx, key); ok {
		t.l1Hits.Add(1)
		return v.([]byte), true
	}
	if t.l2 != nil {
		if data, ok := t.l2.Get(ctx, key); ok {
			t.l2Hits.Add(1)
			t.l1.Set(ctx, key, data)
			return data, true
		}
	}
	t.misses.Add(1)
	return nil, false
}

// Set stores value in both tiers.
func (t *TieredCache) Set(ctx context.Context, key string, value []byte) {
	t.l1.Set(ctx, key, value)
	if t.l2 != nil {
		t.l2.SetWithTTL(ctx, key, value, t.l2TTL)
	}
}

// Delete removes key from both tiers.
func (t *TieredCache) Delete(ctx context.Context, key string) {
	t.l1.Delete(ctx, key)
	if t.l2 != nil {
		t.l2.Delete(ctx, key)
	}
}

func (t *TieredCache) Clear(ctx context.Context) {
	t.l1.Clear(ctx)
	if t.l2 != nil {
		t.l2.Clear(ctx)
	}
}

// CacheStats represents combined cache statistics.
type CacheStats struct {
	L1Size    int64 `json:"l1_size"`
	L1Hits    int64 `json:"l1_hits"`
	L2Hits    int64 `json:"l2_hits"`
	Misses    int64 `json:"misses"`
	L2Enabled bool  `json:"l2_enabled"`
}

func (t *TieredCache) Stats() CacheStats {
	return CacheStats{
		L1Size:    t.l1.Size(),
		L1Hits:    t.l1Hits.Load(),
		L2Hits:    t.l2Hits.Load(),
		Misses:    t.misses.Load(),
		L2Enabled: t.l2 != nil,
	}
}

// Close closes all cache layers.
func (t *TieredCache) Close() error {
	var l2Err error
	if t.l2 != nil {
		l2Err = t.l2.Close()
	}
	if err := t.l1.Close(); err != nil {
		return err
	}
	return l2Err
}

// GetJSON decodes the cached value for key into a T. Undecodable entries are dropped and
// reported as misses.
func GetJSON[T any](ctx context.Context, t *TieredCache, key string) (T, bool) {
	var v T
	data, ok := t.Get(ctx, key)
	if !ok {
		return v, false
	}
	if err := json.Unmarshal(data, &v); err != nil {
		slog.Warn("dropping undecodable cache entry", "key", key, "error", err)
		t.Delete(ctx, key)
		return v, false
	}
	return v, true
}

// SetJSON encodes value and stores it under key.
func SetJSON(ctx context.Context, t *TieredCache, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return errors.Wrapf(err, "failed to marshal cache value for %s", key)
	}
	t.Set(ctx, key, data)
	return nil
}
