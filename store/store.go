package store

import (
	"time"

	"github.com/fayaz1010/Iqra/internal/profile"
	"github.com/fayaz1010/Iqra/store/cache"
)

// Store provides database access to all raw objects.
type Store struct {
	profile *profile.Profile
	driver  Driver

	// cache holds user progress, the most frequently read row.
	cache *cache.TieredCache
}

type Option func(*Store)

// WithRemoteCache adds a shared L2 layer (Redis) under the in-memory cache.
func WithRemoteCache(remote cache.RemoteCache) Option {
	return func(s *Store) {
		s.cache = cache.NewTieredCache(tieredCacheConfig(), remote)
	}
}

func tieredCacheConfig() *cache.TieredCacheConfig {
	return &cache.TieredCacheConfig{
		L1MaxItems: 1000,
		L1TTL:      10 * time.Minute,
		L2TTL:      30 * time.Minute,
	}
}

// New creates a new instance of Store.
func New(driver Driver, profile *profile.Profile, opts ...Option) *Store {
	store := &Store{
		driver:  driver,
		profile: profile,
	}
	for _, opt := range opts {
		opt(store)
	}
	if store.cache == nil {
		store.cache = cache.NewTieredCache(tieredCacheConfig(), nil)
	}
	return store
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

// CacheStats reports hit counters of the progress cache.
func (s *Store) CacheStats() cache.CacheStats {
	return s.cache.Stats()
}

func (s *Store) Close() error {
	if err := s.cache.Close(); err != nil {
		return err
	}
	return s.driver.Close()
}
