package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// offerCacheTTL is deliberately short: offer state changes often during
// active negotiation and mutations invalidate eagerly anyway.
const offerCacheTTL = 30 * time.Second

// CacheService provides in-memory caching with TTL and invalidation support.
type CacheService struct {
	mu    sync.RWMutex
	cache map[string]*cacheEntry
}

type cacheEntry struct {
	data      interface{}
	expiresAt time.Time
}

// NewCacheService creates a new cache service.
func NewCacheService() *CacheService {
	cs := &CacheService{
		cache: make(map[string]*cacheEntry),
	}

	go cs.cleanup()

	return cs
}

// Get retrieves a value from cache.
func (cs *CacheService) Get(key string) (interface{}, bool) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	entry, exists := cs.cache[key]
	if !exists {
		return nil, false
	}

	if time.Now().After(entry.expiresAt) {
		// Don't delete here, let cleanup handle it
		return nil, false
	}

	return entry.data, true
}

// Set stores a value in cache with TTL.
func (cs *CacheService) Set(key string, value interface{}, ttl time.Duration) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	cs.cache[key] = &cacheEntry{
		data:      value,
		expiresAt: time.Now().Add(ttl),
	}
}

// Delete removes a key from cache.
func (cs *CacheService) Delete(key string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	delete(cs.cache, key)
}

// InvalidateByPrefix removes all keys with the given prefix.
func (cs *CacheService) InvalidateByPrefix(prefix string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	for key := range cs.cache {
		if strings.HasPrefix(key, prefix) {
			delete(cs.cache, key)
		}
	}
}

// cleanup removes expired entries periodically.
func (cs *CacheService) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		cs.mu.Lock()
		now := time.Now()
		for key, entry := range cs.cache {
			if now.After(entry.expiresAt) {
				delete(cs.cache, key)
			}
		}
		cs.mu.Unlock()
	}
}

// Cache key generators
func OfferCacheKey(offerID uuid.UUID) string {
	return "offer:" + offerID.String()
}

func BalanceCacheKey(userID uuid.UUID) string {
	return "balance:" + userID.String()
}

// GetOrSet retrieves a value from cache or computes it if not found.
func (cs *CacheService) GetOrSet(
	ctx context.Context,
	key string,
	ttl time.Duration,
	fn func() (interface{}, error),
) (interface{}, error) {
	if value, found := cs.Get(key); found {
		return value, nil
	}

	value, err := fn()
	if err != nil {
		return nil, err
	}

	cs.Set(key, value, ttl)

	return value, nil
}
