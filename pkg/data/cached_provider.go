package data

import (
	"log"
	"path/filepath"
	"sync"

	"github.com/leminhbao/stock-rule-bot/pkg/types"
)

// MemoryCache implements Cache using in-memory storage. Parameter
// sweeps load the same file for every run; caching avoids re-parsing.
type MemoryCache struct {
	cache map[string][]types.OHLCV
	mutex sync.RWMutex
}

// NewMemoryCache creates a new in-memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{cache: make(map[string][]types.OHLCV)}
}

// Get retrieves a copy of the cached bars if present.
func (c *MemoryCache) Get(key string) ([]types.OHLCV, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	bars, exists := c.cache[key]
	if !exists {
		return nil, false
	}
	result := make([]types.OHLCV, len(bars))
	copy(result, bars)
	return result, true
}

// Set stores a copy of the bars.
func (c *MemoryCache) Set(key string, bars []types.OHLCV) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	cached := make([]types.OHLCV, len(bars))
	copy(cached, bars)
	c.cache[key] = cached
}

// Clear removes all cached entries.
func (c *MemoryCache) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.cache = make(map[string][]types.OHLCV)
}

// Size returns the number of cached entries.
func (c *MemoryCache) Size() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.cache)
}

// CachedProvider wraps another Provider with caching.
type CachedProvider struct {
	provider Provider
	cache    Cache
}

// NewCachedProvider creates a cached provider with an in-memory cache.
func NewCachedProvider(provider Provider) *CachedProvider {
	return &CachedProvider{provider: provider, cache: NewMemoryCache()}
}

// GetName returns the underlying provider name with cache indication.
func (p *CachedProvider) GetName() string {
	return "Cached " + p.provider.GetName()
}

// LoadBars loads bars, serving repeated sources from cache.
func (p *CachedProvider) LoadBars(source string) ([]types.OHLCV, error) {
	if cached, exists := p.cache.Get(source); exists {
		return cached, nil
	}

	bars, err := p.provider.LoadBars(source)
	if err != nil {
		return nil, err
	}
	p.cache.Set(source, bars)

	log.Printf("✅ Loaded and cached %d bars from %s", len(bars), filepath.Base(source))
	return bars, nil
}

// ValidateBars delegates to the underlying provider.
func (p *CachedProvider) ValidateBars(bars []types.OHLCV) error {
	return p.provider.ValidateBars(bars)
}

// ClearCache drops all cached data.
func (p *CachedProvider) ClearCache() {
	p.cache.Clear()
}
