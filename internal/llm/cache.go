package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"resume-tailor/internal/shared/metrics"
	"resume-tailor/internal/shared/telemetry"
)

// DefaultCacheTTL is how long a cached response stays valid.
const DefaultCacheTTL = 7 * 24 * time.Hour

// Cache is a disk cache of successful generator responses, one JSON file per key.
type Cache struct {
	dir     string
	ttl     time.Duration
	now     func() time.Time
	log     *telemetry.Logger
	metrics *metrics.Registry

	hits   atomic.Int64
	misses atomic.Int64
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithClock overrides the time source.
func WithClock(now func() time.Time) CacheOption {
	return func(c *Cache) { c.now = now }
}

// WithCacheLogger attaches a logger.
func WithCacheLogger(log *telemetry.Logger) CacheOption {
	return func(c *Cache) { c.log = log }
}

// WithCacheMetrics attaches a metrics registry.
func WithCacheMetrics(reg *metrics.Registry) CacheOption {
	return func(c *Cache) { c.metrics = reg }
}

// NewCache returns a cache rooted at dir. A non-positive ttl uses DefaultCacheTTL.
func NewCache(dir string, ttl time.Duration, opts ...CacheOption) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	c := &Cache{dir: dir, ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type cacheEntry struct {
	CreatedAt   time.Time `json:"created_at"`
	ExpiresAt   time.Time `json:"expires_at"`
	Model       string    `json:"model"`
	Temperature float64   `json:"temperature"`
	PromptHash  string    `json:"prompt_hash"`
	Result      string    `json:"result"`
}

// CacheKey derives the entry key from the prompt, model and temperature (rounded to two decimals).
func CacheKey(prompt, model string, temperature float64) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%.2f", prompt, model, temperature)))
	return hex.EncodeToString(sum[:])[:16]
}

func (c *Cache) path(key string) string {
	return filepath.Join(c.dir, key+".json")
}

// Dir returns the cache directory.
func (c *Cache) Dir() string { return c.dir }

// Get returns a cached response. Expired or unreadable entries are removed and count as misses.
func (c *Cache) Get(prompt, model string, temperature float64) (string, bool) {
	key := CacheKey(prompt, model, temperature)
	entry, err := c.read(c.path(key))
	switch {
	case errors.Is(err, fs.ErrNotExist):
		c.miss()
		return "", false
	case err != nil:
		c.log.Warn("llm.cache.corrupt", map[string]any{"key": key, "error": err})
		_ = os.Remove(c.path(key))
		c.miss()
		return "", false
	case c.expired(entry):
		_ = os.Remove(c.path(key))
		c.miss()
		return "", false
	}
	c.hits.Add(1)
	c.metrics.ObserveCache(true)
	c.log.Debug("llm.cache.hit", map[string]any{"key": key, "model": model})
	return entry.Result, true
}

// Put stores a successful response.
func (c *Cache) Put(prompt, model string, temperature float64, result string) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	key := CacheKey(prompt, model, temperature)
	now := c.now().UTC()
	data, err := json.MarshalIndent(cacheEntry{
		CreatedAt:   now,
		ExpiresAt:   now.Add(c.ttl),
		Model:       model,
		Temperature: temperature,
		PromptHash:  key,
		Result:      result,
	}, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(c.path(key), data, 0o644); err != nil {
		return fmt.Errorf("write cache entry: %w", err)
	}
	return nil
}

// CacheStats summarises the cache contents and this process's lookups.
type CacheStats struct {
	Dir       string  `json:"cache_dir"`
	TTLDays   int     `json:"ttl_days"`
	Entries   int     `json:"entries"`
	Expired   int     `json:"expired_entries"`
	SizeBytes int64   `json:"size_bytes"`
	Hits      int64   `json:"hits"`
	Misses    int64   `json:"misses"`
	HitRate   float64 `json:"hit_rate"`
}

// Stats scans the cache directory. Unreadable entries count as expired.
func (c *Cache) Stats() (CacheStats, error) {
	stats := CacheStats{
		Dir:     c.dir,
		TTLDays: int(c.ttl / (24 * time.Hour)),
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
	}
	if total := stats.Hits + stats.Misses; total > 0 {
		stats.HitRate = float64(stats.Hits) / float64(total) * 100
	}
	files, err := c.entries()
	if err != nil {
		return stats, err
	}
	for _, path := range files {
		info, err := os.Stat(path)
		if err != nil {
			stats.Expired++
			continue
		}
		stats.Entries++
		stats.SizeBytes += info.Size()
		entry, err := c.read(path)
		if err != nil || c.expired(entry) {
			stats.Expired++
		}
	}
	return stats, nil
}

// Clear removes every entry and returns how many were deleted.
func (c *Cache) Clear() (int, error) {
	files, err := c.entries()
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, path := range files {
		if os.Remove(path) == nil {
			removed++
		}
	}
	return removed, nil
}

// ClearExpired removes expired and unreadable entries.
func (c *Cache) ClearExpired() (int, error) {
	files, err := c.entries()
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, path := range files {
		entry, err := c.read(path)
		if err == nil && !c.expired(entry) {
			continue
		}
		if os.Remove(path) == nil {
			removed++
		}
	}
	return removed, nil
}

func (c *Cache) entries() ([]string, error) {
	files, err := filepath.Glob(filepath.Join(c.dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("list cache: %w", err)
	}
	return files, nil
}

func (c *Cache) read(path string) (cacheEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return cacheEntry{}, err
	}
	var entry cacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return cacheEntry{}, err
	}
	return entry, nil
}

func (c *Cache) expired(entry cacheEntry) bool {
	return entry.ExpiresAt.IsZero() || c.now().After(entry.ExpiresAt)
}

func (c *Cache) miss() {
	c.misses.Add(1)
	c.metrics.ObserveCache(false)
}

// CachingClient serves repeated prompts from a Cache and stores successful completions.
type CachingClient struct {
	Client      Client
	Cache       *Cache
	Model       string
	Temperature float64
	// Cacheable reports whether a completion is worth storing. Nil stores every completion.
	Cacheable func(string) bool
}

// Complete returns a cached response when present, otherwise calls the wrapped client.
func (c *CachingClient) Complete(ctx context.Context, prompt string) (string, error) {
	if c.Cache == nil {
		return c.Client.Complete(ctx, prompt)
	}
	if cached, ok := c.Cache.Get(prompt, c.Model, c.Temperature); ok {
		return cached, nil
	}
	out, err := c.Client.Complete(ctx, prompt)
	if err != nil {
		return "", err
	}
	if c.Cacheable != nil && !c.Cacheable(out) {
		return out, nil
	}
	if err := c.Cache.Put(prompt, c.Model, c.Temperature, out); err != nil {
		c.Cache.log.Warn("llm.cache.write_failed", map[string]any{"error": err})
	}
	return out, nil
}

var _ Client = (*CachingClient)(nil)
