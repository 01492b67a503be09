package cache

import (
	"encoding/json"
	"log/slog"
	"math"
	"sync"
	"time"

	"carcat/internal/config"
)

// NoExpiry keeps an entry live until it is deleted or replaced
const NoExpiry = time.Duration(math.MaxInt64)

// Cache is a process-local key/value store with per-entry TTL.
// Expired entries are removed lazily on Get and by the periodic sweep
// started with Start.
type Cache struct {
	mu         sync.Mutex
	entries    map[string]*Entry
	defaultTTL time.Duration
	interval   time.Duration
	now        func() time.Time
	logger     *slog.Logger

	hits   uint64
	misses uint64

	stopOnce sync.Once
	stopCh   chan struct{}
	started  bool
}

// Entry is a single cached value
type Entry struct {
	Key       string
	Value     any
	CreatedAt time.Time
	TTL       time.Duration
}

// live reports whether the entry may still be served at now
func (e *Entry) live(now time.Time) bool {
	return now.Sub(e.CreatedAt) <= e.TTL
}

// Stats is a read-only diagnostic snapshot
type Stats struct {
	TotalItems    int            `json:"totalItems"`
	TotalSize     int64          `json:"totalSize"`
	OldestItemAge *time.Duration `json:"-"`
	NewestItemAge *time.Duration `json:"-"`
	Hits          uint64         `json:"hits"`
	Misses        uint64         `json:"misses"`
}

// MarshalJSON reports ages in milliseconds, null when the cache is empty
func (s Stats) MarshalJSON() ([]byte, error) {
	type alias Stats
	return json.Marshal(struct {
		alias
		OldestItemAgeMillis *int64 `json:"oldestItemAgeMillis"`
		NewestItemAgeMillis *int64 `json:"newestItemAgeMillis"`
	}{
		alias:               alias(s),
		OldestItemAgeMillis: millis(s.OldestItemAge),
		NewestItemAgeMillis: millis(s.NewestItemAge),
	})
}

func millis(d *time.Duration) *int64 {
	if d == nil {
		return nil
	}
	ms := d.Milliseconds()
	return &ms
}

// Sizer lets a value report its serialized size for Stats
type Sizer interface {
	Size() int
}

// Option configures a Cache
type Option func(*Cache)

// WithDefaultTTL sets the TTL used when Set receives a nil ttl
func WithDefaultTTL(ttl time.Duration) Option {
	return func(c *Cache) { c.defaultTTL = ttl }
}

// WithCleanupInterval sets how often Start sweeps expired entries
func WithCleanupInterval(interval time.Duration) Option {
	return func(c *Cache) { c.interval = interval }
}

// WithClock replaces time.Now, for tests
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithLogger sets the logger used by the cleanup loop
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) { c.logger = logger }
}

// New creates an empty cache. The cleanup loop is not running until Start.
func New(opts ...Option) *Cache {
	c := &Cache{
		entries:    make(map[string]*Entry),
		defaultTTL: config.DefaultCacheTTL,
		interval:   config.DefaultCleanupInterval,
		now:        time.Now,
		logger:     slog.Default(),
		stopCh:     make(chan struct{}),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Get returns the value stored under key if it is live. An expired entry
// is deleted before reporting a miss.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		c.misses++
		return nil, false
	}

	if !entry.live(c.now()) {
		delete(c.entries, key)
		c.misses++
		return nil, false
	}

	c.hits++
	return entry.Value, true
}

// Set stores value under key, replacing any existing entry and resetting
// its age. A nil ttl uses the cache default.
func (c *Cache) Set(key string, value any, ttl *time.Duration) {
	cacheTTL := c.defaultTTL
	if ttl != nil {
		cacheTTL = *ttl
	}
	if cacheTTL < 0 {
		cacheTTL = 0
	}

	if b, ok := value.([]byte); ok {
		value = append([]byte(nil), b...)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = &Entry{
		Key:       key,
		Value:     value,
		CreatedAt: c.now(),
		TTL:       cacheTTL,
	}
}

// Delete removes a cache entry and reports whether one was present
func (c *Cache) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; !ok {
		return false
	}
	delete(c.entries, key)
	return true
}

// Clear removes all cache entries
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*Entry)
}

// Cleanup removes expired entries and returns how many were removed
func (c *Cache) Cleanup() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for key, entry := range c.entries {
		if !entry.live(now) {
			delete(c.entries, key)
			removed++
		}
	}

	return removed
}

// Stats returns cache statistics. Expired entries not yet swept are
// still counted.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := Stats{
		TotalItems: len(c.entries),
		Hits:       c.hits,
		Misses:     c.misses,
	}

	if len(c.entries) == 0 {
		return stats
	}

	now := c.now()
	var oldest, newest time.Time
	for _, entry := range c.entries {
		stats.TotalSize += int64(valueSize(entry.Value))
		if oldest.IsZero() || entry.CreatedAt.Before(oldest) {
			oldest = entry.CreatedAt
		}
		if newest.IsZero() || entry.CreatedAt.After(newest) {
			newest = entry.CreatedAt
		}
	}

	oldestAge := now.Sub(oldest)
	newestAge := now.Sub(newest)
	stats.OldestItemAge = &oldestAge
	stats.NewestItemAge = &newestAge

	return stats
}

// Start launches the periodic cleanup loop. Calling Start more than once
// has no effect.
func (c *Cache) Start() {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return
	}
	c.started = true
	c.mu.Unlock()

	go c.cleanupLoop()
}

// Close stops the cleanup loop
func (c *Cache) Close() error {
	c.stopOnce.Do(func() { close(c.stopCh) })
	return nil
}

func (c *Cache) cleanupLoop() {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if removed := c.Cleanup(); removed > 0 {
				c.logger.Debug("cache cleanup", "removed", removed)
			}
		case <-c.stopCh:
			return
		}
	}
}

// valueSize approximates the serialized length of a cached value
func valueSize(v any) int {
	switch val := v.(type) {
	case nil:
		return 0
	case []byte:
		return len(val)
	case string:
		return len(val)
	case Sizer:
		return val.Size()
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return 0
		}
		return len(data)
	}
}
