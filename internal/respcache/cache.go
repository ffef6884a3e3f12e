package respcache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"mpvscraper/internal/logging"
)

// DefaultTTL mirrors the slow-changing external catalogs the cache fronts.
const DefaultTTL = 24 * time.Hour

// entry is the on-disk shape: one JSON file per key.
type entry struct {
	Timestamp int64           `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// Cache is a durable key→payload store with per-entry expiry. Entries are
// single-writer (the fetch that produced them), so one coarse lock per cache
// is enough. Entries are never deleted; a fresh Set supersedes the old file.
type Cache struct {
	dir    string
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger
	mu     sync.Mutex
}

// Option configures a Cache.
type Option func(*Cache)

// WithTTL overrides the default 24h entry lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithNow injects a clock, used by expiry tests.
func WithNow(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// New creates a cache rooted at dir. The directory is created on first Set.
func New(dir string, logger *slog.Logger, opts ...Option) *Cache {
	c := &Cache{
		dir:    dir,
		ttl:    DefaultTTL,
		now:    time.Now,
		logger: logging.NewComponentLogger(logger, "respcache"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the payload stored under key when it exists and has not
// expired. Expired, absent, or unreadable entries are all misses, never
// errors.
func (c *Cache) Get(key string) (json.RawMessage, bool) {
	if key == "" {
		return nil, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := os.ReadFile(c.entryPath(key))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			c.logger.Debug("cache read failed", logging.String("key", key), logging.Error(err))
		}
		return nil, false
	}

	var stored entry
	if err := json.Unmarshal(data, &stored); err != nil {
		c.logger.Debug("cache entry corrupt", logging.String("key", key), logging.Error(err))
		return nil, false
	}

	age := c.now().Sub(time.Unix(stored.Timestamp, 0))
	if age >= c.ttl {
		c.logger.Debug("cache entry expired",
			logging.String("key", key),
			logging.Duration("age", age))
		return nil, false
	}

	return stored.Data, true
}

// Set stores payload under key, stamping it with the current time. The write
// is atomic (tmp file + rename) so a concurrent reader never sees a torn
// entry.
func (c *Cache) Set(key string, payload json.RawMessage) error {
	if key == "" {
		return errors.New("cache key cannot be empty")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}

	data, err := json.Marshal(entry{Timestamp: c.now().Unix(), Data: payload})
	if err != nil {
		return fmt.Errorf("marshal cache entry: %w", err)
	}

	path := c.entryPath(key)
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write cache entry: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename cache entry: %w", err)
	}
	return nil
}

// GetJSON decodes the cached payload for key into out. A decode failure is
// treated as a miss so a stale schema never breaks a run.
func (c *Cache) GetJSON(key string, out any) bool {
	payload, ok := c.Get(key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(payload, out); err != nil {
		c.logger.Debug("cache payload mismatch", logging.String("key", key), logging.Error(err))
		return false
	}
	return true
}

// SetJSON encodes value and stores it under key.
func (c *Cache) SetJSON(key string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache payload: %w", err)
	}
	return c.Set(key, payload)
}

func (c *Cache) entryPath(key string) string {
	return filepath.Join(c.dir, key+".json")
}
