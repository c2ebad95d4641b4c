package cache

import (
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/panbanda/fitpaper/pkg/models"
	"github.com/zeebo/blake3"
)

// LoadFunc decodes a dataset file.
type LoadFunc func(path string) (models.Dataset, error)

// Cache stores decoded datasets on disk, keyed by file path and validated
// by a BLAKE3 hash of the file contents.
type Cache struct {
	dir     string
	ttl     time.Duration
	enabled bool
}

// Entry is one cached dataset.
type Entry struct {
	Hash      string         `json:"hash"`
	Timestamp time.Time      `json:"timestamp"`
	Dataset   models.Dataset `json:"dataset"`
}

// New creates a new cache instance. A disabled cache never stores anything.
func New(dir string, ttlHours int, enabled bool) (*Cache, error) {
	if !enabled {
		return &Cache{enabled: false}, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	return &Cache{
		dir:     dir,
		ttl:     time.Duration(ttlHours) * time.Hour,
		enabled: true,
	}, nil
}

// Enabled reports whether the cache stores entries.
func (c *Cache) Enabled() bool {
	return c != nil && c.enabled
}

// HashFile computes a BLAKE3 hash of a file's contents.
func HashFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return HashBytes(data), nil
}

// HashBytes computes a BLAKE3 hash of bytes and returns it as a hex string.
func HashBytes(data []byte) string {
	hash := blake3.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// Load returns the cached dataset for path when the file is unchanged,
// otherwise decodes it with load and stores the result. Cache write
// failures are ignored.
func (c *Cache) Load(path string, load LoadFunc) (models.Dataset, error) {
	if !c.Enabled() {
		return load(path)
	}

	hash, err := HashFile(path)
	if err != nil {
		return load(path)
	}
	if ds, ok := c.Get(path, hash); ok {
		return ds, nil
	}

	ds, err := load(path)
	if err != nil {
		return ds, err
	}
	_ = c.Set(path, hash, ds)
	return ds, nil
}

// Get retrieves a dataset if the entry exists, its hash matches and it
// has not expired.
func (c *Cache) Get(path, hash string) (models.Dataset, bool) {
	if !c.Enabled() {
		return models.Dataset{}, false
	}

	file := c.keyPath(path)
	data, err := os.ReadFile(file)
	if err != nil {
		return models.Dataset{}, false
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return models.Dataset{}, false
	}
	if entry.Hash != hash {
		return models.Dataset{}, false
	}
	if time.Since(entry.Timestamp) > c.ttl {
		os.Remove(file)
		return models.Dataset{}, false
	}

	return entry.Dataset, true
}

// Set stores a decoded dataset for path.
func (c *Cache) Set(path, hash string, ds models.Dataset) error {
	if !c.Enabled() {
		return nil
	}

	entry := Entry{
		Hash:      hash,
		Timestamp: time.Now(),
		Dataset:   ds,
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return os.WriteFile(c.keyPath(path), data, 0600)
}

// Invalidate removes the entry for path.
func (c *Cache) Invalidate(path string) error {
	if !c.Enabled() {
		return nil
	}
	return os.Remove(c.keyPath(path))
}

// Clear removes all cache entries.
func (c *Cache) Clear() error {
	if !c.Enabled() {
		return nil
	}
	return os.RemoveAll(c.dir)
}

// keyPath maps a dataset path to its entry file. Relative and absolute
// spellings of the same file share an entry.
func (c *Cache) keyPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	hash := blake3.Sum256([]byte(path))
	return filepath.Join(c.dir, hex.EncodeToString(hash[:])+".json")
}

// Stats summarises the cache directory.
type Stats struct {
	Dir       string        `json:"dir"`
	Entries   int           `json:"entries"`
	TotalSize int64         `json:"total_size"`
	OldestAge time.Duration `json:"oldest_age"`
	NewestAge time.Duration `json:"newest_age"`
}

// GetStats returns statistics about the cache.
func (c *Cache) GetStats() (*Stats, error) {
	if !c.Enabled() {
		return &Stats{}, nil
	}

	stats := &Stats{Dir: c.dir}
	var oldest, newest time.Time

	err := filepath.Walk(c.dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if info.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}

		stats.Entries++
		stats.TotalSize += info.Size()

		modTime := info.ModTime()
		if oldest.IsZero() || modTime.Before(oldest) {
			oldest = modTime
		}
		if newest.IsZero() || modTime.After(newest) {
			newest = modTime
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !oldest.IsZero() {
		stats.OldestAge = time.Since(oldest)
	}
	if !newest.IsZero() {
		stats.NewestAge = time.Since(newest)
	}
	return stats, nil
}
