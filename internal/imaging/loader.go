package imaging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// ImageCache keeps normalized images keyed by file path.
//
// Paths are cleaned and made absolute, so "a.png" and "./a.png" share an
// entry. An entry is reused only while the file's size and modification time
// are unchanged; a file rewritten on disk is decoded again on the next Load.
// Cached values are immutable *RGB, so one value can serve any number of
// concurrent analyses.
//
//	cache := imaging.NewImageCache()
//	img, err := cache.Load("/path/to/image.png")
//	if err != nil {
//	    return err
//	}
//	cache.Evict("/path/to/image.png") // optional, frees memory
type ImageCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	img     *RGB
	size    int64
	modTime time.Time
}

func (e cacheEntry) fresh(fi os.FileInfo) bool {
	return e.size == fi.Size() && e.modTime.Equal(fi.ModTime())
}

// NewImageCache returns an empty cache.
func NewImageCache() *ImageCache {
	return &ImageCache{entries: make(map[string]cacheEntry)}
}

func cacheKey(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}

// Load returns the normalized image at path, decoding it only when the cache
// has no entry for the file or the file changed since it was cached.
//
// A missing or unreadable file is a plain I/O error; undecodable content
// wraps ErrDecode. Failed loads are not cached.
func (c *ImageCache) Load(path string) (*RGB, error) {
	key := cacheKey(path)

	fi, err := os.Stat(key)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	if fi.IsDir() {
		return nil, fmt.Errorf("failed to open image: %s is a directory", path)
	}

	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if ok && e.fresh(fi) {
		return e.img, nil
	}

	f, err := os.Open(key)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, err := Decode(f)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[key] = cacheEntry{img: img, size: fi.Size(), modTime: fi.ModTime()}
	c.mu.Unlock()

	return img, nil
}

// Len returns the number of cached images.
func (c *ImageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Clear drops every entry.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]cacheEntry)
	c.mu.Unlock()
}

// Evict drops the entry for path, if any.
func (c *ImageCache) Evict(path string) {
	c.mu.Lock()
	delete(c.entries, cacheKey(path))
	c.mu.Unlock()
}
