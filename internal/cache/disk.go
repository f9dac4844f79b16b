package cache

import (
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
)

const indexFile = "cache.index"

// DiskCache persists compressed audio across sessions. Entries are files
// named after their key; a gob index tracks sizes and access times.
type DiskCache struct {
	dir      string
	capacity int64 // Compressed bytes
	size     int64

	encoder *zstd.Encoder
	decoder *zstd.Decoder

	index map[string]*diskEntry

	mu     sync.Mutex
	stats  Stats
	closed bool

	now func() time.Time
}

// diskEntry is persisted in the index, so its fields are exported.
type diskEntry struct {
	Size         int64 // On disk
	OriginalSize int64
	Created      time.Time
	LastAccess   time.Time
}

// NewDiskCache opens or creates a disk cache in dir.
func NewDiskCache(dir string, capacity int64, compressionLevel int) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	if compressionLevel <= 0 {
		compressionLevel = 3
	}

	encoder, err := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(compressionLevel)))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}

	dc := &DiskCache{
		dir:      dir,
		capacity: capacity,
		encoder:  encoder,
		decoder:  decoder,
		index:    make(map[string]*diskEntry),
		stats:    Stats{Level: LevelDisk, Capacity: capacity},
		now:      time.Now,
	}

	// A missing or unreadable index starts the cache empty.
	if err := dc.loadIndex(); err != nil {
		dc.index = make(map[string]*diskEntry)
	}
	for _, e := range dc.index {
		dc.size += e.Size
	}

	return dc, nil
}

// Get reads and decompresses a value.
func (dc *DiskCache) Get(key string) ([]byte, bool) {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	entry, ok := dc.index[key]
	if !ok || dc.closed {
		dc.stats.Misses++
		return nil, false
	}

	compressed, err := os.ReadFile(dc.path(key))
	if err != nil {
		dc.removeLocked(key)
		dc.stats.Misses++
		return nil, false
	}
	data, err := dc.decoder.DecodeAll(compressed, nil)
	if err != nil {
		dc.removeLocked(key)
		dc.stats.Misses++
		return nil, false
	}

	entry.LastAccess = dc.now()
	dc.stats.Hits++
	return data, true
}

// Put compresses and stores a value, evicting least recently used entries
// to stay within capacity.
func (dc *DiskCache) Put(key string, value []byte) error {
	compressed := dc.encoder.EncodeAll(value, nil)
	size := int64(len(compressed))
	if size > dc.capacity {
		return ErrItemTooLarge
	}

	dc.mu.Lock()
	defer dc.mu.Unlock()

	if dc.closed {
		return ErrClosed
	}
	if _, ok := dc.index[key]; ok {
		dc.removeLocked(key)
	}

	if dc.size+size > dc.capacity {
		for _, victim := range dc.lruLocked() {
			if dc.size+size <= dc.capacity {
				break
			}
			dc.removeLocked(victim)
			dc.stats.Evictions++
		}
	}

	if err := writeFileAtomic(dc.path(key), compressed); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}

	now := dc.now()
	dc.index[key] = &diskEntry{
		Size:         size,
		OriginalSize: int64(len(value)),
		Created:      now,
		LastAccess:   now,
	}
	dc.size += size
	return nil
}

// Prune removes entries created before now-maxAge and returns how many
// were removed.
func (dc *DiskCache) Prune(maxAge time.Duration) int {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	cutoff := dc.now().Add(-maxAge)
	removed := 0
	for key, e := range dc.index {
		if e.Created.Before(cutoff) {
			dc.removeLocked(key)
			removed++
		}
	}
	if removed > 0 {
		_ = dc.saveIndexLocked()
	}
	return removed
}

// Clear removes every entry.
func (dc *DiskCache) Clear() error {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	for key := range dc.index {
		dc.removeLocked(key)
	}
	dc.size = 0
	return dc.saveIndexLocked()
}

// Stats returns cache statistics.
func (dc *DiskCache) Stats() Stats {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	s := dc.stats
	s.Size = dc.size
	s.Items = len(dc.index)
	return s
}

// OriginalSize returns the uncompressed size of every entry.
func (dc *DiskCache) OriginalSize() int64 {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	var total int64
	for _, e := range dc.index {
		total += e.OriginalSize
	}
	return total
}

// Close saves the index and releases the codecs.
func (dc *DiskCache) Close() error {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	if dc.closed {
		return nil
	}
	dc.closed = true
	err := dc.saveIndexLocked()
	dc.encoder.Close()
	dc.decoder.Close()
	return err
}

func (dc *DiskCache) path(key string) string {
	return filepath.Join(dc.dir, key+".zst")
}

func (dc *DiskCache) removeLocked(key string) {
	e, ok := dc.index[key]
	if !ok {
		return
	}
	_ = os.Remove(dc.path(key))
	dc.size -= e.Size
	delete(dc.index, key)
}

// lruLocked returns keys ordered from least to most recently used.
func (dc *DiskCache) lruLocked() []string {
	keys := make([]string, 0, len(dc.index))
	for k := range dc.index {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return dc.index[keys[i]].LastAccess.Before(dc.index[keys[j]].LastAccess)
	})
	return keys
}

func (dc *DiskCache) loadIndex() error {
	f, err := os.Open(filepath.Join(dc.dir, indexFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	defer f.Close()

	if err := gob.NewDecoder(f).Decode(&dc.index); err != nil {
		return err
	}
	// Drop entries whose files have gone.
	for key := range dc.index {
		if _, err := os.Stat(dc.path(key)); err != nil {
			delete(dc.index, key)
		}
	}
	return nil
}

func (dc *DiskCache) saveIndexLocked() error {
	path := filepath.Join(dc.dir, indexFile)
	tmp := path + ".tmp"

	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	err = gob.NewEncoder(f).Encode(dc.index)
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

// writeFileAtomic writes to a temp file and renames it into place.
func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}
