package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Common errors for cache operations
var (
	// ErrItemTooLarge is returned when an item exceeds the cache capacity
	ErrItemTooLarge = errors.New("item too large for cache")

	// ErrClosed is returned after the cache has been closed
	ErrClosed = errors.New("cache is closed")
)

// Level identifies a cache tier.
type Level int

const (
	// LevelMemory is the in-process LRU cache.
	LevelMemory Level = iota
	// LevelDisk is the persistent compressed cache.
	LevelDisk
)

// String returns the string representation of the cache level
func (l Level) String() string {
	switch l {
	case LevelMemory:
		return "memory"
	case LevelDisk:
		return "disk"
	default:
		return "unknown"
	}
}

// Stats holds cache metrics for one tier.
type Stats struct {
	Level     Level
	Capacity  int64 // Bytes
	Size      int64 // Bytes currently stored
	Items     int
	Hits      int64
	Misses    int64
	Evictions int64
}

// HitRate returns hits / (hits + misses), or 0 before any lookup.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// Key identifies synthesized audio. Volume is applied at playback and is
// not part of the key.
type Key struct {
	Engine string
	Voice  string
	Text   string
	Rate   float64
	Pitch  float64
}

// String returns the hex digest used as the storage key.
func (k Key) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\x00%s\x00%.3f\x00%.3f\x00", k.Engine, k.Voice, k.Rate, k.Pitch)
	b.WriteString(k.Text)
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// Config holds cache settings.
type Config struct {
	MemoryCapacity   int64 // Bytes, 0 disables the memory tier
	DiskCapacity     int64 // Bytes, 0 disables the disk tier
	Dir              string
	CompressionLevel int // Zstd level, default 3
	MaxAge           time.Duration
	CleanupInterval  time.Duration
}

// Store is implemented by every cache tier.
type Store interface {
	Get(key string) ([]byte, bool)
	Put(key string, value []byte) error
	Clear() error
	Stats() Stats
}
