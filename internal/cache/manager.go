package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Manager layers the memory cache over the disk cache. Disk hits are
// promoted to memory.
type Manager struct {
	memory *MemoryCache
	disk   *DiskCache
	config Config
	logger *log.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

// NewManager creates the tiers enabled in config. Dir is required when
// the disk tier is enabled.
func NewManager(config Config, logger *log.Logger) (*Manager, error) {
	if logger == nil {
		logger = log.Default().WithPrefix("cache")
	}
	m := &Manager{config: config, logger: logger}

	if config.MemoryCapacity > 0 {
		m.memory = NewMemoryCache(config.MemoryCapacity)
	}
	if config.DiskCapacity > 0 {
		if config.Dir == "" {
			return nil, fmt.Errorf("disk cache enabled without a directory")
		}
		disk, err := NewDiskCache(config.Dir, config.DiskCapacity, config.CompressionLevel)
		if err != nil {
			return nil, fmt.Errorf("failed to create disk cache: %w", err)
		}
		m.disk = disk
	}
	return m, nil
}

// Start runs periodic cleanup of expired disk entries until ctx is done
// or the manager is closed.
func (m *Manager) Start(ctx context.Context) {
	if m.disk == nil || m.config.MaxAge <= 0 || m.config.CleanupInterval <= 0 {
		return
	}
	ctx, m.cancel = context.WithCancel(ctx)

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.cleanup()

		ticker := time.NewTicker(m.config.CleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.cleanup()
			}
		}
	}()
}

func (m *Manager) cleanup() {
	if n := m.disk.Prune(m.config.MaxAge); n > 0 {
		m.logger.Debug("Pruned expired audio", "entries", n, "max_age", m.config.MaxAge)
	}
}

// Get looks up key in memory, then on disk.
func (m *Manager) Get(key string) ([]byte, bool) {
	if m.memory != nil {
		if data, ok := m.memory.Get(key); ok {
			return data, true
		}
	}
	if m.disk != nil {
		if data, ok := m.disk.Get(key); ok {
			if m.memory != nil {
				_ = m.memory.Put(key, data)
			}
			return data, true
		}
	}
	return nil, false
}

// Put stores value in every tier. Items too large for one tier are still
// stored in the others.
func (m *Manager) Put(key string, value []byte) error {
	if m.memory != nil {
		if err := m.memory.Put(key, value); err != nil && err != ErrItemTooLarge {
			return fmt.Errorf("memory cache: %w", err)
		}
	}
	if m.disk != nil {
		if err := m.disk.Put(key, value); err != nil && err != ErrItemTooLarge {
			return fmt.Errorf("disk cache: %w", err)
		}
	}
	return nil
}

// Clear empties every tier.
func (m *Manager) Clear() error {
	if m.memory != nil {
		_ = m.memory.Clear()
	}
	if m.disk != nil {
		if err := m.disk.Clear(); err != nil {
			return fmt.Errorf("disk cache: %w", err)
		}
	}
	return nil
}

// Stats returns statistics for each enabled tier.
func (m *Manager) Stats() []Stats {
	var out []Stats
	if m.memory != nil {
		out = append(out, m.memory.Stats())
	}
	if m.disk != nil {
		out = append(out, m.disk.Stats())
	}
	return out
}

// Disk returns the disk tier, or nil when disabled.
func (m *Manager) Disk() *DiskCache {
	return m.disk
}

// Close stops cleanup and saves the disk index.
func (m *Manager) Close() error {
	var err error
	m.once.Do(func() {
		if m.cancel != nil {
			m.cancel()
		}
		m.wg.Wait()
		if m.disk != nil {
			err = m.disk.Close()
		}
	})
	return err
}

var (
	_ Store = (*MemoryCache)(nil)
	_ Store = (*DiskCache)(nil)
)
