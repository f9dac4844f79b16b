package cache

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func speechLike(n int) []byte {
	return bytes.Repeat([]byte{0, 0, 1, 0}, n/4)
}

func TestDiskCachePersists(t *testing.T) {
	dir := t.TempDir()
	value := speechLike(8192)

	dc, err := NewDiskCache(dir, 1<<20, 3)
	if err != nil {
		t.Fatalf("NewDiskCache failed: %v", err)
	}
	if err := dc.Put("k", value); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	s := dc.Stats()
	if s.Size >= int64(len(value)) {
		t.Errorf("stored %d bytes, expected compression below %d", s.Size, len(value))
	}
	if dc.OriginalSize() != int64(len(value)) {
		t.Errorf("OriginalSize() = %d, want %d", dc.OriginalSize(), len(value))
	}
	if err := dc.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := NewDiskCache(dir, 1<<20, 3)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	got, ok := reopened.Get("k")
	if !ok {
		t.Fatal("entry lost across reopen")
	}
	if !bytes.Equal(got, value) {
		t.Error("value changed across reopen")
	}
}

func TestDiskCacheMissingFile(t *testing.T) {
	dir := t.TempDir()
	dc, _ := NewDiskCache(dir, 1<<20, 3)
	defer dc.Close()

	dc.Put("k", []byte("value"))
	os.Remove(filepath.Join(dir, "k.zst"))

	if _, ok := dc.Get("k"); ok {
		t.Error("Get() succeeded with missing file")
	}
	if dc.Stats().Items != 0 {
		t.Error("missing file should drop the entry")
	}
}

func TestDiskCacheEvictsLRU(t *testing.T) {
	dc, _ := NewDiskCache(t.TempDir(), 1<<20, 3)
	defer dc.Close()

	clock := time.Unix(1000, 0)
	dc.now = func() time.Time { return clock }

	dc.Put("a", bytes.Repeat([]byte("a"), 10))
	clock = clock.Add(time.Second)
	dc.Put("b", []byte("b"))
	clock = clock.Add(time.Second)
	dc.Get("a")

	dc.capacity = dc.Stats().Size + 1
	clock = clock.Add(time.Second)
	dc.Put("c", []byte("c"))

	if _, ok := dc.Get("b"); ok {
		t.Error("b should have been evicted")
	}
	if _, ok := dc.Get("a"); !ok {
		t.Error("a should have survived")
	}
	if dc.Stats().Evictions == 0 {
		t.Error("eviction not counted")
	}
}

func TestDiskCachePrune(t *testing.T) {
	dc, _ := NewDiskCache(t.TempDir(), 1<<20, 3)
	defer dc.Close()

	clock := time.Unix(0, 0)
	dc.now = func() time.Time { return clock }
	dc.Put("old", []byte("old"))
	clock = clock.Add(48 * time.Hour)
	dc.Put("new", []byte("new"))

	if n := dc.Prune(24 * time.Hour); n != 1 {
		t.Errorf("Prune() = %d, want 1", n)
	}
	if _, ok := dc.Get("new"); !ok {
		t.Error("new entry pruned")
	}
}

func TestManagerPromotesDiskHits(t *testing.T) {
	m, err := NewManager(Config{
		MemoryCapacity: 1 << 20,
		DiskCapacity:   1 << 20,
		Dir:            t.TempDir(),
	}, nil)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	defer m.Close()

	value := speechLike(1024)
	if err := m.Put("k", value); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	m.memory.Clear()

	if got, ok := m.Get("k"); !ok || !bytes.Equal(got, value) {
		t.Fatal("disk hit expected")
	}
	if _, ok := m.memory.Get("k"); !ok {
		t.Error("disk hit was not promoted to memory")
	}

	stats := m.Stats()
	if len(stats) != 2 || stats[0].Level != LevelMemory || stats[1].Level != LevelDisk {
		t.Errorf("Stats() = %+v", stats)
	}

	if err := m.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if _, ok := m.Get("k"); ok {
		t.Error("Clear() left entries behind")
	}
}

func TestManagerDisabledTiers(t *testing.T) {
	m, err := NewManager(Config{}, nil)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	m.Start(context.Background())
	defer m.Close()

	if err := m.Put("k", []byte("v")); err != nil {
		t.Errorf("Put() error = %v", err)
	}
	if _, ok := m.Get("k"); ok {
		t.Error("Get() hit with no tiers")
	}
	if len(m.Stats()) != 0 {
		t.Error("Stats() reported disabled tiers")
	}

	if _, err := NewManager(Config{DiskCapacity: 1}, nil); err == nil {
		t.Error("disk tier without a directory should fail")
	}
}

func TestManagerCleanupStops(t *testing.T) {
	m, err := NewManager(Config{
		DiskCapacity:    1 << 20,
		Dir:             t.TempDir(),
		MaxAge:          time.Hour,
		CleanupInterval: time.Millisecond,
	}, nil)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.Start(ctx)
	time.Sleep(5 * time.Millisecond)
	cancel()

	done := make(chan struct{})
	go func() {
		m.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Close() did not stop the cleanup loop")
	}
}
