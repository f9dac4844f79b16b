package audio

import (
	"sync"
	"sync/atomic"
	"time"
)

// MockPlayer implements Sink for testing purposes.
// It simulates playback without producing sound.
type MockPlayer struct {
	mu     sync.Mutex
	format Format
	active chan struct{}
	timer  *time.Timer
	closed bool

	// Test configuration
	playErr     error
	autoFinish  bool
	delayFactor float64 // Speed up/slow down simulated playback

	// Recorded for assertions
	lastPCM    []byte
	lastVolume float64

	// Metrics for testing
	playCount atomic.Int64
	stopCount atomic.Int64
}

// NewMockPlayer creates a mock player. Clips finish only when Finish is
// called unless AutoFinish is enabled.
func NewMockPlayer(f Format) *MockPlayer {
	return &MockPlayer{format: f, delayFactor: 1.0}
}

// Play records pcm and starts a simulated clip.
func (mp *MockPlayer) Play(pcm []byte, volume float64) (<-chan struct{}, error) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.closed {
		return nil, ErrClosed
	}
	if len(pcm) == 0 {
		return nil, ErrEmpty
	}
	if mp.playErr != nil {
		return nil, mp.playErr
	}

	mp.stopLocked(false)

	mp.lastPCM = append([]byte(nil), pcm...)
	mp.lastVolume = volume
	mp.playCount.Add(1)

	done := make(chan struct{})
	mp.active = done
	if mp.autoFinish {
		d := time.Duration(float64(mp.format.Duration(len(pcm))) * mp.delayFactor)
		mp.timer = time.AfterFunc(d, func() { mp.finish(done) })
	}
	return done, nil
}

// Stop ends the active clip.
func (mp *MockPlayer) Stop() {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	mp.stopLocked(true)
}

func (mp *MockPlayer) stopLocked(count bool) {
	if mp.timer != nil {
		mp.timer.Stop()
		mp.timer = nil
	}
	if mp.active == nil {
		return
	}
	close(mp.active)
	mp.active = nil
	if count {
		mp.stopCount.Add(1)
	}
}

// Close stops playback and rejects further clips.
func (mp *MockPlayer) Close() error {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	mp.stopLocked(false)
	mp.closed = true
	return nil
}

// Finish completes the active clip as if it had played to the end.
func (mp *MockPlayer) Finish() bool {
	mp.mu.Lock()
	done := mp.active
	mp.mu.Unlock()
	if done == nil {
		return false
	}
	mp.finish(done)
	return true
}

func (mp *MockPlayer) finish(done chan struct{}) {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	if mp.active != done {
		return
	}
	close(done)
	mp.active = nil
	mp.timer = nil
}

// SetPlayError makes Play fail with err.
func (mp *MockPlayer) SetPlayError(err error) {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	mp.playErr = err
}

// SetAutoFinish makes clips finish after their PCM duration scaled by
// factor.
func (mp *MockPlayer) SetAutoFinish(enabled bool, factor float64) {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	mp.autoFinish = enabled
	if factor > 0 {
		mp.delayFactor = factor
	}
}

// IsPlaying reports whether a clip is active.
func (mp *MockPlayer) IsPlaying() bool {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	return mp.active != nil
}

// LastPlay returns the most recent clip and volume.
func (mp *MockPlayer) LastPlay() ([]byte, float64) {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	return append([]byte(nil), mp.lastPCM...), mp.lastVolume
}

// GetMetrics returns playback metrics for testing.
func (mp *MockPlayer) GetMetrics() MockPlayerMetrics {
	return MockPlayerMetrics{
		PlayCount: mp.playCount.Load(),
		StopCount: mp.stopCount.Load(),
	}
}

// MockPlayerMetrics contains playback metrics for testing.
type MockPlayerMetrics struct {
	PlayCount int64
	StopCount int64
}

// Ensure both players implement Sink.
var (
	_ Sink = (*Player)(nil)
	_ Sink = (*MockPlayer)(nil)
)
