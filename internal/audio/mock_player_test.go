package audio

import (
	"errors"
	"testing"
	"time"
)

func isClosed(ch <-chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

func TestMockPlayerFinish(t *testing.T) {
	mp := NewMockPlayer(speechFormat)

	done, err := mp.Play([]byte{1, 2, 3, 4}, 0.5)
	if err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	if !mp.IsPlaying() || isClosed(done) {
		t.Fatal("clip should be active")
	}

	pcm, volume := mp.LastPlay()
	if len(pcm) != 4 || volume != 0.5 {
		t.Errorf("LastPlay() = %d bytes at %v", len(pcm), volume)
	}

	if !mp.Finish() {
		t.Fatal("Finish() = false")
	}
	if !isClosed(done) || mp.IsPlaying() {
		t.Error("clip should be finished")
	}
	if mp.Finish() {
		t.Error("Finish() with no clip = true")
	}
}

func TestMockPlayerReplaceAndStop(t *testing.T) {
	mp := NewMockPlayer(speechFormat)

	first, _ := mp.Play([]byte{1, 2}, 1)
	second, _ := mp.Play([]byte{3, 4}, 1)
	if !isClosed(first) {
		t.Error("replaced clip should be done")
	}

	mp.Stop()
	if !isClosed(second) {
		t.Error("stopped clip should be done")
	}
	mp.Stop()

	m := mp.GetMetrics()
	if m.PlayCount != 2 || m.StopCount != 1 {
		t.Errorf("metrics = %+v, want 2 plays 1 stop", m)
	}
}

func TestMockPlayerErrors(t *testing.T) {
	mp := NewMockPlayer(speechFormat)

	if _, err := mp.Play(nil, 1); !errors.Is(err, ErrEmpty) {
		t.Errorf("Play(nil) error = %v, want %v", err, ErrEmpty)
	}

	injected := errors.New("device busy")
	mp.SetPlayError(injected)
	if _, err := mp.Play([]byte{1, 2}, 1); !errors.Is(err, injected) {
		t.Errorf("Play() error = %v, want injected", err)
	}

	mp.SetPlayError(nil)
	mp.Close()
	if _, err := mp.Play([]byte{1, 2}, 1); !errors.Is(err, ErrClosed) {
		t.Errorf("Play() after Close error = %v, want %v", err, ErrClosed)
	}
}

func TestMockPlayerAutoFinish(t *testing.T) {
	mp := NewMockPlayer(speechFormat)
	mp.SetAutoFinish(true, 0.01)

	// One second of audio scaled down to 10ms.
	done, err := mp.Play(make([]byte, 44100), 1)
	if err != nil {
		t.Fatalf("Play failed: %v", err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("clip did not finish")
	}
}

func TestClampVolume(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0.5, 0.5},
		{-1, 0},
		{2, 1},
	}
	for _, tt := range tests {
		if got := clampVolume(tt.in); got != tt.want {
			t.Errorf("clampVolume(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
