package mock

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dgnsrekt/speak/tts"
)

// TestNewMockEngine tests mock engine creation.
func TestNewMockEngine(t *testing.T) {
	engine := New()
	if engine == nil {
		t.Fatal("Expected non-nil engine")
	}

	if !engine.IsAvailable() {
		t.Error("Mock engine should be available by default")
	}

	voices, err := engine.ListVoices()
	if err != nil {
		t.Fatalf("ListVoices failed: %v", err)
	}
	if len(voices) != len(DefaultVoices()) {
		t.Errorf("Expected %d voices, got %d", len(DefaultVoices()), len(voices))
	}
}

// TestSpeakRecordsCalls tests that requests and callbacks are recorded.
func TestSpeakRecordsCalls(t *testing.T) {
	engine := New()

	var started, ended bool
	cb := tts.Callbacks{
		OnStart: func() { started = true },
		OnEnd:   func() { ended = true },
		OnError: func(string) {},
	}
	if err := engine.Speak(tts.SpeechRequest{ID: 4, Text: "hi"}, cb); err != nil {
		t.Fatalf("Speak failed: %v", err)
	}

	if engine.CallCount() != 1 {
		t.Fatalf("Expected 1 call, got %d", engine.CallCount())
	}
	if err := engine.Start(4); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := engine.End(4); err != nil {
		t.Fatalf("End failed: %v", err)
	}
	if !started || !ended {
		t.Errorf("callbacks not fired: started=%v ended=%v", started, ended)
	}

	if err := engine.Start(99); !errors.Is(err, ErrNoSuchRequest) {
		t.Errorf("Expected ErrNoSuchRequest, got %v", err)
	}
}

// TestSpeakError tests injected submission failures.
func TestSpeakError(t *testing.T) {
	engine := New()
	injected := errors.New("boom")
	engine.SetSpeakError(injected)

	if err := engine.Speak(tts.SpeechRequest{ID: 1}, tts.Callbacks{}); !errors.Is(err, injected) {
		t.Errorf("Expected injected error, got %v", err)
	}
	if engine.CallCount() != 0 {
		t.Error("Failed Speak should not be recorded")
	}
}

// TestCancelInterrupts tests the interrupted callback on cancel.
func TestCancelInterrupts(t *testing.T) {
	engine := New()
	engine.SetInterruptOnCancel(true)

	var code string
	engine.Speak(tts.SpeechRequest{ID: 1}, tts.Callbacks{OnError: func(c string) { code = c }})
	engine.Cancel()

	if code != tts.CodeInterrupted {
		t.Errorf("Expected %q, got %q", tts.CodeInterrupted, code)
	}

	code = ""
	engine.Cancel()
	if code != "" {
		t.Error("Cancel with no active request should not call back")
	}
	if engine.CancelCount() != 2 {
		t.Errorf("Expected 2 cancels, got %d", engine.CancelCount())
	}

	want := []string{"speak:1", "cancel", "cancel"}
	got := engine.Events()
	if len(got) != len(want) {
		t.Fatalf("Events() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Events()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

// TestVoicesChanged tests subscriber notification and removal.
func TestVoicesChanged(t *testing.T) {
	engine := New()

	calls := 0
	unsubscribe := engine.OnVoicesChanged(func() { calls++ })
	engine.SetVoices([]tts.Voice{{Name: "Solo"}})
	if calls != 1 {
		t.Errorf("Expected 1 notification, got %d", calls)
	}

	unsubscribe()
	engine.SetVoices(nil)
	if calls != 1 {
		t.Errorf("Expected no notification after unsubscribe, got %d", calls)
	}
	if engine.Subscribers() != 0 {
		t.Errorf("Expected 0 subscribers, got %d", engine.Subscribers())
	}
}

// TestSimulate tests self-driven playback.
func TestSimulate(t *testing.T) {
	engine := New()
	engine.Simulate(time.Millisecond, 60000)

	var wg sync.WaitGroup
	wg.Add(1)
	var mu sync.Mutex
	var order []string
	record := func(s string) {
		mu.Lock()
		order = append(order, s)
		mu.Unlock()
	}

	err := engine.Speak(tts.SpeechRequest{ID: 1, Text: "one two", Rate: 1}, tts.Callbacks{
		OnStart: func() { record("start") },
		OnEnd:   func() { record("end"); wg.Done() },
		OnError: func(c string) { record(c); wg.Done() },
	})
	if err != nil {
		t.Fatalf("Speak failed: %v", err)
	}

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("simulated playback did not finish")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(order) != 2 || order[0] != "start" || order[1] != "end" {
		t.Errorf("Expected [start end], got %v", order)
	}
}

// TestEstimateDuration tests the speaking time estimate.
func TestEstimateDuration(t *testing.T) {
	tests := []struct {
		text     string
		wpm      int
		rate     float64
		expected time.Duration
	}{
		{"one two", 120, 1, time.Second},
		{"one two", 120, 2, 500 * time.Millisecond},
		{"", 60, 1, time.Second},
		{"one", 60, 0, time.Second},
	}

	for _, tt := range tests {
		if got := estimateDuration(tt.text, tt.wpm, tt.rate); got != tt.expected {
			t.Errorf("estimateDuration(%q, %d, %v) = %v, want %v", tt.text, tt.wpm, tt.rate, got, tt.expected)
		}
	}
}
