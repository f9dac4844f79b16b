// Package mock provides a scriptable speech engine for tests and demos.
package mock

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dgnsrekt/speak/tts"
)

// Call records one Speak invocation.
type Call struct {
	Request   tts.SpeechRequest
	Callbacks tts.Callbacks
}

// MockEngine implements tts.Engine. By default it only records calls and
// tests drive the callbacks with Start, End and Fail. With Simulate it
// plays requests on its own, timed by text length.
type MockEngine struct {
	mu sync.Mutex

	voices      []tts.Voice
	subscribers map[int]func()
	nextSub     int

	calls       []Call
	cancelCount int
	active      *Call
	events      []string

	// Control for testing
	available         bool
	speakErr          error
	listErr           error
	interruptOnCancel bool

	simulate       bool
	startDelay     time.Duration
	wordsPerMinute int
	stopSim        chan struct{}
}

// DefaultVoices are the voices a new engine reports.
func DefaultVoices() []tts.Voice {
	return []tts.Voice{
		{Name: "Mock Voice 1", Language: "en-US"},
		{Name: "Mock Voice 2", Language: "en-GB"},
		{Name: "Mock Voice 3", Language: "de-DE"},
	}
}

// New creates a new mock engine with DefaultVoices.
func New() *MockEngine {
	return &MockEngine{
		voices:         DefaultVoices(),
		subscribers:    make(map[int]func()),
		available:      true,
		startDelay:     50 * time.Millisecond,
		wordsPerMinute: 150,
	}
}

// IsAvailable returns the mock availability state.
func (e *MockEngine) IsAvailable() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.available
}

// ListVoices returns the configured voices.
func (e *MockEngine) ListVoices() ([]tts.Voice, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.listErr != nil {
		return nil, e.listErr
	}
	out := make([]tts.Voice, len(e.voices))
	copy(out, e.voices)
	return out, nil
}

// Speak records the request and, when simulating, plays it.
func (e *MockEngine) Speak(req tts.SpeechRequest, cb tts.Callbacks) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.speakErr != nil {
		return e.speakErr
	}
	call := Call{Request: req, Callbacks: cb}
	e.calls = append(e.calls, call)
	e.events = append(e.events, fmt.Sprintf("speak:%d", req.ID))
	e.active = &call

	if e.simulate {
		stop := make(chan struct{})
		e.stopSim = stop
		go e.play(req, cb, stop)
	}
	return nil
}

// Cancel counts the call and, if configured, reports the active request
// as interrupted.
func (e *MockEngine) Cancel() {
	e.mu.Lock()
	e.cancelCount++
	e.events = append(e.events, "cancel")
	active := e.active
	e.active = nil
	if e.stopSim != nil {
		close(e.stopSim)
		e.stopSim = nil
	}
	interrupt := e.interruptOnCancel || e.simulate
	e.mu.Unlock()

	if interrupt && active != nil && active.Callbacks.OnError != nil {
		active.Callbacks.OnError(tts.CodeInterrupted)
	}
}

// OnVoicesChanged registers fn for SetVoices notifications.
func (e *MockEngine) OnVoicesChanged(fn func()) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	id := e.nextSub
	e.nextSub++
	e.subscribers[id] = fn
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.subscribers, id)
	}
}

// Test control methods

// SetVoices replaces the voice list and notifies subscribers.
func (e *MockEngine) SetVoices(voices []tts.Voice) {
	e.mu.Lock()
	e.voices = append([]tts.Voice(nil), voices...)
	subs := make([]func(), 0, len(e.subscribers))
	for _, fn := range e.subscribers {
		subs = append(subs, fn)
	}
	e.mu.Unlock()

	for _, fn := range subs {
		fn()
	}
}

// SetAvailable sets what IsAvailable reports.
func (e *MockEngine) SetAvailable(available bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.available = available
}

// SetSpeakError makes Speak fail with err; nil restores normal operation.
func (e *MockEngine) SetSpeakError(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.speakErr = err
}

// SetListError makes ListVoices fail with err.
func (e *MockEngine) SetListError(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listErr = err
}

// SetInterruptOnCancel makes Cancel report "interrupted" for the active
// request, as real engines do.
func (e *MockEngine) SetInterruptOnCancel(v bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.interruptOnCancel = v
}

// Simulate makes the engine play requests on its own: start after
// startDelay, end after a duration estimated at wpm words per minute.
func (e *MockEngine) Simulate(startDelay time.Duration, wpm int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.simulate = true
	e.startDelay = startDelay
	if wpm > 0 {
		e.wordsPerMinute = wpm
	}
}

// Calls returns every recorded Speak call.
func (e *MockEngine) Calls() []Call {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Call(nil), e.calls...)
}

// Events returns the order of Speak and Cancel calls as "speak:<id>" and
// "cancel" entries.
func (e *MockEngine) Events() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.events...)
}

// CallCount returns the number of Speak calls.
func (e *MockEngine) CallCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.calls)
}

// CancelCount returns the number of Cancel calls.
func (e *MockEngine) CancelCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cancelCount
}

// LastCall returns the most recent Speak call.
func (e *MockEngine) LastCall() (Call, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.calls) == 0 {
		return Call{}, false
	}
	return e.calls[len(e.calls)-1], true
}

// Subscribers returns the number of voices-changed registrations.
func (e *MockEngine) Subscribers() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.subscribers)
}

// ErrNoSuchRequest is returned when a test drives an unknown request.
var ErrNoSuchRequest = errors.New("no such request")

// Start fires the start callback registered for request id.
func (e *MockEngine) Start(id uint64) error {
	cb, err := e.callbacks(id)
	if err != nil {
		return err
	}
	cb.OnStart()
	return nil
}

// End fires the end callback registered for request id.
func (e *MockEngine) End(id uint64) error {
	cb, err := e.callbacks(id)
	if err != nil {
		return err
	}
	cb.OnEnd()
	return nil
}

// Fail fires the error callback registered for request id.
func (e *MockEngine) Fail(id uint64, code string) error {
	cb, err := e.callbacks(id)
	if err != nil {
		return err
	}
	cb.OnError(code)
	return nil
}

func (e *MockEngine) callbacks(id uint64) (tts.Callbacks, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, c := range e.calls {
		if c.Request.ID == id {
			return c.Callbacks, nil
		}
	}
	return tts.Callbacks{}, ErrNoSuchRequest
}

func (e *MockEngine) play(req tts.SpeechRequest, cb tts.Callbacks, stop <-chan struct{}) {
	e.mu.Lock()
	startDelay := e.startDelay
	duration := estimateDuration(req.Text, e.wordsPerMinute, req.Rate)
	e.mu.Unlock()

	select {
	case <-stop:
		return
	case <-time.After(startDelay):
	}
	cb.OnStart()

	select {
	case <-stop:
		return
	case <-time.After(duration):
	}

	e.mu.Lock()
	if e.active != nil && e.active.Request.ID == req.ID {
		e.active = nil
		e.stopSim = nil
	}
	e.mu.Unlock()
	cb.OnEnd()
}

// estimateDuration estimates speaking duration for text.
func estimateDuration(text string, wpm int, rate float64) time.Duration {
	words := len(strings.Fields(text))
	if words < 1 {
		words = 1
	}
	if rate <= 0 {
		rate = 1
	}
	seconds := float64(words) * 60.0 / float64(wpm) / rate
	return time.Duration(seconds * float64(time.Second))
}
