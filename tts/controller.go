// Package tts provides the playback controller that drives a platform speech
// engine from play, stop and test commands.
package tts

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/speak/tts/loop"
)

// DefaultSubmitDelay is how long the controller waits between cancelling
// the engine and submitting the next request. Engines drop or misfire
// requests submitted in the same tick as a cancellation.
const DefaultSubmitDelay = 100 * time.Millisecond

// Snapshot is the observable controller state.
type Snapshot struct {
	State     StateType
	Error     string // Empty when there is no error to show
	Text      string
	Config    PlaybackConfig
	Voices    []Voice
	RequestID uint64 // Tracked request, 0 when none
}

// Controller sequences play, stop and test commands against an Engine.
//
// All state below the loop-owned marker is only touched from closures
// running on the scheduler, so it needs no locking. Readers on other
// goroutines see the last published Snapshot.
type Controller struct {
	engine   Engine
	loop     loop.Scheduler
	ownsLoop bool
	logger   *log.Logger

	catalog *VoiceCatalog
	factory *UtteranceFactory
	machine *StateMachine

	submitDelay time.Duration

	// loop-owned
	text              string
	config            PlaybackConfig
	seq               uint64
	current           *SpeechRequest
	pendingID         uint64
	deferred          loop.Timer
	errMsg            string
	unsubscribeVoices func()

	// published
	mu          sync.RWMutex
	snapshot    Snapshot
	subscribers map[int]func(Snapshot)
	nextSub     int

	closed    atomic.Bool
	closeOnce sync.Once
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithScheduler runs the controller on s instead of a private loop. The
// caller owns s and must stop it.
func WithScheduler(s loop.Scheduler) Option {
	return func(c *Controller) {
		c.loop = s
		c.ownsLoop = false
	}
}

// WithSubmitDelay overrides DefaultSubmitDelay.
func WithSubmitDelay(d time.Duration) Option {
	return func(c *Controller) {
		if d >= 0 {
			c.submitDelay = d
		}
	}
}

// WithConfig sets the initial playback configuration.
func WithConfig(cfg PlaybackConfig) Option {
	return func(c *Controller) { c.config = cfg }
}

// WithText sets the initial text.
func WithText(text string) Option {
	return func(c *Controller) { c.text = text }
}

// NewController creates a controller for engine and loads its voices. It
// returns ErrEngineUnavailable if engine is nil or reports itself
// unavailable.
func NewController(engine Engine, opts ...Option) (*Controller, error) {
	if engine == nil || !engine.IsAvailable() {
		return nil, ErrEngineUnavailable
	}

	catalog := NewVoiceCatalog()
	c := &Controller{
		engine:      engine,
		logger:      log.Default().WithPrefix("tts"),
		catalog:     catalog,
		factory:     NewUtteranceFactory(catalog),
		machine:     NewStateMachine(),
		submitDelay: DefaultSubmitDelay,
		config:      DefaultPlaybackConfig(),
		subscribers: make(map[int]func(Snapshot)),
	}
	for _, opt := range opts {
		opt(c)
	}
	// Every state entry is observable.
	for _, st := range []StateType{StateIdle, StatePending, StateSpeaking, StateFailed} {
		c.machine.OnEnter(st, c.publish)
	}
	if c.loop == nil {
		c.loop = loop.New()
		c.ownsLoop = true
	}

	// Nothing else can reach c yet, so the first refresh runs inline.
	c.refreshVoices()
	c.unsubscribeVoices = engine.OnVoicesChanged(func() {
		c.loop.Post(c.refreshVoices)
	})
	c.publish()

	return c, nil
}

// SetText replaces the text spoken by Play.
func (c *Controller) SetText(text string) error {
	return c.post(func() {
		c.text = text
		c.publish()
	})
}

// SetConfig applies a partial configuration change. It never affects a
// request that is already pending or being spoken.
func (c *Controller) SetConfig(u ConfigUpdate) error {
	return c.post(func() {
		c.config = u.Apply(c.config)
		c.publish()
	})
}

// Play speaks the current text, cancelling anything in progress. Empty or
// whitespace-only text is ignored.
func (c *Controller) Play() error {
	return c.post(func() { c.submit(KindPlay) })
}

// Test speaks TestPhrase with the current configuration. It is ignored
// when no voice is selected.
func (c *Controller) Test() error {
	return c.post(func() { c.submit(KindTest) })
}

// Stop cancels any pending or active request and clears the error.
func (c *Controller) Stop() error {
	return c.post(c.stop)
}

// RefreshVoices re-reads the engine's voice list.
func (c *Controller) RefreshVoices() error {
	return c.post(c.refreshVoices)
}

// Snapshot returns the last published state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot
}

// State returns the current playback state.
func (c *Controller) State() StateType {
	return c.Snapshot().State
}

// ErrorMessage returns the message for the last failure, or "".
func (c *Controller) ErrorMessage() string {
	return c.Snapshot().Error
}

// Voices returns the current voice catalog.
func (c *Controller) Voices() []Voice {
	return c.catalog.Voices()
}

// Catalog returns the voice catalog. It is read-only to callers.
func (c *Controller) Catalog() *VoiceCatalog {
	return c.catalog
}

// Subscribe registers fn to receive every published snapshot. fn runs on
// the controller's loop and must not call Close.
func (c *Controller) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subscribers[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.subscribers, id)
		c.mu.Unlock()
	}
}

// Close cancels pending and active speech, detaches from the engine and
// stops the controller's loop. It is safe to call more than once.
func (c *Controller) Close() error {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		c.loop.Post(c.teardown)
		if c.ownsLoop {
			c.loop.Stop()
		}
	})
	return nil
}

func (c *Controller) post(fn func()) error {
	if c.closed.Load() {
		return ErrControllerClosed
	}
	if !c.loop.Post(fn) {
		return ErrControllerClosed
	}
	return nil
}

// submit runs the cancel, reset, defer, speak protocol.
func (c *Controller) submit(kind RequestKind) {
	text := c.text
	if kind == KindTest {
		if c.config.Voice == "" {
			c.logger.Debug("Test ignored, no voice selected")
			return
		}
		text = TestPhrase
	}
	if strings.TrimSpace(text) == "" {
		c.logger.Debug("Play ignored, empty text")
		return
	}

	c.engine.Cancel()
	c.cancelDeferred()
	c.current = nil
	c.errMsg = ""

	c.seq++
	id := c.seq
	c.pendingID = id
	cfg := c.config

	c.transition(StatePending)

	c.logger.Debug("Request accepted", "id", id, "kind", kind, "delay", c.submitDelay)
	c.deferred = c.loop.AfterFunc(c.submitDelay, func() {
		c.dispatch(id, kind, text, cfg)
	})
}

// dispatch submits a deferred request unless it has been superseded.
func (c *Controller) dispatch(id uint64, kind RequestKind, text string, cfg PlaybackConfig) {
	if c.closed.Load() || c.pendingID != id {
		c.logger.Debug("Deferred submission dropped", "id", id)
		return
	}
	c.pendingID = 0
	c.deferred = nil

	req := c.factory.Build(text, cfg)
	req.ID = id
	req.Kind = kind
	c.current = &req

	if err := c.engine.Speak(req, c.callbacksFor(id)); err != nil {
		err = fmt.Errorf("%w: %v", ErrSubmission, err)
		c.logger.Error("Speech submission failed", "id", id, "err", err)
		c.current = nil
		c.fail(kind, submissionMessage)
		return
	}

	voice := ""
	if req.Voice != nil {
		voice = req.Voice.Name
	}
	c.logger.Debug("Request submitted", "id", id, "voice", voice, "rate", req.Rate, "pitch", req.Pitch, "volume", req.Volume)
	c.publish()
}

// callbacksFor binds engine callbacks to request id and moves them onto
// the loop.
func (c *Controller) callbacksFor(id uint64) Callbacks {
	return Callbacks{
		OnStart: func() { c.loop.Post(func() { c.handleStart(id) }) },
		OnEnd:   func() { c.loop.Post(func() { c.handleEnd(id) }) },
		OnError: func(code string) { c.loop.Post(func() { c.handleError(id, code) }) },
	}
}

func (c *Controller) isCurrent(id uint64) bool {
	return c.current != nil && c.current.ID == id
}

func (c *Controller) handleStart(id uint64) {
	if !c.isCurrent(id) {
		c.logger.Debug("Stale start discarded", "id", id)
		return
	}
	if c.machine.Current() != StatePending {
		return
	}
	c.errMsg = ""
	c.transition(StateSpeaking)
}

func (c *Controller) handleEnd(id uint64) {
	if !c.isCurrent(id) {
		c.logger.Debug("Stale end discarded", "id", id)
		return
	}
	c.current = nil
	c.errMsg = ""
	c.transition(StateIdle)
}

func (c *Controller) handleError(id uint64, code string) {
	if !c.isCurrent(id) {
		c.logger.Debug("Stale error discarded", "id", id, "code", code)
		return
	}
	kind := c.current.Kind
	c.current = nil

	if IsInterruption(code) {
		c.errMsg = ""
		c.transition(StateIdle)
		return
	}

	engineErr := &EngineError{Kind: ClassifyError(code), Code: code, RequestID: id}
	c.logger.Error("Speech synthesis error", "err", engineErr)
	c.fail(kind, engineErr.Message())
}

// fail surfaces Failed once, then returns to Idle keeping the message.
func (c *Controller) fail(kind RequestKind, msg string) {
	if kind == KindTest {
		msg = "Test failed: " + msg
	}
	c.errMsg = msg
	c.transition(StateFailed)
	c.transition(StateIdle)
}

func (c *Controller) stop() {
	c.cancelDeferred()
	c.engine.Cancel()
	c.current = nil
	c.errMsg = ""
	c.transition(StateIdle)
}

func (c *Controller) cancelDeferred() {
	if c.deferred != nil {
		c.deferred.Stop()
		c.deferred = nil
	}
	c.pendingID = 0
}

func (c *Controller) refreshVoices() {
	if c.closed.Load() {
		return
	}
	voices, err := c.engine.ListVoices()
	if err != nil {
		c.logger.Warn("Could not list voices", "err", err)
		return
	}

	changed := c.catalog.Refresh(voices)
	if c.config.Voice == "" {
		if v, ok := c.catalog.First(); ok {
			c.config.Voice = v.Name
			changed = true
		}
	}
	if changed {
		c.logger.Debug("Voice catalog refreshed", "voices", c.catalog.Len(), "selected", c.config.Voice)
		c.publish()
	}
}

func (c *Controller) teardown() {
	c.cancelDeferred()
	c.engine.Cancel()
	if c.unsubscribeVoices != nil {
		c.unsubscribeVoices()
		c.unsubscribeVoices = nil
	}
	c.current = nil
	c.transition(StateIdle)

	c.mu.Lock()
	c.subscribers = make(map[int]func(Snapshot))
	c.mu.Unlock()
}

func (c *Controller) transition(to StateType) {
	from := c.machine.Current()
	if !c.machine.Transition(to) {
		c.logger.Warn("Invalid state transition", "from", from, "to", to)
		return
	}
	if from != to {
		c.logger.Debug("State changed", "from", from, "to", to)
	}
}

func (c *Controller) publish() {
	var tracked uint64
	if c.current != nil {
		tracked = c.current.ID
	} else {
		tracked = c.pendingID
	}
	snap := Snapshot{
		State:     c.machine.Current(),
		Error:     c.errMsg,
		Text:      c.text,
		Config:    c.config,
		Voices:    c.catalog.Voices(),
		RequestID: tracked,
	}

	c.mu.Lock()
	c.snapshot = snap
	subs := make([]func(Snapshot), 0, len(c.subscribers))
	for _, fn := range c.subscribers {
		subs = append(subs, fn)
	}
	c.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}
