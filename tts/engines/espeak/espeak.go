// Package espeak implements tts.Engine on top of the espeak-ng command
// line synthesizer. Audio is rendered to WAV, optionally cached, and
// played through the system audio device.
package espeak

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/speak/internal/audio"
	"github.com/dgnsrekt/speak/internal/cache"
	"github.com/dgnsrekt/speak/tts"
	"golang.org/x/time/rate"
)

// Parameter mapping for espeak-ng.
const (
	defaultWPM = 175
	minWPM     = 80
	maxWPM     = 450
	maxPitch   = 99
)

// Error codes reported through Callbacks.OnError beyond the shared ones.
const (
	CodeSynthesisFailed  = "synthesis-failed"
	CodeSynthesisTimeout = "synthesis-timeout"
	CodePermission       = "permission-denied"
)

func init() {
	tts.RegisterErrorCode(CodePermission, tts.KindNotAllowed)
}

// SinkFactory opens an audio sink for a PCM format.
type SinkFactory func(audio.Format) (audio.Sink, error)

// Engine speaks through espeak-ng.
type Engine struct {
	cfg     tts.EspeakConfig
	runner  Runner
	newSink SinkFactory
	cache   *cache.Manager
	limiter *rate.Limiter
	logger  *log.Logger

	available bool

	mu          sync.Mutex
	voices      []tts.Voice
	subscribers map[int]func()
	nextSub     int
	sinks       map[audio.Format]audio.Sink
	active      *job

	stopScan context.CancelFunc
	scanWg   sync.WaitGroup
	closed   bool
}

// job is one request in flight. finish guarantees a single terminal
// callback whether the job completes, fails or is cancelled.
type job struct {
	id     uint64
	ctx    context.Context
	cancel context.CancelFunc
	cb     tts.Callbacks
	sink   audio.Sink
	once   sync.Once
}

func (j *job) finish(fn func()) {
	j.once.Do(fn)
}

// Option configures an Engine.
type Option func(*Engine)

// WithRunner replaces subprocess execution. The engine then reports itself
// available without looking up the binary.
func WithRunner(r Runner) Option {
	return func(e *Engine) {
		e.runner = r
		e.available = true
	}
}

// WithSinkFactory replaces the audio device.
func WithSinkFactory(f SinkFactory) Option {
	return func(e *Engine) { e.newSink = f }
}

// WithCache stores synthesized audio in m.
func WithCache(m *cache.Manager) Option {
	return func(e *Engine) { e.cache = m }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New creates an engine, loads the voice list and starts rescanning it
// every cfg.VoiceScan.
func New(cfg tts.EspeakConfig, opts ...Option) *Engine {
	e := &Engine{
		cfg:         cfg,
		runner:      execRunner{},
		newSink:     func(f audio.Format) (audio.Sink, error) { return audio.NewPlayer(f) },
		limiter:     newLimiter(cfg),
		logger:      log.Default().WithPrefix("espeak"),
		subscribers: make(map[int]func()),
		sinks:       make(map[audio.Format]audio.Sink),
	}
	if _, err := exec.LookPath(cfg.Binary); err == nil {
		e.available = true
	}
	for _, opt := range opts {
		opt(e)
	}

	if !e.available {
		e.logger.Warn("espeak-ng not found", "binary", cfg.Binary)
		return e
	}

	if voices, err := e.scanVoices(context.Background()); err != nil {
		e.logger.Warn("Could not list voices", "err", err)
	} else {
		e.voices = voices
	}

	if cfg.VoiceScan > 0 {
		ctx, cancel := context.WithCancel(context.Background())
		e.stopScan = cancel
		e.scanWg.Add(1)
		go e.scanLoop(ctx, cfg.VoiceScan)
	}
	return e
}

// IsAvailable reports whether the espeak-ng binary was found.
func (e *Engine) IsAvailable() bool {
	return e.available
}

// ListVoices returns the most recently scanned voices.
func (e *Engine) ListVoices() ([]tts.Voice, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]tts.Voice, len(e.voices))
	copy(out, e.voices)
	return out, nil
}

// OnVoicesChanged registers fn to run when a rescan finds a different list.
func (e *Engine) OnVoicesChanged(fn func()) func() {
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

// Speak synthesizes and plays req in the background.
func (e *Engine) Speak(req tts.SpeechRequest, cb tts.Callbacks) error {
	if !e.available {
		return tts.ErrEngineUnavailable
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return errors.New("espeak engine is closed")
	}

	// A request replaced without Cancel is dropped silently.
	if prev := e.active; prev != nil {
		prev.cancel()
	}

	ctx, cancel := context.WithCancel(context.Background())
	j := &job{id: req.ID, ctx: ctx, cancel: cancel, cb: cb}
	e.active = j

	go e.run(j, req)
	return nil
}

// Cancel stops the active request, which reports "interrupted".
func (e *Engine) Cancel() {
	e.mu.Lock()
	j := e.active
	e.active = nil
	e.mu.Unlock()

	if j == nil {
		return
	}
	j.cancel()
	j.finish(func() {
		if j.sink != nil {
			j.sink.Stop()
		}
		if j.cb.OnError != nil {
			j.cb.OnError(tts.CodeInterrupted)
		}
	})
}

// Close cancels playback, stops rescanning and releases audio sinks.
func (e *Engine) Close() error {
	e.Cancel()

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	stop := e.stopScan
	sinks := e.sinks
	e.sinks = nil
	e.mu.Unlock()

	if stop != nil {
		stop()
	}
	e.scanWg.Wait()

	var errs []error
	for _, s := range sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (e *Engine) run(j *job, req tts.SpeechRequest) {
	wav, err := e.synthesize(j.ctx, req)
	if j.ctx.Err() != nil {
		return
	}
	if err != nil {
		e.logger.Error("Synthesis failed", "id", req.ID, "err", err)
		e.fail(j, codeFor(err))
		return
	}

	format, pcm, err := audio.ParseWAV(wav)
	if err != nil {
		e.logger.Error("Bad synthesizer output", "id", req.ID, "err", err)
		e.fail(j, CodeSynthesisFailed)
		return
	}

	sink, err := e.sink(format)
	if err != nil {
		e.logger.Error("Audio device unavailable", "format", format, "err", err)
		e.fail(j, tts.CodeAudioBusy)
		return
	}

	e.mu.Lock()
	if e.active != j {
		e.mu.Unlock()
		return
	}
	j.sink = sink
	done, err := sink.Play(pcm, req.Volume)
	e.mu.Unlock()
	if err != nil {
		e.logger.Error("Playback failed", "id", req.ID, "err", err)
		e.fail(j, tts.CodeAudioBusy)
		return
	}

	if j.cb.OnStart != nil && j.ctx.Err() == nil {
		j.cb.OnStart()
	}

	select {
	case <-done:
	case <-j.ctx.Done():
		return
	}

	e.mu.Lock()
	if e.active == j {
		e.active = nil
	}
	e.mu.Unlock()
	j.finish(func() {
		if j.cb.OnEnd != nil {
			j.cb.OnEnd()
		}
	})
}

func (e *Engine) fail(j *job, code string) {
	e.mu.Lock()
	if e.active == j {
		e.active = nil
	}
	e.mu.Unlock()
	j.finish(func() {
		if j.cb.OnError != nil {
			j.cb.OnError(code)
		}
	})
}

// synthesize returns WAV for req, from the cache when possible.
func (e *Engine) synthesize(ctx context.Context, req tts.SpeechRequest) ([]byte, error) {
	args := Args(req)
	key := cache.Key{
		Engine: tts.EngineEspeak,
		Voice:  voiceID(req.Voice),
		Text:   req.Text,
		Rate:   req.Rate,
		Pitch:  req.Pitch,
	}.String()

	if e.cache != nil {
		if wav, ok := e.cache.Get(key); ok {
			e.logger.Debug("Cache hit", "id", req.ID)
			return wav, nil
		}
	}

	if err := e.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	ctx, cancel := e.withLimit(ctx)
	defer cancel()

	wav, err := e.runner.Run(ctx, req.Text, e.cfg.Binary, args...)
	if err != nil {
		return nil, err
	}
	if len(wav) == 0 {
		return nil, errEmptyOutput
	}

	if e.cache != nil {
		if err := e.cache.Put(key, wav); err != nil {
			e.logger.Warn("Could not cache audio", "err", err)
		}
	}
	return wav, nil
}

func (e *Engine) sink(f audio.Format) (audio.Sink, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, audio.ErrClosed
	}
	if s, ok := e.sinks[f]; ok {
		return s, nil
	}
	s, err := e.newSink(f)
	if err != nil {
		return nil, err
	}
	e.sinks[f] = s
	return s, nil
}

func (e *Engine) scanVoices(ctx context.Context) ([]tts.Voice, error) {
	ctx, cancel := e.withLimit(ctx)
	defer cancel()

	out, err := e.runner.Run(ctx, "", e.cfg.Binary, "--voices")
	if err != nil {
		return nil, fmt.Errorf("listing voices: %w", err)
	}
	return parseVoices(out), nil
}

func (e *Engine) scanLoop(ctx context.Context, every time.Duration) {
	defer e.scanWg.Done()
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		e.rescan(ctx)
	}
}

// rescan refreshes the voice list and notifies subscribers if it changed.
func (e *Engine) rescan(ctx context.Context) {
	voices, err := e.scanVoices(ctx)
	if err != nil {
		if ctx.Err() == nil {
			e.logger.Debug("Voice rescan failed", "err", err)
		}
		return
	}

	e.mu.Lock()
	if sameVoices(e.voices, voices) {
		e.mu.Unlock()
		return
	}
	e.voices = voices
	subs := make([]func(), 0, len(e.subscribers))
	for _, fn := range e.subscribers {
		subs = append(subs, fn)
	}
	e.mu.Unlock()

	e.logger.Debug("Voice list changed", "voices", len(voices))
	for _, fn := range subs {
		fn()
	}
}

func (e *Engine) withLimit(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.cfg.SynthesisLimit <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, e.cfg.SynthesisLimit)
}

func newLimiter(cfg tts.EspeakConfig) *rate.Limiter {
	if cfg.SpawnRate <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Limit(cfg.SpawnRate), max(cfg.SpawnBurst, 1))
}

// Args returns the espeak-ng arguments for req. Text is passed on stdin.
func Args(req tts.SpeechRequest) []string {
	wpm := int(math.Round(defaultWPM * req.Rate))
	wpm = min(max(wpm, minWPM), maxWPM)

	pitch := int(math.Round(req.Pitch * 50))
	pitch = min(max(pitch, 0), maxPitch)

	args := []string{
		"--stdout",
		"--stdin",
		"-s", strconv.Itoa(wpm),
		"-p", strconv.Itoa(pitch),
	}
	if id := voiceID(req.Voice); id != "" {
		args = append(args, "-v", id)
	}
	return args
}

// codeFor maps a synthesis error to an engine error code.
func codeFor(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return CodeSynthesisTimeout
	case errors.Is(err, os.ErrPermission):
		return CodePermission
	default:
		return CodeSynthesisFailed
	}
}

var _ tts.Engine = (*Engine)(nil)
