package audio

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// Errors returned by players.
var (
	ErrClosed         = errors.New("player is closed")
	ErrEmpty          = errors.New("audio data is empty")
	ErrFormatMismatch = errors.New("audio format differs from the device format")
)

// Sink plays one clip at a time. Play replaces any clip still playing. The
// returned channel is closed when the clip finishes or is stopped.
type Sink interface {
	Play(pcm []byte, volume float64) (<-chan struct{}, error)
	Stop()
	Close() error
}

// oto allows a single context per process, so every Player shares it.
var (
	deviceOnce   sync.Once
	deviceCtx    *oto.Context
	deviceFormat Format
	deviceErr    error
)

func openDevice(f Format) (*oto.Context, error) {
	deviceOnce.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   f.SampleRate,
			ChannelCount: f.Channels,
			Format:       oto.FormatSignedInt16LE,
		}
		ctx, ready, err := oto.NewContext(op)
		if err != nil {
			deviceErr = fmt.Errorf("failed to create oto context: %w", err)
			return
		}
		<-ready
		deviceCtx = ctx
		deviceFormat = f
	})
	if deviceErr != nil {
		return nil, deviceErr
	}
	if deviceFormat != f {
		return nil, fmt.Errorf("%w: have %s, want %s", ErrFormatMismatch, deviceFormat, f)
	}
	return deviceCtx, nil
}

// Player plays PCM through the system audio device.
type Player struct {
	format Format
	ctx    *oto.Context

	mu     sync.Mutex
	active *clip
	closed bool

	// How often finished clips are detected
	pollInterval time.Duration
}

// clip keeps PCM alive for as long as oto reads from it.
type clip struct {
	data   []byte
	player *oto.Player
	done   chan struct{}
	once   sync.Once
}

func (c *clip) finish() {
	c.once.Do(func() {
		close(c.done)
	})
}

// NewPlayer opens the audio device for format f. The first Player decides
// the device format for the life of the process.
func NewPlayer(f Format) (*Player, error) {
	if f.BitsPerSample != 16 {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, f)
	}
	ctx, err := openDevice(f)
	if err != nil {
		return nil, err
	}
	return &Player{
		format:       f,
		ctx:          ctx,
		pollInterval: 20 * time.Millisecond,
	}, nil
}

// Format returns the device format.
func (p *Player) Format() Format {
	return p.format
}

// Play starts playback of pcm at volume (0.0 to 1.0).
func (p *Player) Play(pcm []byte, volume float64) (<-chan struct{}, error) {
	if len(pcm) == 0 {
		return nil, ErrEmpty
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, ErrClosed
	}
	p.stopLocked()

	data := make([]byte, len(pcm))
	copy(data, pcm)

	c := &clip{data: data, done: make(chan struct{})}
	c.player = p.ctx.NewPlayer(bytes.NewReader(c.data))
	c.player.SetVolume(clampVolume(volume))
	c.player.Play()
	p.active = c

	go p.watch(c, p.format.Duration(len(data)))

	return c.done, nil
}

// watch closes the clip's done channel once oto has drained it.
func (p *Player) watch(c *clip, duration time.Duration) {
	// Nothing can finish before its own duration.
	timer := time.NewTimer(duration)
	defer timer.Stop()
	select {
	case <-c.done:
		return
	case <-timer.C:
	}

	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
		}
		if c.player.IsPlaying() {
			continue
		}

		p.mu.Lock()
		if p.active == c {
			p.release(c)
			p.active = nil
		}
		p.mu.Unlock()
		c.finish()
		return
	}
}

// Stop stops the clip that is playing, if any.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
}

func (p *Player) stopLocked() {
	if p.active == nil {
		return
	}
	c := p.active
	p.active = nil
	c.player.Pause()
	p.release(c)
	c.finish()
}

func (p *Player) release(c *clip) {
	_ = c.player.Close()
	c.data = nil
}

// Close stops playback. The shared device stays open.
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
	p.closed = true
	return nil
}

func clampVolume(v float64) float64 {
	if v != v || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
