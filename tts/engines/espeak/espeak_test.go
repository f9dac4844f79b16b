package espeak

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/speak/internal/audio"
	"github.com/dgnsrekt/speak/internal/cache"
	"github.com/dgnsrekt/speak/tts"
)

const voicesOutput = `Pty Language       Age/Gender VoiceName          File                 Other Languages
 5  af              --/M      Afrikaans          gmw/af
 2  en-us           --/M      English_(America)  gmw/en-US            (en 10)
 5  de              --/M      German             gmw/de
`

var wavFormat = audio.Format{SampleRate: 22050, Channels: 1, BitsPerSample: 16}

// fakeRunner answers --voices with a table and everything else with WAV.
type fakeRunner struct {
	mu        sync.Mutex
	voices    string
	synthErr  error
	block     chan struct{}
	synthArgs [][]string
	stdins    []string
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{voices: voicesOutput}
}

func (r *fakeRunner) Run(ctx context.Context, stdin string, name string, args ...string) ([]byte, error) {
	r.mu.Lock()
	if len(args) == 1 && args[0] == "--voices" {
		out := r.voices
		r.mu.Unlock()
		return []byte(out), nil
	}
	r.synthArgs = append(r.synthArgs, args)
	r.stdins = append(r.stdins, stdin)
	err := r.synthErr
	block := r.block
	r.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return audio.EncodeWAV(wavFormat, make([]byte, 2205*2)), nil
}

func (r *fakeRunner) synthCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.synthArgs)
}

func (r *fakeRunner) setVoices(out string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.voices = out
}

// recorder collects callbacks in order.
type recorder struct {
	mu     sync.Mutex
	events []string
	ch     chan string
}

func newRecorder() *recorder {
	return &recorder{ch: make(chan string, 16)}
}

func (r *recorder) callbacks() tts.Callbacks {
	add := func(ev string) {
		r.mu.Lock()
		r.events = append(r.events, ev)
		r.mu.Unlock()
		r.ch <- ev
	}
	return tts.Callbacks{
		OnStart: func() { add("start") },
		OnEnd:   func() { add("end") },
		OnError: func(code string) { add("error:" + code) },
	}
}

func (r *recorder) wait(t *testing.T, want string) {
	t.Helper()
	select {
	case got := <-r.ch:
		if got != want {
			t.Fatalf("callback = %q, want %q", got, want)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %q", want)
	}
}

func (r *recorder) quiet(t *testing.T) {
	t.Helper()
	select {
	case got := <-r.ch:
		t.Fatalf("unexpected callback %q", got)
	case <-time.After(30 * time.Millisecond):
	}
}

func newTestEngine(t *testing.T, runner *fakeRunner, opts ...Option) (*Engine, *audio.MockPlayer) {
	t.Helper()
	player := audio.NewMockPlayer(wavFormat)
	cfg := tts.DefaultEspeakConfig()
	cfg.VoiceScan = 0

	opts = append([]Option{
		WithRunner(runner),
		WithSinkFactory(func(f audio.Format) (audio.Sink, error) {
			if f != wavFormat {
				return nil, fmt.Errorf("unexpected format %v", f)
			}
			return player, nil
		}),
		WithLogger(log.New(io.Discard)),
	}, opts...)

	e := New(cfg, opts...)
	t.Cleanup(func() { e.Close() })
	return e, player
}

func waitPlaying(t *testing.T, p *audio.MockPlayer) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !p.IsPlaying() {
		if time.Now().After(deadline) {
			t.Fatal("playback never started")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestParseVoices(t *testing.T) {
	voices := parseVoices([]byte(voicesOutput))
	want := []tts.Voice{
		{Name: "Afrikaans", Language: "af", Handle: "Afrikaans"},
		{Name: "English (America)", Language: "en-us", Handle: "English_(America)"},
		{Name: "German", Language: "de", Handle: "German"},
	}
	if !reflect.DeepEqual(voices, want) {
		t.Errorf("parseVoices() = %+v, want %+v", voices, want)
	}
	if got := parseVoices(nil); len(got) != 0 {
		t.Errorf("parseVoices(nil) = %v", got)
	}
}

func TestArgs(t *testing.T) {
	english := &tts.Voice{Name: "English (America)", Handle: "English_(America)"}

	tests := []struct {
		name string
		req  tts.SpeechRequest
		want []string
	}{
		{
			name: "defaults",
			req:  tts.SpeechRequest{Rate: 1, Pitch: 1, Volume: 1},
			want: []string{"--stdout", "--stdin", "-s", "175", "-p", "50"},
		},
		{
			name: "fast and high with voice",
			req:  tts.SpeechRequest{Rate: 2, Pitch: 2, Volume: 1, Voice: english},
			want: []string{"--stdout", "--stdin", "-s", "350", "-p", "99", "-v", "English_(America)"},
		},
		{
			name: "slowest",
			req:  tts.SpeechRequest{Rate: 0.1, Pitch: 0},
			want: []string{"--stdout", "--stdin", "-s", "80", "-p", "0"},
		},
		{
			name: "voice without handle",
			req:  tts.SpeechRequest{Rate: 3, Pitch: 1, Voice: &tts.Voice{Name: "Mock Voice"}},
			want: []string{"--stdout", "--stdin", "-s", "450", "-p", "50", "-v", "Mock_Voice"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Args(tt.req); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Args() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSpeakLifecycle(t *testing.T) {
	runner := newFakeRunner()
	e, player := newTestEngine(t, runner)

	voices, _ := e.ListVoices()
	if len(voices) != 3 {
		t.Fatalf("ListVoices() = %d voices, want 3", len(voices))
	}

	rec := newRecorder()
	req := tts.SpeechRequest{ID: 1, Text: "Hello", Rate: 1, Pitch: 1, Volume: 0.4}
	if err := e.Speak(req, rec.callbacks()); err != nil {
		t.Fatalf("Speak failed: %v", err)
	}

	rec.wait(t, "start")
	if _, volume := player.LastPlay(); volume != 0.4 {
		t.Errorf("volume = %v, want 0.4", volume)
	}
	if runner.stdins[0] != "Hello" {
		t.Errorf("stdin = %q, want Hello", runner.stdins[0])
	}

	player.Finish()
	rec.wait(t, "end")
	rec.quiet(t)
}

func TestCancelDuringPlayback(t *testing.T) {
	e, player := newTestEngine(t, newFakeRunner())

	rec := newRecorder()
	e.Speak(tts.SpeechRequest{ID: 1, Text: "Hello", Rate: 1, Pitch: 1}, rec.callbacks())
	rec.wait(t, "start")

	e.Cancel()
	rec.wait(t, "error:interrupted")
	if player.IsPlaying() {
		t.Error("player still playing after Cancel")
	}
	rec.quiet(t)

	// Cancel with nothing active is a no-op.
	e.Cancel()
	rec.quiet(t)
}

func TestCancelDuringSynthesis(t *testing.T) {
	runner := newFakeRunner()
	runner.block = make(chan struct{})
	e, player := newTestEngine(t, runner)

	rec := newRecorder()
	e.Speak(tts.SpeechRequest{ID: 1, Text: "Hello", Rate: 1, Pitch: 1}, rec.callbacks())
	e.Cancel()

	rec.wait(t, "error:interrupted")
	rec.quiet(t)
	if player.GetMetrics().PlayCount != 0 {
		t.Error("cancelled request reached the player")
	}
}

func TestSynthesisErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"generic", errors.New("exit status 1"), "error:" + CodeSynthesisFailed},
		{"timeout", fmt.Errorf("run: %w", context.DeadlineExceeded), "error:" + CodeSynthesisTimeout},
		{"permission", &os.PathError{Op: "fork/exec", Path: "espeak-ng", Err: os.ErrPermission}, "error:" + CodePermission},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := newFakeRunner()
			runner.synthErr = tt.err
			e, _ := newTestEngine(t, runner)

			rec := newRecorder()
			e.Speak(tts.SpeechRequest{ID: 1, Text: "Hello", Rate: 1, Pitch: 1}, rec.callbacks())
			rec.wait(t, tt.want)
		})
	}

	if tts.ClassifyError(CodePermission) != tts.KindNotAllowed {
		t.Error("permission code should classify as not-allowed")
	}
}

func TestPlaybackErrorIsBusy(t *testing.T) {
	e, player := newTestEngine(t, newFakeRunner())
	player.SetPlayError(errors.New("device in use"))

	rec := newRecorder()
	e.Speak(tts.SpeechRequest{ID: 1, Text: "Hello", Rate: 1, Pitch: 1}, rec.callbacks())
	rec.wait(t, "error:"+tts.CodeAudioBusy)
}

func TestCacheSkipsSynthesis(t *testing.T) {
	m, err := cache.NewManager(cache.Config{MemoryCapacity: 1 << 20}, log.New(io.Discard))
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	defer m.Close()

	runner := newFakeRunner()
	e, player := newTestEngine(t, runner, WithCache(m))

	for i := uint64(1); i <= 2; i++ {
		rec := newRecorder()
		e.Speak(tts.SpeechRequest{ID: i, Text: "Hello", Rate: 1, Pitch: 1, Volume: 1}, rec.callbacks())
		rec.wait(t, "start")
		player.Finish()
		rec.wait(t, "end")
	}

	if n := runner.synthCount(); n != 1 {
		t.Errorf("synthesized %d times, want 1", n)
	}
}

func TestRescanNotifiesOnChange(t *testing.T) {
	runner := newFakeRunner()
	e, _ := newTestEngine(t, runner)

	notified := 0
	unsubscribe := e.OnVoicesChanged(func() { notified++ })

	e.rescan(context.Background())
	if notified != 0 {
		t.Fatalf("unchanged rescan notified %d times", notified)
	}

	runner.setVoices(voicesOutput + " 5  fr              --/M      French             roa/fr\n")
	e.rescan(context.Background())
	if notified != 1 {
		t.Errorf("notified = %d, want 1", notified)
	}
	if voices, _ := e.ListVoices(); len(voices) != 4 {
		t.Errorf("ListVoices() = %d voices, want 4", len(voices))
	}

	unsubscribe()
	runner.setVoices(voicesOutput)
	e.rescan(context.Background())
	if notified != 1 {
		t.Errorf("notified after unsubscribe")
	}
}

func TestWithControllerPlaysThrough(t *testing.T) {
	e, player := newTestEngine(t, newFakeRunner())
	player.SetAutoFinish(true, 0.01)

	ctrl, err := tts.NewController(e,
		tts.WithLogger(log.New(io.Discard)),
		tts.WithSubmitDelay(time.Millisecond),
	)
	if err != nil {
		t.Fatalf("NewController failed: %v", err)
	}
	defer ctrl.Close()

	states := make(chan tts.StateType, 32)
	ctrl.Subscribe(func(s tts.Snapshot) {
		select {
		case states <- s.State:
		default:
		}
	})

	ctrl.SetText("Hello")
	ctrl.Play()

	sawSpeaking := false
	timeout := time.After(2 * time.Second)
	for {
		select {
		case s := <-states:
			if s == tts.StateSpeaking {
				sawSpeaking = true
			}
			if s == tts.StateIdle && sawSpeaking {
				return
			}
			if s == tts.StateFailed {
				t.Fatalf("playback failed: %s", ctrl.ErrorMessage())
			}
		case <-timeout:
			t.Fatal("timed out waiting for playback to finish")
		}
	}
}

func TestUnavailableEngine(t *testing.T) {
	cfg := tts.DefaultEspeakConfig()
	cfg.Binary = "definitely-not-espeak-ng-binary"
	e := New(cfg, WithLogger(log.New(io.Discard)))
	defer e.Close()

	if e.IsAvailable() {
		t.Fatal("engine should be unavailable")
	}
	if err := e.Speak(tts.SpeechRequest{ID: 1}, tts.Callbacks{}); !errors.Is(err, tts.ErrEngineUnavailable) {
		t.Errorf("Speak() error = %v, want %v", err, tts.ErrEngineUnavailable)
	}
	if _, err := tts.NewController(e); !errors.Is(err, tts.ErrEngineUnavailable) {
		t.Errorf("NewController() error = %v, want %v", err, tts.ErrEngineUnavailable)
	}
}
