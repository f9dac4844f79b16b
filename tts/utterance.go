package tts

import "strings"

// Valid parameter ranges.
const (
	MinRate   = 0.1
	MaxRate   = 3.0
	MinPitch  = 0.0
	MaxPitch  = 2.0
	MinVolume = 0.0
	MaxVolume = 1.0
)

// TestPhrase is spoken by Controller.Test.
const TestPhrase = "Testing voice settings"

// PlaybackConfig holds the voice parameters used for the next request.
// Values may be out of range; they are clamped when a request is built.
type PlaybackConfig struct {
	Rate   float64 // Speech rate multiplier (1.0 = normal)
	Pitch  float64 // Pitch (1.0 = normal)
	Volume float64 // Volume level (0.0 to 1.0)
	Voice  string  // Selected voice name, empty for the engine default
}

// DefaultPlaybackConfig returns normal rate, pitch and full volume.
func DefaultPlaybackConfig() PlaybackConfig {
	return PlaybackConfig{Rate: 1, Pitch: 1, Volume: 1}
}

// Clamped returns a copy with every value saturated to its valid range.
func (c PlaybackConfig) Clamped() PlaybackConfig {
	c.Rate = Clamp(c.Rate, MinRate, MaxRate)
	c.Pitch = Clamp(c.Pitch, MinPitch, MaxPitch)
	c.Volume = Clamp(c.Volume, MinVolume, MaxVolume)
	return c
}

// ConfigUpdate is a partial PlaybackConfig. Nil fields are left unchanged.
type ConfigUpdate struct {
	Rate   *float64
	Pitch  *float64
	Volume *float64
	Voice  *string
}

// Apply returns cfg with the update's non-nil fields applied.
func (u ConfigUpdate) Apply(cfg PlaybackConfig) PlaybackConfig {
	if u.Rate != nil {
		cfg.Rate = *u.Rate
	}
	if u.Pitch != nil {
		cfg.Pitch = *u.Pitch
	}
	if u.Volume != nil {
		cfg.Volume = *u.Volume
	}
	if u.Voice != nil {
		cfg.Voice = *u.Voice
	}
	return cfg
}

// RequestKind distinguishes primary playback from voice previews.
type RequestKind int

const (
	// KindPlay speaks the text field.
	KindPlay RequestKind = iota
	// KindTest speaks TestPhrase.
	KindTest
)

// String returns the string representation of the request kind.
func (k RequestKind) String() string {
	if k == KindTest {
		return "test"
	}
	return "play"
}

// SpeechRequest is one fully parameterized unit of text to be spoken.
type SpeechRequest struct {
	ID     uint64
	Kind   RequestKind
	Text   string
	Voice  *Voice // Nil means the engine default voice
	Rate   float64
	Pitch  float64
	Volume float64
}

// UtteranceFactory builds speech requests from text and configuration.
type UtteranceFactory struct {
	catalog *VoiceCatalog
}

// NewUtteranceFactory creates a factory resolving voices through catalog.
func NewUtteranceFactory(catalog *VoiceCatalog) *UtteranceFactory {
	return &UtteranceFactory{catalog: catalog}
}

// Build creates a request from text and a configuration snapshot. Empty
// text is accepted; callers gate on it. A selected voice missing from the
// catalog yields a request without a voice binding.
func (f *UtteranceFactory) Build(text string, cfg PlaybackConfig) SpeechRequest {
	cfg = cfg.Clamped()
	req := SpeechRequest{
		Text:   strings.TrimSpace(text),
		Rate:   cfg.Rate,
		Pitch:  cfg.Pitch,
		Volume: cfg.Volume,
	}

	if cfg.Voice != "" && f.catalog != nil {
		if v, ok := f.catalog.Lookup(cfg.Voice); ok {
			req.Voice = &v
		}
	}
	return req
}

// Clamp saturates v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v != v { // NaN
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
