package tts

import (
	"math"
	"testing"
)

func TestClamp(t *testing.T) {
	tests := []struct {
		name     string
		v        float64
		lo, hi   float64
		expected float64
	}{
		{"in range", 1.5, MinRate, MaxRate, 1.5},
		{"rate too high", 10, MinRate, MaxRate, 3.0},
		{"rate too low", -5, MinRate, MaxRate, 0.1},
		{"pitch upper bound", 2, MinPitch, MaxPitch, 2},
		{"volume too high", 1.2, MinVolume, MaxVolume, 1},
		{"nan", math.NaN(), MinVolume, MaxVolume, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clamp(tt.v, tt.lo, tt.hi); got != tt.expected {
				t.Errorf("Clamp(%v) = %v, want %v", tt.v, got, tt.expected)
			}
		})
	}
}

func TestConfigUpdateApply(t *testing.T) {
	rate := 2.0
	voice := "Bob"
	cfg := ConfigUpdate{Rate: &rate, Voice: &voice}.Apply(DefaultPlaybackConfig())

	want := PlaybackConfig{Rate: 2, Pitch: 1, Volume: 1, Voice: "Bob"}
	if cfg != want {
		t.Errorf("Apply() = %+v, want %+v", cfg, want)
	}
}

func TestUtteranceFactoryBuild(t *testing.T) {
	catalog := NewVoiceCatalog()
	catalog.Refresh([]Voice{{Name: "Alice", Language: "en-US"}})
	f := NewUtteranceFactory(catalog)

	t.Run("clamps and binds voice", func(t *testing.T) {
		req := f.Build("  Hello  ", PlaybackConfig{Rate: 10, Pitch: -1, Volume: 0.5, Voice: "Alice"})
		if req.Text != "Hello" {
			t.Errorf("Text = %q, want Hello", req.Text)
		}
		if req.Rate != 3 || req.Pitch != 0 || req.Volume != 0.5 {
			t.Errorf("params = %v/%v/%v, want 3/0/0.5", req.Rate, req.Pitch, req.Volume)
		}
		if req.Voice == nil || req.Voice.Name != "Alice" {
			t.Errorf("Voice = %v, want Alice", req.Voice)
		}
	})

	t.Run("missing voice leaves default", func(t *testing.T) {
		req := f.Build("Hi", PlaybackConfig{Rate: 1, Pitch: 1, Volume: 1, Voice: "Carol"})
		if req.Voice != nil {
			t.Errorf("Voice = %v, want nil", req.Voice)
		}
	})

	t.Run("empty text is not rejected", func(t *testing.T) {
		req := f.Build("   ", DefaultPlaybackConfig())
		if req.Text != "" {
			t.Errorf("Text = %q, want empty", req.Text)
		}
	})
}
