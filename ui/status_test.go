package ui

import (
	"strings"
	"testing"

	"github.com/dgnsrekt/speak/tts"
)

func TestStatusDisplayCreation(t *testing.T) {
	display := NewStatusDisplay()

	if display.IsActive() {
		t.Error("Display should not be active initially")
	}
	if status := display.CompactStatus(newStyles(ThemeDark)); status != "" {
		t.Errorf("Initial compact status should be empty, got %q", status)
	}
}

func TestStatusDisplayStates(t *testing.T) {
	st := newStyles(ThemeDark)

	tests := []struct {
		state  tts.StateType
		icon   string
		label  string
		active bool
	}{
		{tts.StatePending, "⟳", "Starting", true},
		{tts.StateSpeaking, "▶", "Speaking", true},
		{tts.StateFailed, "✗", "Failed", false},
	}

	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			display := NewStatusDisplay()
			display.Update(tts.Snapshot{State: tt.state})

			status := display.CompactStatus(st)
			if !strings.Contains(status, tt.icon) {
				t.Errorf("status %q should contain icon %q", status, tt.icon)
			}
			if !strings.Contains(status, tt.label) {
				t.Errorf("status %q should contain %q", status, tt.label)
			}
			if display.IsActive() != tt.active {
				t.Errorf("IsActive() = %v, want %v", display.IsActive(), tt.active)
			}
		})
	}
}

func TestStatusDisplayErrorBanner(t *testing.T) {
	st := newStyles(ThemeLight)
	display := NewStatusDisplay()

	if banner := display.ErrorBanner(st, 80); banner != "" {
		t.Errorf("banner without error = %q", banner)
	}

	display.Update(tts.Snapshot{State: tts.StateFailed, Error: "Audio system is busy. Please wait and try again."})
	display.Update(tts.Snapshot{State: tts.StateIdle, Error: "Audio system is busy. Please wait and try again."})

	if display.Failures() != 1 {
		t.Errorf("Failures() = %d, want 1", display.Failures())
	}
	if banner := display.ErrorBanner(st, 80); !strings.Contains(banner, "Audio system is busy") {
		t.Errorf("banner = %q", banner)
	}

	short := display.ErrorBanner(st, 20)
	if !strings.Contains(short, ellipsis) {
		t.Errorf("narrow banner should be truncated, got %q", short)
	}

	display.Update(tts.Snapshot{State: tts.StateIdle})
	if banner := display.ErrorBanner(st, 80); banner != "" {
		t.Errorf("cleared error still shown: %q", banner)
	}
}

func TestThemeValues(t *testing.T) {
	if ThemeLight.Toggle() != ThemeDark || ThemeDark.Toggle() != ThemeLight {
		t.Error("Toggle should flip between light and dark")
	}
	if detectTheme("LIGHT") != ThemeLight || detectTheme("dark") != ThemeDark {
		t.Error("explicit theme settings should be honored")
	}
	if ThemeDark.String() != "dark" || ThemeLight.String() != "light" {
		t.Error("unexpected theme names")
	}
}
