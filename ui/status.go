package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/dgnsrekt/speak/tts"
	"github.com/muesli/reflow/truncate"
)

// StatusDisplay renders playback state for the status bar and the error
// banner.
type StatusDisplay struct {
	state        tts.StateType
	errorMessage string
	voice        string
	failures     int
}

// NewStatusDisplay creates an idle status display.
func NewStatusDisplay() *StatusDisplay {
	return &StatusDisplay{state: tts.StateIdle}
}

// Update copies the parts of a snapshot the display shows.
func (s *StatusDisplay) Update(snap tts.Snapshot) {
	if snap.State == tts.StateFailed {
		s.failures++
	}
	s.state = snap.State
	s.errorMessage = snap.Error
	s.voice = snap.Config.Voice
}

// CompactStatus returns a short status string for the status bar. It is
// empty when idle.
func (s *StatusDisplay) CompactStatus(st styles) string {
	if s.state == tts.StateIdle {
		return ""
	}
	color := s.stateColor(st.palette)
	text := fmt.Sprintf("%s %s", s.stateIcon(), s.stateLabel())
	return lipgloss.NewStyle().Foreground(color).Render(text)
}

// ErrorBanner returns the error message, truncated to width, or "".
func (s *StatusDisplay) ErrorBanner(st styles, width int) string {
	if s.errorMessage == "" {
		return ""
	}
	msg := truncate.StringWithTail(s.errorMessage, uint(max(0, width-4)), ellipsis) //nolint:gosec
	return st.errorBox.Render("✗ " + msg)
}

// IsActive returns true if a request is pending or being spoken.
func (s *StatusDisplay) IsActive() bool {
	return s.state.IsActive()
}

// Failures returns how many failures have been observed.
func (s *StatusDisplay) Failures() int {
	return s.failures
}

func (s *StatusDisplay) stateLabel() string {
	switch s.state {
	case tts.StatePending:
		return "Starting"
	case tts.StateSpeaking:
		return "Speaking"
	case tts.StateFailed:
		return "Failed"
	default:
		return "Idle"
	}
}

func (s *StatusDisplay) stateColor(p palette) lipgloss.Color {
	switch s.state {
	case tts.StateSpeaking:
		return p.speaking
	case tts.StatePending:
		return p.pending
	case tts.StateFailed:
		return p.errFg
	default:
		return p.subtle
	}
}

func (s *StatusDisplay) stateIcon() string {
	switch s.state {
	case tts.StateSpeaking:
		return "▶"
	case tts.StatePending:
		return "⟳"
	case tts.StateFailed:
		return "✗"
	default:
		return "■"
	}
}
