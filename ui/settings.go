package ui

import (
	"fmt"
	"math"
	"strings"

	"github.com/dgnsrekt/speak/tts"
	"github.com/muesli/reflow/truncate"
)

type setting int

const (
	settingVoice setting = iota
	settingRate
	settingPitch
	settingVolume
	settingCount
)

func (s setting) String() string {
	return [...]string{"Voice", "Rate", "Pitch", "Volume"}[s]
}

// Slider step, matching the 0.1 increments of the controls.
const sliderStep = 0.1

// settingsModel is the voice picker and the three sliders.
type settingsModel struct {
	selected setting
	config   tts.PlaybackConfig
	voices   []tts.Voice
}

func (m *settingsModel) sync(snap tts.Snapshot) {
	m.config = snap.Config
	m.voices = snap.Voices
}

func (m *settingsModel) move(delta int) {
	n := int(settingCount)
	m.selected = setting((int(m.selected) + delta + n) % n)
}

// adjust steps the selected setting and returns the update to send to the
// controller, or false when nothing changes.
func (m *settingsModel) adjust(dir int) (tts.ConfigUpdate, bool) {
	var u tts.ConfigUpdate
	switch m.selected {
	case settingVoice:
		if len(m.voices) == 0 {
			return u, false
		}
		i := m.voiceIndex()
		next := (i + dir + len(m.voices)) % len(m.voices)
		if i < 0 && dir < 0 {
			next = len(m.voices) - 1
		}
		name := m.voices[next].Name
		if name == m.config.Voice {
			return u, false
		}
		u.Voice = &name

	case settingRate:
		v, ok := step(m.config.Rate, dir, tts.MinRate, tts.MaxRate)
		if !ok {
			return u, false
		}
		u.Rate = &v

	case settingPitch:
		v, ok := step(m.config.Pitch, dir, tts.MinPitch, tts.MaxPitch)
		if !ok {
			return u, false
		}
		u.Pitch = &v

	case settingVolume:
		v, ok := step(m.config.Volume, dir, tts.MinVolume, tts.MaxVolume)
		if !ok {
			return u, false
		}
		u.Volume = &v
	}

	m.config = u.Apply(m.config)
	return u, true
}

func (m *settingsModel) voiceIndex() int {
	for i, v := range m.voices {
		if v.Name == m.config.Voice {
			return i
		}
	}
	return -1
}

// step moves v by one slider step and rounds to the step grid.
func step(v float64, dir int, lo, hi float64) (float64, bool) {
	next := tts.Clamp(math.Round((v+float64(dir)*sliderStep)*10)/10, lo, hi)
	if next == v {
		return v, false
	}
	return next, true
}

func (m settingsModel) view(st styles, width int, focused bool) string {
	var b strings.Builder
	for s := settingVoice; s < settingCount; s++ {
		labelStyle := st.label
		var value string
		switch s {
		case settingVoice:
			value = m.voiceLabel(max(0, width-12))
		case settingRate:
			value = m.slider(st, m.config.Rate, tts.MinRate, tts.MaxRate, "%.1fx")
		case settingPitch:
			value = m.slider(st, m.config.Pitch, tts.MinPitch, tts.MaxPitch, "%.1f")
		case settingVolume:
			value = m.slider(st, m.config.Volume, tts.MinVolume, tts.MaxVolume, "%.0f%%")
		}

		cursor := "  "
		if focused && s == m.selected {
			cursor = st.selected.Render("> ")
			labelStyle = labelStyle.Foreground(st.palette.accent).Bold(true)
		}
		fmt.Fprintf(&b, "%s%s %s", cursor, labelStyle.Render(s.String()), value)
		if s < settingCount-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (m settingsModel) voiceLabel(width int) string {
	if m.config.Voice == "" {
		return "Default"
	}
	name := m.config.Voice
	for _, v := range m.voices {
		if v.Name == name && v.Language != "" {
			name = fmt.Sprintf("%s (%s)", v.Name, v.Language)
			break
		}
	}
	return truncate.StringWithTail(name, uint(width), ellipsis) //nolint:gosec
}

const sliderWidth = 20

func (m settingsModel) slider(st styles, v, lo, hi float64, format string) string {
	v = tts.Clamp(v, lo, hi)
	filled := int(math.Round((v - lo) / (hi - lo) * sliderWidth))
	bar := st.barFilled.Render(strings.Repeat("━", filled)) +
		st.barEmpty.Render(strings.Repeat("─", sliderWidth-filled))

	shown := v
	if strings.HasSuffix(format, "%%") {
		shown = v * 100
	}
	return bar + " " + st.value.Render(fmt.Sprintf(format, shown))
}
