package ui

import (
	"strings"
	"testing"
)

func TestGlamourStyle(t *testing.T) {
	tests := []struct {
		style string
		theme Theme
		want  string
	}{
		{"auto", ThemeDark, "dark"},
		{"auto", ThemeLight, "light"},
		{"", ThemeDark, "dark"},
		{"dracula", ThemeLight, "dracula"},
		{"/tmp/custom.json", ThemeDark, "/tmp/custom.json"},
	}
	for _, tt := range tests {
		if got := glamourStyle(tt.style, tt.theme); got != tt.want {
			t.Errorf("glamourStyle(%q, %v) = %q, want %q", tt.style, tt.theme, got, tt.want)
		}
	}
}

func TestRenderPreview(t *testing.T) {
	out, err := renderPreview("# Heading\n\nSome text.", "notty", ThemeDark, 40)
	if err != nil {
		t.Fatalf("renderPreview failed: %v", err)
	}
	if !strings.Contains(out, "Heading") || !strings.Contains(out, "Some text.") {
		t.Errorf("preview = %q", out)
	}
}
