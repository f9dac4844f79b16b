package ui

// Config contains TUI-specific configuration.
type Config struct {
	// Engine name shown in the status bar.
	Engine string

	// Text file to load into the editor, optionally reloaded on change.
	Path  string
	Watch bool

	// Markdown flattens loaded files to speakable text and shows a
	// rendered preview of the source.
	Markdown        bool
	MarkdownCode    bool   `env:"SPEAK_MARKDOWN_CODE"`
	GlamourStyle    string `env:"GLAMOUR_STYLE" envDefault:"auto"`
	GlamourMaxWidth int    `env:"SPEAK_PREVIEW_WIDTH" envDefault:"80"`

	// Initial text when no file is given.
	Text string

	ExportPath string `env:"SPEAK_EXPORT_PATH" envDefault:"speech-text.txt"`
	Theme      string `env:"SPEAK_THEME" envDefault:"auto"`

	EnableMouse bool
}
