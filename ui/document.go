package ui

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/speak/internal/text"
	"github.com/fsnotify/fsnotify"
)

var errNothingToExport = errors.New("no text to export")

// LoadDocument reads path and returns its speakable text and raw source.
// Markdown files are flattened when markdown is set.
func LoadDocument(path string, markdown, includeCode bool) (speakable, source string, err error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", "", fmt.Errorf("unable to read file: %w", err)
	}
	if !markdown {
		return string(b), "", nil
	}
	speakable, err = text.Markdown(b, text.Options{IncludeCode: includeCode})
	if err != nil {
		return "", "", err
	}
	return speakable, string(text.RemoveFrontmatter(b)), nil
}

func loadDocumentCmd(cfg Config, reload bool) tea.Cmd {
	return func() tea.Msg {
		speakable, source, err := LoadDocument(cfg.Path, cfg.Markdown, cfg.MarkdownCode)
		if err != nil {
			log.Error("unable to load document", "file", cfg.Path, "error", err)
			return errMsg{err}
		}
		return documentMsg{text: speakable, source: source, reload: reload}
	}
}

// ExportText writes text to path.
func ExportText(path, s string) error {
	if isBlank(s) {
		return errNothingToExport
	}
	if err := os.WriteFile(path, []byte(s), 0o644); err != nil { //nolint:gosec
		return fmt.Errorf("unable to write %s: %w", path, err)
	}
	return nil
}

func exportCmd(path, s string) tea.Cmd {
	return func() tea.Msg {
		if err := ExportText(path, s); err != nil {
			return statusMsg{text: err.Error(), isErr: true}
		}
		return statusMsg{text: "Saved " + filepath.Base(path)}
	}
}

func copyCmd(s string) tea.Cmd {
	return func() tea.Msg {
		if isBlank(s) {
			return statusMsg{text: errNothingToExport.Error(), isErr: true}
		}
		if err := clipboard.WriteAll(s); err != nil {
			log.Debug("clipboard unavailable", "error", err)
			return statusMsg{text: "Clipboard unavailable", isErr: true}
		}
		return statusMsg{text: "Copied to clipboard"}
	}
}

// fileWatcher reports writes to a single file.
type fileWatcher struct {
	path    string
	watcher *fsnotify.Watcher
}

func newFileWatcher(path string) (*fileWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("unable to resolve %s: %w", path, err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("error creating fsnotify watcher: %w", err)
	}
	// Editors often replace the file, so the directory is watched.
	if err := w.Add(filepath.Dir(abs)); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("error adding dir to fsnotify watcher: %w", err)
	}
	log.Info("fsnotify watching file", "file", abs)
	return &fileWatcher{path: abs, watcher: w}, nil
}

// wait blocks until the file changes, then reloads it.
func (fw *fileWatcher) wait(cfg Config) tea.Cmd {
	return func() tea.Msg {
		for {
			select {
			case event, ok := <-fw.watcher.Events:
				if !ok {
					return nil
				}
				if event.Name != fw.path {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				log.Debug("fsnotify event", "file", event.Name, "event", event.Op)
				return loadDocumentCmd(cfg, true)()
			case err, ok := <-fw.watcher.Errors:
				if !ok {
					return nil
				}
				log.Debug("fsnotify error", "file", fw.path, "error", err)
			}
		}
	}
}

func (fw *fileWatcher) close() {
	if err := fw.watcher.Close(); err != nil {
		log.Error("fsnotify fail to close watcher", "error", err)
	}
}
