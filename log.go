package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/mitchellh/go-homedir"
	gap "github.com/muesli/go-app-paths"
)

// setupLog sends logs to a file so they don't garble the interface. An
// empty path means speak.log in the user cache directory.
func setupLog(path string, debug bool) (func() error, error) {
	log.SetOutput(os.Stderr)
	log.SetLevel(log.InfoLevel)
	if debug {
		log.SetLevel(log.DebugLevel)
	}

	if path == "" {
		dir, err := gap.NewScope(gap.User, "speak").CacheDir()
		if err != nil {
			return nil, fmt.Errorf("unable to find log directory: %w", err)
		}
		path = filepath.Join(dir, "speak.log")
	}
	path, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("unable to expand log path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil { //nolint:gosec
		return nil, fmt.Errorf("unable to create log directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("unable to open log file: %w", err)
	}
	log.SetOutput(f)
	log.SetReportTimestamp(true)
	return f.Close, nil
}
