package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/mitchellh/go-homedir"
	"github.com/muesli/gitcha"
)

// documentPath returns the file to speak for a FILE or DIR argument.
func documentPath(arg string) (string, error) {
	path, err := homedir.Expand(arg)
	if err != nil {
		return "", fmt.Errorf("unable to expand path: %w", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("unable to open file: %w", err)
	}
	if !info.IsDir() {
		return path, nil
	}
	return findDocument(path)
}

// findDocument picks the markdown file to open from dir: its README when
// there is one, otherwise the first file found in path order. Files
// ignored by git are skipped.
func findDocument(dir string) (string, error) {
	patterns := make([]string, len(markdownExtensions))
	for i, ext := range markdownExtensions {
		patterns[i] = "*" + ext
	}

	ch, err := gitcha.FindFilesExcept(dir, patterns, nil)
	if err != nil {
		return "", fmt.Errorf("unable to search %s: %w", dir, err)
	}

	var found []string
	for res := range ch {
		found = append(found, res.Path)
	}
	if len(found) == 0 {
		return "", fmt.Errorf("no markdown files found in %s", dir)
	}
	sort.Strings(found)

	root := filepath.Clean(dir)
	for _, p := range found {
		base := filepath.Base(p)
		name := strings.TrimSuffix(base, filepath.Ext(base))
		if filepath.Dir(p) == root && strings.EqualFold(name, "readme") {
			log.Debug("Opening directory readme", "path", p)
			return p, nil
		}
	}
	log.Debug("Opening first markdown file", "dir", dir, "path", found[0], "found", len(found))
	return found[0], nil
}
