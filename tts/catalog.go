package tts

import (
	"strings"
	"sync"

	"github.com/sahilm/fuzzy"
	"golang.org/x/text/language"
)

// VoiceCatalog caches the engine's voice list. It is rebuilt wholesale on
// every refresh and never patched in place.
type VoiceCatalog struct {
	mu     sync.RWMutex
	voices []Voice
	byName map[string]int
}

// NewVoiceCatalog creates an empty catalog.
func NewVoiceCatalog() *VoiceCatalog {
	return &VoiceCatalog{byName: make(map[string]int)}
}

// Refresh replaces the catalog with voices and reports whether the list
// differs from the previous one. Language tags are normalized; voices with
// an empty or duplicate name are dropped.
func (c *VoiceCatalog) Refresh(voices []Voice) bool {
	next := make([]Voice, 0, len(voices))
	byName := make(map[string]int, len(voices))
	for _, v := range voices {
		if v.Name == "" {
			continue
		}
		if _, dup := byName[v.Name]; dup {
			continue
		}
		v.Language = normalizeLanguage(v.Language)
		byName[v.Name] = len(next)
		next = append(next, v)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	changed := !sameVoices(c.voices, next)
	c.voices = next
	c.byName = byName
	return changed
}

// Lookup returns the voice with the given name. A missing voice is not an
// error: the voice list may have changed since it was selected.
func (c *VoiceCatalog) Lookup(name string) (Voice, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	i, ok := c.byName[name]
	if !ok {
		return Voice{}, false
	}
	return c.voices[i], true
}

// Voices returns a copy of the catalog.
func (c *VoiceCatalog) Voices() []Voice {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Voice, len(c.voices))
	copy(out, c.voices)
	return out
}

// Len returns the number of voices.
func (c *VoiceCatalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.voices)
}

// First returns the engine's first voice, the default selection.
func (c *VoiceCatalog) First() (Voice, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.voices) == 0 {
		return Voice{}, false
	}
	return c.voices[0], true
}

// Match resolves a user query to a voice: exact name (case-insensitive),
// then best language match, then fuzzy name match.
func (c *VoiceCatalog) Match(query string) (Voice, bool) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Voice{}, false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.voices) == 0 {
		return Voice{}, false
	}

	for _, v := range c.voices {
		if strings.EqualFold(v.Name, query) {
			return v, true
		}
	}

	if want, err := language.Parse(query); err == nil {
		tags := make([]language.Tag, 0, len(c.voices))
		idx := make([]int, 0, len(c.voices))
		for i, v := range c.voices {
			tag, err := language.Parse(v.Language)
			if err != nil {
				continue
			}
			tags = append(tags, tag)
			idx = append(idx, i)
		}
		if len(tags) > 0 {
			_, i, conf := language.NewMatcher(tags).Match(want)
			if conf >= language.High {
				return c.voices[idx[i]], true
			}
		}
	}

	names := make([]string, len(c.voices))
	for i, v := range c.voices {
		names[i] = v.Name
	}
	if matches := fuzzy.Find(query, names); len(matches) > 0 {
		return c.voices[matches[0].Index], true
	}

	return Voice{}, false
}

func normalizeLanguage(tag string) string {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return ""
	}
	parsed, err := language.Parse(strings.ReplaceAll(tag, "_", "-"))
	if err != nil {
		return tag
	}
	return parsed.String()
}

func sameVoices(a, b []Voice) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Name != b[i].Name || a[i].Language != b[i].Language {
			return false
		}
	}
	return true
}
