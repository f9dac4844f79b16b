package espeak

import (
	"bufio"
	"bytes"
	"strings"

	"github.com/dgnsrekt/speak/tts"
)

// parseVoices reads the table printed by `espeak-ng --voices`:
//
//	Pty Language       Age/Gender VoiceName          File                 Other Languages
//	 5  af              --/M      Afrikaans          gmw/af
//	 2  en-us           --/M      English_(America)  gmw/en-US            (en 10)
//
// The voice name is what -v accepts; it is kept as the Handle and shown
// with underscores turned into spaces.
func parseVoices(out []byte) []tts.Voice {
	var voices []tts.Voice
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 4 || fields[0] == "Pty" {
			continue
		}
		id := fields[3]
		voices = append(voices, tts.Voice{
			Name:     strings.ReplaceAll(id, "_", " "),
			Language: fields[1],
			Handle:   id,
		})
	}
	return voices
}

// voiceID returns the -v argument for v.
func voiceID(v *tts.Voice) string {
	if v == nil {
		return ""
	}
	if id, ok := v.Handle.(string); ok && id != "" {
		return id
	}
	return strings.ReplaceAll(v.Name, " ", "_")
}

func sameVoices(a, b []tts.Voice) bool {
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
