package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"
)

// Errors returned while decoding WAV data.
var (
	ErrNotWAV            = errors.New("not a RIFF/WAVE stream")
	ErrUnsupportedFormat = errors.New("unsupported WAV format")
	ErrNoData            = errors.New("WAV stream has no data chunk")
)

// Format describes PCM audio.
type Format struct {
	SampleRate    int
	Channels      int
	BitsPerSample int
}

// BytesPerSecond returns the byte rate of f.
func (f Format) BytesPerSecond() int {
	return f.SampleRate * f.Channels * f.BitsPerSample / 8
}

// Duration returns the playing time of n bytes of PCM in format f.
func (f Format) Duration(n int) time.Duration {
	bps := f.BytesPerSecond()
	if bps == 0 {
		return 0
	}
	return time.Duration(n) * time.Second / time.Duration(bps)
}

// String implements fmt.Stringer.
func (f Format) String() string {
	return fmt.Sprintf("%dHz/%dch/%dbit", f.SampleRate, f.Channels, f.BitsPerSample)
}

// ParseWAV extracts the format and PCM payload of a 16-bit PCM WAV file.
// espeak-ng writes a data chunk size of 0xFFFFFFFF when streaming to
// stdout, so the payload is bounded by the buffer rather than the header.
func ParseWAV(data []byte) (Format, []byte, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return Format{}, nil, ErrNotWAV
	}

	var (
		f      Format
		haveFm bool
	)
	pos := 12
	for pos+8 <= len(data) {
		id := string(data[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		body := pos + 8

		switch id {
		case "fmt ":
			if body+16 > len(data) {
				return Format{}, nil, fmt.Errorf("%w: short fmt chunk", ErrNotWAV)
			}
			audioFormat := binary.LittleEndian.Uint16(data[body : body+2])
			f.Channels = int(binary.LittleEndian.Uint16(data[body+2 : body+4]))
			f.SampleRate = int(binary.LittleEndian.Uint32(data[body+4 : body+8]))
			f.BitsPerSample = int(binary.LittleEndian.Uint16(data[body+14 : body+16]))
			if audioFormat != 1 || f.BitsPerSample != 16 {
				return Format{}, nil, fmt.Errorf("%w: format %d, %d bits", ErrUnsupportedFormat, audioFormat, f.BitsPerSample)
			}
			if f.Channels < 1 || f.Channels > 2 || f.SampleRate <= 0 {
				return Format{}, nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, f)
			}
			haveFm = true

		case "data":
			if !haveFm {
				return Format{}, nil, fmt.Errorf("%w: data before fmt", ErrNotWAV)
			}
			end := body + size
			if size < 0 || end > len(data) || end < body {
				end = len(data)
			}
			pcm := data[body:end]
			// Drop a trailing partial frame.
			frame := f.Channels * f.BitsPerSample / 8
			pcm = pcm[:len(pcm)-len(pcm)%frame]
			return f, pcm, nil
		}

		next := body + size
		if size%2 == 1 {
			next++
		}
		if next <= pos || next > len(data) {
			break
		}
		pos = next
	}

	return Format{}, nil, ErrNoData
}

// EncodeWAV wraps pcm in a canonical 44-byte WAV header.
func EncodeWAV(f Format, pcm []byte) []byte {
	out := make([]byte, 44+len(pcm))
	copy(out[0:4], "RIFF")
	binary.LittleEndian.PutUint32(out[4:8], uint32(36+len(pcm)))
	copy(out[8:12], "WAVE")
	copy(out[12:16], "fmt ")
	binary.LittleEndian.PutUint32(out[16:20], 16)
	binary.LittleEndian.PutUint16(out[20:22], 1)
	binary.LittleEndian.PutUint16(out[22:24], uint16(f.Channels))
	binary.LittleEndian.PutUint32(out[24:28], uint32(f.SampleRate))
	binary.LittleEndian.PutUint32(out[28:32], uint32(f.BytesPerSecond()))
	binary.LittleEndian.PutUint16(out[32:34], uint16(f.Channels*f.BitsPerSample/8))
	binary.LittleEndian.PutUint16(out[34:36], uint16(f.BitsPerSample))
	copy(out[36:40], "data")
	binary.LittleEndian.PutUint32(out[40:44], uint32(len(pcm)))
	copy(out[44:], pcm)
	return out
}
