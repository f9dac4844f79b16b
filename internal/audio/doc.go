// Package audio plays synthesized speech through the system audio device
// using the oto/v3 library. It parses WAV output from speech engines and
// reports when playback of each clip has finished.
package audio
