package tts

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// Common errors for the playback controller.
var (
	ErrEngineUnavailable = errors.New("speech synthesis engine is not available")
	ErrControllerClosed  = errors.New("playback controller has been closed")
	ErrSubmission        = errors.New("failed to submit speech request")
	ErrInvalidConfig     = errors.New("invalid configuration")

	// Engine error kinds; *EngineError unwraps to one of these.
	ErrEngineBusy       = errors.New("speech engine is busy")
	ErrEngineNotAllowed = errors.New("speech synthesis not allowed")
	ErrEngineNetwork    = errors.New("speech engine network failure")
	ErrEngineOther      = errors.New("speech engine error")
)

// Raw engine error codes the controller knows about.
const (
	CodeAudioBusy   = "audio-busy"
	CodeBusy        = "busy"
	CodeNotAllowed  = "not-allowed"
	CodeNetwork     = "network"
	CodeInterrupted = "interrupted"
	CodeCanceled    = "canceled"
	CodeCancelled   = "cancelled"
)

// ErrorKind classifies an engine error code.
type ErrorKind int

const (
	// KindOther is any code without a specific classification.
	KindOther ErrorKind = iota
	// KindBusy means the audio system is occupied.
	KindBusy
	// KindNotAllowed means a permission or policy denial.
	KindNotAllowed
	// KindNetwork means a remote voice could not be fetched.
	KindNetwork
	// KindInterruption is the byproduct of the controller's own cancel.
	// It is never surfaced as an error.
	KindInterruption
)

// String returns the string representation of the kind.
func (k ErrorKind) String() string {
	switch k {
	case KindBusy:
		return "busy"
	case KindNotAllowed:
		return "not-allowed"
	case KindNetwork:
		return "network"
	case KindInterruption:
		return "interruption"
	default:
		return "other"
	}
}

var (
	codesMu sync.RWMutex
	codes   = map[string]ErrorKind{
		CodeAudioBusy:   KindBusy,
		CodeBusy:        KindBusy,
		CodeNotAllowed:  KindNotAllowed,
		CodeNetwork:     KindNetwork,
		CodeInterrupted: KindInterruption,
		CodeCanceled:    KindInterruption,
		CodeCancelled:   KindInterruption,
	}
)

// RegisterErrorCode maps an additional engine error code to a kind.
// Engines reporting vocabulary beyond the built-in codes call this at init.
func RegisterErrorCode(code string, kind ErrorKind) {
	codesMu.Lock()
	defer codesMu.Unlock()
	codes[strings.ToLower(code)] = kind
}

// ClassifyError maps a raw engine error code to its kind.
func ClassifyError(code string) ErrorKind {
	codesMu.RLock()
	defer codesMu.RUnlock()
	if kind, ok := codes[strings.ToLower(strings.TrimSpace(code))]; ok {
		return kind
	}
	return KindOther
}

// IsInterruption reports whether code is an expected cancellation byproduct.
func IsInterruption(code string) bool {
	return ClassifyError(code) == KindInterruption
}

// EngineError is an engine-reported failure for a tracked request.
type EngineError struct {
	Kind      ErrorKind
	Code      string // Raw engine code
	RequestID uint64
}

// Error implements the error interface.
func (e *EngineError) Error() string {
	return fmt.Sprintf("engine error %q (%s) for request %d", e.Code, e.Kind, e.RequestID)
}

// Unwrap returns the sentinel for the error kind.
func (e *EngineError) Unwrap() error {
	switch e.Kind {
	case KindBusy:
		return ErrEngineBusy
	case KindNotAllowed:
		return ErrEngineNotAllowed
	case KindNetwork:
		return ErrEngineNetwork
	default:
		return ErrEngineOther
	}
}

// Message returns the human-readable message shown to the user.
func (e *EngineError) Message() string {
	switch e.Kind {
	case KindBusy:
		return "Audio system is busy. Please wait and try again."
	case KindNotAllowed:
		return "Speech synthesis not allowed. Check system permissions."
	case KindNetwork:
		return "Network error occurred during speech synthesis."
	default:
		return "Speech error: " + e.Code
	}
}

// submissionMessage is shown when a request could not be submitted.
const submissionMessage = "Failed to start speech synthesis."
