package tts

import (
	"errors"
	"strings"
	"testing"
)

// TestClassifyError tests mapping raw engine codes to kinds.
func TestClassifyError(t *testing.T) {
	tests := []struct {
		code     string
		expected ErrorKind
	}{
		{"audio-busy", KindBusy},
		{"busy", KindBusy},
		{"not-allowed", KindNotAllowed},
		{"network", KindNetwork},
		{"interrupted", KindInterruption},
		{"canceled", KindInterruption},
		{"cancelled", KindInterruption},
		{" Interrupted ", KindInterruption},
		{"NETWORK", KindNetwork},
		{"synthesis-failed", KindOther},
		{"", KindOther},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			if got := ClassifyError(tt.code); got != tt.expected {
				t.Errorf("ClassifyError(%q) = %v, want %v", tt.code, got, tt.expected)
			}
		})
	}
}

// TestIsInterruption tests the silent cancellation codes.
func TestIsInterruption(t *testing.T) {
	for _, code := range []string{CodeInterrupted, CodeCanceled, CodeCancelled} {
		if !IsInterruption(code) {
			t.Errorf("IsInterruption(%q) = false, want true", code)
		}
	}
	for _, code := range []string{CodeBusy, CodeNetwork, "voice-unavailable"} {
		if IsInterruption(code) {
			t.Errorf("IsInterruption(%q) = true, want false", code)
		}
	}
}

// TestRegisterErrorCode tests extending the code taxonomy.
func TestRegisterErrorCode(t *testing.T) {
	const code = "Device-Locked"
	if ClassifyError(code) != KindOther {
		t.Fatalf("code already registered")
	}

	RegisterErrorCode(code, KindBusy)
	t.Cleanup(func() {
		codesMu.Lock()
		delete(codes, strings.ToLower(code))
		codesMu.Unlock()
	})

	if got := ClassifyError("device-locked"); got != KindBusy {
		t.Errorf("ClassifyError() = %v, want %v", got, KindBusy)
	}
}

// TestEngineErrorMessage tests user-facing messages per kind.
func TestEngineErrorMessage(t *testing.T) {
	tests := []struct {
		code     string
		expected string
		sentinel error
	}{
		{"audio-busy", "Audio system is busy. Please wait and try again.", ErrEngineBusy},
		{"not-allowed", "Speech synthesis not allowed. Check system permissions.", ErrEngineNotAllowed},
		{"network", "Network error occurred during speech synthesis.", ErrEngineNetwork},
		{"synthesis-failed", "Speech error: synthesis-failed", ErrEngineOther},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := &EngineError{Kind: ClassifyError(tt.code), Code: tt.code, RequestID: 7}
			if got := err.Message(); got != tt.expected {
				t.Errorf("Message() = %q, want %q", got, tt.expected)
			}
			if !errors.Is(err, tt.sentinel) {
				t.Errorf("errors.Is(%v, %v) = false", err, tt.sentinel)
			}
			if !strings.Contains(err.Error(), tt.code) {
				t.Errorf("Error() = %q, missing code", err.Error())
			}
		})
	}
}

// TestErrorKindString tests the String() method for ErrorKind.
func TestErrorKindString(t *testing.T) {
	tests := []struct {
		kind     ErrorKind
		expected string
	}{
		{KindOther, "other"},
		{KindBusy, "busy"},
		{KindNotAllowed, "not-allowed"},
		{KindNetwork, "network"},
		{KindInterruption, "interruption"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.expected {
			t.Errorf("String() = %q, want %q", got, tt.expected)
		}
	}
}
