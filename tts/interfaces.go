package tts

// Engine is the platform speech synthesizer the controller drives.
//
// Engines are asynchronous: Speak returns as soon as the request is queued
// and reports progress through the supplied Callbacks, possibly from another
// goroutine and possibly after Cancel has been called. The controller tags
// every registration with the request ID and discards callbacks that no
// longer match the tracked request.
type Engine interface {
	// IsAvailable reports whether speech synthesis is usable at all.
	IsAvailable() bool

	// ListVoices returns the engine's current voice list.
	ListVoices() ([]Voice, error)

	// Speak queues a request. A returned error means nothing was queued.
	Speak(req SpeechRequest, cb Callbacks) error

	// Cancel stops current activity. Cancelling when nothing is being
	// spoken must be a no-op.
	Cancel()

	// OnVoicesChanged registers fn to be called whenever the voice list
	// changes. The returned function removes the registration.
	OnVoicesChanged(fn func()) (unsubscribe func())
}

// Callbacks receive engine notifications for a single request.
type Callbacks struct {
	OnStart func()
	OnEnd   func()
	// OnError receives the engine's raw error code, e.g. "audio-busy",
	// "not-allowed", "network" or "interrupted".
	OnError func(code string)
}

// Voice describes one engine-provided voice.
type Voice struct {
	Name     string // Unique within a catalog
	Language string // BCP-47 language tag (e.g., "en-US")
	Handle   any    // Opaque engine value
}

// String returns the voice as shown in pickers.
func (v Voice) String() string {
	if v.Language == "" {
		return v.Name
	}
	return v.Name + " (" + v.Language + ")"
}
