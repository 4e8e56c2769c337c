package recognizer_pool

import "assistant-voice-trigger/speech_to_text"

// Stats are cumulative rotation counters.
type Stats struct {
	Rotations uint64
	Skipped   uint64
}

// Interface maintains two decoder sessions so the dormant one can be
// rebuilt on a timer, bounding the engine state the decoder accumulates
// across utterances, without ever touching the session in use.
type Interface interface {
	// Decode pushes mono PCM16 samples into the active session. When the
	// decoder closes an utterance the transcript is returned alongside
	// StatusFinalized. A decode error drops only that push.
	Decode(samples []int16) (speech_to_text.Status, string, error)
	// Rotate rebuilds the inactive slot and makes it active. A session
	// construction failure skips the cycle and leaves both slots as
	// they were.
	Rotate() error
	// ResetActive clears accumulated utterance state in the active
	// session without replacing it.
	ResetActive()
	Stats() Stats
	// Close tears down both sessions. The capture source feeding Decode
	// must be stopped first.
	Close() error
}
