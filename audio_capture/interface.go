package audio_capture

import (
	"errors"

	"assistant-voice-trigger/audio_convert"
)

// ErrDevice marks a failure to acquire or read the capture device.
// Callers decide whether it is fatal; at startup it is.
var ErrDevice = errors.New("capture device")

// FrameFunc receives each captured buffer on the source's capture
// goroutine. The chunk's sample memory is reused between calls; the
// receiver must not retain it.
type FrameFunc func(chunk audio_convert.Chunk)

// ErrorFunc receives capture failures that happen after a successful
// Start.
type ErrorFunc func(err error)

// Source delivers a continuous sequence of raw sample buffers at a
// fixed sample rate, channel count and encoding.
type Source interface {
	Start(onFrame FrameFunc, onError ErrorFunc) error
	// Stop ends delivery and waits for the capture goroutine to exit.
	Stop() error
}

// Finite is implemented by sources that end on their own, such as file
// replay. Done is closed after the final frame has been delivered.
type Finite interface {
	Done() <-chan struct{}
}
