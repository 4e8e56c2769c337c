package audio_dump

import "time"

// Interface stores snapshots of recently captured audio, one WAV file
// per trigger.
type Interface interface {
	// Write stores samples as a mono PCM16 WAV stamped with the trigger
	// time and returns the path written.
	Write(samples []int16, at time.Time) (string, error)
}
