package speech_to_text

// Status reports where the decoder is in the current utterance.
type Status int

const (
	// StatusRunning means the decoder is still accumulating audio for
	// the current utterance.
	StatusRunning Status = iota
	// StatusFinalized means the decoder closed the utterance; Result
	// returns its transcript.
	StatusFinalized
)

func (s Status) String() string {
	if s == StatusFinalized {
		return "finalized"
	}

	return "running"
}

// Session is one streaming decode against a shared model. Sessions are
// not safe for concurrent use.
type Session interface {
	// Accept pushes mono PCM16 samples into the decoder.
	Accept(samples []int16) (Status, error)
	// Result returns the transcript of the utterance closed by the last
	// Accept. Meaningful once Accept has reported StatusFinalized.
	Result() (string, error)
	// Reset discards utterance state so the next Accept starts fresh.
	Reset()
	Close() error
}

// Engine owns the acoustic model and mints sessions against it. The
// model is immutable and shared; sessions hold all mutable state.
type Engine interface {
	NewSession(sampleRate float64) (Session, error)
	Close() error
}
