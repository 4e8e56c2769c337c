package voice_detection

import "time"

const (
	// DefaultQuietTime is how long the flux must stay low before speech
	// is considered over.
	DefaultQuietTime = time.Millisecond * 200

	// onsetRatio is how much the flux must jump relative to the last
	// quiescent reading to count as the start of speech.
	onsetRatio = 1.75
)

type Event int

const (
	EventNone Event = iota
	EventSpeechStart
	EventSpeechEnd
)

func (e Event) String() string {
	switch e {
	case EventSpeechStart:
		return "speech_start"
	case EventSpeechEnd:
		return "speech_end"
	default:
		return "none"
	}
}

// Monitor turns a stream of flux readings into speech start/end events.
// An onset is a flux jump of at least onsetRatio over the quiescent
// baseline; speech ends once the flux has stayed below the baseline for
// the quiet time. Not safe for concurrent use.
type Monitor struct {
	quietTime  time.Duration
	lastFlux   float64
	speaking   bool
	quiet      bool
	quietStart time.Time
}

func NewMonitor(quietTime time.Duration) *Monitor {
	if quietTime <= 0 {
		quietTime = DefaultQuietTime
	}

	return &Monitor{quietTime: quietTime}
}

// Speaking reports whether the monitor currently considers speech active.
func (m *Monitor) Speaking() bool {
	return m.speaking
}

// Observe feeds the next flux reading. now is when the underlying frame
// was captured.
func (m *Monitor) Observe(flux float64, now time.Time) Event {
	// The first nonzero reading only seeds the baseline.
	if m.lastFlux == 0 {
		m.lastFlux = flux
		return EventNone
	}

	if m.speaking {
		if flux*onsetRatio <= m.lastFlux {
			if !m.quiet {
				m.quiet = true
				m.quietStart = now
			} else if now.Sub(m.quietStart) > m.quietTime {
				m.speaking = false
				m.quiet = false
				m.lastFlux = flux
				return EventSpeechEnd
			}
		} else {
			m.quiet = false
			m.lastFlux = flux
		}

		return EventNone
	}

	if flux >= m.lastFlux*onsetRatio {
		m.speaking = true
		m.quiet = false
		m.lastFlux = flux
		return EventSpeechStart
	}

	m.lastFlux = flux

	return EventNone
}
