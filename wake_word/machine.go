package wake_word

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultCommandTimeout bounds how long a bare wake phrase keeps the
// command window open.
const DefaultCommandTimeout = 3 * time.Second

type State int

const (
	StateIdle State = iota
	StateWakeDetected
)

func (s State) String() string {
	if s == StateWakeDetected {
		return "wake_detected"
	}

	return "idle"
}

// Outcome reports what a processed transcript did to the machine.
type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeWakeDetected
	OutcomeTriggered
)

func (o Outcome) String() string {
	switch o {
	case OutcomeWakeDetected:
		return "wake_detected"
	case OutcomeTriggered:
		return "triggered"
	default:
		return "none"
	}
}

// Machine decides, per finalized transcript, whether a wake phrase was
// spoken and whether a command came with it or should be awaited. It
// performs no I/O; its only effects are its own state and the trigger
// signal. Safe for concurrent use.
type Machine struct {
	set     *Set
	timeout time.Duration
	signal  *TriggerSignal
	now     func() time.Time

	mu     sync.Mutex
	state  State
	since  time.Time
	phrase string
}

type Config struct {
	Set            *Set
	Signal         *TriggerSignal
	CommandTimeout time.Duration
	// Now is the clock; nil means time.Now.
	Now func() time.Time
}

func New(cfg *Config) (*Machine, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	if cfg.Set == nil {
		return nil, fmt.Errorf("wake phrase set is nil")
	}

	if cfg.Signal == nil {
		return nil, fmt.Errorf("trigger signal is nil")
	}

	timeout := cfg.CommandTimeout
	if timeout <= 0 {
		timeout = DefaultCommandTimeout
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Machine{
		set:     cfg.Set,
		timeout: timeout,
		signal:  cfg.Signal,
		now:     now,
	}, nil
}

// Process feeds one finalized transcript through the machine.
func (m *Machine) Process(transcript string) Outcome {
	text := normalize(transcript)

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == StateWakeDetected {
		// The decoder finalizes stretches of silence as empty text;
		// those do not consume the command window.
		if text == "" {
			return OutcomeNone
		}

		m.fire(m.phrase, text)
		m.state = StateIdle

		return OutcomeTriggered
	}

	phrase, command, ok := m.set.Match(text)
	if !ok {
		return OutcomeNone
	}

	if command == "" {
		m.state = StateWakeDetected
		m.since = m.now()
		m.phrase = phrase

		return OutcomeWakeDetected
	}

	// Wake phrase and command in one utterance: fire without ever
	// opening the window.
	m.fire(phrase, command)

	return OutcomeTriggered
}

// ExpireCommandWindow forces the machine back to Idle if the command
// window has been open longer than the timeout. It reports whether it
// did so; no trigger is fired for an abandoned window.
func (m *Machine) ExpireCommandWindow() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateWakeDetected {
		return false
	}

	if m.now().Sub(m.since) <= m.timeout {
		return false
	}

	m.state = StateIdle

	return true
}

// ForceIdle abandons any open command window.
func (m *Machine) ForceIdle() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state = StateIdle
}

// Snapshot returns the current state and, for WakeDetected, when the
// window opened.
func (m *Machine) Snapshot() (State, time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.state, m.since
}

func (m *Machine) fire(phrase, command string) {
	m.signal.Fire(Trigger{
		ID:      uuid.New(),
		Phrase:  phrase,
		Command: command,
		At:      m.now(),
	})
}
