package wake_word

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Trigger is the discrete event a recognized wake-up produces: the
// phrase that woke the machine and the command that followed it,
// either inline or within the command window.
type Trigger struct {
	ID      uuid.UUID
	Phrase  string
	Command string
	At      time.Time
}

// TriggerSignal hands triggers from the decode context to the
// supervisory loop. It holds at most one pending trigger: once set it
// must be drained before the next one can land, and a trigger that
// arrives while one is pending is counted as dropped.
type TriggerSignal struct {
	mu      sync.Mutex
	pending *Trigger
	dropped uint64
}

func NewTriggerSignal() *TriggerSignal {
	return &TriggerSignal{}
}

// Fire offers a trigger. It reports whether the trigger was accepted.
func (s *TriggerSignal) Fire(t Trigger) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending != nil {
		s.dropped++
		return false
	}

	s.pending = &t

	return true
}

// Drain removes and returns the pending trigger, if any.
func (s *TriggerSignal) Drain() (Trigger, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending == nil {
		return Trigger{}, false
	}

	t := *s.pending
	s.pending = nil

	return t, true
}

// Dropped reports how many triggers arrived while one was pending.
func (s *TriggerSignal) Dropped() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.dropped
}
