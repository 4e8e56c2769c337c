package wake_word

import (
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
}

func newTestMachine(t *testing.T, clock *fakeClock) (*Machine, *TriggerSignal) {
	t.Helper()

	set, err := NewSet([]string{"hey iris"})
	if err != nil {
		t.Fatal(err)
	}

	signal := NewTriggerSignal()

	machine, err := New(&Config{
		Set:            set,
		Signal:         signal,
		CommandTimeout: 3 * time.Second,
		Now:            clock.Now,
	})
	if err != nil {
		t.Fatal(err)
	}

	return machine, signal
}

func TestMachine_New(t *testing.T) {
	set, err := NewSet([]string{"hey iris"})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := New(nil); err == nil {
		t.Error("expected error for nil config")
	}
	if _, err := New(&Config{Signal: NewTriggerSignal()}); err == nil {
		t.Error("expected error for nil set")
	}
	if _, err := New(&Config{Set: set}); err == nil {
		t.Error("expected error for nil signal")
	}
}

func TestMachine_BareWakePhraseOpensWindow(t *testing.T) {
	clock := newFakeClock()
	machine, signal := newTestMachine(t, clock)

	if outcome := machine.Process("hey iris"); outcome != OutcomeWakeDetected {
		t.Fatalf("expected wake detected, got %v", outcome)
	}

	state, since := machine.Snapshot()
	if state != StateWakeDetected {
		t.Errorf("expected WakeDetected, got %v", state)
	}
	if !since.Equal(clock.Now()) {
		t.Errorf("expected window opened at %v, got %v", clock.Now(), since)
	}

	if _, ok := signal.Drain(); ok {
		t.Error("bare wake phrase must not fire a trigger")
	}
}

func TestMachine_FollowUpCommandFires(t *testing.T) {
	clock := newFakeClock()
	machine, signal := newTestMachine(t, clock)

	machine.Process("hey iris")
	clock.Advance(500 * time.Millisecond)

	if outcome := machine.Process("turn on the lights"); outcome != OutcomeTriggered {
		t.Fatalf("expected trigger, got %v", outcome)
	}

	trigger, ok := signal.Drain()
	if !ok {
		t.Fatal("expected a pending trigger")
	}
	if trigger.Phrase != "hey iris" {
		t.Errorf("expected phrase %q, got %q", "hey iris", trigger.Phrase)
	}
	if trigger.Command != "turn on the lights" {
		t.Errorf("expected command %q, got %q", "turn on the lights", trigger.Command)
	}
	if !trigger.At.Equal(clock.Now()) {
		t.Errorf("expected trigger at %v, got %v", clock.Now(), trigger.At)
	}

	if state, _ := machine.Snapshot(); state != StateIdle {
		t.Errorf("expected return to Idle, got %v", state)
	}
}

func TestMachine_SingleUtteranceFastPath(t *testing.T) {
	clock := newFakeClock()
	machine, signal := newTestMachine(t, clock)

	if outcome := machine.Process("hey iris turn off the lights"); outcome != OutcomeTriggered {
		t.Fatalf("expected trigger, got %v", outcome)
	}

	trigger, ok := signal.Drain()
	if !ok {
		t.Fatal("expected a pending trigger")
	}
	if trigger.Command != "turn off the lights" {
		t.Errorf("expected command %q, got %q", "turn off the lights", trigger.Command)
	}

	if state, _ := machine.Snapshot(); state != StateIdle {
		t.Errorf("expected Idle throughout, got %v", state)
	}
}

func TestMachine_CommandWindowTimeout(t *testing.T) {
	clock := newFakeClock()
	machine, signal := newTestMachine(t, clock)

	machine.Process("hey iris")

	clock.Advance(2900 * time.Millisecond)
	if machine.ExpireCommandWindow() {
		t.Error("window expired too early")
	}

	clock.Advance(200 * time.Millisecond)
	if !machine.ExpireCommandWindow() {
		t.Error("expected window to expire")
	}

	if state, _ := machine.Snapshot(); state != StateIdle {
		t.Errorf("expected Idle after expiry, got %v", state)
	}
	if _, ok := signal.Drain(); ok {
		t.Error("abandoned window must not fire a trigger")
	}

	if machine.ExpireCommandWindow() {
		t.Error("expiry must be idempotent")
	}
}

func TestMachine_EmptyTranscriptKeepsWindowOpen(t *testing.T) {
	clock := newFakeClock()
	machine, signal := newTestMachine(t, clock)

	machine.Process("hey iris")

	// Silence finalizes as empty text.
	if outcome := machine.Process(""); outcome != OutcomeNone {
		t.Errorf("expected no outcome for empty text, got %v", outcome)
	}
	if outcome := machine.Process("   "); outcome != OutcomeNone {
		t.Errorf("expected no outcome for blank text, got %v", outcome)
	}

	if state, _ := machine.Snapshot(); state != StateWakeDetected {
		t.Errorf("expected window to stay open, got %v", state)
	}
	if _, ok := signal.Drain(); ok {
		t.Error("expected no trigger")
	}
}

func TestMachine_NormalizesTranscripts(t *testing.T) {
	clock := newFakeClock()
	machine, signal := newTestMachine(t, clock)

	if outcome := machine.Process("  Hey Iris, Turn On The Lights "); outcome != OutcomeTriggered {
		t.Fatalf("expected trigger, got %v", outcome)
	}

	trigger, _ := signal.Drain()
	if trigger.Command != "turn on the lights" {
		t.Errorf("expected normalized command, got %q", trigger.Command)
	}
}

func TestMachine_UnrelatedTranscriptIsIgnored(t *testing.T) {
	clock := newFakeClock()
	machine, signal := newTestMachine(t, clock)

	if outcome := machine.Process("turn on the lights"); outcome != OutcomeNone {
		t.Errorf("expected no outcome, got %v", outcome)
	}
	if state, _ := machine.Snapshot(); state != StateIdle {
		t.Errorf("expected Idle, got %v", state)
	}
	if _, ok := signal.Drain(); ok {
		t.Error("expected no trigger")
	}
}

func TestMachine_ForceIdle(t *testing.T) {
	clock := newFakeClock()
	machine, _ := newTestMachine(t, clock)

	machine.Process("hey iris")
	machine.ForceIdle()

	if state, _ := machine.Snapshot(); state != StateIdle {
		t.Errorf("expected Idle, got %v", state)
	}
}

func TestMachine_PendingTriggerIsNotOverwritten(t *testing.T) {
	clock := newFakeClock()
	machine, signal := newTestMachine(t, clock)

	machine.Process("hey iris first command")
	machine.Process("hey iris second command")

	trigger, ok := signal.Drain()
	if !ok || trigger.Command != "first command" {
		t.Errorf("expected the first trigger to survive, got %+v ok=%v", trigger, ok)
	}
	if signal.Dropped() != 1 {
		t.Errorf("expected 1 dropped trigger, got %d", signal.Dropped())
	}
}
