package recognizer_pool

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"assistant-voice-trigger/speech_to_text"
)

type slot struct {
	mu      sync.Mutex
	session speech_to_text.Session
}

type poolImpl struct {
	engine     speech_to_text.Engine
	sampleRate float64
	logger     *slog.Logger

	// active indexes the slot Decode routes to. It is flipped only
	// after the other slot holds a fully constructed session.
	active atomic.Int32
	slots  [2]slot

	rotations atomic.Uint64
	skipped   atomic.Uint64
}

type Config struct {
	// Engine stays owned by the caller; Close does not touch it.
	Engine     speech_to_text.Engine
	SampleRate float64
	Logger     *slog.Logger
}

func New(cfg *Config) (Interface, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	if cfg.Engine == nil {
		return nil, fmt.Errorf("engine is nil")
	}

	if cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("sample rate %f is invalid", cfg.SampleRate)
	}

	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	p := &poolImpl{
		engine:     cfg.Engine,
		sampleRate: cfg.SampleRate,
		logger:     cfg.Logger,
	}

	// Both sessions are built eagerly so a broken engine surfaces at
	// startup instead of at the first rotation.
	for i := range p.slots {
		session, err := p.engine.NewSession(cfg.SampleRate)
		if err != nil {
			if i > 0 {
				_ = p.slots[0].session.Close()
			}

			return nil, fmt.Errorf("constructing decoder session: %w", err)
		}

		p.slots[i].session = session
	}

	return p, nil
}

func (p *poolImpl) Decode(samples []int16) (speech_to_text.Status, string, error) {
	s := &p.slots[p.active.Load()]

	s.mu.Lock()
	defer s.mu.Unlock()

	status, err := s.session.Accept(samples)
	if err != nil {
		return speech_to_text.StatusRunning, "", err
	}

	if status != speech_to_text.StatusFinalized {
		return status, "", nil
	}

	text, err := s.session.Result()
	if err != nil {
		return status, "", err
	}

	return status, text, nil
}

func (p *poolImpl) Rotate() error {
	// Construction is the slow part; it happens before any lock is
	// taken so an in-flight decode is never held up by it.
	next, err := p.engine.NewSession(p.sampleRate)
	if err != nil {
		p.skipped.Add(1)
		p.logger.Warn("rotation skipped, session construction failed", "error", err)

		return fmt.Errorf("constructing decoder session: %w", err)
	}

	inactive := 1 - p.active.Load()
	s := &p.slots[inactive]

	s.mu.Lock()
	displaced := s.session
	s.session = next
	s.mu.Unlock()

	// Flip only after the slot holds the live session, so a decode
	// reading the index never lands on a half-built handle.
	p.active.Store(inactive)
	p.rotations.Add(1)

	if displaced != nil {
		if err := displaced.Close(); err != nil {
			p.logger.Warn("closing displaced session", "error", err)
		}
	}

	return nil
}

func (p *poolImpl) ResetActive() {
	s := &p.slots[p.active.Load()]

	s.mu.Lock()
	defer s.mu.Unlock()

	s.session.Reset()
}

func (p *poolImpl) Stats() Stats {
	return Stats{
		Rotations: p.rotations.Load(),
		Skipped:   p.skipped.Load(),
	}
}

func (p *poolImpl) Close() error {
	var firstErr error

	for i := range p.slots {
		s := &p.slots[i]

		s.mu.Lock()
		if s.session != nil {
			if err := s.session.Close(); err != nil && firstErr == nil {
				firstErr = err
			}

			s.session = nil
		}
		s.mu.Unlock()
	}

	return firstErr
}
