package listener

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"assistant-voice-trigger/audio_capture"
	"assistant-voice-trigger/audio_convert"
	"assistant-voice-trigger/audio_dump"
	"assistant-voice-trigger/recognizer_pool"
	"assistant-voice-trigger/ring_buffer"
	"assistant-voice-trigger/speech_to_text"
	"assistant-voice-trigger/voice_detection"
	"assistant-voice-trigger/wake_word"
)

const (
	DefaultPollInterval     = 50 * time.Millisecond
	DefaultRotationInterval = 10 * time.Minute
	DefaultListenGrace      = 350 * time.Millisecond
	DefaultMaxRuntime       = 24 * time.Hour
)

// errorSignal carries capture failures from the capture goroutine to
// the supervisory loop. One slot; the latest error wins.
type errorSignal struct {
	mu  sync.Mutex
	err error
}

func (s *errorSignal) set(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.err = err
}

func (s *errorSignal) drain() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.err
	s.err = nil

	return err
}

type listenerImpl struct {
	source      audio_capture.Source
	pool        recognizer_pool.Interface
	machine     *wake_word.Machine
	signal      *wake_word.TriggerSignal
	dump        audio_dump.Interface
	logger      *slog.Logger
	onTrigger   func(context.Context, wake_word.Trigger)
	onListening func()
	onUtterance func(string)

	pollInterval     time.Duration
	rotationInterval time.Duration
	listenGrace      time.Duration
	maxRuntime       time.Duration
	once             bool

	converter *audio_convert.Converter
	vad       *voice_detection.VAD
	monitor   *voice_detection.Monitor
	errors    errorSignal

	ringMu sync.Mutex
	ring   *ring_buffer.Buffer

	chunks       atomic.Uint64
	utterances   atomic.Uint64
	triggers     atomic.Uint64
	decodeErrors atomic.Uint64
}

type Config struct {
	Source  audio_capture.Source
	Pool    recognizer_pool.Interface
	Machine *wake_word.Machine
	Signal  *wake_word.TriggerSignal
	// Dump, when set, receives a snapshot of the audio leading up to
	// each trigger.
	Dump   audio_dump.Interface
	Logger *slog.Logger

	// OnTrigger consumes recognized triggers; it runs on the
	// supervisory goroutine, never on the capture path.
	OnTrigger func(context.Context, wake_word.Trigger)
	// OnListening fires once per wake episode when the command window
	// has stayed open past the listen grace.
	OnListening func()
	// OnUtterance receives every non-empty finalized transcript. It
	// runs on the capture goroutine and must return quickly.
	OnUtterance func(string)

	SampleRate      int
	FramesPerBuffer int
	// DumpWindow sizes the rolling buffer the dump snapshots.
	DumpWindow time.Duration

	PollInterval     time.Duration
	RotationInterval time.Duration
	ListenGrace      time.Duration
	MaxRuntime       time.Duration
	// Once stops after the first handled trigger.
	Once bool
}

func New(cfg *Config) (Interface, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	if cfg.Source == nil {
		return nil, fmt.Errorf("source is nil")
	}

	if cfg.Pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}

	if cfg.Machine == nil {
		return nil, fmt.Errorf("machine is nil")
	}

	if cfg.Signal == nil {
		return nil, fmt.Errorf("signal is nil")
	}

	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	if cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("sample rate %d is invalid", cfg.SampleRate)
	}

	if cfg.FramesPerBuffer <= 0 {
		return nil, fmt.Errorf("frames per buffer %d is invalid", cfg.FramesPerBuffer)
	}

	l := &listenerImpl{
		source:           cfg.Source,
		pool:             cfg.Pool,
		machine:          cfg.Machine,
		signal:           cfg.Signal,
		dump:             cfg.Dump,
		logger:           cfg.Logger,
		onTrigger:        cfg.OnTrigger,
		onListening:      cfg.OnListening,
		onUtterance:      cfg.OnUtterance,
		pollInterval:     cfg.PollInterval,
		rotationInterval: cfg.RotationInterval,
		listenGrace:      cfg.ListenGrace,
		maxRuntime:       cfg.MaxRuntime,
		once:             cfg.Once,
		converter:        audio_convert.NewConverter(),
		vad:              voice_detection.NewVAD(cfg.FramesPerBuffer),
		monitor:          voice_detection.NewMonitor(voice_detection.DefaultQuietTime),
	}

	if l.pollInterval <= 0 {
		l.pollInterval = DefaultPollInterval
	}
	if l.rotationInterval <= 0 {
		l.rotationInterval = DefaultRotationInterval
	}
	if l.listenGrace <= 0 {
		l.listenGrace = DefaultListenGrace
	}
	if l.maxRuntime <= 0 {
		l.maxRuntime = DefaultMaxRuntime
	}

	if cfg.Dump != nil {
		window := cfg.DumpWindow
		if window <= 0 {
			window = 10 * time.Second
		}

		l.ring = ring_buffer.New(cfg.SampleRate * int(window.Milliseconds()) / 1000)
	}

	return l, nil
}

// handleFrame runs on the capture goroutine for every buffer the
// source delivers. It must stay quick: convert, track, decode, hand
// the transcript to the state machine.
func (l *listenerImpl) handleFrame(chunk audio_convert.Chunk) {
	l.chunks.Add(1)

	samples, err := l.converter.ToMono16(chunk)
	if err != nil {
		l.errors.set(fmt.Errorf("converting frame: %w", err))

		return
	}

	if l.ring != nil {
		l.ringMu.Lock()
		l.ring.Add(samples)
		l.ringMu.Unlock()
	}

	if event := l.monitor.Observe(l.vad.Flux(samples), time.Now()); event != voice_detection.EventNone {
		l.logger.Debug("speech activity", "event", event.String())
	}

	status, text, err := l.pool.Decode(samples)
	if err != nil {
		l.decodeErrors.Add(1)
		l.logger.Warn("decode error, chunk dropped", "error", err)

		return
	}

	if status != speech_to_text.StatusFinalized {
		return
	}

	l.utterances.Add(1)

	if l.onUtterance != nil && text != "" {
		l.onUtterance(text)
	}

	outcome := l.machine.Process(text)
	if text != "" || outcome != wake_word.OutcomeNone {
		l.logger.Debug("utterance finalized", "text", text, "outcome", outcome.String())
	}

	// Accumulated utterance state is cleared after every finalization.
	l.pool.ResetActive()
}

func (l *listenerImpl) Run(ctx context.Context) error {
	if err := l.source.Start(l.handleFrame, l.errors.set); err != nil {
		return err
	}
	defer func() {
		if err := l.source.Stop(); err != nil {
			l.logger.Warn("stopping capture", "error", err)
		}
	}()

	rotateStop := make(chan struct{})
	var rotateWG sync.WaitGroup

	rotateWG.Add(1)
	go func() {
		defer rotateWG.Done()

		ticker := time.NewTicker(l.rotationInterval)
		defer ticker.Stop()

		for {
			select {
			case <-rotateStop:
				return
			case <-ticker.C:
				if err := l.pool.Rotate(); err == nil {
					l.logger.Debug("decoder rotated")
				}
			}
		}
	}()
	defer func() {
		close(rotateStop)
		rotateWG.Wait()
	}()

	var sourceDone <-chan struct{}
	if finite, ok := l.source.(audio_capture.Finite); ok {
		sourceDone = finite.Done()
	}

	l.logger.Info("listening",
		"poll_interval", l.pollInterval.String(),
		"rotation_interval", l.rotationInterval.String(),
		"max_runtime", l.maxRuntime.String(),
	)

	poll := time.NewTicker(l.pollInterval)
	defer poll.Stop()

	summary := time.NewTicker(time.Minute)
	defer summary.Stop()

	ceiling := time.NewTimer(l.maxRuntime)
	defer ceiling.Stop()

	var announced time.Time

	for {
		select {
		case <-ctx.Done():
			l.tick(ctx, &announced)
			l.logSummary()

			return nil

		case <-sourceDone:
			// The source delivered everything before closing Done, so
			// one last pass picks up whatever it produced.
			l.tick(ctx, &announced)
			l.logSummary()

			return nil

		case <-ceiling.C:
			l.logger.Info("runtime ceiling reached, shutting down", "after", l.maxRuntime.String())
			l.logSummary()

			return nil

		case <-summary.C:
			l.logSummary()

		case <-poll.C:
			if stop := l.tick(ctx, &announced); stop {
				l.logSummary()

				return nil
			}
		}
	}
}

// tick is one supervisory pass: drain the error slot, drain the
// trigger slot, expire a stale command window, announce listening.
func (l *listenerImpl) tick(ctx context.Context, announced *time.Time) bool {
	if err := l.errors.drain(); err != nil {
		l.logger.Error("capture error, resetting", "error", err)
		l.machine.ForceIdle()
	}

	if trigger, ok := l.signal.Drain(); ok {
		l.triggers.Add(1)
		l.handleTrigger(ctx, trigger)

		if l.once {
			return true
		}
	}

	if l.machine.ExpireCommandWindow() {
		l.logger.Info("command window expired without a command")
		l.pool.ResetActive()
	}

	l.announceListening(announced)

	return false
}

func (l *listenerImpl) announceListening(announced *time.Time) {
	state, since := l.machine.Snapshot()
	if state != wake_word.StateWakeDetected {
		return
	}

	if time.Since(since) < l.listenGrace || announced.Equal(since) {
		return
	}

	*announced = since

	l.logger.Info("listening for a command")
	if l.onListening != nil {
		l.onListening()
	}
}

func (l *listenerImpl) handleTrigger(ctx context.Context, trigger wake_word.Trigger) {
	l.logger.Info("trigger",
		"id", trigger.ID.String(),
		"phrase", trigger.Phrase,
		"command", trigger.Command,
	)

	if l.dump != nil && l.ring != nil {
		l.ringMu.Lock()
		samples := l.ring.Read()
		l.ringMu.Unlock()

		if path, err := l.dump.Write(samples, trigger.At); err != nil {
			l.logger.Warn("writing audio dump", "error", err)
		} else {
			l.logger.Debug("audio dump written", "path", path)
		}
	}

	if l.onTrigger != nil {
		l.onTrigger(ctx, trigger)
	}
}

func (l *listenerImpl) logSummary() {
	stats := l.pool.Stats()

	l.logger.Info("listener summary",
		"chunks", l.chunks.Load(),
		"utterances", l.utterances.Load(),
		"triggers", l.triggers.Load(),
		"decode_errors", l.decodeErrors.Load(),
		"dropped_triggers", l.signal.Dropped(),
		"rotations", stats.Rotations,
		"skipped_rotations", stats.Skipped,
	)
}
