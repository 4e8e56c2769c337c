package speech_to_text

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	vosk "github.com/alphacep/vosk-api/go"
)

// ErrDecode marks a chunk the decoder refused. The utterance state is
// unchanged and the caller may keep pushing audio.
var ErrDecode = errors.New("decoder rejected audio")

// ErrModel marks a model that could not be loaded.
var ErrModel = errors.New("acoustic model")

type engineImpl struct {
	model   *vosk.VoskModel
	grammar []string
	logger  *slog.Logger
}

type Config struct {
	ModelPath string
	// Grammar constrains recognition to the given phrases. Empty means
	// unconstrained dictation.
	Grammar []string
	Logger  *slog.Logger
}

func New(cfg *Config) (Engine, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	if cfg.ModelPath == "" {
		return nil, fmt.Errorf("model path is empty")
	}

	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	vosk.SetLogLevel(-1)

	model, err := vosk.NewModel(cfg.ModelPath)
	if err != nil {
		return nil, fmt.Errorf("%w: loading %q: %v", ErrModel, cfg.ModelPath, err)
	}

	return &engineImpl{
		model:   model,
		grammar: cfg.Grammar,
		logger:  cfg.Logger,
	}, nil
}

func (e *engineImpl) NewSession(sampleRate float64) (Session, error) {
	rec, err := e.newRecognizer(sampleRate)
	if err != nil {
		return nil, err
	}

	rec.SetMaxAlternatives(0)
	rec.SetWords(0)

	return &sessionImpl{rec: rec}, nil
}

func (e *engineImpl) newRecognizer(sampleRate float64) (*vosk.VoskRecognizer, error) {
	if len(e.grammar) > 0 {
		grammar, _ := json.Marshal(e.grammar)

		rec, err := vosk.NewRecognizerGrm(e.model, sampleRate, string(grammar))
		if err == nil {
			return rec, nil
		}

		e.logger.Warn("grammar recognizer unavailable, falling back to dictation", "error", err)
	}

	rec, err := vosk.NewRecognizer(e.model, sampleRate)
	if err != nil {
		return nil, fmt.Errorf("creating recognizer: %w", err)
	}

	return rec, nil
}

func (e *engineImpl) Close() error {
	e.model.Free()

	return nil
}

type sessionImpl struct {
	rec     *vosk.VoskRecognizer
	scratch []byte
}

type decodeResult struct {
	Text string `json:"text"`
}

func (s *sessionImpl) Accept(samples []int16) (Status, error) {
	if len(samples) == 0 {
		return StatusRunning, nil
	}

	switch state := s.rec.AcceptWaveform(s.bytes(samples)); {
	case state > 0:
		return StatusFinalized, nil
	case state == 0:
		return StatusRunning, nil
	default:
		return StatusRunning, fmt.Errorf("%w: state %d", ErrDecode, state)
	}
}

// bytes lays the samples out as little-endian PCM16, reusing one scratch
// buffer across calls.
func (s *sessionImpl) bytes(samples []int16) []byte {
	need := len(samples) * 2
	if cap(s.scratch) < need {
		s.scratch = make([]byte, need)
	}

	buf := s.scratch[:need]
	for i, sample := range samples {
		buf[2*i] = byte(sample)
		buf[2*i+1] = byte(uint16(sample) >> 8)
	}

	return buf
}

func (s *sessionImpl) Result() (string, error) {
	var result decodeResult
	if err := json.Unmarshal([]byte(s.rec.Result()), &result); err != nil {
		return "", fmt.Errorf("parsing decoder result: %w", err)
	}

	return result.Text, nil
}

func (s *sessionImpl) Reset() {
	s.rec.Reset()
}

func (s *sessionImpl) Close() error {
	s.rec.Free()

	return nil
}
