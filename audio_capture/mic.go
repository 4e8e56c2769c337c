package audio_capture

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/gordonklaus/portaudio"

	"assistant-voice-trigger/audio_convert"
)

type micSource struct {
	device     string
	sampleRate float64
	channels   int
	encoding   audio_convert.Encoding
	frames     int
	logger     *slog.Logger

	mu      sync.Mutex
	running bool
	stream  *portaudio.Stream
	stopped chan struct{}
	done    chan struct{}

	bufInt16   []int16
	bufFloat32 []float32
}

type MicConfig struct {
	// Device selects the input device by case-insensitive name
	// substring; empty means the system default.
	Device          string
	SampleRate      float64
	Channels        int
	Encoding        audio_convert.Encoding
	FramesPerBuffer int
	Logger          *slog.Logger
}

func NewMic(cfg *MicConfig) (Source, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	if cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("sample rate %f is invalid", cfg.SampleRate)
	}

	if cfg.Channels < 1 {
		return nil, fmt.Errorf("channel count %d is invalid", cfg.Channels)
	}

	if cfg.FramesPerBuffer <= 0 {
		return nil, fmt.Errorf("frames per buffer %d is invalid", cfg.FramesPerBuffer)
	}

	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	switch cfg.Encoding {
	case audio_convert.EncodingInt16, audio_convert.EncodingFloat32:
	case audio_convert.EncodingUint16:
		return nil, fmt.Errorf("the capture backend cannot deliver uint16 samples; use int16 or float32")
	default:
		return nil, fmt.Errorf("unsupported capture encoding %v", cfg.Encoding)
	}

	return &micSource{
		device:     cfg.Device,
		sampleRate: cfg.SampleRate,
		channels:   cfg.Channels,
		encoding:   cfg.Encoding,
		frames:     cfg.FramesPerBuffer,
		logger:     cfg.Logger,
	}, nil
}

func (m *micSource) Start(onFrame FrameFunc, onError ErrorFunc) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return fmt.Errorf("capture already running")
	}

	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("%w: initializing audio: %v", ErrDevice, err)
	}

	stream, err := m.openStream()
	if err != nil {
		_ = portaudio.Terminate()

		return err
	}

	if err := stream.Start(); err != nil {
		_ = stream.Close()
		_ = portaudio.Terminate()

		return fmt.Errorf("%w: starting input stream: %v", ErrDevice, err)
	}

	m.stream = stream
	m.stopped = make(chan struct{})
	m.done = make(chan struct{})
	m.running = true

	go m.loop(onFrame, onError)

	return nil
}

func (m *micSource) openStream() (*portaudio.Stream, error) {
	device, err := findInputDevice(m.device)
	if err != nil {
		return nil, err
	}

	if device.MaxInputChannels < m.channels {
		return nil, fmt.Errorf("%w: device %q has %d input channels, %d requested",
			ErrDevice, device.Name, device.MaxInputChannels, m.channels)
	}

	m.logger.Info("opening input device",
		"device", device.Name,
		"sample_rate", m.sampleRate,
		"channels", m.channels,
		"encoding", m.encoding.String(),
	)

	params := portaudio.HighLatencyParameters(device, nil)
	params.Input.Channels = m.channels
	params.SampleRate = m.sampleRate
	params.FramesPerBuffer = m.frames

	var stream *portaudio.Stream
	switch m.encoding {
	case audio_convert.EncodingFloat32:
		m.bufFloat32 = make([]float32, m.frames*m.channels)
		stream, err = portaudio.OpenStream(params, m.bufFloat32)
	default:
		m.bufInt16 = make([]int16, m.frames*m.channels)
		stream, err = portaudio.OpenStream(params, m.bufInt16)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: opening input stream on %q: %v", ErrDevice, device.Name, err)
	}

	return stream, nil
}

func (m *micSource) loop(onFrame FrameFunc, onError ErrorFunc) {
	defer close(m.done)

	for {
		select {
		case <-m.stopped:
			return
		default:
		}

		if err := m.stream.Read(); err != nil {
			if errors.Is(err, portaudio.InputOverflowed) {
				// Data was lost but the stream is fine; skip the frame.
				m.logger.Debug("input overflowed")
				continue
			}

			select {
			case <-m.stopped:
				// Read was unblocked by Stop aborting the stream.
				return
			default:
			}

			onError(fmt.Errorf("%w: reading input stream: %v", ErrDevice, err))

			return
		}

		onFrame(m.chunk())
	}
}

func (m *micSource) chunk() audio_convert.Chunk {
	if m.encoding == audio_convert.EncodingFloat32 {
		return audio_convert.Float32Chunk(m.bufFloat32, m.channels)
	}

	return audio_convert.Int16Chunk(m.bufInt16, m.channels)
}

func (m *micSource) Stop() error {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()

		return nil
	}

	m.running = false
	close(m.stopped)
	stream := m.stream
	m.mu.Unlock()

	// Abort discards buffered audio and unblocks a pending Read.
	if err := stream.Abort(); err != nil {
		m.logger.Debug("aborting input stream", "error", err)
	}

	<-m.done

	err := stream.Close()
	if terr := portaudio.Terminate(); terr != nil && err == nil {
		err = terr
	}
	if err != nil {
		return fmt.Errorf("closing input stream: %w", err)
	}

	return nil
}

// findInputDevice picks the capture device: the system default when
// name is empty, otherwise the first input-capable device whose name
// contains the substring.
func findInputDevice(name string) (*portaudio.DeviceInfo, error) {
	if name == "" {
		device, err := portaudio.DefaultInputDevice()
		if err != nil {
			return nil, fmt.Errorf("%w: no default input device: %v", ErrDevice, err)
		}

		return device, nil
	}

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("%w: listing devices: %v", ErrDevice, err)
	}

	var available []string
	for _, device := range devices {
		if device.MaxInputChannels < 1 {
			continue
		}

		if strings.Contains(strings.ToLower(device.Name), strings.ToLower(name)) {
			return device, nil
		}

		available = append(available, device.Name)
	}

	return nil, fmt.Errorf("%w: no input device matching %q (available: %s)",
		ErrDevice, name, strings.Join(available, ", "))
}
