package audio_capture

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/spf13/afero"

	"assistant-voice-trigger/audio_convert"
)

// silenceTail is appended after the file so the decoder finalizes the
// trailing utterance instead of leaving it open at EOF.
const silenceTail = 600 * time.Millisecond

// FileSource replays a 16-bit PCM WAV file through the capture
// pipeline, then a stretch of silence, then reports itself done.
type FileSource struct {
	file    afero.File
	decoder *wav.Decoder
	path    string
	frames  int
	logger  *slog.Logger

	channels   int
	sampleRate int

	mu      sync.Mutex
	running bool
	stopped chan struct{}
	done    chan struct{}
}

type FileConfig struct {
	FileSys         afero.Fs
	Path            string
	FramesPerBuffer int
	Logger          *slog.Logger
}

func NewFile(cfg *FileConfig) (*FileSource, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	if cfg.FileSys == nil {
		return nil, fmt.Errorf("fileSys is nil")
	}

	if cfg.Path == "" {
		return nil, fmt.Errorf("path is empty")
	}

	if cfg.FramesPerBuffer <= 0 {
		return nil, fmt.Errorf("frames per buffer %d is invalid", cfg.FramesPerBuffer)
	}

	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	file, err := cfg.FileSys.Open(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", cfg.Path, err)
	}

	decoder := wav.NewDecoder(file)
	if !decoder.IsValidFile() {
		_ = file.Close()

		return nil, fmt.Errorf("%s is not a readable wav file", cfg.Path)
	}

	if decoder.BitDepth != 16 {
		_ = file.Close()

		return nil, fmt.Errorf("%s has %d-bit samples, 16-bit PCM is required", cfg.Path, decoder.BitDepth)
	}

	return &FileSource{
		file:       file,
		decoder:    decoder,
		path:       cfg.Path,
		frames:     cfg.FramesPerBuffer,
		logger:     cfg.Logger,
		channels:   int(decoder.NumChans),
		sampleRate: int(decoder.SampleRate),
		done:       make(chan struct{}),
	}, nil
}

func (f *FileSource) SampleRate() int {
	return f.sampleRate
}

func (f *FileSource) Channels() int {
	return f.channels
}

// Done is closed once the file and the trailing silence have been
// delivered.
func (f *FileSource) Done() <-chan struct{} {
	return f.done
}

func (f *FileSource) Start(onFrame FrameFunc, onError ErrorFunc) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.running {
		return fmt.Errorf("replay already running")
	}

	f.logger.Info("replaying audio file",
		"path", f.path,
		"sample_rate", f.sampleRate,
		"channels", f.channels,
	)

	f.stopped = make(chan struct{})
	f.running = true

	go f.loop(onFrame, onError)

	return nil
}

func (f *FileSource) loop(onFrame FrameFunc, onError ErrorFunc) {
	defer close(f.done)

	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: f.channels,
			SampleRate:  f.sampleRate,
		},
		Data:           make([]int, f.frames*f.channels),
		SourceBitDepth: 16,
	}
	out := make([]int16, f.frames*f.channels)

	for {
		select {
		case <-f.stopped:
			return
		default:
		}

		n, err := f.decoder.PCMBuffer(buf)
		if err != nil {
			onError(fmt.Errorf("reading %s: %w", f.path, err))

			return
		}
		if n == 0 {
			break
		}

		for i := 0; i < n; i++ {
			out[i] = int16(buf.Data[i])
		}

		onFrame(audio_convert.Int16Chunk(out[:n], f.channels))
	}

	silent := make([]int16, f.frames*f.channels)
	remaining := f.channels * int(float64(f.sampleRate)*silenceTail.Seconds())

	for remaining > 0 {
		select {
		case <-f.stopped:
			return
		default:
		}

		n := len(silent)
		if n > remaining {
			n = remaining
		}

		onFrame(audio_convert.Int16Chunk(silent[:n], f.channels))
		remaining -= n
	}
}

func (f *FileSource) Stop() error {
	f.mu.Lock()
	if !f.running {
		f.mu.Unlock()

		return nil
	}

	f.running = false
	close(f.stopped)
	f.mu.Unlock()

	<-f.done

	return f.file.Close()
}
