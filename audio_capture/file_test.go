package audio_capture

import (
	"bytes"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/spf13/afero"

	"assistant-voice-trigger/audio_convert"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func writeTestWav(t *testing.T, fileSys afero.Fs, path string, samples []int16, rate, channels, bitDepth int) {
	t.Helper()

	f, err := fileSys.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, rate, bitDepth, channels, 1)
	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: channels,
			SampleRate:  rate,
		},
		Data:           make([]int, len(samples)),
		SourceBitDepth: bitDepth,
	}
	for i := range samples {
		buf.Data[i] = int(samples[i])
	}

	if err := enc.Write(buf); err != nil {
		t.Fatal(err)
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
}

type frameCollector struct {
	mu      sync.Mutex
	samples []int16
	errs    []error
}

func (c *frameCollector) onFrame(chunk audio_convert.Chunk) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.samples = append(c.samples, chunk.Int16...)
}

func (c *frameCollector) onError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.errs = append(c.errs, err)
}

func waitDone(t *testing.T, done <-chan struct{}) {
	t.Helper()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("replay did not finish")
	}
}

func TestFileSource_Replay(t *testing.T) {
	fileSys := afero.NewMemMapFs()

	samples := make([]int16, 1000)
	for i := range samples {
		samples[i] = int16(i)
	}
	writeTestWav(t, fileSys, "/in.wav", samples, 16000, 1, 16)

	source, err := NewFile(&FileConfig{
		FileSys:         fileSys,
		Path:            "/in.wav",
		FramesPerBuffer: 256,
		Logger:          testLogger(),
	})
	if err != nil {
		t.Fatal(err)
	}

	if source.SampleRate() != 16000 || source.Channels() != 1 {
		t.Fatalf("unexpected format: %d Hz, %d channels", source.SampleRate(), source.Channels())
	}

	collector := &frameCollector{}
	if err := source.Start(collector.onFrame, collector.onError); err != nil {
		t.Fatal(err)
	}

	waitDone(t, source.Done())
	if err := source.Stop(); err != nil {
		t.Fatal(err)
	}

	collector.mu.Lock()
	defer collector.mu.Unlock()

	if len(collector.errs) != 0 {
		t.Fatalf("unexpected errors: %v", collector.errs)
	}

	wantSilence := 16000 * 6 / 10
	if len(collector.samples) != len(samples)+wantSilence {
		t.Fatalf("expected %d samples, got %d", len(samples)+wantSilence, len(collector.samples))
	}

	for i, s := range samples {
		if collector.samples[i] != s {
			t.Fatalf("sample %d: expected %d, got %d", i, s, collector.samples[i])
		}
	}
	for i := len(samples); i < len(collector.samples); i++ {
		if collector.samples[i] != 0 {
			t.Fatalf("expected silence at %d, got %d", i, collector.samples[i])
		}
	}
}

func TestFileSource_StopMidReplay(t *testing.T) {
	fileSys := afero.NewMemMapFs()
	writeTestWav(t, fileSys, "/long.wav", make([]int16, 64000), 16000, 1, 16)

	source, err := NewFile(&FileConfig{
		FileSys:         fileSys,
		Path:            "/long.wav",
		FramesPerBuffer: 512,
		Logger:          testLogger(),
	})
	if err != nil {
		t.Fatal(err)
	}

	firstFrame := make(chan struct{})
	var once sync.Once

	onFrame := func(chunk audio_convert.Chunk) {
		once.Do(func() { close(firstFrame) })
	}

	if err := source.Start(onFrame, func(error) {}); err != nil {
		t.Fatal(err)
	}

	<-firstFrame
	if err := source.Stop(); err != nil {
		t.Fatal(err)
	}

	waitDone(t, source.Done())
}

func TestNewFile_Rejects(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := NewFile(&FileConfig{
			FileSys:         afero.NewMemMapFs(),
			Path:            "/missing.wav",
			FramesPerBuffer: 256,
			Logger:          testLogger(),
		})
		if err == nil {
			t.Error("expected error")
		}
	})

	t.Run("not a wav file", func(t *testing.T) {
		fileSys := afero.NewMemMapFs()
		if err := afero.WriteFile(fileSys, "/nope.wav", []byte("hello"), 0o644); err != nil {
			t.Fatal(err)
		}

		_, err := NewFile(&FileConfig{
			FileSys:         fileSys,
			Path:            "/nope.wav",
			FramesPerBuffer: 256,
			Logger:          testLogger(),
		})
		if err == nil {
			t.Error("expected error")
		}
	})

	t.Run("wrong bit depth", func(t *testing.T) {
		fileSys := afero.NewMemMapFs()
		writeTestWav(t, fileSys, "/deep.wav", []int16{1, 2, 3, 4}, 16000, 1, 24)

		_, err := NewFile(&FileConfig{
			FileSys:         fileSys,
			Path:            "/deep.wav",
			FramesPerBuffer: 256,
			Logger:          testLogger(),
		})
		if err == nil {
			t.Error("expected error")
		}
	})
}
