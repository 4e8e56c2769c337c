package audio_dump

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
	"github.com/zenwerk/go-wave"
)

type dumpImpl struct {
	fileSys    afero.Fs
	dir        string
	sampleRate int
}

type Config struct {
	FileSys    afero.Fs
	Dir        string
	SampleRate int
}

func New(cfg *Config) (Interface, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	if cfg.FileSys == nil {
		return nil, fmt.Errorf("fileSys is nil")
	}

	if cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("sample rate %d is invalid", cfg.SampleRate)
	}

	dir := cfg.Dir
	if dir == "" {
		dir = "."
	}

	if err := cfg.FileSys.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating dump dir %s: %w", dir, err)
	}

	return &dumpImpl{
		fileSys:    cfg.FileSys,
		dir:        dir,
		sampleRate: cfg.SampleRate,
	}, nil
}

func (d *dumpImpl) Write(samples []int16, at time.Time) (string, error) {
	name := "trigger-" + at.Format("20060102-150405.000") + ".wav"
	path := filepath.Join(d.dir, name)

	waveFile, err := d.fileSys.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", path, err)
	}

	waveWriter, err := wave.NewWriter(wave.WriterParam{
		Out:           waveFile,
		Channel:       1,
		SampleRate:    d.sampleRate,
		BitsPerSample: 16,
	})
	if err != nil {
		_ = waveFile.Close()

		return "", fmt.Errorf("creating wav writer: %w", err)
	}

	if _, err := waveWriter.WriteSample16(samples); err != nil {
		_ = waveWriter.Close()

		return "", fmt.Errorf("writing %s: %w", path, err)
	}

	if err := waveWriter.Close(); err != nil {
		return "", fmt.Errorf("closing %s: %w", path, err)
	}

	return path, nil
}
