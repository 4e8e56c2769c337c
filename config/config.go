// Package config carries the runtime configuration for the voice
// trigger. Values resolve in order: built-in defaults, then the YAML
// file, then environment variables; command-line flags are applied on
// top by the caller before Validate.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/spf13/afero"

	"assistant-voice-trigger/audio_convert"
)

const (
	DefaultSampleRate       = 16000
	DefaultChannels         = 1
	DefaultFramesPerBuffer  = 8192
	DefaultCommandTimeout   = 3 * time.Second
	DefaultListenGrace      = 350 * time.Millisecond
	DefaultRotationInterval = 10 * time.Minute
	DefaultPollInterval     = 50 * time.Millisecond
	DefaultMaxRuntime       = 24 * time.Hour
	DefaultDumpWindow       = 10 * time.Second
)

// Duration wraps time.Duration so YAML can carry values like "350ms".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"'`)

	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parsing duration %q: %w", s, err)
	}

	*d = Duration(v)

	return nil
}

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

type Dump struct {
	Enabled bool     `yaml:"enabled"`
	Dir     string   `yaml:"dir"`
	Window  Duration `yaml:"window"`
}

type Config struct {
	WakeWords []string `yaml:"wake_words"`
	ModelPath string   `yaml:"model_path"`
	// Grammar constrains the decoder to the given phrases; empty means
	// unconstrained dictation.
	Grammar []string `yaml:"grammar"`

	// Device selects the input device by case-insensitive name
	// substring; empty means the system default.
	Device          string `yaml:"device"`
	SampleRate      int    `yaml:"sample_rate"`
	Channels        int    `yaml:"channels"`
	Encoding        string `yaml:"encoding"`
	FramesPerBuffer int    `yaml:"frames_per_buffer"`

	CommandTimeout   Duration `yaml:"command_timeout"`
	ListenGrace      Duration `yaml:"listen_grace"`
	RotationInterval Duration `yaml:"rotation_interval"`
	PollInterval     Duration `yaml:"poll_interval"`
	MaxRuntime       Duration `yaml:"max_runtime"`

	// Once stops after the first handled trigger.
	Once       bool   `yaml:"once"`
	WebhookURL string `yaml:"webhook_url"`
	Notify     bool   `yaml:"notify"`

	Dump Dump `yaml:"dump"`
}

func Default() *Config {
	return &Config{
		WakeWords:        []string{"hey iris"},
		SampleRate:       DefaultSampleRate,
		Channels:         DefaultChannels,
		Encoding:         audio_convert.EncodingInt16.String(),
		FramesPerBuffer:  DefaultFramesPerBuffer,
		CommandTimeout:   Duration(DefaultCommandTimeout),
		ListenGrace:      Duration(DefaultListenGrace),
		RotationInterval: Duration(DefaultRotationInterval),
		PollInterval:     Duration(DefaultPollInterval),
		MaxRuntime:       Duration(DefaultMaxRuntime),
		Dump: Dump{
			Dir:    "dumps",
			Window: Duration(DefaultDumpWindow),
		},
	}
}

// Load resolves the configuration from defaults, the YAML file at path
// (skipped when path is empty), and the environment.
func Load(fileSys afero.Fs, path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := afero.ReadFile(fileSys, path)
		if err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	return cfg, nil
}

// applyEnv applies the environment variables the original tooling
// understands: VOSK_MODEL for the model path and VOSK_WAKE as a
// comma-separated wake phrase list.
func (c *Config) applyEnv() {
	if v := os.Getenv("VOSK_MODEL"); v != "" {
		c.ModelPath = v
	}

	if v := os.Getenv("VOSK_WAKE"); v != "" {
		var words []string
		for _, w := range strings.Split(v, ",") {
			if w = strings.TrimSpace(w); w != "" {
				words = append(words, w)
			}
		}

		if len(words) > 0 {
			c.WakeWords = words
		}
	}
}

func (c *Config) Validate() error {
	if len(c.WakeWords) == 0 {
		return fmt.Errorf("wake_words: at least one phrase is required")
	}
	for _, w := range c.WakeWords {
		if strings.TrimSpace(w) == "" {
			return fmt.Errorf("wake_words: blank phrase")
		}
	}

	if c.SampleRate <= 0 {
		return fmt.Errorf("sample_rate: %d is invalid", c.SampleRate)
	}

	if c.Channels < 1 {
		return fmt.Errorf("channels: %d is invalid", c.Channels)
	}

	if _, err := audio_convert.ParseEncoding(c.Encoding); err != nil {
		return fmt.Errorf("encoding: %w", err)
	}

	if c.FramesPerBuffer <= 0 {
		return fmt.Errorf("frames_per_buffer: %d is invalid", c.FramesPerBuffer)
	}

	for _, d := range []struct {
		name  string
		value Duration
	}{
		{"command_timeout", c.CommandTimeout},
		{"listen_grace", c.ListenGrace},
		{"rotation_interval", c.RotationInterval},
		{"poll_interval", c.PollInterval},
		{"max_runtime", c.MaxRuntime},
	} {
		if d.value.Std() <= 0 {
			return fmt.Errorf("%s: must be positive", d.name)
		}
	}

	if c.Dump.Enabled && c.Dump.Window.Std() <= 0 {
		return fmt.Errorf("dump.window: must be positive")
	}

	return nil
}
