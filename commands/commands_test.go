package commands

import (
	"errors"
	"fmt"
	"testing"

	"github.com/spf13/afero"

	"assistant-voice-trigger/audio_capture"
	"assistant-voice-trigger/config"
	"assistant-voice-trigger/model_dir"
	"assistant-voice-trigger/speech_to_text"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"no error", nil, 0},
		{"generic error", errors.New("boom"), 1},
		{"config error", fmt.Errorf("wake_words: at least one phrase is required"), 1},
		{"model not found", &model_dir.NotFoundError{Tried: []string{"/m"}}, 2},
		{"wrapped model not found", fmt.Errorf("starting: %w", &model_dir.NotFoundError{}), 2},
		{"model load failure", fmt.Errorf("%w: loading %q: bad archive", speech_to_text.ErrModel, "/m"), 2},
		{"device failure", fmt.Errorf("%w: no default input device", audio_capture.ErrDevice), 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("expected exit code %d, got %d", tt.want, got)
			}
		})
	}
}

func TestApplyListenFlags(t *testing.T) {
	restore := func() {
		flagModel = ""
		flagWake = nil
		flagDevice = ""
		flagWebhook = ""
		flagOnce = false
		flagNotify = false
		flagDump = false
	}
	restore()
	defer restore()

	cfg := config.Default()
	cfg.ModelPath = "/from/config"

	applyListenFlags(cfg)

	if cfg.ModelPath != "/from/config" {
		t.Errorf("unset flags must not override config, got model %q", cfg.ModelPath)
	}
	if cfg.Once {
		t.Error("unset once flag must not override config")
	}

	flagModel = "/from/flag"
	flagWake = []string{"okay iris"}
	flagDevice = "usb"
	flagWebhook = "http://localhost:9/t"
	flagOnce = true
	flagNotify = true
	flagDump = true

	applyListenFlags(cfg)

	if cfg.ModelPath != "/from/flag" {
		t.Errorf("expected model %q, got %q", "/from/flag", cfg.ModelPath)
	}
	if len(cfg.WakeWords) != 1 || cfg.WakeWords[0] != "okay iris" {
		t.Errorf("expected wake words from flags, got %v", cfg.WakeWords)
	}
	if cfg.Device != "usb" {
		t.Errorf("expected device %q, got %q", "usb", cfg.Device)
	}
	if cfg.WebhookURL != "http://localhost:9/t" {
		t.Errorf("expected webhook from flag, got %q", cfg.WebhookURL)
	}
	if !cfg.Once || !cfg.Notify || !cfg.Dump.Enabled {
		t.Error("expected boolean flags to enable their options")
	}
}

func TestResolveModel_PrefersConfiguredPath(t *testing.T) {
	fileSys := afero.NewMemMapFs()
	for _, dir := range []string{"/opt/model/am", "/opt/model/graph", "model/am", "model/graph"} {
		if err := fileSys.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
	}

	cfg := config.Default()
	cfg.ModelPath = "/opt/model"

	path, err := resolveModel(cfg, fileSys)
	if err != nil {
		t.Fatal(err)
	}
	if path != "/opt/model" {
		t.Errorf("expected configured path to win, got %q", path)
	}
}

func TestResolveModel_FallsBackToLocalDir(t *testing.T) {
	fileSys := afero.NewMemMapFs()
	for _, dir := range []string{"model/am", "model/graph"} {
		if err := fileSys.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
	}

	path, err := resolveModel(config.Default(), fileSys)
	if err != nil {
		t.Fatal(err)
	}
	if path != "model" {
		t.Errorf("expected fallback to ./model, got %q", path)
	}
}

func TestResolveModel_ErrorMapsToModelExitCode(t *testing.T) {
	cfg := config.Default()
	cfg.ModelPath = "/nowhere"

	_, err := resolveModel(cfg, afero.NewMemMapFs())
	if err == nil {
		t.Fatal("expected an error")
	}
	if ExitCode(err) != 2 {
		t.Errorf("expected exit code 2, got %d", ExitCode(err))
	}
}

func TestBuildMachine(t *testing.T) {
	cfg := config.Default()

	machine, signal, err := buildMachine(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if machine == nil || signal == nil {
		t.Fatal("expected machine and signal")
	}

	cfg.WakeWords = nil
	if _, _, err := buildMachine(cfg); err == nil {
		t.Error("expected error for empty wake word list")
	}
}
