package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gen2brain/beeep"
	"github.com/spf13/afero"

	"assistant-voice-trigger/audio_dump"
	"assistant-voice-trigger/clients/webhook"
	"assistant-voice-trigger/config"
	"assistant-voice-trigger/model_dir"
	"assistant-voice-trigger/wake_word"
)

// buildMachine assembles the wake-phrase state machine and the signal
// it fires triggers into.
func buildMachine(cfg *config.Config) (*wake_word.Machine, *wake_word.TriggerSignal, error) {
	set, err := wake_word.NewSet(cfg.WakeWords)
	if err != nil {
		return nil, nil, err
	}

	signal := wake_word.NewTriggerSignal()

	machine, err := wake_word.New(&wake_word.Config{
		Set:            set,
		Signal:         signal,
		CommandTimeout: cfg.CommandTimeout.Std(),
	})
	if err != nil {
		return nil, nil, err
	}

	return machine, signal, nil
}

// buildTriggerHandler returns the callback run for every trigger: a
// line on stdout, then the optional webhook POST and desktop
// notification. Delivery failures are logged, never fatal.
func buildTriggerHandler(cfg *config.Config, logger *slog.Logger) (func(context.Context, wake_word.Trigger), error) {
	var notifier webhook.Notifier
	if cfg.WebhookURL != "" {
		client, err := webhook.NewClient(&webhook.Config{URL: cfg.WebhookURL})
		if err != nil {
			return nil, err
		}

		notifier = client
	}

	desktop := cfg.Notify

	return func(ctx context.Context, trigger wake_word.Trigger) {
		fmt.Printf("%s\t%s\t%s\n", trigger.At.Format(time.RFC3339), trigger.Phrase, trigger.Command)

		if notifier != nil {
			if err := notifier.Notify(ctx, trigger); err != nil {
				logger.Warn("webhook delivery failed", "error", err)
			}
		}

		if desktop {
			if err := beeep.Notify("Voice trigger", trigger.Command, ""); err != nil {
				logger.Debug("desktop notification failed", "error", err)
			}
		}
	}, nil
}

// buildDump returns the on-trigger WAV writer, or nil when dumping is
// disabled.
func buildDump(cfg *config.Config, fileSys afero.Fs) (audio_dump.Interface, error) {
	if !cfg.Dump.Enabled {
		return nil, nil
	}

	return audio_dump.New(&audio_dump.Config{
		FileSys:    fileSys,
		Dir:        cfg.Dump.Dir,
		SampleRate: cfg.SampleRate,
	})
}

// resolveModel finds the acoustic model directory: the configured path
// first, then ./model.
func resolveModel(cfg *config.Config, fileSys afero.Fs) (string, error) {
	return model_dir.Resolve(fileSys, []string{cfg.ModelPath, "model"})
}
