package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"assistant-voice-trigger/audio_capture"
	"assistant-voice-trigger/audio_convert"
	"assistant-voice-trigger/config"
	"assistant-voice-trigger/listener"
	"assistant-voice-trigger/recognizer_pool"
	"assistant-voice-trigger/speech_to_text"
)

var (
	flagModel   string
	flagWake    []string
	flagDevice  string
	flagWebhook string
	flagOnce    bool
	flagNotify  bool
	flagDump    bool
)

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Listen on the microphone for wake phrases",
	Long: `Listen continuously on an input device and fire a trigger when a
wake phrase is heard.

A phrase directly followed by more speech triggers immediately
("hey iris turn on the lights"). A bare phrase opens a short command
window and the next utterance becomes the command.

Examples:
  voice-trigger listen --model ~/models/vosk-model-small-en-us-0.15
  voice-trigger listen --wake "hey iris" --wake "okay iris" --once
  voice-trigger listen --webhook http://localhost:8080/trigger`,
	Args: cobra.NoArgs,
	RunE: runListen,
}

func init() {
	listenCmd.Flags().StringVar(&flagModel, "model", "", "vosk model directory (or VOSK_MODEL)")
	listenCmd.Flags().StringSliceVar(&flagWake, "wake", nil, "wake phrase (repeatable, or VOSK_WAKE)")
	listenCmd.Flags().StringVar(&flagDevice, "device", "", "input device name substring")
	listenCmd.Flags().StringVar(&flagWebhook, "webhook", "", "POST each trigger to this URL")
	listenCmd.Flags().BoolVar(&flagOnce, "once", false, "exit after the first trigger")
	listenCmd.Flags().BoolVar(&flagNotify, "notify", false, "desktop notification per trigger")
	listenCmd.Flags().BoolVar(&flagDump, "dump", false, "write a WAV of the audio preceding each trigger")

	rootCmd.AddCommand(listenCmd)
}

func applyListenFlags(cfg *config.Config) {
	if flagModel != "" {
		cfg.ModelPath = flagModel
	}
	if len(flagWake) > 0 {
		cfg.WakeWords = flagWake
	}
	if flagDevice != "" {
		cfg.Device = flagDevice
	}
	if flagWebhook != "" {
		cfg.WebhookURL = flagWebhook
	}
	if flagOnce {
		cfg.Once = true
	}
	if flagNotify {
		cfg.Notify = true
	}
	if flagDump {
		cfg.Dump.Enabled = true
	}
}

func runListen(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	cfg, err := loadConfig(logger)
	if err != nil {
		return err
	}

	applyListenFlags(cfg)

	if err := cfg.Validate(); err != nil {
		return err
	}

	// Validate already vetted the encoding name.
	encoding, _ := audio_convert.ParseEncoding(cfg.Encoding)

	fileSys := afero.NewOsFs()

	modelPath, err := resolveModel(cfg, fileSys)
	if err != nil {
		return err
	}

	engine, err := speech_to_text.New(&speech_to_text.Config{
		ModelPath: modelPath,
		Grammar:   cfg.Grammar,
		Logger:    logger,
	})
	if err != nil {
		return err
	}
	defer engine.Close()

	pool, err := recognizer_pool.New(&recognizer_pool.Config{
		Engine:     engine,
		SampleRate: float64(cfg.SampleRate),
		Logger:     logger,
	})
	if err != nil {
		return err
	}
	defer pool.Close()

	machine, trigSignal, err := buildMachine(cfg)
	if err != nil {
		return err
	}

	dump, err := buildDump(cfg, fileSys)
	if err != nil {
		return err
	}

	onTrigger, err := buildTriggerHandler(cfg, logger)
	if err != nil {
		return err
	}

	source, err := audio_capture.NewMic(&audio_capture.MicConfig{
		Device:          cfg.Device,
		SampleRate:      float64(cfg.SampleRate),
		Channels:        cfg.Channels,
		Encoding:        encoding,
		FramesPerBuffer: cfg.FramesPerBuffer,
		Logger:          logger,
	})
	if err != nil {
		return err
	}

	run, err := listener.New(&listener.Config{
		Source:           source,
		Pool:             pool,
		Machine:          machine,
		Signal:           trigSignal,
		Dump:             dump,
		Logger:           logger,
		OnTrigger:        onTrigger,
		SampleRate:       cfg.SampleRate,
		FramesPerBuffer:  cfg.FramesPerBuffer,
		DumpWindow:       cfg.Dump.Window.Std(),
		PollInterval:     cfg.PollInterval.Std(),
		RotationInterval: cfg.RotationInterval.Std(),
		ListenGrace:      cfg.ListenGrace.Std(),
		MaxRuntime:       cfg.MaxRuntime.Std(),
		Once:             cfg.Once,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("shutting down", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	return run.Run(ctx)
}
