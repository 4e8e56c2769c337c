package commands

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"assistant-voice-trigger/audio_capture"
	"assistant-voice-trigger/listener"
	"assistant-voice-trigger/recognizer_pool"
	"assistant-voice-trigger/speech_to_text"
)

var (
	flagTranscribeModel string
	flagTranscribeWake  []string
)

var transcribeCmd = &cobra.Command{
	Use:   "transcribe <file.wav>",
	Short: "Run the pipeline over a WAV file",
	Long: `Replay a 16-bit PCM WAV file through the decoder and wake-phrase
machine, printing finalized utterances and any triggers.

Useful for checking wake phrases against recorded audio without a
microphone:
  voice-trigger transcribe --model ./model capture.wav`,
	Args: cobra.ExactArgs(1),
	RunE: runTranscribe,
}

func init() {
	transcribeCmd.Flags().StringVar(&flagTranscribeModel, "model", "", "vosk model directory (or VOSK_MODEL)")
	transcribeCmd.Flags().StringSliceVar(&flagTranscribeWake, "wake", nil, "wake phrase (repeatable, or VOSK_WAKE)")

	rootCmd.AddCommand(transcribeCmd)
}

func runTranscribe(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	cfg, err := loadConfig(logger)
	if err != nil {
		return err
	}

	if flagTranscribeModel != "" {
		cfg.ModelPath = flagTranscribeModel
	}
	if len(flagTranscribeWake) > 0 {
		cfg.WakeWords = flagTranscribeWake
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	fileSys := afero.NewOsFs()

	source, err := audio_capture.NewFile(&audio_capture.FileConfig{
		FileSys:         fileSys,
		Path:            args[0],
		FramesPerBuffer: cfg.FramesPerBuffer,
		Logger:          logger,
	})
	if err != nil {
		return err
	}

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

	// Decode at the file's rate, not the configured capture rate.
	pool, err := recognizer_pool.New(&recognizer_pool.Config{
		Engine:     engine,
		SampleRate: float64(source.SampleRate()),
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

	onTrigger, err := buildTriggerHandler(cfg, logger)
	if err != nil {
		return err
	}

	run, err := listener.New(&listener.Config{
		Source:    source,
		Pool:      pool,
		Machine:   machine,
		Signal:    trigSignal,
		Logger:    logger,
		OnTrigger: onTrigger,
		OnUtterance: func(text string) {
			fmt.Println(text)
		},
		SampleRate:       source.SampleRate(),
		FramesPerBuffer:  cfg.FramesPerBuffer,
		PollInterval:     cfg.PollInterval.Std(),
		RotationInterval: cfg.RotationInterval.Std(),
		ListenGrace:      cfg.ListenGrace.Std(),
		MaxRuntime:       cfg.MaxRuntime.Std(),
	})
	if err != nil {
		return err
	}

	return run.Run(cmd.Context())
}
