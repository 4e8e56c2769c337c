package commands

import (
	"errors"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"assistant-voice-trigger/audio_capture"
	"assistant-voice-trigger/config"
	"assistant-voice-trigger/model_dir"
	"assistant-voice-trigger/speech_to_text"
)

var (
	flagConfig  string
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:   "voice-trigger",
	Short: "Wake-phrase voice trigger",
	Long: `voice-trigger listens on a microphone, decodes speech with a local
vosk model, and fires a trigger when a wake phrase is followed by a
command ("hey iris, turn on the lights").

Triggers are printed to stdout and can optionally be POSTed to a
webhook or surfaced as desktop notifications.

The model path and wake phrases come from flags, a YAML config file,
or the VOSK_MODEL / VOSK_WAKE environment variables (a .env file in
the working directory is read if present).`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (YAML)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging")
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if flagVerbose {
		level = slog.LevelDebug
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// loadConfig resolves defaults, the config file, and the environment.
// Command flags are layered on top by the callers before Validate.
func loadConfig(logger *slog.Logger) (*config.Config, error) {
	if err := godotenv.Load(); err == nil {
		logger.Debug("loaded environment from .env")
	}

	return config.Load(afero.NewOsFs(), flagConfig)
}

// ExitCode maps an Execute error to the process exit code: 2 when the
// acoustic model is missing or unloadable, 3 when the capture device
// fails, 1 for everything else.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}

	var notFound *model_dir.NotFoundError
	switch {
	case errors.As(err, &notFound), errors.Is(err, speech_to_text.ErrModel):
		return 2
	case errors.Is(err, audio_capture.ErrDevice):
		return 3
	default:
		return 1
	}
}
