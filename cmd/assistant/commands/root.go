package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lexiqai/voice-assistant/internal/config"
	"github.com/lexiqai/voice-assistant/internal/observability"
)

var (
	// Global flags
	verbose bool

	// Loaded in PersistentPreRunE, before any command runs
	globalConfig *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "assistant",
	Short: "Voice assistant utilities",
	Long: `assistant - speech in and out for a terminal assistant.

Text is spoken through the ElevenLabs streaming API and printed instead
whenever speech is unavailable. Speech is captured from the microphone
and transcribed with Deepgram.

Configuration is read from environment variables (and .env if present):
  ELEVEN_LABS_API_KEY   enables text-to-speech
  DEEPGRAM_API_KEY      enables speech capture
  LOG_LEVEL             debug, info, warn, error

Examples:
  assistant speak "Hello there"
  echo "Hello there" | assistant speak
  assistant listen --speak
  assistant files read --recursive ./src`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if verbose {
			cfg.LogLevel = "debug"
		}
		observability.InitLogger(cfg.LogLevel, cfg.LogPretty)
		globalConfig = cfg
		return nil
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// GetConfig returns the configuration loaded for the running command.
func GetConfig() (*config.Config, error) {
	if globalConfig == nil {
		return nil, fmt.Errorf("config not loaded")
	}
	return globalConfig, nil
}
