package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/lexiqai/voice-assistant/internal/config"
	"github.com/lexiqai/voice-assistant/internal/console"
	"github.com/lexiqai/voice-assistant/internal/stt"
)

var listenSpeak bool

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Capture one spoken phrase and print the transcript",
	Long: `Listen on the microphone for one phrase and transcribe it with Deepgram.

Silence and unintelligible speech are retried up to CAPTURE_MAX_RETRIES
times. With --speak the transcript is spoken back.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}

		ctx, stop := signalContext(cmd.Context())
		defer stop()

		return runListen(ctx, cfg, console.New(cmd.OutOrStdout()), listenSpeak)
	},
}

func runListen(ctx context.Context, cfg *config.Config, out *console.Console, speak bool) error {
	if cfg.DeepgramAPIKey == "" {
		out.Notice("Deepgram API key not found. Voice input is disabled.")
		return nil
	}

	text, ok := stt.VoiceInput(ctx, newRecognizer(cfg), captureConfig(cfg), out)
	if !ok {
		return nil
	}

	if speak {
		newSynthesizer(cfg, out, newBreaker(cfg)).Speak(ctx, text)
		return nil
	}
	out.Print(text)
	return nil
}

func init() {
	listenCmd.Flags().BoolVar(&listenSpeak, "speak", false, "speak the transcript back")

	rootCmd.AddCommand(listenCmd)
}
