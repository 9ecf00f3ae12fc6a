package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lexiqai/voice-assistant/internal/console"
	"github.com/lexiqai/voice-assistant/internal/observability"
)

var speakCmd = &cobra.Command{
	Use:   "speak [text...]",
	Short: "Speak text, printing it if speech is unavailable",
	Long: `Speak text through the ElevenLabs streaming API.

Audio is played as it arrives. If speech cannot be produced (no API key,
connection failure, server error, no audio player) the text is printed
instead. Text is read from stdin when no arguments are given.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}

		text, err := inputText(cmd.InOrStdin(), args)
		if err != nil {
			return err
		}

		ctx, stop := signalContext(cmd.Context())
		defer stop()

		out := console.New(cmd.OutOrStdout())
		session := newSynthesizer(cfg, out, newBreaker(cfg)).NewSession(text)
		if err := session.Run(ctx); err != nil {
			// the user already has the text; the error only explains why it was not spoken
			observability.GetLogger().Debug().Err(err).Str("session_id", session.ID()).Msg("Speech unavailable")
		}
		return nil
	},
}

// inputText joins args, or reads all of r when there are none
func inputText(r io.Reader, args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	return strings.TrimRight(string(data), "\n"), nil
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func init() {
	rootCmd.AddCommand(speakCmd)
}
