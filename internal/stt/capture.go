package stt

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lexiqai/voice-assistant/internal/observability"
	"github.com/lexiqai/voice-assistant/internal/resilience"
)

var (
	// ErrNoSpeech is returned when nobody spoke before the listen timeout
	ErrNoSpeech = errors.New("no speech detected")

	// ErrUnintelligible is returned when speech was captured but not understood
	ErrUnintelligible = errors.New("speech was unintelligible")
)

// RequestError reports that the recognition service could not be reached.
// Capture gives up immediately on it.
type RequestError struct {
	Err error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("recognition request failed: %v", e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// Recognizer captures one utterance and turns it into text
type Recognizer interface {
	// Calibrate samples ambient noise to set the speech threshold. It is
	// called before the user is prompted, so nothing they say is lost to it.
	Calibrate(ctx context.Context) error

	// Listen blocks until an utterance has been captured. It returns
	// ErrNoSpeech if speech does not start within timeout.
	Listen(ctx context.Context, timeout time.Duration) (*Utterance, error)

	// Recognize transcribes a captured utterance. It returns
	// ErrUnintelligible when nothing could be recognised.
	Recognize(ctx context.Context, u *Utterance) (string, error)
}

// Printer shows capture progress to the user
type Printer interface {
	Success(format string, args ...any)
	Notice(format string, args ...any)
	Failure(format string, args ...any)
	Echo(format string, args ...any)
}

// CaptureConfig bounds the capture loop
type CaptureConfig struct {
	MaxRetries    int
	ListenTimeout time.Duration
	RetryDelay    time.Duration
}

// DefaultCaptureConfig returns three attempts of five seconds, one second apart
func DefaultCaptureConfig() CaptureConfig {
	return CaptureConfig{
		MaxRetries:    3,
		ListenTimeout: 5 * time.Second,
		RetryDelay:    time.Second,
	}
}

// VoiceInput asks the user to speak and returns the lower-cased transcript.
// Silence and unintelligible speech are retried up to cfg.MaxRetries times;
// any other failure ends capture at once. ok is false when no text was obtained.
func VoiceInput(ctx context.Context, rec Recognizer, cfg CaptureConfig, out Printer) (text string, ok bool) {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 1
	}
	logger := observability.WithCorrelationID("")

	if err := rec.Calibrate(ctx); err != nil {
		if ctx.Err() != nil {
			return "", false
		}
		observability.RecordCaptureAttempt("error")
		logger.Error().Err(err).Msg("Ambient noise calibration failed")
		out.Failure("Unexpected error in voice input: %v", err)
		return "", false
	}

	attemptFn := func(attempt int) error {
		out.Success("Listening... Speak now.")

		u, err := rec.Listen(ctx, cfg.ListenTimeout)
		if err == nil {
			out.Notice("Processing speech...")
			var said string
			said, err = rec.Recognize(ctx, u)
			if err == nil {
				out.Echo("You said: %s", said)
				text = strings.ToLower(said)
				observability.RecordCaptureAttempt("success")
				logger.Info().Int("attempt", attempt).Dur("audio", u.Duration()).Msg("Speech recognised")
				return nil
			}
		}

		switch {
		case errors.Is(err, ErrNoSpeech):
			observability.RecordCaptureAttempt("no_speech")
			logger.Warn().Int("attempt", attempt).Msg("No speech detected")
			out.Failure("No speech detected. Attempt %d of %d.", attempt, cfg.MaxRetries)
			return resilience.NewRetryableError(err)
		case errors.Is(err, ErrUnintelligible):
			observability.RecordCaptureAttempt("unintelligible")
			logger.Warn().Int("attempt", attempt).Msg("Speech was unintelligible")
			out.Failure("Speech was unintelligible. Attempt %d of %d.", attempt, cfg.MaxRetries)
			return resilience.NewRetryableError(err)
		case ctx.Err() != nil:
			return ctx.Err()
		}

		observability.RecordCaptureAttempt("error")
		logger.Error().Err(err).Int("attempt", attempt).Msg("Voice input failed")

		var rerr *RequestError
		if errors.As(err, &rerr) {
			out.Failure("Could not request results from speech recognition service; %v", rerr.Err)
		} else {
			out.Failure("Unexpected error in voice input: %v", err)
		}
		return err
	}

	err := resilience.Retry(ctx, attemptFn, resilience.FixedRetryConfig(cfg.MaxRetries, cfg.RetryDelay), resilience.IsRetryable)
	if err == nil {
		return text, true
	}

	if errors.Is(err, resilience.ErrRetriesExhausted) {
		out.Failure("Max retries reached. Returning to text input mode.")
	}
	return "", false
}
