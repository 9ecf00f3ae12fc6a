package commands

import (
	"github.com/lexiqai/voice-assistant/internal/audio"
	"github.com/lexiqai/voice-assistant/internal/audio/beepplay"
	"github.com/lexiqai/voice-assistant/internal/config"
	"github.com/lexiqai/voice-assistant/internal/console"
	"github.com/lexiqai/voice-assistant/internal/observability"
	"github.com/lexiqai/voice-assistant/internal/resilience"
	"github.com/lexiqai/voice-assistant/internal/stt"
	"github.com/lexiqai/voice-assistant/internal/tts"
)

// newSynthesizer builds the text-to-speech path from configuration
func newSynthesizer(cfg *config.Config, out *console.Console, breaker *resilience.CircuitBreaker) *tts.Synthesizer {
	relay := audio.NewRelay(
		audio.NewExecLauncher(cfg.PlayerBinary),
		audio.WithFallback(beepplay.New()),
		audio.WithNotify(func(msg string) { out.Success("%s", msg) }),
	)

	settings := tts.Settings{
		APIKey:          cfg.ElevenLabsAPIKey,
		BaseURL:         cfg.ElevenLabsBaseURL,
		VoiceID:         cfg.ElevenLabsVoiceID,
		ModelID:         cfg.ElevenLabsModelID,
		Stability:       cfg.VoiceStability,
		SimilarityBoost: cfg.VoiceSimilarityBoost,
		FrameBuffer:     cfg.TTSFrameBuffer,
	}

	return tts.NewSynthesizer(settings,
		tts.WithDialer(&tts.WebsocketDialer{HandshakeTimeout: cfg.HandshakeTimeout()}),
		tts.WithRelay(relay),
		tts.WithPrinter(out),
		tts.WithBreaker(breaker),
	)
}

// newBreaker guards the synthesis endpoint. Sessions that share it stop
// dialing after repeated connection failures.
func newBreaker(cfg *config.Config) *resilience.CircuitBreaker {
	breaker := resilience.NewCircuitBreaker("elevenlabs", cfg.CircuitBreakerMaxFailures, cfg.CircuitBreakerReset())
	breaker.OnStateChange = func(name string, state resilience.CircuitState) {
		observability.UpdateCircuitBreakerState(name, int(state))
	}
	return breaker
}

// newRecognizer builds microphone capture and transcription from configuration
func newRecognizer(cfg *config.Config) *stt.DeepgramRecognizer {
	rc := stt.DefaultRecognizerConfig()
	rc.APIKey = cfg.DeepgramAPIKey
	rc.Model = cfg.DeepgramModel
	rc.Language = cfg.DeepgramLanguage
	rc.Calibration = cfg.CalibrationDuration()
	rc.VAD = audio.VADConfig{
		EnergyThreshold: cfg.VADEnergyThreshold,
		SilenceFrames:   cfg.VADSilenceFrames,
		FrameSize:       audio.FrameSizeFor(cfg.CaptureSampleRate),
	}

	mic := stt.NewMicrophone(cfg.RecorderBinary, cfg.CaptureSampleRate)
	return stt.NewDeepgramRecognizer(rc, mic)
}

func captureConfig(cfg *config.Config) stt.CaptureConfig {
	cc := stt.DefaultCaptureConfig()
	if cfg.CaptureMaxRetries > 0 {
		cc.MaxRetries = cfg.CaptureMaxRetries
	}
	if d := cfg.ListenTimeoutDuration(); d > 0 {
		cc.ListenTimeout = d
	}
	if d := cfg.RetryDelay(); d > 0 {
		cc.RetryDelay = d
	}
	return cc
}
