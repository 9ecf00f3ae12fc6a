package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for the voice assistant utilities
type Config struct {
	// Server configuration (serve command only)
	Port string `envconfig:"PORT" default:"8080"`

	// ElevenLabs streaming TTS configuration.
	// An empty API key disables the remote path: text is printed instead of spoken.
	ElevenLabsAPIKey  string `envconfig:"ELEVEN_LABS_API_KEY" default:""`
	ElevenLabsVoiceID string `envconfig:"ELEVEN_LABS_VOICE_ID" default:"rachel"`            // Preset name or raw voice ID
	ElevenLabsModelID string `envconfig:"ELEVEN_LABS_MODEL_ID" default:"eleven_turbo_v2_5"` // Model ID passed as query parameter
	ElevenLabsBaseURL string `envconfig:"ELEVEN_LABS_BASE_URL" default:"wss://api.elevenlabs.io/v1/text-to-speech"`

	VoiceStability       float64 `envconfig:"VOICE_STABILITY" default:"0.5"`
	VoiceSimilarityBoost float64 `envconfig:"VOICE_SIMILARITY_BOOST" default:"0.75"`

	TTSHandshakeTimeout int `envconfig:"TTS_HANDSHAKE_TIMEOUT" default:"10"` // seconds
	TTSFrameBuffer      int `envconfig:"TTS_FRAME_BUFFER" default:"32"`      // Frames queued between socket reader and player

	// Local media player. Falls back to in-process playback when not on PATH.
	PlayerBinary string `envconfig:"PLAYER_BINARY" default:"mpv"`

	// Deepgram STT configuration (speech capture)
	DeepgramAPIKey   string `envconfig:"DEEPGRAM_API_KEY" default:""`
	DeepgramModel    string `envconfig:"DEEPGRAM_MODEL" default:"nova-2"` // nova-2, enhanced, base
	DeepgramLanguage string `envconfig:"DEEPGRAM_LANGUAGE" default:"en"`

	// Microphone capture
	RecorderBinary     string  `envconfig:"RECORDER_BINARY" default:"arecord"`
	CaptureSampleRate  int     `envconfig:"CAPTURE_SAMPLE_RATE" default:"16000"`
	ListenTimeout      int     `envconfig:"LISTEN_TIMEOUT" default:"5"`          // seconds to wait for speech to start
	CaptureMaxRetries  int     `envconfig:"CAPTURE_MAX_RETRIES" default:"3"`     // attempts before giving up
	CaptureRetryDelay  int     `envconfig:"CAPTURE_RETRY_DELAY" default:"1000"`  // milliseconds between attempts
	AmbientCalibration int     `envconfig:"AMBIENT_CALIBRATION" default:"1000"`  // milliseconds of ambient noise sampling
	VADEnergyThreshold float64 `envconfig:"VAD_ENERGY_THRESHOLD" default:"500.0"` // RMS energy threshold for VAD
	VADSilenceFrames   int     `envconfig:"VAD_SILENCE_FRAMES" default:"40"`      // 20ms frames of silence to mark speech end

	// File helpers
	FileCacheSize int `envconfig:"FILE_CACHE_SIZE" default:"256"` // Max files held in the content store

	// Resilience configuration
	CircuitBreakerMaxFailures  int `envconfig:"CIRCUIT_BREAKER_MAX_FAILURES" default:"5"`   // Connection failures before opening circuit
	CircuitBreakerResetTimeout int `envconfig:"CIRCUIT_BREAKER_RESET_TIMEOUT" default:"30"` // Seconds before attempting recovery

	// Observability configuration
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`       // Log level: debug, info, warn, error
	LogPretty      bool   `envconfig:"LOG_PRETTY" default:"false"`     // Pretty print logs (for development)
	MetricsEnabled bool   `envconfig:"METRICS_ENABLED" default:"true"` // Enable Prometheus metrics
}

// Load reads configuration from environment variables
// It first attempts to load from .env file if it exists, then from environment
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	return LoadFromEnv()
}

// LoadFromEnv loads configuration directly from environment variables
// without attempting to load .env file (useful for containerized deployments)
func LoadFromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks value ranges. Missing API keys are not errors: they
// switch the corresponding feature off.
func (c *Config) Validate() error {
	if c.VoiceStability < 0 || c.VoiceStability > 1 {
		return fmt.Errorf("VOICE_STABILITY must be between 0 and 1, got %v", c.VoiceStability)
	}
	if c.VoiceSimilarityBoost < 0 || c.VoiceSimilarityBoost > 1 {
		return fmt.Errorf("VOICE_SIMILARITY_BOOST must be between 0 and 1, got %v", c.VoiceSimilarityBoost)
	}
	if c.TTSFrameBuffer <= 0 {
		return fmt.Errorf("TTS_FRAME_BUFFER must be positive, got %d", c.TTSFrameBuffer)
	}
	if c.CaptureMaxRetries <= 0 {
		return fmt.Errorf("CAPTURE_MAX_RETRIES must be positive, got %d", c.CaptureMaxRetries)
	}
	if c.CaptureSampleRate <= 0 {
		return fmt.Errorf("CAPTURE_SAMPLE_RATE must be positive, got %d", c.CaptureSampleRate)
	}
	if c.FileCacheSize <= 0 {
		return fmt.Errorf("FILE_CACHE_SIZE must be positive, got %d", c.FileCacheSize)
	}
	return nil
}

// TTSEnabled reports whether a credential for the streaming TTS vendor is configured
func (c *Config) TTSEnabled() bool {
	return c.ElevenLabsAPIKey != ""
}

// HandshakeTimeout returns the websocket handshake timeout
func (c *Config) HandshakeTimeout() time.Duration {
	return time.Duration(c.TTSHandshakeTimeout) * time.Second
}

// CircuitBreakerReset returns how long the TTS breaker stays open
func (c *Config) CircuitBreakerReset() time.Duration {
	return time.Duration(c.CircuitBreakerResetTimeout) * time.Second
}

// ListenTimeoutDuration returns how long capture waits for speech to start
func (c *Config) ListenTimeoutDuration() time.Duration {
	return time.Duration(c.ListenTimeout) * time.Second
}

// RetryDelay returns the pause between capture attempts
func (c *Config) RetryDelay() time.Duration {
	return time.Duration(c.CaptureRetryDelay) * time.Millisecond
}

// CalibrationDuration returns how much ambient audio is sampled before listening
func (c *Config) CalibrationDuration() time.Duration {
	return time.Duration(c.AmbientCalibration) * time.Millisecond
}

// GetEnv returns the value of an environment variable or a default value
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
