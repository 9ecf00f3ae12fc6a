package audio

// CalibrationRatio scales ambient energy to the speech threshold after calibration
const CalibrationRatio = 1.5

// VADConfig holds configuration for Voice Activity Detection
type VADConfig struct {
	EnergyThreshold float64 // RMS energy threshold for speech detection
	SilenceFrames   int     // Number of consecutive silence frames to mark as end of speech
	FrameSize       int     // Number of samples per frame (320 for 16kHz = 20ms)
}

// DefaultVADConfig returns a default VAD configuration for 16kHz capture
func DefaultVADConfig() *VADConfig {
	return &VADConfig{
		EnergyThreshold: 500.0,
		SilenceFrames:   40,  // 800ms of silence (40 frames * 20ms)
		FrameSize:       320, // 20ms at 16kHz
	}
}

// FrameSizeFor returns the number of samples in a 20ms frame at sampleRate
func FrameSizeFor(sampleRate int) int {
	return sampleRate / 50
}

// VADDetector performs Voice Activity Detection
type VADDetector struct {
	config         VADConfig
	threshold      float64
	silenceCounter int
	isSpeaking     bool
}

// NewVADDetector creates a new VAD detector
func NewVADDetector(config *VADConfig) *VADDetector {
	if config == nil {
		config = DefaultVADConfig()
	}
	return &VADDetector{
		config:    *config,
		threshold: config.EnergyThreshold,
	}
}

// Calibrate adjusts the speech threshold to the ambient noise level.
// The configured threshold acts as a floor so a silent room does not
// make every click count as speech.
func (v *VADDetector) Calibrate(ambient []int16) float64 {
	level := CalculateRMS(ambient) * CalibrationRatio
	if level < v.config.EnergyThreshold {
		level = v.config.EnergyThreshold
	}
	v.threshold = level
	return level
}

// Threshold returns the current speech threshold
func (v *VADDetector) Threshold() float64 {
	return v.threshold
}

// ProcessFrame processes an audio frame and returns whether speech is detected
// Returns: (isSpeaking, speechStarted, speechEnded)
func (v *VADDetector) ProcessFrame(samples []int16) (bool, bool, bool) {
	frameHasSpeech := CalculateRMS(samples) > v.threshold

	var speechStarted, speechEnded bool

	if frameHasSpeech {
		v.silenceCounter = 0
		if !v.isSpeaking {
			speechStarted = true
			v.isSpeaking = true
		}
	} else {
		v.silenceCounter++
		if v.isSpeaking && v.silenceCounter >= v.config.SilenceFrames {
			speechEnded = true
			v.isSpeaking = false
			v.silenceCounter = 0
		}
	}

	return v.isSpeaking, speechStarted, speechEnded
}

// Reset resets the VAD detector state. The calibrated threshold is kept.
func (v *VADDetector) Reset() {
	v.silenceCounter = 0
	v.isSpeaking = false
}
