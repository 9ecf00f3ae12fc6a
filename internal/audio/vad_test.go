package audio

import (
	"testing"
)

// constantFrame returns n samples of the same amplitude, whose RMS is that amplitude
func constantFrame(n int, amplitude int16) []int16 {
	samples := make([]int16, n)
	for i := range samples {
		samples[i] = amplitude
	}
	return samples
}

func testVADConfig() *VADConfig {
	return &VADConfig{EnergyThreshold: 500.0, SilenceFrames: 10, FrameSize: 160}
}

func TestVADDetector_ProcessFrame(t *testing.T) {
	tests := []struct {
		name      string
		amplitude int16
		frames    int
		speaking  bool
	}{
		{"loud frames are speech", 5000, 5, true},
		{"quiet frames are silence", 10, 15, false},
		{"threshold itself is silence", 500, 3, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vad := NewVADDetector(testVADConfig())
			frame := constantFrame(160, tt.amplitude)

			for i := 0; i < tt.frames; i++ {
				isSpeaking, started, ended := vad.ProcessFrame(frame)
				if isSpeaking != tt.speaking {
					t.Errorf("Frame %d: expected speaking %v, got %v", i, tt.speaking, isSpeaking)
				}
				if started != (tt.speaking && i == 0) {
					t.Errorf("Frame %d: unexpected started %v", i, started)
				}
				if ended {
					t.Errorf("Frame %d: unexpected end of speech", i)
				}
			}
		})
	}
}

func TestVADDetector_EndsAfterSilenceFrames(t *testing.T) {
	vad := NewVADDetector(testVADConfig())
	vad.ProcessFrame(constantFrame(160, 5000))

	quiet := constantFrame(160, 10)
	for i := 1; i <= 10; i++ {
		isSpeaking, _, ended := vad.ProcessFrame(quiet)
		if i < 10 && (ended || !isSpeaking) {
			t.Fatalf("Expected speech to continue through silence frame %d", i)
		}
		if i == 10 && (!ended || isSpeaking) {
			t.Fatalf("Expected speech to end on silence frame 10, got ended=%v speaking=%v", ended, isSpeaking)
		}
	}

	// a loud frame in the middle of a pause resets the silence count
	vad.ProcessFrame(constantFrame(160, 5000))
	for i := 0; i < 9; i++ {
		vad.ProcessFrame(quiet)
	}
	vad.ProcessFrame(constantFrame(160, 5000))
	if _, _, ended := vad.ProcessFrame(quiet); ended {
		t.Error("Expected silence count to restart after speech")
	}
}

func TestVADDetector_ThresholdFromConfig(t *testing.T) {
	frame := constantFrame(160, 1000)

	low := NewVADDetector(&VADConfig{EnergyThreshold: 100.0, SilenceFrames: 10, FrameSize: 160})
	if isSpeaking, _, _ := low.ProcessFrame(frame); !isSpeaking {
		t.Error("Expected low threshold to detect speech")
	}

	high := NewVADDetector(&VADConfig{EnergyThreshold: 5000.0, SilenceFrames: 10, FrameSize: 160})
	if isSpeaking, _, _ := high.ProcessFrame(frame); isSpeaking {
		t.Error("Expected high threshold to not detect speech")
	}

	if NewVADDetector(nil).Threshold() != DefaultVADConfig().EnergyThreshold {
		t.Error("Expected nil config to use the default threshold")
	}
}

func TestVADDetector_Calibrate(t *testing.T) {
	vad := NewVADDetector(&VADConfig{EnergyThreshold: 300.0, SilenceFrames: 10, FrameSize: 160})

	// Noisy room raises the threshold above the floor
	if level := vad.Calibrate(constantFrame(1600, 1000)); level != 1500.0 {
		t.Errorf("Expected calibrated threshold 1500, got %f", level)
	}

	// Frames that would be speech in a quiet room are now ambient noise
	if isSpeaking, _, _ := vad.ProcessFrame(constantFrame(160, 1200)); isSpeaking {
		t.Error("Expected ambient-level frame not to be speech after calibration")
	}

	// Quiet room keeps the configured floor
	if level := vad.Calibrate(make([]int16, 1600)); level != 300.0 {
		t.Errorf("Expected threshold floor 300, got %f", level)
	}
	if vad.Threshold() != 300.0 {
		t.Errorf("Expected Threshold() 300, got %f", vad.Threshold())
	}
}

func TestVADDetector_ResetKeepsThreshold(t *testing.T) {
	vad := NewVADDetector(testVADConfig())
	vad.Calibrate(constantFrame(1600, 1000))
	vad.ProcessFrame(constantFrame(160, 5000))

	if !vad.isSpeaking {
		t.Fatal("Expected speech to be detected")
	}

	vad.Reset()
	if vad.isSpeaking {
		t.Error("Expected speech state to be false after reset")
	}
	if vad.Threshold() != 1500.0 {
		t.Errorf("Expected calibrated threshold to survive reset, got %f", vad.Threshold())
	}
}

func TestDefaultVADConfig(t *testing.T) {
	config := DefaultVADConfig()
	if config.EnergyThreshold != 500.0 {
		t.Errorf("Expected default EnergyThreshold 500.0, got %f", config.EnergyThreshold)
	}
	if config.SilenceFrames != 40 {
		t.Errorf("Expected default SilenceFrames 40, got %d", config.SilenceFrames)
	}
	if config.FrameSize != FrameSizeFor(16000) {
		t.Errorf("Expected default FrameSize %d, got %d", FrameSizeFor(16000), config.FrameSize)
	}
}
