package audio

import (
	"errors"
	"math"
	"testing"
	"time"
)

func TestBytesToSamples(t *testing.T) {
	// 0x0001 = 1, 0xFFFF = -1, 0x7FFF = 32767
	pcm := []byte{0x01, 0x00, 0xFF, 0xFF, 0xFF, 0x7F}

	samples, err := BytesToSamples(pcm)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	want := []int16{1, -1, 32767}
	if len(samples) != len(want) {
		t.Fatalf("Expected %d samples, got %d", len(want), len(samples))
	}
	for i := range want {
		if samples[i] != want[i] {
			t.Errorf("Sample %d: expected %d, got %d", i, want[i], samples[i])
		}
	}
}

func TestBytesToSamples_OddLength(t *testing.T) {
	_, err := BytesToSamples([]byte{0x01, 0x02, 0x03})
	if !errors.Is(err, ErrOddLength) {
		t.Errorf("Expected ErrOddLength, got %v", err)
	}
}

func TestCalculateRMS(t *testing.T) {
	tests := []struct {
		name     string
		samples  []int16
		expected float64
	}{
		{name: "empty", samples: nil, expected: 0},
		{name: "silence", samples: []int16{0, 0, 0, 0}, expected: 0},
		{name: "constant", samples: []int16{1000, -1000, 1000, -1000}, expected: 1000},
		{name: "mixed", samples: []int16{3, 4}, expected: math.Sqrt(12.5)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateRMS(tt.samples)
			if math.Abs(got-tt.expected) > 0.001 {
				t.Errorf("Expected RMS %f, got %f", tt.expected, got)
			}
		})
	}
}

func TestPCMDuration(t *testing.T) {
	// one second of 16kHz mono 16-bit audio
	if d := PCMDuration(32000, 16000); d != time.Second {
		t.Errorf("Expected 1s, got %v", d)
	}
	if d := PCMDuration(32000, 0); d != 0 {
		t.Errorf("Expected 0 for invalid sample rate, got %v", d)
	}
	if n := PCMBytes(500*time.Millisecond, 16000); n != 16000 {
		t.Errorf("Expected 16000 bytes, got %d", n)
	}
}
