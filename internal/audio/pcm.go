package audio

import (
	"encoding/binary"
	"errors"
	"math"
	"time"
)

// ErrOddLength is returned when 16-bit PCM data has a dangling byte
var ErrOddLength = errors.New("PCM data length must be even (16-bit samples)")

// BytesToSamples decodes little-endian 16-bit signed PCM
func BytesToSamples(pcm []byte) ([]int16, error) {
	if len(pcm)%2 != 0 {
		return nil, ErrOddLength
	}
	samples := make([]int16, len(pcm)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(pcm[i*2:]))
	}
	return samples, nil
}

// CalculateRMS calculates the root mean square (RMS) of audio samples
// Useful for detecting audio levels and silence
func CalculateRMS(samples []int16) float64 {
	if len(samples) == 0 {
		return 0.0
	}

	sum := 0.0
	for _, sample := range samples {
		sum += float64(sample) * float64(sample)
	}

	return math.Sqrt(sum / float64(len(samples)))
}

// PCMDuration returns how long n bytes of mono 16-bit PCM last at sampleRate
func PCMDuration(n, sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	samples := n / 2
	return time.Duration(samples) * time.Second / time.Duration(sampleRate)
}

// PCMBytes returns the byte length of d of mono 16-bit PCM at sampleRate
func PCMBytes(d time.Duration, sampleRate int) int {
	return int(d*time.Duration(sampleRate)/time.Second) * 2
}
