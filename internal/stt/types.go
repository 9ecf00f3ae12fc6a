package stt

import (
	"time"

	"github.com/lexiqai/voice-assistant/internal/audio"
)

// TranscriptionResult represents a transcription result from Deepgram
type TranscriptionResult struct {
	// Text is the transcribed text
	Text string

	// IsFinal indicates if this is a final transcription (true) or interim (false)
	IsFinal bool

	// SpeechFinal is set when the service detected the end of the utterance
	SpeechFinal bool

	// Confidence is the confidence score (0.0 to 1.0) if available
	Confidence float64
}

// Utterance is one captured stretch of speech: 16-bit mono little-endian PCM
type Utterance struct {
	Audio      []byte
	SampleRate int
}

// Duration returns the length of the captured audio
func (u *Utterance) Duration() time.Duration {
	if u == nil {
		return 0
	}
	return audio.PCMDuration(len(u.Audio), u.SampleRate)
}
