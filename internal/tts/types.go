package tts

import (
	"context"
)

// State is a session lifecycle state
type State int32

const (
	StateIdle State = iota
	StateConnecting
	StateStreaming
	StateClosing
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateStreaming:
		return "streaming"
	case StateClosing:
		return "closing"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Settings configures the remote synthesis endpoint
type Settings struct {
	APIKey          string
	BaseURL         string // e.g. wss://api.elevenlabs.io/v1/text-to-speech
	VoiceID         string // preset name or raw voice ID
	ModelID         string
	Stability       float64
	SimilarityBoost float64
	FrameBuffer     int // frames queued between the socket reader and the relay
}

// FrameRelay plays audio frames as they arrive.
// Play returns once frames is closed and playback has finished, or ctx is done.
type FrameRelay interface {
	Play(ctx context.Context, frames <-chan []byte) error
}

// Printer shows status lines and the fallback text to the user
type Printer interface {
	Print(text string)
	Notice(format string, args ...any)
	Failure(format string, args ...any)
}
