// Package beepplay plays complete MP3 clips through the system audio device.
// It backs the relay when no streaming player binary is installed.
package beepplay

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
)

// Player decodes MP3 clips and plays them on the default output device.
// The speaker is initialised lazily and re-initialised if the sample rate changes.
type Player struct {
	mu         sync.Mutex
	sampleRate beep.SampleRate
	bufferSize time.Duration
}

// New creates a player with a 100ms device buffer
func New() *Player {
	return &Player{bufferSize: time.Second / 10}
}

// PlayClip blocks until the clip has finished playing or ctx is done
func (p *Player) PlayClip(ctx context.Context, clip []byte) error {
	streamer, format, err := mp3.Decode(io.NopCloser(bytes.NewReader(clip)))
	if err != nil {
		return fmt.Errorf("decode mp3: %w", err)
	}
	defer streamer.Close()

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.sampleRate != format.SampleRate {
		if err := speaker.Init(format.SampleRate, format.SampleRate.N(p.bufferSize)); err != nil {
			return fmt.Errorf("init speaker: %w", err)
		}
		p.sampleRate = format.SampleRate
	}

	done := make(chan struct{})
	speaker.Play(beep.Seq(streamer, beep.Callback(func() { close(done) })))

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		speaker.Clear()
		return ctx.Err()
	}
}
