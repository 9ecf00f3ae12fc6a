package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"

	"github.com/rs/zerolog"

	"github.com/lexiqai/voice-assistant/internal/observability"
)

// ErrNoPlayer is returned when neither the external player nor a fallback is available
var ErrNoPlayer = errors.New("no audio player available")

// DefaultPlayerArgs makes mpv read raw audio from stdin without caching or a terminal UI
var DefaultPlayerArgs = []string{"--no-cache", "--no-terminal", "--", "fd://0"}

// PlaybackError reports a failure while handing audio to a player
type PlaybackError struct {
	Stage string // launch, write, wait, decode
	Err   error
}

func (e *PlaybackError) Error() string {
	return fmt.Sprintf("playback %s: %v", e.Stage, e.Err)
}

func (e *PlaybackError) Unwrap() error {
	return e.Err
}

// PlayerProcess is a running media player that reads audio from its input
type PlayerProcess interface {
	io.Writer
	// CloseInput signals end of audio
	CloseInput() error
	// Wait blocks until the player exits
	Wait() error
}

// PlayerLauncher starts streaming player processes
type PlayerLauncher interface {
	// Available reports whether the player binary can be launched
	Available() bool
	Launch(ctx context.Context) (PlayerProcess, error)
}

// ClipPlayer decodes and plays a complete compressed clip, blocking until done
type ClipPlayer interface {
	PlayClip(ctx context.Context, clip []byte) error
}

// ExecLauncher launches an external player binary fed through stdin
type ExecLauncher struct {
	Binary string
	Args   []string
}

// NewExecLauncher creates a launcher for binary with DefaultPlayerArgs
func NewExecLauncher(binary string) *ExecLauncher {
	return &ExecLauncher{Binary: binary, Args: DefaultPlayerArgs}
}

// Available reports whether the binary is on PATH
func (l *ExecLauncher) Available() bool {
	if l == nil || l.Binary == "" {
		return false
	}
	_, err := exec.LookPath(l.Binary)
	return err == nil
}

// Launch starts the player with stdout and stderr discarded
func (l *ExecLauncher) Launch(ctx context.Context) (PlayerProcess, error) {
	cmd := exec.CommandContext(ctx, l.Binary, l.Args...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", l.Binary, err)
	}

	return &execProcess{cmd: cmd, stdin: stdin}, nil
}

type execProcess struct {
	cmd   *exec.Cmd
	stdin io.WriteCloser
}

func (p *execProcess) Write(b []byte) (int, error) { return p.stdin.Write(b) }
func (p *execProcess) CloseInput() error           { return p.stdin.Close() }
func (p *execProcess) Wait() error                 { return p.cmd.Wait() }

// Relay forwards audio frames to a playback sink: a streaming player process
// when one is available, otherwise an in-process clip player.
type Relay struct {
	launcher PlayerLauncher
	fallback ClipPlayer
	logger   zerolog.Logger
	notify   func(string)
}

// RelayOption configures a Relay
type RelayOption func(*Relay)

// WithFallback sets the clip player used when the launcher is unavailable
func WithFallback(p ClipPlayer) RelayOption {
	return func(r *Relay) { r.fallback = p }
}

// WithLogger sets the relay logger
func WithLogger(l zerolog.Logger) RelayOption {
	return func(r *Relay) { r.logger = l }
}

// WithNotify sets a callback for user-facing status lines
func WithNotify(fn func(string)) RelayOption {
	return func(r *Relay) { r.notify = fn }
}

// NewRelay creates a relay. launcher may be nil to force the fallback path.
func NewRelay(launcher PlayerLauncher, opts ...RelayOption) *Relay {
	r := &Relay{
		launcher: launcher,
		logger:   observability.GetLogger().With().Str("component", "audio.relay").Logger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Play consumes frames until the channel is closed or ctx is done.
// Frames reach the sink in the order received.
func (r *Relay) Play(ctx context.Context, frames <-chan []byte) error {
	if r.launcher != nil && r.launcher.Available() {
		return r.stream(ctx, frames)
	}
	return r.playBuffered(ctx, frames)
}

// stream writes each frame to the player's stdin as it arrives. The player's
// input is always closed and the process waited on, including after a write
// failure or cancellation.
func (r *Relay) stream(ctx context.Context, frames <-chan []byte) (err error) {
	proc, err := r.launcher.Launch(ctx)
	if err != nil {
		observability.RecordError("launch", "audio_relay")
		return &PlaybackError{Stage: "launch", Err: err}
	}

	r.status("Started streaming audio")
	r.logger.Debug().Msg("Player process started")

	defer func() {
		closeErr := proc.CloseInput()
		waitErr := proc.Wait()
		if err == nil && ctx.Err() == nil {
			if closeErr != nil {
				err = &PlaybackError{Stage: "close", Err: closeErr}
			} else if waitErr != nil {
				err = &PlaybackError{Stage: "wait", Err: waitErr}
			}
		}
		if err != nil {
			r.logger.Error().Err(err).Msg("Audio streaming failed")
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case frame, ok := <-frames:
			if !ok {
				return nil
			}
			if len(frame) == 0 {
				continue
			}
			if _, werr := proc.Write(frame); werr != nil {
				observability.RecordError("write", "audio_relay")
				return &PlaybackError{Stage: "write", Err: werr}
			}
			observability.RecordFrameRelayed("stream", len(frame))
		}
	}
}

// playBuffered collects the whole stream and hands it to the fallback as one clip
func (r *Relay) playBuffered(ctx context.Context, frames <-chan []byte) error {
	if r.fallback == nil {
		r.logger.Warn().Msg("No audio player available, discarding audio")
		for range frames {
		}
		return ErrNoPlayer
	}

	r.status("Streaming player not found. Using in-process audio playback.")

	var clip bytes.Buffer
	for done := false; !done; {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case frame, ok := <-frames:
			if !ok {
				done = true
				continue
			}
			clip.Write(frame)
			if len(frame) > 0 {
				observability.RecordFrameRelayed("fallback", len(frame))
			}
		}
	}

	if clip.Len() == 0 {
		return nil
	}

	if err := r.fallback.PlayClip(ctx, clip.Bytes()); err != nil {
		observability.RecordError("decode", "audio_relay")
		perr := &PlaybackError{Stage: "decode", Err: err}
		r.logger.Error().Err(perr).Int("bytes", clip.Len()).Msg("Fallback playback failed")
		return perr
	}
	return nil
}

func (r *Relay) status(msg string) {
	if r.notify != nil {
		r.notify(msg)
	}
}
