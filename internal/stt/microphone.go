package stt

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"strconv"
)

// AudioSource produces 16-bit mono little-endian PCM
type AudioSource interface {
	// Open starts capture. Closing the returned reader stops it.
	Open(ctx context.Context) (io.ReadCloser, error)
	SampleRate() int
}

// Microphone records from the default input device through a recorder
// binary writing raw PCM to stdout (arecord by default)
type Microphone struct {
	Binary string
	Rate   int
}

// NewMicrophone creates a microphone using binary at sampleRate
func NewMicrophone(binary string, sampleRate int) *Microphone {
	return &Microphone{Binary: binary, Rate: sampleRate}
}

// SampleRate returns the capture rate in Hz
func (m *Microphone) SampleRate() int {
	return m.Rate
}

// Args returns the recorder arguments for raw mono 16-bit capture
func (m *Microphone) Args() []string {
	return []string{"-q", "-t", "raw", "-f", "S16_LE", "-c", "1", "-r", strconv.Itoa(m.Rate)}
}

// Open starts the recorder process
func (m *Microphone) Open(ctx context.Context) (io.ReadCloser, error) {
	if _, err := exec.LookPath(m.Binary); err != nil {
		return nil, fmt.Errorf("recorder %q not found: %w", m.Binary, err)
	}

	cmd := exec.CommandContext(ctx, m.Binary, m.Args()...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", m.Binary, err)
	}

	return &recording{cmd: cmd, stdout: stdout}, nil
}

type recording struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
}

func (r *recording) Read(p []byte) (int, error) {
	return r.stdout.Read(p)
}

// Close stops the recorder and reaps it
func (r *recording) Close() error {
	if r.cmd.Process != nil {
		_ = r.cmd.Process.Kill()
	}
	_ = r.cmd.Wait()
	return nil
}
