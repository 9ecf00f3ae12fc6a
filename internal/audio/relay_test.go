package audio

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// fakeProcess records everything written to it
type fakeProcess struct {
	mu       sync.Mutex
	writes   [][]byte
	failAt   int // 1-based write index that fails; 0 never fails
	closed   bool
	waited   bool
	closeErr error
}

func (p *fakeProcess) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failAt > 0 && len(p.writes)+1 == p.failAt {
		return 0, errors.New("broken pipe")
	}
	p.writes = append(p.writes, append([]byte(nil), b...))
	return len(b), nil
}

func (p *fakeProcess) CloseInput() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return p.closeErr
}

func (p *fakeProcess) Wait() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		return errors.New("wait before close")
	}
	p.waited = true
	return nil
}

type fakeLauncher struct {
	available bool
	proc      *fakeProcess
	err       error
	launches  int
}

func (l *fakeLauncher) Available() bool { return l.available }

func (l *fakeLauncher) Launch(ctx context.Context) (PlayerProcess, error) {
	l.launches++
	if l.err != nil {
		return nil, l.err
	}
	return l.proc, nil
}

type fakeClipPlayer struct {
	clip []byte
	err  error
}

func (p *fakeClipPlayer) PlayClip(ctx context.Context, clip []byte) error {
	p.clip = append([]byte(nil), clip...)
	return p.err
}

func feed(frames ...[]byte) <-chan []byte {
	ch := make(chan []byte, len(frames))
	for _, f := range frames {
		ch <- f
	}
	close(ch)
	return ch
}

func quietRelay(l PlayerLauncher, opts ...RelayOption) *Relay {
	return NewRelay(l, append([]RelayOption{WithLogger(zerolog.Nop())}, opts...)...)
}

func TestRelay_StreamPreservesOrder(t *testing.T) {
	proc := &fakeProcess{}
	relay := quietRelay(&fakeLauncher{available: true, proc: proc})

	err := relay.Play(context.Background(), feed([]byte("f1"), []byte("f2"), []byte("f3")))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	got := bytes.Join(proc.writes, []byte("|"))
	if string(got) != "f1|f2|f3" {
		t.Errorf("Expected writes f1|f2|f3, got %s", got)
	}
	if !proc.closed || !proc.waited {
		t.Errorf("Expected input closed and process waited, got closed=%v waited=%v", proc.closed, proc.waited)
	}
}

func TestRelay_StreamSkipsEmptyFrames(t *testing.T) {
	proc := &fakeProcess{}
	relay := quietRelay(&fakeLauncher{available: true, proc: proc})

	relay.Play(context.Background(), feed([]byte("a"), nil, []byte{}, []byte("b")))

	if len(proc.writes) != 2 {
		t.Errorf("Expected 2 writes, got %d", len(proc.writes))
	}
}

func TestRelay_WriteFailureStillCleansUp(t *testing.T) {
	proc := &fakeProcess{failAt: 2}
	relay := quietRelay(&fakeLauncher{available: true, proc: proc})

	err := relay.Play(context.Background(), feed([]byte("f1"), []byte("f2"), []byte("f3")))

	var perr *PlaybackError
	if !errors.As(err, &perr) || perr.Stage != "write" {
		t.Fatalf("Expected write PlaybackError, got %v", err)
	}
	if len(proc.writes) != 1 {
		t.Errorf("Expected 1 successful write before abort, got %d", len(proc.writes))
	}
	if !proc.closed || !proc.waited {
		t.Error("Expected cleanup to run after write failure")
	}
}

func TestRelay_LaunchFailure(t *testing.T) {
	relay := quietRelay(&fakeLauncher{available: true, err: errors.New("exec format error")})

	err := relay.Play(context.Background(), feed([]byte("f1")))

	var perr *PlaybackError
	if !errors.As(err, &perr) || perr.Stage != "launch" {
		t.Fatalf("Expected launch PlaybackError, got %v", err)
	}
}

func TestRelay_CancelClosesInput(t *testing.T) {
	proc := &fakeProcess{}
	relay := quietRelay(&fakeLauncher{available: true, proc: proc})

	ctx, cancel := context.WithCancel(context.Background())
	frames := make(chan []byte)

	done := make(chan error, 1)
	go func() { done <- relay.Play(ctx, frames) }()

	frames <- []byte("f1")
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Relay did not return after cancel")
	}

	if !proc.closed || !proc.waited {
		t.Error("Expected player input closed and process waited after cancel")
	}
}

func TestRelay_FallbackBuffersWholeClip(t *testing.T) {
	launcher := &fakeLauncher{available: false}
	clip := &fakeClipPlayer{}
	var notices []string
	relay := quietRelay(launcher, WithFallback(clip), WithNotify(func(s string) { notices = append(notices, s) }))

	err := relay.Play(context.Background(), feed([]byte("ID3"), []byte("-frame1"), []byte("-frame2")))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if launcher.launches != 0 {
		t.Errorf("Expected no launch when player is unavailable, got %d", launcher.launches)
	}
	if string(clip.clip) != "ID3-frame1-frame2" {
		t.Errorf("Expected concatenated clip, got %q", clip.clip)
	}
	if len(notices) != 1 {
		t.Errorf("Expected one status notice, got %v", notices)
	}
}

func TestRelay_FallbackDecodeError(t *testing.T) {
	relay := quietRelay(nil, WithFallback(&fakeClipPlayer{err: errors.New("not an mp3")}))

	err := relay.Play(context.Background(), feed([]byte("junk")))

	var perr *PlaybackError
	if !errors.As(err, &perr) || perr.Stage != "decode" {
		t.Fatalf("Expected decode PlaybackError, got %v", err)
	}
}

func TestRelay_FallbackEmptyStream(t *testing.T) {
	clip := &fakeClipPlayer{}
	relay := quietRelay(nil, WithFallback(clip))

	if err := relay.Play(context.Background(), feed()); err != nil {
		t.Errorf("Expected no error for empty stream, got %v", err)
	}
	if clip.clip != nil {
		t.Error("Expected clip player not to be called for empty stream")
	}
}

func TestRelay_NoPlayerDrainsFrames(t *testing.T) {
	relay := quietRelay(nil)

	err := relay.Play(context.Background(), feed([]byte("a"), []byte("b")))
	if !errors.Is(err, ErrNoPlayer) {
		t.Errorf("Expected ErrNoPlayer, got %v", err)
	}
}

func TestExecLauncher_Available(t *testing.T) {
	if NewExecLauncher("").Available() {
		t.Error("Expected empty binary to be unavailable")
	}
	if NewExecLauncher("definitely-not-a-real-player-binary").Available() {
		t.Error("Expected missing binary to be unavailable")
	}
}
