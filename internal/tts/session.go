package tts

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/lexiqai/voice-assistant/internal/audio"
	"github.com/lexiqai/voice-assistant/internal/console"
	"github.com/lexiqai/voice-assistant/internal/observability"
	"github.com/lexiqai/voice-assistant/internal/resilience"
)

const (
	defaultFrameBuffer      = 32
	defaultHandshakeTimeout = 10 * time.Second
)

// Synthesizer speaks text through the ElevenLabs stream-input API and falls
// back to printing the text whenever speech is unavailable
type Synthesizer struct {
	settings Settings
	dialer   Dialer
	relay    FrameRelay
	printer  Printer
	breaker  *resilience.CircuitBreaker
	logger   zerolog.Logger
}

// Option configures a Synthesizer
type Option func(*Synthesizer)

// WithDialer replaces the websocket dialer
func WithDialer(d Dialer) Option {
	return func(s *Synthesizer) { s.dialer = d }
}

// WithRelay sets where received audio is played
func WithRelay(r FrameRelay) Option {
	return func(s *Synthesizer) { s.relay = r }
}

// WithPrinter sets where status lines and fallback text go
func WithPrinter(p Printer) Option {
	return func(s *Synthesizer) { s.printer = p }
}

// WithBreaker guards the dial with a circuit breaker. While it is open,
// sessions skip the connection and print the text straight away.
func WithBreaker(cb *resilience.CircuitBreaker) Option {
	return func(s *Synthesizer) { s.breaker = cb }
}

// WithLogger sets the base logger
func WithLogger(l zerolog.Logger) Option {
	return func(s *Synthesizer) { s.logger = l }
}

// NewSynthesizer creates a synthesizer. Without options it dials with
// gorilla/websocket, plays through mpv and prints to stdout.
func NewSynthesizer(settings Settings, opts ...Option) *Synthesizer {
	if settings.FrameBuffer <= 0 {
		settings.FrameBuffer = defaultFrameBuffer
	}

	s := &Synthesizer{
		settings: settings,
		logger:   observability.GetLogger().With().Str("component", "tts").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.dialer == nil {
		s.dialer = &WebsocketDialer{HandshakeTimeout: defaultHandshakeTimeout}
	}
	if s.relay == nil {
		s.relay = audio.NewRelay(audio.NewExecLauncher("mpv"))
	}
	if s.printer == nil {
		s.printer = console.Stdout()
	}
	return s
}

// Speak runs one session for text. It always leaves the user with the
// content: spoken when possible, printed otherwise. The returned error
// describes why speech failed and is informational.
func (s *Synthesizer) Speak(ctx context.Context, text string) error {
	return s.NewSession(text).Run(ctx)
}

// NewSession prepares a session without starting it
func (s *Synthesizer) NewSession(text string) *Session {
	id := observability.NewCorrelationID()
	return &Session{
		id:      id,
		text:    text,
		synth:   s,
		logger:  s.logger.With().Str("correlation_id", id).Logger(),
		metrics: observability.NewSessionMetrics(id),
	}
}

// Session is one text-to-speech request, from connect to close or fallback
type Session struct {
	id      string
	text    string
	synth   *Synthesizer
	logger  zerolog.Logger
	metrics *observability.SessionMetrics

	state  atomic.Int32
	frames atomic.Int64
}

// ID returns the session correlation ID
func (s *Session) ID() string {
	return s.id
}

// State returns the current lifecycle state
func (s *Session) State() State {
	return State(s.state.Load())
}

// Frames returns the number of audio frames handed to the relay
func (s *Session) Frames() int64 {
	return s.frames.Load()
}

func (s *Session) setState(state State) {
	prev := State(s.state.Swap(int32(state)))
	s.logger.Debug().Str("from", prev.String()).Str("to", state.String()).Msg("Session state changed")
}

// Run executes the session. Nothing here panics or exits: every failure
// ends in FAILED with the text printed, except caller cancellation which
// ends in FAILED without printing.
func (s *Session) Run(ctx context.Context) error {
	s.metrics.RecordSessionStart()
	err := s.run(ctx)
	s.metrics.RecordSessionEnd(err == nil)
	return err
}

func (s *Session) run(ctx context.Context) error {
	cfg := s.synth.settings
	printer := s.synth.printer

	if strings.TrimSpace(s.text) == "" {
		s.setState(StateDone)
		return nil
	}

	if cfg.APIKey == "" {
		s.logger.Warn().Msg("No API key configured, printing text instead")
		printer.Notice("ElevenLabs API key not found. Text-to-speech is disabled.")
		printer.Print(s.text)
		s.metrics.RecordFallback("no_credential")
		s.setState(StateFailed)
		return ErrConfigurationMissing
	}

	if cb := s.synth.breaker; cb != nil && !cb.Allow() {
		return s.fail(&ConnectionError{Op: "dial", Err: resilience.ErrCircuitOpen}, "circuit_open")
	}

	s.setState(StateConnecting)

	header := http.Header{}
	header.Set("xi-api-key", cfg.APIKey)

	conn, err := s.synth.dialer.Dial(ctx, Endpoint(cfg.BaseURL, cfg.VoiceID, cfg.ModelID), header)
	if err != nil {
		if ctx.Err() != nil {
			return s.cancelled(ctx.Err())
		}
		s.recordDial(false)
		var cerr *ConnectionError
		if !errors.As(err, &cerr) {
			cerr = &ConnectionError{Op: "dial", Err: err}
		}
		return s.fail(cerr, "connection")
	}
	s.recordDial(true)
	s.metrics.RecordConnected()
	s.logger.Info().Str("voice", ResolveVoice(cfg.VoiceID)).Str("model", cfg.ModelID).Msg("Connected to synthesis service")

	if err := s.stream(ctx, conn); err != nil {
		if ctx.Err() != nil {
			return s.cancelled(ctx.Err())
		}
		return s.fail(err, failureReason(err))
	}

	s.setState(StateDone)
	s.logger.Info().Int64("frames", s.Frames()).Msg("Session complete")
	return nil
}

// stream runs the send path in the calling goroutine while the receive path
// and the relay run concurrently, joined by the frame channel. The socket is
// closed when stream returns or ctx is cancelled, whichever comes first.
func (s *Session) stream(parent context.Context, conn Conn) error {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer func() {
		if stop() {
			conn.Close()
		}
	}()

	if err := conn.WriteJSON(newInitMessage(s.synth.settings)); err != nil {
		return &ConnectionError{Op: "init", Err: err}
	}
	s.setState(StateStreaming)

	frames := make(chan []byte, s.synth.settings.FrameBuffer)

	recvDone := make(chan error, 1)
	go func() { recvDone <- s.receive(ctx, conn, frames) }()

	playDone := make(chan error, 1)
	go func() { playDone <- s.synth.relay.Play(ctx, frames) }()

	sendErr := s.send(ctx, conn)
	if sendErr != nil {
		cancel()
	} else {
		s.setState(StateClosing)
	}

	playErr := <-playDone
	cancel()
	recvErr := <-recvDone

	// the receive loop is cancelled by us once playback has ended
	if errors.Is(recvErr, context.Canceled) && parent.Err() == nil {
		recvErr = nil
	}

	var perr *ProtocolError
	switch {
	case sendErr != nil:
		return sendErr
	case errors.As(recvErr, &perr):
		return recvErr
	case playErr != nil:
		return playErr
	default:
		return recvErr
	}
}

// send writes every chunk in order followed by the end-of-input message
func (s *Session) send(ctx context.Context, conn Conn) error {
	for chunk := range ChunkText(s.text) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := conn.WriteJSON(chunkMessage{Text: chunk, TryTriggerGeneration: true}); err != nil {
			return &ConnectionError{Op: "send", Err: err}
		}
		s.metrics.RecordChunkSent()
	}

	if err := conn.WriteJSON(closeMessage{}); err != nil {
		return &ConnectionError{Op: "send", Err: err}
	}
	return nil
}

// receive decodes inbound messages into frames until the final marker,
// a clean close, or an error. frames is closed on return so the relay
// finishes whatever it already has.
func (s *Session) receive(ctx context.Context, conn Conn, frames chan<- []byte) error {
	defer close(frames)

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if isNormalClose(err) {
				s.logger.Debug().Msg("Server closed stream")
				return nil
			}
			return &ProtocolError{Reason: "connection closed unexpectedly", Err: err}
		}

		frame, final, err := decodeServerMessage(raw)
		if err != nil {
			return err
		}

		if len(frame) > 0 {
			select {
			case frames <- frame:
				s.frames.Add(1)
				s.metrics.RecordFrameReceived()
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if final {
			return nil
		}
	}
}

func (s *Session) fail(err error, reason string) error {
	s.setState(StateFailed)
	s.metrics.RecordFallback(reason)
	s.metrics.RecordError(reason, "tts")
	s.logger.Error().Err(err).Str("reason", reason).Msg("Text-to-speech failed, printing text")

	printer := s.synth.printer
	var cerr *ConnectionError
	if errors.As(err, &cerr) && cerr.Op == "dial" {
		printer.Failure("Failed to connect to ElevenLabs API: %v", err)
	} else {
		printer.Failure("Error in text-to-speech: %v", err)
	}
	printer.Notice("Fallback: Printing the text instead.")
	printer.Print(s.text)
	return err
}

func (s *Session) cancelled(err error) error {
	s.setState(StateFailed)
	s.logger.Info().Err(err).Msg("Session cancelled")
	return err
}

func (s *Session) recordDial(success bool) {
	cb := s.synth.breaker
	if cb == nil {
		return
	}
	cb.RecordResult(success)
	if !success {
		observability.IncrementCircuitBreakerFailures(cb.Name())
	}
}

func failureReason(err error) string {
	var (
		cerr *ConnectionError
		perr *ProtocolError
		berr *audio.PlaybackError
	)
	switch {
	case errors.As(err, &cerr):
		return "connection"
	case errors.As(err, &perr):
		return "protocol"
	case errors.As(err, &berr), errors.Is(err, audio.ErrNoPlayer):
		return "playback"
	default:
		return "unknown"
	}
}
