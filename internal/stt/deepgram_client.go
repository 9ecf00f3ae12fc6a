package stt

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	websocketv1api "github.com/deepgram/deepgram-go-sdk/v3/pkg/api/listen/v1/websocket"
	msginterfaces "github.com/deepgram/deepgram-go-sdk/v3/pkg/api/listen/v1/websocket/interfaces"
	interfaces "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/interfaces"
	listenClient "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/listen"
	"github.com/rs/zerolog"

	"github.com/lexiqai/voice-assistant/internal/audio"
	"github.com/lexiqai/voice-assistant/internal/observability"
)

// frameDuration is the VAD analysis window
const frameDuration = 20 * time.Millisecond

// ErrNoAPIKey is returned when Deepgram is not configured
var ErrNoAPIKey = errors.New("deepgram API key not configured")

// RecognizerConfig configures capture and transcription
type RecognizerConfig struct {
	APIKey   string
	Model    string // nova-2, enhanced, base
	Language string

	// Calibration is how much ambient audio is sampled, once, before the first listen
	Calibration time.Duration
	VAD         audio.VADConfig

	// PreRoll keeps audio from just before speech starts
	PreRoll time.Duration
	// MaxPhrase caps the length of one utterance
	MaxPhrase time.Duration
	// ResultTimeout bounds the wait for final transcripts after all audio is sent
	ResultTimeout time.Duration
}

// DefaultRecognizerConfig returns settings for 16kHz capture
func DefaultRecognizerConfig() RecognizerConfig {
	return RecognizerConfig{
		Model:         "nova-2",
		Language:      "en",
		Calibration:   time.Second,
		VAD:           *audio.DefaultVADConfig(),
		PreRoll:       300 * time.Millisecond,
		MaxPhrase:     30 * time.Second,
		ResultTimeout: 3 * time.Second,
	}
}

// messageCallbackHandler implements the LiveMessageCallback interface
// It embeds the default handler and overrides only the methods we need to customize
type messageCallbackHandler struct {
	*websocketv1api.DefaultCallbackHandler // Embed default handler for methods we don't override
	handler                                func(*msginterfaces.MessageResponse)
	errorHandler                           func(*msginterfaces.ErrorResponse) error
	utteranceEnd                           func()
}

// Message overrides the default handler to send transcriptions to the collector
func (m *messageCallbackHandler) Message(message *msginterfaces.MessageResponse) error {
	m.handler(message)
	return nil
}

// UtteranceEnd marks the end of the spoken phrase
func (m *messageCallbackHandler) UtteranceEnd(ur *msginterfaces.UtteranceEndResponse) error {
	m.utteranceEnd()
	return nil
}

// Error overrides the default handler to use our custom error handling
func (m *messageCallbackHandler) Error(errorResponse *msginterfaces.ErrorResponse) error {
	if m.errorHandler != nil {
		return m.errorHandler(errorResponse)
	}
	return m.DefaultCallbackHandler.Error(errorResponse)
}

// liveStream is the part of the Deepgram live client used for one utterance
type liveStream interface {
	Write(p []byte) (int, error)
	Finish()
}

type streamOpener func(ctx context.Context, c *transcriptCollector) (liveStream, error)

// transcriptCollector gathers final transcripts for one utterance
type transcriptCollector struct {
	mu     sync.Mutex
	finals []string
	err    error
	done   chan struct{}
	once   sync.Once
}

func newTranscriptCollector() *transcriptCollector {
	return &transcriptCollector{done: make(chan struct{})}
}

func (c *transcriptCollector) add(r *TranscriptionResult) {
	if r.IsFinal && strings.TrimSpace(r.Text) != "" {
		c.mu.Lock()
		c.finals = append(c.finals, strings.TrimSpace(r.Text))
		c.mu.Unlock()
	}
	if r.SpeechFinal {
		c.finish()
	}
}

func (c *transcriptCollector) fail(err error) {
	c.mu.Lock()
	if c.err == nil {
		c.err = err
	}
	c.mu.Unlock()
	c.finish()
}

func (c *transcriptCollector) finish() {
	c.once.Do(func() { close(c.done) })
}

func (c *transcriptCollector) text() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return strings.Join(c.finals, " ")
}

func (c *transcriptCollector) failure() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// DeepgramRecognizer captures speech from an AudioSource and transcribes it
// with Deepgram's live API. It owns its microphone and calibration state;
// one value serves one user at a time.
type DeepgramRecognizer struct {
	cfg        RecognizerConfig
	source     AudioSource
	open       streamOpener
	vad        *audio.VADDetector
	calibrated bool
	logger     zerolog.Logger
}

// NewDeepgramRecognizer creates a recognizer reading from source
func NewDeepgramRecognizer(cfg RecognizerConfig, source AudioSource) *DeepgramRecognizer {
	r := &DeepgramRecognizer{
		cfg:    cfg,
		source: source,
		vad:    audio.NewVADDetector(&cfg.VAD),
		logger: observability.GetLogger().With().Str("component", "stt.deepgram").Logger(),
	}
	r.open = r.openDeepgram
	return r
}

// Calibrate samples RecognizerConfig.Calibration of ambient audio and sets
// the speech threshold from it. Only the first call samples; later calls
// keep the threshold. A recorder that ends early calibrates on what it gave.
func (r *DeepgramRecognizer) Calibrate(ctx context.Context) error {
	if r.calibrated || r.cfg.Calibration <= 0 {
		return nil
	}

	stream, err := r.source.Open(ctx)
	if err != nil {
		return fmt.Errorf("open microphone: %w", err)
	}
	defer stream.Close()

	read := r.frameReader(ctx, ctx, stream)
	var ambient []int16
	for i := 0; i < int(r.cfg.Calibration/frameDuration); i++ {
		_, samples, err := read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		ambient = append(ambient, samples...)
	}

	level := r.vad.Calibrate(ambient)
	r.calibrated = true
	r.logger.Debug().Float64("threshold", level).Int("samples", len(ambient)).Msg("Calibrated for ambient noise")
	return nil
}

// frameReader reads one 20ms frame per call, returning the raw bytes (valid
// until the next call) and their samples. Errors after parent is done are
// parent's error; end of stream, or ctx expiring, is io.EOF.
func (r *DeepgramRecognizer) frameReader(parent, ctx context.Context, stream io.Reader) func() ([]byte, []int16, error) {
	frame := make([]byte, audio.FrameSizeFor(r.source.SampleRate())*2)
	return func() ([]byte, []int16, error) {
		if _, err := io.ReadFull(stream, frame); err != nil {
			if parent.Err() != nil {
				return nil, nil, parent.Err()
			}
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || ctx.Err() != nil {
				return nil, nil, io.EOF
			}
			return nil, nil, fmt.Errorf("read microphone: %w", err)
		}
		samples, err := audio.BytesToSamples(frame)
		return frame, samples, err
	}
}

// Listen records until a phrase has been spoken and followed by silence.
// Audio from just before the phrase is kept so the first syllable is not clipped.
func (r *DeepgramRecognizer) Listen(parent context.Context, timeout time.Duration) (*Utterance, error) {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()
	if timeout > 0 {
		var stop context.CancelFunc
		ctx, stop = context.WithTimeout(ctx, timeout+r.cfg.MaxPhrase)
		defer stop()
	}

	rate := r.source.SampleRate()
	stream, err := r.source.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("open microphone: %w", err)
	}
	defer stream.Close()

	readFrame := r.frameReader(parent, ctx, stream)

	r.vad.Reset()
	preRoll := audio.NewRingBuffer(max(audio.PCMBytes(r.cfg.PreRoll, rate), 2))
	waitFrames := int(timeout / frameDuration)
	maxFrames := int(r.cfg.MaxPhrase / frameDuration)

	var utterance bytes.Buffer
	speaking := false
	waited, spoken := 0, 0

	for {
		frame, samples, err := readFrame()
		if err != nil {
			if speaking && errors.Is(err, io.EOF) {
				break
			}
			return nil, noSpeechOn(err)
		}

		_, started, ended := r.vad.ProcessFrame(samples)
		switch {
		case started:
			speaking = true
			utterance.Write(preRoll.Drain())
			utterance.Write(frame)
			spoken = 1
		case speaking:
			utterance.Write(frame)
			spoken++
		default:
			preRoll.Write(frame)
			waited++
			if timeout > 0 && waited >= waitFrames {
				return nil, ErrNoSpeech
			}
			continue
		}

		if ended || (maxFrames > 0 && spoken >= maxFrames) {
			break
		}
	}

	u := &Utterance{Audio: utterance.Bytes(), SampleRate: rate}
	r.logger.Debug().Dur("duration", u.Duration()).Float64("threshold", r.vad.Threshold()).Msg("Utterance captured")
	return u, nil
}

// noSpeechOn maps end of the audio stream before speech to ErrNoSpeech
func noSpeechOn(err error) error {
	if errors.Is(err, io.EOF) {
		return ErrNoSpeech
	}
	return err
}

// Recognize streams the utterance to a live transcription session and
// joins the final transcripts
func (r *DeepgramRecognizer) Recognize(ctx context.Context, u *Utterance) (string, error) {
	if u == nil || len(u.Audio) == 0 {
		return "", ErrUnintelligible
	}

	collector := newTranscriptCollector()
	stream, err := r.open(ctx, collector)
	if err != nil {
		return "", &RequestError{Err: err}
	}
	defer stream.Finish()

	chunk := audio.PCMBytes(100*time.Millisecond, u.SampleRate)
	if chunk <= 0 {
		chunk = len(u.Audio)
	}
	for off := 0; off < len(u.Audio); off += chunk {
		end := min(off+chunk, len(u.Audio))
		if _, err := stream.Write(u.Audio[off:end]); err != nil {
			return "", &RequestError{Err: fmt.Errorf("failed to send audio to Deepgram: %w", err)}
		}
	}

	timer := time.NewTimer(r.cfg.ResultTimeout)
	defer timer.Stop()

	select {
	case <-collector.done:
	case <-timer.C:
		r.logger.Debug().Msg("No end of utterance from Deepgram, using results so far")
	case <-ctx.Done():
		return "", ctx.Err()
	}

	if err := collector.failure(); err != nil {
		return "", &RequestError{Err: err}
	}

	text := collector.text()
	if text == "" {
		return "", ErrUnintelligible
	}
	return text, nil
}

// openDeepgram starts a live transcription session for 16-bit mono PCM
func (r *DeepgramRecognizer) openDeepgram(ctx context.Context, c *transcriptCollector) (liveStream, error) {
	if r.cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}

	tOptions := &interfaces.LiveTranscriptionOptions{
		Model:          r.cfg.Model,
		Language:       r.cfg.Language,
		Punctuate:      true,
		InterimResults: true,
		UtteranceEndMs: "1000",
		VadEvents:      true,
		Encoding:       "linear16",
		Channels:       1,
		SampleRate:     r.source.SampleRate(),
	}

	callback := &messageCallbackHandler{
		DefaultCallbackHandler: websocketv1api.NewDefaultCallbackHandler(),
		handler: func(msg *msginterfaces.MessageResponse) {
			if res := toResult(msg); res != nil {
				c.add(res)
			}
		},
		errorHandler: func(errorResponse *msginterfaces.ErrorResponse) error {
			r.logger.Error().Interface("response", errorResponse).Msg("Deepgram error")
			observability.RecordError("deepgram", "stt")
			c.fail(fmt.Errorf("deepgram error: %+v", errorResponse))
			return nil
		},
		utteranceEnd: c.finish,
	}

	client, err := listenClient.NewWSUsingCallback(ctx, r.cfg.APIKey, nil, tOptions, callback)
	if err != nil {
		return nil, fmt.Errorf("failed to create Deepgram client: %w", err)
	}
	if !client.Connect() {
		return nil, errors.New("failed to connect to Deepgram")
	}

	r.logger.Debug().Str("model", r.cfg.Model).Str("language", r.cfg.Language).Msg("Deepgram session started")
	return client, nil
}

// toResult extracts the best alternative from a results message
func toResult(msg *msginterfaces.MessageResponse) *TranscriptionResult {
	if msg == nil || len(msg.Channel.Alternatives) == 0 {
		return nil
	}
	alt := msg.Channel.Alternatives[0]
	return &TranscriptionResult{
		Text:        alt.Transcript,
		IsFinal:     msg.IsFinal,
		SpeechFinal: msg.SpeechFinal,
		Confidence:  alt.Confidence,
	}
}
