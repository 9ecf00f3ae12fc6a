package observability

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TTS session metrics
	activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "voice_assistant_tts_active_sessions",
		Help: "Number of streaming TTS sessions in progress",
	})

	sessionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voice_assistant_tts_sessions_total",
		Help: "Total number of streaming TTS sessions by outcome",
	}, []string{"outcome"}) // outcome: done, failed

	sessionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "voice_assistant_tts_session_duration_seconds",
		Help:    "Duration of streaming TTS sessions in seconds",
		Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60},
	})

	firstFrameLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "voice_assistant_tts_first_frame_seconds",
		Help:    "Time from connect to the first audio frame",
		Buckets: []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0},
	})

	textChunksSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voice_assistant_tts_text_chunks_total",
		Help: "Total number of text chunks sent to the TTS service",
	})

	fallbacksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voice_assistant_tts_fallbacks_total",
		Help: "Total number of times text was printed instead of spoken",
	}, []string{"reason"})

	// Relay metrics
	framesRelayed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voice_assistant_audio_frames_total",
		Help: "Total number of audio frames forwarded to a player",
	})

	audioBytesRelayed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voice_assistant_audio_bytes_total",
		Help: "Total audio bytes forwarded to a player",
	}, []string{"path"}) // path: stream, fallback

	// Capture metrics
	captureAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voice_assistant_capture_attempts_total",
		Help: "Total speech capture attempts by result",
	}, []string{"result"})

	// File helper metrics
	fileOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voice_assistant_file_operations_total",
		Help: "Total file helper operations",
	}, []string{"op", "status"})

	// Error metrics
	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voice_assistant_errors_total",
		Help: "Total number of errors",
	}, []string{"type", "component"})

	// Circuit breaker metrics
	circuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "voice_assistant_circuit_breaker_state",
		Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
	}, []string{"service"})

	circuitBreakerFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voice_assistant_circuit_breaker_failures_total",
		Help: "Total circuit breaker failures",
	}, []string{"service"})
)

// SessionMetrics tracks metrics for a single TTS session
type SessionMetrics struct {
	sessionID  string
	startTime  time.Time
	connected  time.Time
	firstFrame bool
	mu         sync.Mutex
}

// NewSessionMetrics creates a new metrics tracker for a session
func NewSessionMetrics(sessionID string) *SessionMetrics {
	return &SessionMetrics{
		sessionID: sessionID,
		startTime: time.Now(),
	}
}

// RecordSessionStart records the start of a session
func (m *SessionMetrics) RecordSessionStart() {
	activeSessions.Inc()
}

// RecordConnected marks the moment the socket handshake completed
func (m *SessionMetrics) RecordConnected() {
	m.mu.Lock()
	m.connected = time.Now()
	m.mu.Unlock()
}

// RecordSessionEnd records the end of a session
func (m *SessionMetrics) RecordSessionEnd(success bool) {
	activeSessions.Dec()
	sessionDuration.Observe(time.Since(m.startTime).Seconds())

	outcome := "done"
	if !success {
		outcome = "failed"
	}
	sessionsTotal.WithLabelValues(outcome).Inc()
}

// RecordChunkSent records one text chunk written to the socket
func (m *SessionMetrics) RecordChunkSent() {
	textChunksSent.Inc()
}

// RecordFrameReceived records one decoded audio frame
func (m *SessionMetrics) RecordFrameReceived() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.firstFrame && !m.connected.IsZero() {
		firstFrameLatency.Observe(time.Since(m.connected).Seconds())
	}
	m.firstFrame = true
}

// RecordFallback records that text was printed instead of spoken
func (m *SessionMetrics) RecordFallback(reason string) {
	fallbacksTotal.WithLabelValues(reason).Inc()
}

// RecordError records an error
func (m *SessionMetrics) RecordError(errorType, component string) {
	RecordError(errorType, component)
}

// RecordError records an error outside of a session
func RecordError(errorType, component string) {
	errorsTotal.WithLabelValues(errorType, component).Inc()
}

// RecordFrameRelayed records a frame handed to a player
func RecordFrameRelayed(path string, bytes int) {
	framesRelayed.Inc()
	audioBytesRelayed.WithLabelValues(path).Add(float64(bytes))
}

// RecordCaptureAttempt records the result of one speech capture attempt
func RecordCaptureAttempt(result string) {
	captureAttempts.WithLabelValues(result).Inc()
}

// RecordFileOperation records one file helper operation
func RecordFileOperation(op string, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	fileOperations.WithLabelValues(op, status).Inc()
}

// UpdateCircuitBreakerState updates circuit breaker state metric
func UpdateCircuitBreakerState(service string, state int) {
	circuitBreakerState.WithLabelValues(service).Set(float64(state))
}

// IncrementCircuitBreakerFailures increments circuit breaker failure counter
func IncrementCircuitBreakerFailures(service string) {
	circuitBreakerFailures.WithLabelValues(service).Inc()
}
