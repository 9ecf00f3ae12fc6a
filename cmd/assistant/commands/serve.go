package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/lexiqai/voice-assistant/internal/config"
	"github.com/lexiqai/voice-assistant/internal/console"
	"github.com/lexiqai/voice-assistant/internal/files"
	"github.com/lexiqai/voice-assistant/internal/observability"
	"github.com/lexiqai/voice-assistant/internal/resilience"
	"github.com/lexiqai/voice-assistant/internal/tts"
)

const version = "0.1.0"

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP service",
	Long: `Run the HTTP service.

Endpoints:
  GET  /health    liveness
  GET  /ready     dependency readiness
  GET  /metrics   Prometheus metrics (METRICS_ENABLED)
  POST /speak         speak {"text": "..."} on this host's audio output
  POST /files/read    read {"paths": [...], "recursive": bool} into the content store
  POST /files/create  create {"files": [{"path": ..., "content": ...}]}
  GET  /files         stored file contents, least recently used first
  DELETE /files?path= drop one file from the content store`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		return serve(cmd.Context(), cfg)
	},
}

func serve(parent context.Context, cfg *config.Config) error {
	logger := observability.GetLogger()

	logger.Info().
		Str("port", cfg.Port).
		Str("log_level", cfg.LogLevel).
		Bool("tts_enabled", cfg.TTSEnabled()).
		Bool("metrics_enabled", cfg.MetricsEnabled).
		Msg("Voice assistant service starting")

	workspace, err := files.NewWorkspace(cfg.FileCacheSize)
	if err != nil {
		return err
	}

	breaker := newBreaker(cfg)
	mux := newServeMux(cfg, breaker, workspace, func(out *console.Console) *tts.Synthesizer {
		return newSynthesizer(cfg, out, breaker)
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute, // speech plays before the response is written
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info().Str("port", cfg.Port).Msg("Server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	ctx, stop := signalContext(parent)
	defer stop()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed to start: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info().Msg("Server exited gracefully")
	return nil
}

// newServeMux registers the service endpoints. synth builds a synthesizer
// printing to the given console so each request captures its own output.
// workspace is the content store shared by every request for the process.
func newServeMux(cfg *config.Config, breaker *resilience.CircuitBreaker, workspace *files.Workspace, synth func(*console.Console) *tts.Synthesizer) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", observability.HealthCheckHandler(version))

	elevenLabsCheck := func(ctx context.Context) (bool, error) {
		if !cfg.TTSEnabled() {
			return false, errors.New("ELEVEN_LABS_API_KEY not set, text will be printed")
		}
		state, requests, failures, rate := breaker.GetStats()
		if state == resilience.StateOpen {
			return false, fmt.Errorf("circuit breaker open: %d of %d connection attempts failed (%.0f%%)", failures, requests, rate)
		}
		return true, nil
	}
	deepgramCheck := func(ctx context.Context) (bool, error) {
		if cfg.DeepgramAPIKey == "" {
			return false, errors.New("DEEPGRAM_API_KEY not set")
		}
		return true, nil
	}
	mux.HandleFunc("/ready", observability.ReadinessHandler(version,
		observability.NamedCheck{Name: "elevenlabs", Check: elevenLabsCheck},
		observability.NamedCheck{Name: "deepgram", Check: deepgramCheck},
	))

	if cfg.MetricsEnabled {
		mux.Handle("/metrics", promhttp.Handler())
		observability.GetLogger().Info().Msg("Prometheus metrics enabled at /metrics")
	}

	mux.HandleFunc("/speak", speakHandler(synth))

	mux.HandleFunc("POST /files/read", filesReadHandler(workspace))
	mux.HandleFunc("POST /files/create", filesCreateHandler(workspace))
	mux.HandleFunc("GET /files", filesContentsHandler(workspace))
	mux.HandleFunc("DELETE /files", filesForgetHandler(workspace))
	return mux
}

type speakRequest struct {
	Text string `json:"text"`
}

type speakResponse struct {
	SessionID string `json:"session_id"`
	State     string `json:"state"`
	Frames    int64  `json:"frames"`
	Spoken    bool   `json:"spoken"`
	Output    string `json:"output,omitempty"`
	Error     string `json:"error,omitempty"`
}

// speakHandler runs one session per request. There is one audio output,
// so requests are served one at a time; a request whose client gives up
// while waiting is dropped without speaking.
func speakHandler(synth func(*console.Console) *tts.Synthesizer) http.HandlerFunc {
	turn := make(chan struct{}, 1)

	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req speakRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, fmt.Sprintf("invalid request: %v", err), http.StatusBadRequest)
			return
		}

		select {
		case turn <- struct{}{}:
			defer func() { <-turn }()
		case <-r.Context().Done():
			http.Error(w, "request cancelled while waiting for the speaker", http.StatusServiceUnavailable)
			return
		}
		if r.Context().Err() != nil {
			http.Error(w, "request cancelled while waiting for the speaker", http.StatusServiceUnavailable)
			return
		}

		var output bytes.Buffer
		session := synth(console.New(&output)).NewSession(req.Text)
		err := session.Run(r.Context())

		resp := speakResponse{
			SessionID: session.ID(),
			State:     session.State().String(),
			Frames:    session.Frames(),
			Spoken:    err == nil && session.Frames() > 0,
			Output:    strings.TrimRight(output.String(), "\n"),
		}
		if err != nil {
			resp.Error = err.Error()
		}

		writeJSON(w, resp)
	}
}

type filesReadRequest struct {
	Paths     []string `json:"paths"`
	Recursive bool     `json:"recursive"`
}

type filesCreateRequest struct {
	Files []files.FileSpec `json:"files"`
}

type filesResponse struct {
	Output string       `json:"output,omitempty"`
	Count  int          `json:"count"`
	Files  []files.File `json:"files,omitempty"`
}

func filesReadHandler(workspace *files.Workspace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req filesReadRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Paths) == 0 {
			http.Error(w, "invalid request: paths required", http.StatusBadRequest)
			return
		}
		output := workspace.ReadFiles(req.Paths, req.Recursive)
		writeJSON(w, filesResponse{Output: output, Count: workspace.Len()})
	}
}

func filesCreateHandler(workspace *files.Workspace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req filesCreateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Files) == 0 {
			http.Error(w, "invalid request: files required", http.StatusBadRequest)
			return
		}
		output := workspace.CreateFiles(req.Files)
		writeJSON(w, filesResponse{Output: output, Count: workspace.Len()})
	}
}

func filesContentsHandler(workspace *files.Workspace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		contents := workspace.Contents()
		writeJSON(w, filesResponse{Count: len(contents), Files: contents})
	}
}

func filesForgetHandler(workspace *files.Workspace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Query().Get("path")
		if path == "" {
			http.Error(w, "path required", http.StatusBadRequest)
			return
		}
		if !workspace.Forget(path) {
			http.Error(w, fmt.Sprintf("'%s' is not in the content store", path), http.StatusNotFound)
			return
		}
		writeJSON(w, filesResponse{Count: workspace.Len()})
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(v)
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
