package stt

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

type recordingPrinter struct {
	lines []string
	// onLine, when set, sees each line before it is recorded
	onLine func(line string)
}

func (p *recordingPrinter) add(format string, args ...any) {
	line := fmt.Sprintf(format, args...)
	if p.onLine != nil {
		p.onLine(line)
	}
	p.lines = append(p.lines, line)
}

func (p *recordingPrinter) Success(format string, args ...any) { p.add(format, args...) }
func (p *recordingPrinter) Notice(format string, args ...any)  { p.add(format, args...) }
func (p *recordingPrinter) Failure(format string, args ...any) { p.add(format, args...) }
func (p *recordingPrinter) Echo(format string, args ...any)    { p.add(format, args...) }

func (p *recordingPrinter) has(line string) bool {
	for _, l := range p.lines {
		if l == line {
			return true
		}
	}
	return false
}

// scriptedRecognizer returns one scripted outcome per attempt
type scriptedRecognizer struct {
	out           *recordingPrinter // calibration is logged here when set
	calibrateErr  error
	calibrations  int
	listenErrs    []error
	recognizeErrs []error
	text          string
	attempts      int
}

func (r *scriptedRecognizer) Calibrate(ctx context.Context) error {
	r.calibrations++
	if r.out != nil {
		r.out.lines = append(r.out.lines, "<calibrate>")
	}
	return r.calibrateErr
}

func (r *scriptedRecognizer) Listen(ctx context.Context, timeout time.Duration) (*Utterance, error) {
	i := r.attempts
	r.attempts++
	if i < len(r.listenErrs) && r.listenErrs[i] != nil {
		return nil, r.listenErrs[i]
	}
	return &Utterance{Audio: []byte{0, 0}, SampleRate: 16000}, nil
}

func (r *scriptedRecognizer) Recognize(ctx context.Context, u *Utterance) (string, error) {
	i := r.attempts - 1
	if i < len(r.recognizeErrs) && r.recognizeErrs[i] != nil {
		return "", r.recognizeErrs[i]
	}
	return r.text, nil
}

func quickConfig() CaptureConfig {
	return CaptureConfig{MaxRetries: 3, ListenTimeout: time.Second}
}

func TestVoiceInput_Success(t *testing.T) {
	rec := &scriptedRecognizer{text: "Open The Pod Bay Doors"}
	out := &recordingPrinter{}

	text, ok := VoiceInput(context.Background(), rec, quickConfig(), out)

	if !ok || text != "open the pod bay doors" {
		t.Errorf("Expected lower-cased text, got %q ok=%v", text, ok)
	}
	for _, want := range []string{"Listening... Speak now.", "Processing speech...", "You said: Open The Pod Bay Doors"} {
		if !out.has(want) {
			t.Errorf("Expected line %q, got %q", want, out.lines)
		}
	}
	if rec.attempts != 1 {
		t.Errorf("Expected 1 attempt, got %d", rec.attempts)
	}
}

func TestVoiceInput_RetriesSilenceThenSucceeds(t *testing.T) {
	rec := &scriptedRecognizer{
		listenErrs:    []error{ErrNoSpeech},
		recognizeErrs: []error{nil, ErrUnintelligible},
		text:          "hello",
	}
	out := &recordingPrinter{}

	text, ok := VoiceInput(context.Background(), rec, quickConfig(), out)

	if !ok || text != "hello" {
		t.Errorf("Expected hello, got %q ok=%v", text, ok)
	}
	if rec.attempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", rec.attempts)
	}
	if !out.has("No speech detected. Attempt 1 of 3.") {
		t.Errorf("Expected no-speech line for attempt 1, got %q", out.lines)
	}
	if !out.has("Speech was unintelligible. Attempt 2 of 3.") {
		t.Errorf("Expected unintelligible line for attempt 2, got %q", out.lines)
	}
}

func TestVoiceInput_GivesUpAfterMaxRetries(t *testing.T) {
	rec := &scriptedRecognizer{listenErrs: []error{ErrNoSpeech, ErrNoSpeech, ErrNoSpeech, nil}}
	out := &recordingPrinter{}

	text, ok := VoiceInput(context.Background(), rec, quickConfig(), out)

	if ok || text != "" {
		t.Errorf("Expected no result, got %q ok=%v", text, ok)
	}
	if rec.attempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", rec.attempts)
	}
	if !out.has("Max retries reached. Returning to text input mode.") {
		t.Errorf("Expected max retries line, got %q", out.lines)
	}
}

func TestVoiceInput_RequestErrorStopsImmediately(t *testing.T) {
	rec := &scriptedRecognizer{recognizeErrs: []error{&RequestError{Err: errors.New("401 unauthorized")}}}
	out := &recordingPrinter{}

	_, ok := VoiceInput(context.Background(), rec, quickConfig(), out)

	if ok {
		t.Error("Expected failure")
	}
	if rec.attempts != 1 {
		t.Errorf("Expected 1 attempt, got %d", rec.attempts)
	}
	if !out.has("Could not request results from speech recognition service; 401 unauthorized") {
		t.Errorf("Expected request error line, got %q", out.lines)
	}
	if out.has("Max retries reached. Returning to text input mode.") {
		t.Error("Did not expect max retries line after a request error")
	}
}

func TestVoiceInput_UnexpectedError(t *testing.T) {
	rec := &scriptedRecognizer{listenErrs: []error{errors.New("microphone unplugged")}}
	out := &recordingPrinter{}

	if _, ok := VoiceInput(context.Background(), rec, quickConfig(), out); ok {
		t.Error("Expected failure")
	}
	found := false
	for _, l := range out.lines {
		if strings.HasPrefix(l, "Unexpected error in voice input:") {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected unexpected-error line, got %q", out.lines)
	}
}

func TestVoiceInput_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rec := &scriptedRecognizer{text: "never"}
	if _, ok := VoiceInput(ctx, rec, quickConfig(), &recordingPrinter{}); ok {
		t.Error("Expected cancelled capture to fail")
	}
	if rec.attempts != 0 {
		t.Errorf("Expected no attempts after cancel, got %d", rec.attempts)
	}
}

func TestVoiceInput_CalibratesBeforePrompt(t *testing.T) {
	out := &recordingPrinter{}
	rec := &scriptedRecognizer{out: out, listenErrs: []error{ErrNoSpeech}, text: "hi"}

	if _, ok := VoiceInput(context.Background(), rec, quickConfig(), out); !ok {
		t.Fatal("Expected success")
	}
	if rec.calibrations != 1 {
		t.Errorf("Expected one calibration per capture, got %d", rec.calibrations)
	}
	if len(out.lines) < 2 || out.lines[0] != "<calibrate>" || out.lines[1] != "Listening... Speak now." {
		t.Errorf("Expected calibration before the first prompt, got %q", out.lines)
	}
}

func TestVoiceInput_CalibrationFailure(t *testing.T) {
	out := &recordingPrinter{}
	rec := &scriptedRecognizer{calibrateErr: errors.New("open microphone: arecord not found")}

	if _, ok := VoiceInput(context.Background(), rec, quickConfig(), out); ok {
		t.Error("Expected failure")
	}
	if rec.attempts != 0 {
		t.Errorf("Expected no listen attempts, got %d", rec.attempts)
	}
	if !out.has("Unexpected error in voice input: open microphone: arecord not found") {
		t.Errorf("Expected calibration error line, got %q", out.lines)
	}
	if out.has("Listening... Speak now.") {
		t.Error("Did not expect a prompt when calibration failed")
	}
}
