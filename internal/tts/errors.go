package tts

import (
	"errors"
	"fmt"
)

// ErrConfigurationMissing is returned when no API key is configured.
// The session prints the text instead and never connects.
var ErrConfigurationMissing = errors.New("tts: API key not configured")

// ConnectionError reports a failed handshake or a transport failure while sending
type ConnectionError struct {
	// Op is the operation that failed: dial, init, send
	Op string

	// StatusCode is the HTTP status of a rejected handshake, 0 otherwise
	StatusCode int

	Err error
}

func (e *ConnectionError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("tts %s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("tts %s: %v", e.Op, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// ProtocolError reports a malformed or error message from the server, or an
// unexpected disconnect mid-stream
type ProtocolError struct {
	Reason string
	Err    error
}

func (e *ProtocolError) Error() string {
	if e.Err == nil {
		return "tts protocol: " + e.Reason
	}
	return fmt.Sprintf("tts protocol: %s: %v", e.Reason, e.Err)
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}
