package tts

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// voiceSettings is the synthesis tuning sent with the first message
type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

// initMessage opens the input stream. The single space primes the model.
type initMessage struct {
	Text          string        `json:"text"`
	VoiceSettings voiceSettings `json:"voice_settings"`
	APIKey        string        `json:"xi_api_key"`
}

// chunkMessage carries one chunk of text
type chunkMessage struct {
	Text                 string `json:"text"`
	TryTriggerGeneration bool   `json:"try_trigger_generation"`
}

// closeMessage signals end of input
type closeMessage struct {
	Text string `json:"text"`
}

// serverMessage is one inbound message. Audio is base64 encoded.
type serverMessage struct {
	Audio   *string `json:"audio"`
	IsFinal bool    `json:"isFinal"`
	Error   string  `json:"error"`
	Message string  `json:"message"`
}

func newInitMessage(s Settings) initMessage {
	return initMessage{
		Text: " ",
		VoiceSettings: voiceSettings{
			Stability:       s.Stability,
			SimilarityBoost: s.SimilarityBoost,
		},
		APIKey: s.APIKey,
	}
}

// decodeServerMessage returns the audio frame carried by raw, if any, and
// whether the message marks the end of the stream
func decodeServerMessage(raw []byte) ([]byte, bool, error) {
	var msg serverMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, false, &ProtocolError{Reason: "malformed message", Err: err}
	}

	if msg.Error != "" {
		return nil, false, &ProtocolError{Reason: "server error", Err: errors.New(msg.Error + ": " + msg.Message)}
	}

	var frame []byte
	if msg.Audio != nil && *msg.Audio != "" {
		decoded, err := base64.StdEncoding.DecodeString(*msg.Audio)
		if err != nil {
			return nil, false, &ProtocolError{Reason: "invalid audio payload", Err: err}
		}
		frame = decoded
	}

	return frame, msg.IsFinal, nil
}

// Endpoint builds the stream-input URL for a voice and model
func Endpoint(baseURL, voiceID, modelID string) string {
	base := strings.TrimRight(baseURL, "/")
	u := fmt.Sprintf("%s/%s/stream-input", base, url.PathEscape(ResolveVoice(voiceID)))
	if modelID != "" {
		u += "?model_id=" + url.QueryEscape(modelID)
	}
	return u
}
