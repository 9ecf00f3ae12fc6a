package tts

// Voices maps friendly preset names to ElevenLabs voice IDs
var Voices = map[string]string{
	"rachel":    "21m00Tcm4TlvDq8ikWAM", // American female, calm
	"charlotte": "XB0fDUnXU5powFXDhCwa", // British female, warm
	"aria":      "9BWtsMINqrJLrRacOk9x", // American female, expressive
	"sarah":     "EXAVITQu4vr4xnSDxMaL", // American female, soft
	"lily":      "pFZP5JQG7iQjIQuC4Bku", // British female, warm
	"domi":      "AZnzlk1XvdvUeBnXmlld", // American female, strong
	"elli":      "MF3mGyEYCl7XYWbV9V6O", // American female, young
	"josh":      "TxGEqnHWrfWFTfGW9XjX", // American male, deep
	"adam":      "pNInz6obpgDQGcFmaJgB", // American male, deep
	"sam":       "yoZ06aMxZJJ28mfd3POQ", // American male, raspy
}

// DefaultVoice is used when no voice is configured
const DefaultVoice = "rachel"

// ResolveVoice returns the voice ID for a preset name, or the input
// unchanged when it is already a voice ID
func ResolveVoice(name string) string {
	if name == "" {
		name = DefaultVoice
	}
	if id, ok := Voices[name]; ok {
		return id
	}
	return name
}
