// Package main provides the voice assistant CLI.
//
// Usage:
//
//	assistant [flags] <command> [args]
//
// Commands:
//
//	speak   - Speak text through streaming text-to-speech
//	listen  - Capture one spoken phrase and print the transcript
//	files   - Create, read and list files
//	serve   - Run the HTTP service (health, metrics, speak)
//
// Configuration is read from the environment and an optional .env file.
package main

import (
	"fmt"
	"os"

	"github.com/lexiqai/voice-assistant/cmd/assistant/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
