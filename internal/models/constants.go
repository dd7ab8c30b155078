// Package models contains data types and constants for the voice chat client.
package models

import "time"

// Defaults for the chat backend.
const (
	DefaultServerURL = "http://localhost:3000"
	DefaultEndpoint  = "/api/chat"
)

// FallbackReply is appended and spoken when a chat turn fails.
const FallbackReply = "Sorry, I encountered an error. Please try again."

// Speaking-flag heuristics used when a synthesizer cannot report completion.
const (
	SpeakingPerChar       = 50 * time.Millisecond
	SpeakingFallbackDelay = 3 * time.Second
)

// Recognition and synthesis defaults.
const (
	DefaultLocale = "en-US"
	DefaultRate   = 0.9
	DefaultPitch  = 1.0
	DefaultVolume = 1.0
)

// AppName is shown in the TUI header.
const AppName = "ALOK AI Voice Assistant"

// AssistantName labels assistant replies.
const AssistantName = "ALOK"
