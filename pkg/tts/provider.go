package tts

import (
	"context"
)

const (
	// MinAudioSize is the minimum size of a plausible synthesis result.
	// Smaller payloads are treated as failed attempts.
	MinAudioSize = 1024
)

// Provider defines the interface for Text-To-Speech engines.
type Provider interface {
	// Synthesize generates audio for text in the given language and
	// returns the payload with its content type.
	Synthesize(ctx context.Context, text, lang string) ([]byte, string, error)
}
