package llm

import (
	"context"
)

// Provider defines the interface for interacting with LLM services.
type Provider interface {
	// GenerateText sends a prompt and returns the text response.
	GenerateText(ctx context.Context, prompt string) (string, error)

	// GenerateJSON sends a prompt and unmarshals the response into the
	// target struct.
	GenerateJSON(ctx context.Context, prompt string, target any) error
}
