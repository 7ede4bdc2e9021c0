// Package llm defines the generative-text collaborator and its Gemini
// implementation.
package llm

import "context"

// Client is the generation backend. Implementations make no guarantee
// about the structure of the returned text; callers parse it best-effort.
type Client interface {
	// Generate sends a prompt and returns the model's text answer.
	Generate(ctx context.Context, prompt string) (string, error)

	// Name returns the provider name (e.g., "gemini").
	Name() string
}
