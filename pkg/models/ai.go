// Package models contains shared data models used across the contentdesk codebase.
package models

import "context"

// TextGenerator is the core interface that all LLM integrations must implement.
// Never call specific AI providers directly; always inject this interface.
type TextGenerator interface {
	// Generate returns the model's completion for a single user prompt.
	Generate(ctx context.Context, req CompletionRequest) (string, error)
	// Name returns the provider identifier (e.g., "openai", "anthropic").
	Name() string
}

// CompletionRequest is the input to a single text generation call.
type CompletionRequest struct {
	Prompt      string
	MaxTokens   int
	Temperature float64
}
