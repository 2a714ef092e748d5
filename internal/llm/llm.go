// Package llm abstracts the language-model completion service.
package llm

import (
	"context"
	"errors"
)

// ErrEmptyResponse is returned when the provider answers without any text.
var ErrEmptyResponse = errors.New("empty completion")

// Request is a single chat completion: one system message and one user message.
type Request struct {
	System string
	User   string

	// Temperature bounds creativity, typically 0 to 1.
	Temperature float64

	// MaxTokens caps the reply length. Zero leaves the provider default.
	MaxTokens int
}

// Completer abstracts an LLM provider.
// Implementations must be concurrency-safe; each Complete call is attempted
// exactly once, with no retries.
type Completer interface {
	// Complete returns the generated text for req.
	Complete(ctx context.Context, req Request) (string, error)

	// Name returns a short provider label for logs and metrics (e.g. "openai").
	Name() string
}
