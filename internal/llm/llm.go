// Package llm wraps external text-completion services. The orchestration
// core treats them as opaque collaborators: a prompt goes in, text comes
// out, and every failure is mapped to templated output by the caller.
package llm

import (
	"context"
	"time"
)

// Completer is an opaque text-completion service.
type Completer interface {
	ID() string
	Complete(ctx context.Context, prompt string) (string, error)
}

// Config holds the settings for one completion backend.
type Config struct {
	ID       string        `json:"id"`
	Type     string        `json:"type"` // gemini | openai
	Endpoint string        `json:"endpoint"`
	APIKey   string        `json:"api_key"`
	Model    string        `json:"model"`
	Timeout  time.Duration `json:"timeout,omitempty"`
}
