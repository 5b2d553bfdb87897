// Package llm wraps text-generation providers behind a single Complete call.
package llm

import (
	"context"
	"time"
)

// Client generates text for a prompt.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Request is one prompt plus its sampling parameters.
type Request struct {
	System      string
	Prompt      string
	Temperature float64
	MaxTokens   int
}

// Config selects and configures a provider.
type Config struct {
	Provider    string
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
	// BaseURL overrides the provider endpoint, mainly for tests.
	BaseURL string
	Timeout time.Duration
}
