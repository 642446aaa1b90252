// Package llm provides chat-completion clients for OpenAI and Anthropic,
// plus the tag and proposal generators built on top of them.
package llm

import (
	"context"
	"net/http"
	"time"
)

// Completer is a chat-completion client. Implementations send a single
// system/user prompt pair and return the raw text of the model's reply.
type Completer interface {
	// Complete sends the prompts and returns the model's response text.
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	// Provider returns the provider name (openai, anthropic).
	Provider() string
	// Model returns the configured model identifier.
	Model() string
}

// newHTTPClient builds the shared HTTP client used by both providers.
func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

// waitForRetry sleeps for the given delay or returns early when the context
// is cancelled.
func waitForRetry(ctx context.Context, delay time.Duration) error {
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
