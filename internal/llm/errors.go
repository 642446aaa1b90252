package llm

import "fmt"

// APIError represents an error returned by an LLM provider API.
type APIError struct {
	// Provider is the name of the LLM provider (openai, anthropic).
	Provider string
	// StatusCode is the HTTP status code, or 0 for network-level failures.
	StatusCode int
	// Message is the human-readable error message from the provider.
	Message string
	// Type is the provider-specific error type, when available.
	Type string
	// Code is the provider-specific error code, when available.
	Code string
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s: %s", e.Provider, e.Message)
	}
	return fmt.Sprintf("%s: HTTP %d: %s", e.Provider, e.StatusCode, e.Message)
}

// IsTransient reports whether the error is worth retrying. Network failures,
// rate limits, and server-side errors are transient; client errors are not.
func (e *APIError) IsTransient() bool {
	if e.StatusCode == 0 {
		return true
	}
	if e.StatusCode == 429 {
		return true
	}
	return e.StatusCode >= 500
}

// isTransientError reports whether err is an APIError that IsTransient.
func isTransientError(err error) bool {
	apiErr, ok := err.(*APIError)
	if !ok {
		return false
	}
	return apiErr.IsTransient()
}
