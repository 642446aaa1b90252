package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultAnthropicBaseURL = "https://api.anthropic.com"
	defaultAnthropicModel   = "claude-3-5-sonnet-20241022"
	anthropicVersion        = "2023-06-01"
	anthropicMaxTokens      = 1024
)

// AnthropicConfig holds the settings for the Anthropic completion client.
type AnthropicConfig struct {
	APIKey      string
	Model       string
	BaseURL     string
	Temperature float64
	Timeout     time.Duration
	MaxRetries  int
	RetryDelay  time.Duration
}

// AnthropicProvider implements Completer using the Anthropic messages API.
type AnthropicProvider struct {
	config     AnthropicConfig
	httpClient *http.Client
}

var _ Completer = (*AnthropicProvider)(nil)

// NewAnthropicProvider creates an Anthropic completion client.
func NewAnthropicProvider(cfg AnthropicConfig) (*AnthropicProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic: API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = defaultAnthropicModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultAnthropicBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 2 * time.Second
	}
	return &AnthropicProvider{
		config:     cfg,
		httpClient: newHTTPClient(cfg.Timeout),
	}, nil
}

// Provider returns "anthropic".
func (p *AnthropicProvider) Provider() string { return "anthropic" }

// Model returns the configured model identifier.
func (p *AnthropicProvider) Model() string { return p.config.Model }

type messagesRequest struct {
	Model       string           `json:"model"`
	MaxTokens   int              `json:"max_tokens"`
	System      string           `json:"system,omitempty"`
	Messages    []messageContent `json:"messages"`
	Temperature float64          `json:"temperature"`
}

type messageContent struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content    []contentBlock `json:"content"`
	StopReason string         `json:"stop_reason"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type anthropicErrorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Complete sends the prompts to the messages endpoint and returns the text
// of the first text content block. Transient errors are retried with
// exponential backoff.
func (p *AnthropicProvider) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= p.config.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := p.config.RetryDelay * time.Duration(1<<(attempt-1))
			if err := waitForRetry(ctx, delay); err != nil {
				return "", err
			}
		}

		content, err := p.sendRequest(ctx, systemPrompt, userPrompt)
		if err == nil {
			return content, nil
		}
		lastErr = err
		if !isTransientError(err) {
			return "", err
		}
	}
	return "", fmt.Errorf("anthropic: all %d attempts failed: %w", p.config.MaxRetries+1, lastErr)
}

func (p *AnthropicProvider) sendRequest(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	reqBody := messagesRequest{
		Model:     p.config.Model,
		MaxTokens: anthropicMaxTokens,
		System:    systemPrompt,
		Messages: []messageContent{
			{Role: "user", Content: userPrompt},
		},
		Temperature: p.config.Temperature,
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("anthropic: marshal request: %w", err)
	}

	url := strings.TrimRight(p.config.BaseURL, "/") + "/v1/messages"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("anthropic: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", p.config.APIKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", &APIError{
			Provider:   "anthropic",
			StatusCode: 0,
			Message:    err.Error(),
			Type:       "network_error",
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return "", fmt.Errorf("anthropic: read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", parseAnthropicAPIError(resp.StatusCode, body)
	}

	var msgResp messagesResponse
	if err := json.Unmarshal(body, &msgResp); err != nil {
		return "", fmt.Errorf("anthropic: decode response: %w", err)
	}
	for _, block := range msgResp.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("anthropic: response contained no text content")
}

func parseAnthropicAPIError(statusCode int, body []byte) *APIError {
	apiErr := &APIError{
		Provider:   "anthropic",
		StatusCode: statusCode,
		Message:    http.StatusText(statusCode),
	}
	var errResp anthropicErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		apiErr.Message = errResp.Error.Message
		apiErr.Type = errResp.Error.Type
	}
	return apiErr
}
