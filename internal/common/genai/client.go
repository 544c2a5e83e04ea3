// Package genai is the HTTP client for the completion service.
package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"nlq-workers/internal/common/config"
)

var (
	ErrLLMTimeout          = errors.New("LLM_TIMEOUT")
	ErrLLMGenerationFailed = errors.New("LLM_GENERATION_FAILED")
)

type Client struct {
	baseURL     string
	apiKey      string
	maxTokens   int
	temperature float64
	maxRetries  int
	backoff     time.Duration
	httpClient  *http.Client
}

type generateRequest struct {
	Prompt      string            `json:"prompt"`
	Template    string            `json:"template"`
	Variables   map[string]string `json:"variables"`
	MaxTokens   int               `json:"max_tokens"`
	Temperature float64           `json:"temperature"`
}

type generateResponse struct {
	Text string `json:"text"`
}

// NewClient returns nil when no base URL is configured, which leaves the generator disabled.
func NewClient(cfg config.GenAIConfig) *Client {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil
	}
	return &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:      cfg.APIKey,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		maxRetries:  cfg.MaxRetries,
		backoff:     100 * time.Millisecond,
		// deadlines come from the caller's context
		httpClient: &http.Client{},
	}
}

// Complete renders template locally, sends both forms and returns the raw completion text.
// 5xx responses and transport errors are retried with exponential backoff.
func (c *Client) Complete(ctx context.Context, template string, vars map[string]string) (string, error) {
	body, err := json.Marshal(generateRequest{
		Prompt:      RenderPrompt(template, vars),
		Template:    template,
		Variables:   vars,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrLLMGenerationFailed, err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(c.backoff * time.Duration(1<<(attempt-1))):
			case <-ctx.Done():
				return "", ErrLLMTimeout
			}
		}

		text, retry, err := c.post(ctx, body)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return "", ErrLLMTimeout
		}
		if !retry {
			break
		}
	}
	return "", fmt.Errorf("%w: %v", ErrLLMGenerationFailed, lastErr)
}

func (c *Client) post(ctx context.Context, body []byte) (string, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/ai/generate", bytes.NewReader(body))
	if err != nil {
		return "", false, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", true, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", resp.StatusCode >= 500, fmt.Errorf("status %d", resp.StatusCode)
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", false, fmt.Errorf("decode response: %w", err)
	}
	return out.Text, false, nil
}
