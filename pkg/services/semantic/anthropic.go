package semantic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/de-tools/redflag/pkg/services/config"
)

const (
	anthropicAPIVersion     = "2023-06-01"
	anthropicDefaultBaseURL = "https://api.anthropic.com/v1/messages"
	// errorBodyLimit bounds how much of a failed response ends up in an error.
	errorBodyLimit = 512
)

type anthropicRequest struct {
	Model       string             `json:"model"`
	Messages    []anthropicMessage `json:"messages"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature *float32           `json:"temperature,omitempty"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []anthropicContent `json:"content"`
	Error   *anthropicError    `json:"error,omitempty"`
}

type anthropicContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type anthropicError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// AnthropicCompleter calls the Messages API directly over HTTP.
type AnthropicCompleter struct {
	httpClient  *http.Client
	url         string
	apiKey      string
	model       string
	maxTokens   int
	temperature float32
}

func NewAnthropicCompleter(pc config.ProviderConfig) *AnthropicCompleter {
	url := pc.BaseURL
	if url == "" {
		url = anthropicDefaultBaseURL
	}
	return &AnthropicCompleter{
		httpClient:  &http.Client{Timeout: 5 * time.Minute},
		url:         url,
		apiKey:      pc.APIKey,
		model:       pc.Model,
		maxTokens:   pc.MaxTokens,
		temperature: pc.Temperature,
	}
}

func (a *AnthropicCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	temperature := a.temperature
	payload := anthropicRequest{
		Model:       a.model,
		Messages:    []anthropicMessage{{Role: "user", Content: prompt}},
		MaxTokens:   a.maxTokens,
		Temperature: &temperature,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("x-api-key", a.apiKey)
	req.Header.Set("anthropic-version", anthropicAPIVersion)
	req.Header.Set("content-type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		snippet := respBody
		if len(snippet) > errorBodyLimit {
			snippet = snippet[:errorBodyLimit]
		}
		return "", fmt.Errorf("anthropic API returned status %d: %s", resp.StatusCode, snippet)
	}

	var parsed anthropicResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("anthropic API error (%s): %s", parsed.Error.Type, parsed.Error.Message)
	}

	var text strings.Builder
	for _, c := range parsed.Content {
		if c.Type == "text" {
			text.WriteString(c.Text)
		}
	}
	if text.Len() == 0 {
		return "", fmt.Errorf("anthropic returned no text content")
	}
	return text.String(), nil
}
