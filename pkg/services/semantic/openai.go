package semantic

import (
	"context"
	"fmt"

	"github.com/de-tools/redflag/pkg/services/config"
	"github.com/sashabaranov/go-openai"
)

// OpenAICompleter calls the chat completions API in JSON object mode.
type OpenAICompleter struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
}

func NewOpenAICompleter(pc config.ProviderConfig) *OpenAICompleter {
	cfg := openai.DefaultConfig(pc.APIKey)
	if pc.BaseURL != "" {
		cfg.BaseURL = pc.BaseURL
	}
	return &OpenAICompleter{
		client:      openai.NewClientWithConfig(cfg),
		model:       pc.Model,
		maxTokens:   pc.MaxTokens,
		temperature: pc.Temperature,
	}
}

func (o *OpenAICompleter) Complete(ctx context.Context, prompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature:         o.temperature,
		MaxCompletionTokens: o.maxTokens,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("openai API call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
