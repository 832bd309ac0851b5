package semantic

import (
	"context"
	"fmt"
	"strings"

	"github.com/de-tools/redflag/pkg/services/config"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiCompleter calls the Gemini API through the official client.
type GeminiCompleter struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

func NewGeminiCompleter(ctx context.Context, pc config.ProviderConfig) (*GeminiCompleter, error) {
	opts := []option.ClientOption{option.WithAPIKey(pc.APIKey)}
	if pc.BaseURL != "" {
		opts = append(opts, option.WithEndpoint(pc.BaseURL))
	}
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	model := client.GenerativeModel(pc.Model)
	model.SetTemperature(pc.Temperature)
	if pc.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(pc.MaxTokens))
	}
	model.ResponseMIMEType = "application/json"

	return &GeminiCompleter{client: client, model: model}, nil
}

func (g *GeminiCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini API call failed: %w", err)
	}
	return responseText(resp)
}

func (g *GeminiCompleter) Close() error {
	return g.client.Close()
}

// responseText concatenates the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("gemini returned no candidates")
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("gemini returned no text content")
	}
	return b.String(), nil
}
