package analyzer

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// judgementTemperature keeps model output close to reproducible; the
// deterministic fallback remains the authoritative safety net either way.
const judgementTemperature = 0.1

// ModelClient is the swappable AI model boundary. Tests substitute a stub.
type ModelClient interface {
	Judge(ctx context.Context, system, prompt string) (string, error)
}

// OpenAIClient calls a chat-completion model and requests a JSON object reply.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

type OpenAIOptions struct {
	APIKey  string
	Model   string
	BaseURL string
}

func NewOpenAIClient(opts OpenAIOptions) (*OpenAIClient, error) {
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("model API key is empty")
	}

	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = openai.GPT4oMini
	}

	clientConfig := openai.DefaultConfig(apiKey)
	if baseURL := strings.TrimSpace(opts.BaseURL); baseURL != "" {
		clientConfig.BaseURL = baseURL
	}

	return &OpenAIClient{
		client: openai.NewClientWithConfig(clientConfig),
		model:  model,
	}, nil
}

func (c *OpenAIClient) Judge(ctx context.Context, system, prompt string) (string, error) {
	if c == nil || c.client == nil {
		return "", fmt.Errorf("model client is not initialized")
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: judgementTemperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("model call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("model returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
