package llm

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIProvider implements Provider via the OpenAI chat completions API.
// Groq and DeepSeek reuse this through OpenAI-compatible base URLs.
type OpenAIProvider struct {
	client      *openai.Client
	name        string
	model       string
	temperature float32
	maxTokens   int
}

func NewOpenAIProvider(apiKey, model string, temperature float32, maxTokens int) *OpenAIProvider {
	if model == "" {
		model = "gpt-4o-mini"
	}
	return newProvider(openai.NewClient(apiKey), "OpenAI", model, temperature, maxTokens)
}

func newProvider(client *openai.Client, name, model string, temperature float32, maxTokens int) *OpenAIProvider {
	if temperature == 0 {
		temperature = 0.7
	}
	if maxTokens == 0 {
		maxTokens = 512
	}
	return &OpenAIProvider{
		client:      client,
		name:        name,
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
	}
}

func (p *OpenAIProvider) GetProviderName() string {
	return p.name
}

func (p *OpenAIProvider) GenerateChat(ctx context.Context, systemPrompt string, history []Message, userMessage string) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: systemPrompt,
	})
	for _, turn := range history {
		role := openai.ChatMessageRoleUser
		if turn.Role == RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: turn.Content})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: userMessage,
	})

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       p.model,
		Messages:    messages,
		Temperature: p.temperature,
		MaxTokens:   p.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrModelUnavailable, p.name, err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices from %s", ErrModelUnavailable, p.name)
	}

	return resp.Choices[0].Message.Content, nil
}
