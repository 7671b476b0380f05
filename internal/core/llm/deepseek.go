package llm

import (
	openai "github.com/sashabaranov/go-openai"
)

// NewDeepSeekProvider creates a provider backed by DeepSeek's
// OpenAI-compatible API.
func NewDeepSeekProvider(apiKey, model string, temperature float32, maxTokens int) *OpenAIProvider {
	if model == "" {
		model = "deepseek-chat"
	}

	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = "https://api.deepseek.com/v1"

	return newProvider(openai.NewClientWithConfig(cfg), "DeepSeek", model, temperature, maxTokens)
}
