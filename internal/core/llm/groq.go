package llm

import (
	openai "github.com/sashabaranov/go-openai"
)

// NewGroqProvider creates a provider backed by Groq's OpenAI-compatible API.
func NewGroqProvider(apiKey, model string, temperature float32, maxTokens int) *OpenAIProvider {
	if model == "" {
		model = "llama-3.1-70b-versatile"
	}

	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = "https://api.groq.com/openai/v1"

	return newProvider(openai.NewClientWithConfig(cfg), "Groq", model, temperature, maxTokens)
}
