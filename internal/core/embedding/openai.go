package embedding

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIProvider implements Provider using the OpenAI embeddings API.
type OpenAIProvider struct {
	client *openai.Client
	model  string
	dims   int
}

// NewOpenAIProvider creates a new OpenAI embedding provider.
// Default model: text-embedding-3-small (1536 dimensions).
func NewOpenAIProvider(apiKey string, model string) (*OpenAIProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	if model == "" {
		model = "text-embedding-3-small"
	}

	dims := 1536
	switch model {
	case "text-embedding-3-small", "text-embedding-ada-002":
		dims = 1536
	case "text-embedding-3-large":
		dims = 3072
	}

	return &OpenAIProvider{
		client: openai.NewClient(apiKey),
		model:  model,
		dims:   dims,
	}, nil
}

// GenerateEmbedding generates an embedding for a single text.
func (p *OpenAIProvider) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}

	resp, err := p.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(p.model),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}

	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("%w: no embedding returned", ErrModelUnavailable)
	}

	return resp.Data[0].Embedding, nil
}

// GenerateBatchEmbeddings generates embeddings for multiple texts.
func (p *OpenAIProvider) GenerateBatchEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("texts cannot be empty")
	}

	resp, err := p.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(p.model),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}

	embeddings := make([][]float32, len(resp.Data))
	for i, data := range resp.Data {
		embeddings[i] = data.Embedding
	}
	return embeddings, nil
}

// GetDimensions returns the dimension size.
func (p *OpenAIProvider) GetDimensions() int {
	return p.dims
}

// GetProviderName returns the provider name.
func (p *OpenAIProvider) GetProviderName() string {
	return fmt.Sprintf("openai_%s", p.model)
}
