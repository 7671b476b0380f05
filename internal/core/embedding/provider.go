package embedding

import (
	"context"
	"errors"
	"fmt"
)

// ErrModelUnavailable indicates the embedding backend could not be reached or
// returned no usable vector. Callers are expected to degrade gracefully
// instead of propagating this to the end user.
var ErrModelUnavailable = errors.New("embedding model unavailable")

// Provider defines the interface for text embedding generation. Ingestion and
// query-time search must share one provider instance: mixing models makes
// similarity scores meaningless.
type Provider interface {
	// GenerateEmbedding generates an embedding vector for a single text.
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)

	// GenerateBatchEmbeddings generates embeddings for multiple texts.
	GenerateBatchEmbeddings(ctx context.Context, texts []string) ([][]float32, error)

	// GetDimensions returns the dimension size of the embeddings.
	GetDimensions() int

	// GetProviderName returns the provider name.
	GetProviderName() string
}

// ProviderConfig selects and configures an embedding provider.
type ProviderConfig struct {
	Type          string // "ollama" or "openai"
	OllamaBaseURL string
	OllamaModel   string
	OpenAIKey     string
	OpenAIModel   string
	Dimensions    int
}

// NewProvider is the factory for embedding providers.
func NewProvider(cfg ProviderConfig) (Provider, error) {
	switch cfg.Type {
	case "ollama", "":
		return NewOllamaProvider(cfg.OllamaBaseURL, cfg.OllamaModel, cfg.Dimensions), nil

	case "openai":
		return NewOpenAIProvider(cfg.OpenAIKey, cfg.OpenAIModel)

	default:
		return nil, fmt.Errorf("unknown embedding provider type: %s", cfg.Type)
	}
}
