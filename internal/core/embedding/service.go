package embedding

import (
	"context"
	"errors"
	"time"
)

// Service wraps a Provider with a bounded timeout and a single retry for
// transient failures. The same Service instance must back both ingestion and
// query-time search.
type Service struct {
	provider Provider
	timeout  time.Duration
}

// NewService creates an embedding service around a provider.
func NewService(provider Provider, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Service{provider: provider, timeout: timeout}
}

// Embed generates one embedding with timeout and one retry on model
// unavailability.
func (s *Service) Embed(ctx context.Context, text string) ([]float32, error) {
	vec, err := s.embedOnce(ctx, text)
	if err != nil && errors.Is(err, ErrModelUnavailable) && ctx.Err() == nil {
		vec, err = s.embedOnce(ctx, text)
	}
	return vec, err
}

func (s *Service) embedOnce(ctx context.Context, text string) ([]float32, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.provider.GenerateEmbedding(callCtx, text)
}

// EmbedBatch generates embeddings for many texts. Batch calls are used by the
// offline ingestion path, so the timeout scales with the batch size.
func (s *Service) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	timeout := s.timeout * time.Duration(len(texts))
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return s.provider.GenerateBatchEmbeddings(callCtx, texts)
}

// Dimensions returns the vector dimension of the underlying model.
func (s *Service) Dimensions() int {
	return s.provider.GetDimensions()
}

// ProviderName returns the underlying provider name for logging.
func (s *Service) ProviderName() string {
	return s.provider.GetProviderName()
}
