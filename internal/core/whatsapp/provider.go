package whatsapp

import (
	"context"
	"fmt"
)

// Provider is the outbound delivery interface. Sends are fire-and-forget
// from the pipeline's perspective: failures are logged, never retried here.
type Provider interface {
	// SendText sends a plain text message to a phone number.
	SendText(ctx context.Context, to, text string) error

	// SendImage sends an image by URL with an optional caption.
	SendImage(ctx context.Context, to, imageURL, caption string) error

	// GetProviderName returns the provider name for logging.
	GetProviderName() string
}

// ProviderType selects a backend in the factory.
type ProviderType string

const (
	ProviderCloudAPI ProviderType = "cloudapi"
	ProviderMock     ProviderType = "mock"
)

// ProviderConfig configures the factory.
type ProviderConfig struct {
	Type ProviderType

	PhoneID     string
	AccessToken string
	APIVersion  string
}

// NewProvider creates an outbound provider from config.
func NewProvider(cfg ProviderConfig) (Provider, error) {
	switch cfg.Type {
	case ProviderCloudAPI, "":
		return NewCloudAPIProvider(CloudAPIConfig{
			PhoneID:     cfg.PhoneID,
			AccessToken: cfg.AccessToken,
			APIVersion:  cfg.APIVersion,
		})

	case ProviderMock:
		return NewMockProvider(), nil

	default:
		return nil, fmt.Errorf("unknown whatsapp provider type: %s", cfg.Type)
	}
}
