package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// CloudAPIProvider sends messages through the WhatsApp Cloud API
// (graph.facebook.com). Inbound traffic arrives separately through the
// webhook handler; this type only covers the send direction.
type CloudAPIProvider struct {
	baseURL     string
	phoneID     string
	accessToken string
	client      *http.Client
}

// CloudAPIConfig holds the Cloud API credentials.
type CloudAPIConfig struct {
	PhoneID     string
	AccessToken string
	APIVersion  string
}

func NewCloudAPIProvider(cfg CloudAPIConfig) (*CloudAPIProvider, error) {
	if cfg.PhoneID == "" {
		return nil, fmt.Errorf("phone_id is required")
	}
	if cfg.AccessToken == "" {
		return nil, fmt.Errorf("access_token is required")
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = "v18.0"
	}

	return &CloudAPIProvider{
		baseURL:     fmt.Sprintf("https://graph.facebook.com/%s/%s", cfg.APIVersion, cfg.PhoneID),
		phoneID:     cfg.PhoneID,
		accessToken: cfg.AccessToken,
		client:      &http.Client{Timeout: 30 * time.Second},
	}, nil
}

func (p *CloudAPIProvider) SendText(ctx context.Context, to, text string) error {
	payload := map[string]interface{}{
		"messaging_product": "whatsapp",
		"recipient_type":    "individual",
		"to":                cleanPhoneNumber(to),
		"type":              "text",
		"text": map[string]string{
			"preview_url": "false",
			"body":        text,
		},
	}
	return p.post(ctx, "/messages", payload)
}

func (p *CloudAPIProvider) SendImage(ctx context.Context, to, imageURL, caption string) error {
	image := map[string]string{"link": imageURL}
	if caption != "" {
		image["caption"] = caption
	}

	payload := map[string]interface{}{
		"messaging_product": "whatsapp",
		"recipient_type":    "individual",
		"to":                cleanPhoneNumber(to),
		"type":              "image",
		"image":             image,
	}
	return p.post(ctx, "/messages", payload)
}

func (p *CloudAPIProvider) GetProviderName() string {
	return "cloudapi"
}

func (p *CloudAPIProvider) post(ctx context.Context, path string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("cloud api request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		log.Error().
			Int("status", resp.StatusCode).
			Str("path", path).
			Str("body", string(respBody)).
			Msg("cloud api call rejected")
		return fmt.Errorf("cloud api returned status %d", resp.StatusCode)
	}
	return nil
}

// cleanPhoneNumber strips JID suffixes so the Cloud API gets a plain number.
func cleanPhoneNumber(phone string) string {
	if i := strings.Index(phone, "@"); i >= 0 {
		phone = phone[:i]
	}
	return strings.TrimPrefix(phone, "+")
}
