package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWarningsFlagMissingWebhookSecrets(t *testing.T) {
	cfg := &Config{Env: "production"}

	warnings := cfg.Warnings()
	assert.Len(t, warnings, 2)
	assert.Contains(t, warnings[0], "WEBHOOK_APP_SECRET")
	assert.Contains(t, warnings[1], "WEBHOOK_VERIFY_TOKEN")
}

func TestWarningsQuietWhenConfigured(t *testing.T) {
	cfg := &Config{
		Env:                "production",
		WebhookAppSecret:   "s3cret",
		WebhookVerifyToken: "token",
	}
	assert.Empty(t, cfg.Warnings())
}

func TestWarningsSkippedInDevelopment(t *testing.T) {
	cfg := &Config{Env: "development"}
	assert.Empty(t, cfg.Warnings())
}
