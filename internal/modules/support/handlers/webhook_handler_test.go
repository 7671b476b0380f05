package handlers

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/essenzadelsur/support-agent-be/internal/core/embedding"
	"github.com/essenzadelsur/support-agent-be/internal/core/knowledge"
	"github.com/essenzadelsur/support-agent-be/internal/core/llm"
	"github.com/essenzadelsur/support-agent-be/internal/core/respond"
	"github.com/essenzadelsur/support-agent-be/internal/core/retrieval"
	"github.com/essenzadelsur/support-agent-be/internal/core/session"
	"github.com/essenzadelsur/support-agent-be/internal/core/whatsapp"
	"github.com/essenzadelsur/support-agent-be/internal/modules/support/services"
)

const (
	testAppSecret   = "test-app-secret"
	testVerifyToken = "test-verify-token"
)

type constantEmbedder struct{}

func (constantEmbedder) GenerateEmbedding(context.Context, string) ([]float32, error) {
	return []float32{1, 0}, nil
}

func (e constantEmbedder) GenerateBatchEmbeddings(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0}
	}
	return out, nil
}

func (constantEmbedder) GetDimensions() int { return 2 }

func (constantEmbedder) GetProviderName() string { return "constant-test" }

type staticLLM struct{}

func (staticLLM) GenerateChat(context.Context, string, []llm.Message, string) (string, error) {
	return "Claro, con gusto te ayudo.", nil
}

func (staticLLM) GetProviderName() string { return "static" }

func newTestApp(t *testing.T) (*fiber.App, *whatsapp.MockProvider) {
	t.Helper()

	embedder := embedding.NewService(constantEmbedder{}, time.Second)
	sessions := session.NewManager(session.NewMemoryStore(), time.Hour)
	retriever := retrieval.NewRetriever(embedder, knowledge.NewMemoryStore(), 3, 0.35)
	generator := respond.NewGenerator(staticLLM{}, time.Second)
	sender := whatsapp.NewMockProvider()

	svc := services.NewMessageService(sessions, retriever, generator, sender)
	handler := NewWebhookHandler(svc, testAppSecret, testVerifyToken)

	app := fiber.New()
	app.Get("/webhook", handler.Verify)
	app.Post("/webhook", handler.Receive)
	return app, sender
}

func sign(body []byte) string {
	mac := hmac.New(sha256.New, []byte(testAppSecret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func messagePayload(from, text string) []byte {
	return []byte(fmt.Sprintf(`{
		"object": "whatsapp_business_account",
		"entry": [{
			"id": "entry-1",
			"changes": [{
				"field": "messages",
				"value": {
					"messaging_product": "whatsapp",
					"messages": [{
						"from": %q,
						"id": "wamid.test",
						"timestamp": "1756500000",
						"type": "text",
						"text": {"body": %q}
					}]
				}
			}]
		}]
	}`, from, text))
}

func TestVerifyHandshakeEchoesChallenge(t *testing.T) {
	app, _ := newTestApp(t)

	req := httptest.NewRequest("GET",
		"/webhook?hub.mode=subscribe&hub.verify_token="+testVerifyToken+"&hub.challenge=12345", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "12345", string(body))
}

func TestVerifyHandshakeRejectsWrongToken(t *testing.T) {
	app, _ := newTestApp(t)

	req := httptest.NewRequest("GET",
		"/webhook?hub.mode=subscribe&hub.verify_token=wrong&hub.challenge=12345", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestReceiveAcceptsValidSignature(t *testing.T) {
	app, sender := newTestApp(t)

	body := messagePayload("5215550020", "hola")
	req := httptest.NewRequest("POST", "/webhook", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Hub-Signature-256", sign(body))

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	// The reply is produced asynchronously after the 200.
	require.Eventually(t, func() bool {
		return len(sender.Sent()) == 1
	}, 3*time.Second, 20*time.Millisecond)
	assert.Equal(t, "5215550020", sender.Sent()[0].To)
	assert.Equal(t, "Claro, con gusto te ayudo.", sender.Sent()[0].Text)
}

func TestReceiveRejectsBadSignature(t *testing.T) {
	app, sender := newTestApp(t)

	body := messagePayload("5215550021", "hola")
	req := httptest.NewRequest("POST", "/webhook", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Hub-Signature-256", "sha256=deadbeef")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, sender.Sent(), "rejected deliveries must not reach the pipeline")
}

func TestReceiveRejectsMissingSignature(t *testing.T) {
	app, _ := newTestApp(t)

	body := messagePayload("5215550022", "hola")
	req := httptest.NewRequest("POST", "/webhook", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestReceiveRejectsMalformedPayload(t *testing.T) {
	app, _ := newTestApp(t)

	body := []byte("{not json")
	req := httptest.NewRequest("POST", "/webhook", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Hub-Signature-256", sign(body))

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestReceiveIgnoresNonTextMessages(t *testing.T) {
	app, sender := newTestApp(t)

	body := []byte(`{
		"object": "whatsapp_business_account",
		"entry": [{
			"id": "entry-1",
			"changes": [{
				"field": "messages",
				"value": {
					"messaging_product": "whatsapp",
					"messages": [{
						"from": "5215550023",
						"id": "wamid.test",
						"timestamp": "1756500000",
						"type": "image"
					}]
				}
			}]
		}]
	}`)
	req := httptest.NewRequest("POST", "/webhook", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Hub-Signature-256", sign(body))

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, sender.Sent())
}
