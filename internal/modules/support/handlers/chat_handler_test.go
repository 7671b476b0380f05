package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/essenzadelsur/support-agent-be/internal/core/embedding"
	"github.com/essenzadelsur/support-agent-be/internal/core/knowledge"
	"github.com/essenzadelsur/support-agent-be/internal/core/respond"
	"github.com/essenzadelsur/support-agent-be/internal/core/retrieval"
	"github.com/essenzadelsur/support-agent-be/internal/core/session"
	"github.com/essenzadelsur/support-agent-be/internal/core/whatsapp"
	"github.com/essenzadelsur/support-agent-be/internal/modules/support/services"
)

func newChatApp(t *testing.T) *fiber.App {
	t.Helper()

	embedder := embedding.NewService(constantEmbedder{}, time.Second)
	store := knowledge.NewMemoryStore()

	chunk := knowledge.Chunk{
		Content: "Producto: Aceite Esencial de Lavanda 10ml. Precio: $180.00.",
		Metadata: knowledge.Metadata{
			Source: knowledge.SourceProduct,
			SKU:    "ACE-LAV-10ML",
			Title:  "Aceite Esencial de Lavanda 10ml",
			Price:  180,
			Stock:  12,
		},
		Embedding: []float32{1, 0},
	}
	require.NoError(t, store.ReplaceAll(context.Background(), []knowledge.Chunk{chunk}))

	sessions := session.NewManager(session.NewMemoryStore(), time.Hour)
	retriever := retrieval.NewRetriever(embedder, store, 3, 0.35)
	generator := respond.NewGenerator(staticLLM{}, time.Second)
	svc := services.NewMessageService(sessions, retriever, generator, whatsapp.NewMockProvider())

	app := fiber.New()
	app.Post("/chat", NewChatHandler(svc).Chat)
	return app
}

func TestChatReturnsTextAndCard(t *testing.T) {
	app := newChatApp(t)

	body := []byte(`{"message": "tienes aceite de lavanda?", "history": []}`)
	req := httptest.NewRequest("POST", "/chat", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var out ChatResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.NotEmpty(t, out.Text)
	require.NotNil(t, out.Product)
	assert.Equal(t, "ACE-LAV-10ML", out.Product.SKU)
}

func TestChatRejectsEmptyMessage(t *testing.T) {
	app := newChatApp(t)

	body := []byte(`{"message": "", "history": []}`)
	req := httptest.NewRequest("POST", "/chat", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestChatRejectsBadHistoryRole(t *testing.T) {
	app := newChatApp(t)

	body := []byte(`{"message": "hola", "history": [{"role": "system", "content": "x"}]}`)
	req := httptest.NewRequest("POST", "/chat", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
