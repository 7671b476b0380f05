package respond

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/essenzadelsur/support-agent-be/internal/core/knowledge"
	"github.com/essenzadelsur/support-agent-be/internal/core/llm"
	"github.com/essenzadelsur/support-agent-be/internal/core/retrieval"
	"github.com/essenzadelsur/support-agent-be/internal/core/session"
)

// scriptedProvider returns a fixed answer and records what it was asked.
type scriptedProvider struct {
	answer string
	err    error

	calls      int
	lastSystem string
	lastHist   []llm.Message
	lastUser   string
}

func (p *scriptedProvider) GenerateChat(_ context.Context, systemPrompt string, history []llm.Message, userMessage string) (string, error) {
	p.calls++
	p.lastSystem = systemPrompt
	p.lastHist = history
	p.lastUser = userMessage
	return p.answer, p.err
}

func (p *scriptedProvider) GetProviderName() string { return "scripted" }

func lavenderResult() *retrieval.Result {
	chunk := knowledge.Chunk{
		Content: "Producto: Aceite Esencial de Lavanda 10ml. Precio: $180.00. Stock disponible: 12.",
		Metadata: knowledge.Metadata{
			Source: knowledge.SourceProduct,
			SKU:    "ACE-LAV-10ML",
			Title:  "Aceite Esencial de Lavanda 10ml",
			Price:  180,
			Stock:  12,
			Image:  "https://cdn.essenzadelsur.mx/lavanda-10ml.jpg",
		},
	}
	return &retrieval.Result{
		Chunks:  []knowledge.ScoredChunk{{Chunk: chunk, Score: 0.91}},
		Product: &chunk,
	}
}

func TestGenerateAttachesGroundedCard(t *testing.T) {
	provider := &scriptedProvider{answer: "Sí, tenemos el Aceite Esencial de Lavanda 10ml por $180.00 MXN."}
	gen := NewGenerator(provider, time.Second)

	reply := gen.Generate(context.Background(), "tienes aceite de lavanda?", nil, lavenderResult())

	require.NotNil(t, reply.Product)
	assert.Equal(t, "ACE-LAV-10ML", reply.Product.SKU)
	assert.Equal(t, "Aceite Esencial de Lavanda 10ml", reply.Product.Name)
	assert.Equal(t, 180.0, reply.Product.Price)
	assert.Equal(t, 12, reply.Product.Stock)
}

func TestGenerateGroundsPromptOnRetrievedChunks(t *testing.T) {
	provider := &scriptedProvider{answer: "ok"}
	gen := NewGenerator(provider, time.Second)

	gen.Generate(context.Background(), "precio?", nil, lavenderResult())

	assert.Contains(t, provider.lastSystem, "Aceite Esencial de Lavanda 10ml")
	assert.Contains(t, provider.lastSystem, "únicamente con la información del contexto")
	assert.Equal(t, "precio?", provider.lastUser)
}

func TestGenerateWithoutContextIsHonest(t *testing.T) {
	provider := &scriptedProvider{answer: "No tengo esa información, ¿te ayudo con algo más?"}
	gen := NewGenerator(provider, time.Second)

	reply := gen.Generate(context.Background(), "venden velas?", nil, &retrieval.Result{})

	assert.Nil(t, reply.Product)
	assert.Contains(t, provider.lastSystem, "No cuentas con información de catálogo")
}

func TestGenerateFallsBackOnModelError(t *testing.T) {
	provider := &scriptedProvider{err: llm.ErrModelUnavailable}
	gen := NewGenerator(provider, time.Second)

	reply := gen.Generate(context.Background(), "hola", nil, nil)

	assert.Equal(t, FallbackText, reply.Text)
	assert.Nil(t, reply.Product)
	assert.Equal(t, 2, provider.calls, "one bounded retry before falling back")
}

func TestGeneratePassesRecentHistory(t *testing.T) {
	provider := &scriptedProvider{answer: "ok"}
	gen := NewGenerator(provider, time.Second)

	history := make([]session.Turn, 0, historyWindow+4)
	for i := 0; i < historyWindow+4; i++ {
		role := session.RoleUser
		if i%2 == 1 {
			role = session.RoleAssistant
		}
		history = append(history, session.Turn{Role: role, Content: strings.Repeat("x", i+1)})
	}

	gen.Generate(context.Background(), "y el de 30ml?", history, nil)

	require.Len(t, provider.lastHist, historyWindow)
	assert.Equal(t, history[len(history)-1].Content, provider.lastHist[len(provider.lastHist)-1].Content)
	assert.Equal(t, llm.RoleAssistant, provider.lastHist[len(provider.lastHist)-1].Role)
}

func TestProductSummaryOnlyFromProductChunks(t *testing.T) {
	faq := knowledge.Chunk{
		Content:  "Los envíos nacionales tardan de 2 a 5 días hábiles.",
		Metadata: knowledge.Metadata{Source: knowledge.SourceFAQ, Title: "Tiempos de envío"},
	}
	assert.Nil(t, productSummaryFrom(&faq))
	assert.Nil(t, productSummaryFrom(nil))
}
