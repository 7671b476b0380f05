package retrieval

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/essenzadelsur/support-agent-be/internal/core/embedding"
	"github.com/essenzadelsur/support-agent-be/internal/core/knowledge"
	"github.com/essenzadelsur/support-agent-be/internal/core/session"
)

// keywordEmbedder maps texts onto fixed axes so tests get deterministic
// similarity without a model.
type keywordEmbedder struct{}

func (keywordEmbedder) GenerateEmbedding(_ context.Context, text string) ([]float32, error) {
	t := strings.ToLower(text)
	vec := make([]float32, 4)
	if strings.Contains(t, "lavanda") {
		vec[0] = 1
	}
	if strings.Contains(t, "limón") || strings.Contains(t, "limon") {
		vec[1] = 1
	}
	if strings.Contains(t, "envío") || strings.Contains(t, "envio") {
		vec[2] = 1
	}
	if vec[0] == 0 && vec[1] == 0 && vec[2] == 0 {
		vec[3] = 1
	}
	return vec, nil
}

func (k keywordEmbedder) GenerateBatchEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := k.GenerateEmbedding(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

func (keywordEmbedder) GetDimensions() int { return 4 }

func (keywordEmbedder) GetProviderName() string { return "keyword-test" }

func productChunk(sku, title, content string) knowledge.Chunk {
	return knowledge.Chunk{
		Content: content,
		Metadata: knowledge.Metadata{
			Source: knowledge.SourceProduct,
			SKU:    sku,
			Title:  title,
		},
	}
}

func seededRetriever(t *testing.T) (*Retriever, *knowledge.MemoryStore) {
	t.Helper()

	store := knowledge.NewMemoryStore()
	embedder := embedding.NewService(keywordEmbedder{}, time.Second)

	lavanda := productChunk("ACE-LAV-10ML", "Aceite Esencial de Lavanda 10ml",
		"Producto: Aceite Esencial de Lavanda 10ml. Aroma floral relajante.")
	limon := productChunk("ACE-LIM-10ML", "Aceite Esencial de Limón 10ml",
		"Producto: Aceite Esencial de Limón 10ml. Aroma cítrico fresco.")
	envios := knowledge.Chunk{
		Content:  "Los envíos nacionales tardan de 2 a 5 días hábiles.",
		Metadata: knowledge.Metadata{Source: knowledge.SourceFAQ, Title: "Tiempos de envío"},
	}

	chunks := []knowledge.Chunk{lavanda, limon, envios}
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}
	vectors, err := embedder.EmbedBatch(context.Background(), texts)
	require.NoError(t, err)
	for i := range chunks {
		chunks[i].Embedding = vectors[i]
	}
	require.NoError(t, store.ReplaceAll(context.Background(), chunks))

	return NewRetriever(embedder, store, 3, 0.35), store
}

func TestRetrieveRanksDirectQuery(t *testing.T) {
	r, _ := seededRetriever(t)

	res, err := r.Retrieve(context.Background(), "tienes aceite de lavanda?", nil)
	require.NoError(t, err)
	require.NotEmpty(t, res.Chunks)
	assert.Equal(t, "ACE-LAV-10ML", res.Chunks[0].Chunk.Metadata.SKU)
	require.NotNil(t, res.Product)
	assert.Equal(t, "ACE-LAV-10ML", res.Product.Metadata.SKU)
}

func TestFollowUpStaysOnPreviousTopic(t *testing.T) {
	r, _ := seededRetriever(t)

	history := []session.Turn{
		{Role: session.RoleUser, Content: "tienes aceite de lavanda?"},
		{Role: session.RoleAssistant, Content: "Sí, tenemos el Aceite Esencial de Lavanda 10ml por $180."},
	}

	res, err := r.Retrieve(context.Background(), "fotos?", history)
	require.NoError(t, err)
	require.NotNil(t, res.Product, "follow-up after a product discussion keeps a card")
	assert.Equal(t, "ACE-LAV-10ML", res.Product.Metadata.SKU,
		"short follow-up must not drift to an unrelated product")
}

func TestFollowUpWithoutHistoryReturnsEmpty(t *testing.T) {
	r, _ := seededRetriever(t)

	res, err := r.Retrieve(context.Background(), "fotos?", nil)
	require.NoError(t, err)
	assert.Empty(t, res.Chunks)
	assert.Nil(t, res.Product)
}

func TestNonProductQueryCarriesNoCard(t *testing.T) {
	r, _ := seededRetriever(t)

	res, err := r.Retrieve(context.Background(), "cuanto tarda el envío?", nil)
	require.NoError(t, err)
	require.NotEmpty(t, res.Chunks)
	assert.Equal(t, knowledge.SourceFAQ, res.Chunks[0].Chunk.Metadata.Source)
	assert.Nil(t, res.Product)
}

func TestAtMostOneCard(t *testing.T) {
	r, _ := seededRetriever(t)

	// Both oils match; only the best one becomes the card.
	res, err := r.Retrieve(context.Background(), "aceite de lavanda o de limón?", nil)
	require.NoError(t, err)

	products := 0
	for _, sc := range res.Chunks {
		if sc.Chunk.Metadata.Source == knowledge.SourceProduct {
			products++
		}
	}
	require.GreaterOrEqual(t, products, 2)
	require.NotNil(t, res.Product)
	assert.Equal(t, res.Chunks[0].Chunk.Metadata.SKU, res.Product.Metadata.SKU)
}

func TestEmptyStoreYieldsEmptyResult(t *testing.T) {
	store := knowledge.NewMemoryStore()
	embedder := embedding.NewService(keywordEmbedder{}, time.Second)
	r := NewRetriever(embedder, store, 3, 0.35)

	res, err := r.Retrieve(context.Background(), "tienes aceite de lavanda?", nil)
	require.NoError(t, err)
	assert.Empty(t, res.Chunks)
	assert.Nil(t, res.Product)
}

func TestIsFollowUp(t *testing.T) {
	cases := []struct {
		message string
		want    bool
	}{
		{"fotos?", true},
		{"disponibilidad", true},
		{"que precio tiene el de 30ml?", true},
		{"y el de 30ml?", true},
		{"tienes aceite de lavanda?", false},
		{"cuanto tarda el envío a Monterrey?", false},
		{"", true},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, isFollowUp(tc.message), "message: %q", tc.message)
	}
}
