package knowledge

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/essenzadelsur/support-agent-be/internal/core/catalog"
	"github.com/essenzadelsur/support-agent-be/internal/core/embedding"
)

type stubEmbedder struct{}

func (stubEmbedder) GenerateEmbedding(context.Context, string) ([]float32, error) {
	return []float32{1, 0}, nil
}

func (stubEmbedder) GenerateBatchEmbeddings(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0}
	}
	return out, nil
}

func (stubEmbedder) GetDimensions() int { return 2 }

func (stubEmbedder) GetProviderName() string { return "stub" }

func TestIngestBuildsProductAndStaticChunks(t *testing.T) {
	cat := &catalog.StaticCatalog{Products: []catalog.Product{
		{
			SKU:         "ACE-LAV-10ML",
			Name:        "Aceite Esencial de Lavanda",
			Description: "Aroma floral que cura el insomnio.",
			Price:       180,
			Stock:       12,
			Images:      []string{"https://cdn.essenzadelsur.mx/lavanda.jpg"},
			Category:    "aceites",
			Benefits:    []string{"relajación", "aromaterapia"},
			VariantName: "10ml",
		},
		{
			SKU:   "ACE-LIM-10ML",
			Name:  "Aceite Esencial de Limón",
			Price: 150,
			Stock: 0,
		},
	}}
	entries := []StaticEntry{
		{Source: SourceFAQ, Title: "Envíos", Question: "¿Cuánto tarda el envío?", Answer: "De 2 a 5 días hábiles."},
		{Source: SourcePolicy, Title: "Devoluciones", Text: "Aceptamos devoluciones dentro de 30 días."},
	}

	store := NewMemoryStore()
	embedder := embedding.NewService(stubEmbedder{}, time.Second)
	ing := NewIngestor(cat, embedder, store, nil, entries)

	count, err := ing.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, count)

	results, err := store.Search(context.Background(), []float32{1, 0}, 10)
	require.NoError(t, err)
	require.Len(t, results, 4)

	bySKU := map[string]Chunk{}
	for _, sc := range results {
		bySKU[sc.Chunk.Metadata.SKU] = sc.Chunk
	}

	lavanda := bySKU["ACE-LAV-10ML"]
	assert.Equal(t, SourceProduct, lavanda.Metadata.Source)
	assert.Equal(t, "Aceite Esencial de Lavanda", lavanda.Metadata.Title)
	assert.Equal(t, 180.0, lavanda.Metadata.Price)
	assert.Equal(t, "https://cdn.essenzadelsur.mx/lavanda.jpg", lavanda.Metadata.Image)
	assert.Contains(t, lavanda.Content, "(10ml)")
	assert.Contains(t, lavanda.Content, "Stock disponible: 12")

	// Ingestion sanitizes medical claims before anything gets embedded.
	assert.NotContains(t, lavanda.Content, "cura el insomnio")
	assert.Contains(t, lavanda.Content, "favorece un descanso reparador")

	limon := bySKU["ACE-LIM-10ML"]
	assert.Contains(t, limon.Content, "Sin stock por el momento")
}

func TestIngestRejectsUnknownStaticSource(t *testing.T) {
	store := NewMemoryStore()
	embedder := embedding.NewService(stubEmbedder{}, time.Second)
	ing := NewIngestor(&catalog.StaticCatalog{}, embedder, store, nil, []StaticEntry{
		{Source: "blog", Title: "X", Text: "y"},
	})

	_, err := ing.Run(context.Background())
	assert.Error(t, err)
}

func TestIngestEmptyInputsLeavesStoreUntouched(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.ReplaceAll(ctx, []Chunk{
		chunkWithVector(SourceFAQ, "", "Envíos", "política vigente", []float32{1, 0}),
	}))

	embedder := embedding.NewService(stubEmbedder{}, time.Second)
	ing := NewIngestor(&catalog.StaticCatalog{}, embedder, store, nil, nil)

	count, err := ing.Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	results, err := store.Search(ctx, []float32{1, 0}, 10)
	require.NoError(t, err)
	assert.Len(t, results, 1, "an empty ingestion run must not wipe the live collection")
}

func TestLoadStaticEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "faq.json")
	payload := `{"entries": [
		{"source": "faq", "title": "Envíos", "question": "¿Cuánto tarda?", "answer": "2 a 5 días."},
		{"source": "policy", "title": "Devoluciones", "text": "30 días."}
	]}`
	require.NoError(t, os.WriteFile(path, []byte(payload), 0o644))

	entries, err := LoadStaticEntries(path)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, SourceFAQ, entries[0].Source)
	assert.Equal(t, "¿Cuánto tarda?", entries[0].Question)
	assert.Equal(t, SourcePolicy, entries[1].Source)

	_, err = LoadStaticEntries(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestSanitizerRewritesMedicalClaims(t *testing.T) {
	s := NewSanitizer(DefaultRules())

	cases := []struct {
		in       string
		contains string
		banned   string
	}{
		{"Este aceite cura el insomnio.", "favorece un descanso reparador", "cura el insomnio"},
		{"Curar la ansiedad con aromaterapia.", "acompaña momentos de calma", "la ansiedad"},
		{"Elimina el estrés del día.", "ayuda a relajarte", "Elimina el estrés"},
		{"Con propiedades medicinales únicas.", "propiedades aromáticas", "medicinales"},
		{"This oil cures insomnia.", "supports restful sleep", "cures insomnia"},
	}
	for _, tc := range cases {
		out := s.Apply(tc.in)
		assert.Contains(t, out, tc.contains, "input: %q", tc.in)
		assert.NotContains(t, out, tc.banned, "input: %q", tc.in)
	}
}

func TestSanitizerLeavesSafeCopyAlone(t *testing.T) {
	s := NewSanitizer(DefaultRules())
	in := "Aroma floral relajante para difusor."
	assert.Equal(t, in, s.Apply(in))
}
