package knowledge

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/essenzadelsur/support-agent-be/internal/core/catalog"
	"github.com/essenzadelsur/support-agent-be/internal/core/embedding"
)

// StaticEntry is an FAQ question/answer pair or a policy text maintained
// outside the product catalog.
type StaticEntry struct {
	Source   Source `json:"source"` // faq or policy
	Title    string `json:"title,omitempty"`
	Question string `json:"question,omitempty"`
	Answer   string `json:"answer,omitempty"`
	Text     string `json:"text,omitempty"`
}

// LoadStaticEntries reads the FAQ/policy set from a JSON file.
func LoadStaticEntries(path string) ([]StaticEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read static knowledge file: %w", err)
	}

	var payload struct {
		Entries []StaticEntry `json:"entries"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse static knowledge file: %w", err)
	}
	return payload.Entries, nil
}

// Ingestor rebuilds the knowledge collection from the live product catalog
// plus the static FAQ/policy set. Each run replaces the previous generation
// wholesale; chunks are never mutated per request.
type Ingestor struct {
	catalog   catalog.Catalog
	embedder  *embedding.Service
	store     Store
	sanitizer *Sanitizer
	entries   []StaticEntry
}

func NewIngestor(cat catalog.Catalog, embedder *embedding.Service, store Store, sanitizer *Sanitizer, entries []StaticEntry) *Ingestor {
	if sanitizer == nil {
		sanitizer = NewSanitizer(DefaultRules())
	}
	return &Ingestor{
		catalog:   cat,
		embedder:  embedder,
		store:     store,
		sanitizer: sanitizer,
		entries:   entries,
	}
}

// Run builds, embeds and stores the full chunk set. Returns the number of
// chunks ingested.
func (ing *Ingestor) Run(ctx context.Context) (int, error) {
	products, err := ing.catalog.ListActiveProducts(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load product catalog: %w", err)
	}

	chunks := make([]Chunk, 0, len(products)+len(ing.entries))
	for _, p := range products {
		chunks = append(chunks, ing.productChunk(p))
	}
	for _, e := range ing.entries {
		chunk, err := ing.staticChunk(e)
		if err != nil {
			return 0, err
		}
		chunks = append(chunks, chunk)
	}

	if len(chunks) == 0 {
		log.Warn().Msg("ingestion produced no chunks, store left unchanged")
		return 0, nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}

	vectors, err := ing.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("failed to embed knowledge chunks: %w", err)
	}
	for i := range chunks {
		chunks[i].Embedding = vectors[i]
	}

	if err := ing.store.ReplaceAll(ctx, chunks); err != nil {
		return 0, err
	}

	log.Info().
		Int("products", len(products)).
		Int("static_entries", len(ing.entries)).
		Int("chunks", len(chunks)).
		Str("embedding_model", ing.embedder.ProviderName()).
		Msg("knowledge base ingested")

	return len(chunks), nil
}

func (ing *Ingestor) productChunk(p catalog.Product) Chunk {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Producto: %s", p.Name))
	if p.VariantName != "" {
		sb.WriteString(fmt.Sprintf(" (%s)", p.VariantName))
	}
	sb.WriteString("\n")
	if p.Description != "" {
		sb.WriteString(fmt.Sprintf("Descripción: %s\n", p.Description))
	}
	if len(p.Benefits) > 0 {
		sb.WriteString(fmt.Sprintf("Beneficios: %s\n", strings.Join(p.Benefits, ", ")))
	}
	sb.WriteString(fmt.Sprintf("Precio: %.2f\n", p.Price))
	if p.Stock > 0 {
		sb.WriteString(fmt.Sprintf("Stock disponible: %d unidades\n", p.Stock))
	} else {
		sb.WriteString("Sin stock por el momento\n")
	}

	image := ""
	if len(p.Images) > 0 {
		image = p.Images[0]
	}

	return Chunk{
		ID:      uuid.New(),
		Content: ing.sanitizer.Apply(sb.String()),
		Metadata: Metadata{
			Source:   SourceProduct,
			SKU:      p.SKU,
			Title:    p.Name,
			Category: p.Category,
			Price:    p.Price,
			Stock:    p.Stock,
			Image:    image,
			Tags:     p.Benefits,
		},
	}
}

func (ing *Ingestor) staticChunk(e StaticEntry) (Chunk, error) {
	var content string
	switch e.Source {
	case SourceFAQ:
		content = fmt.Sprintf("P: %s\nR: %s", e.Question, e.Answer)
	case SourcePolicy:
		content = e.Text
		if e.Title != "" {
			content = fmt.Sprintf("%s\n%s", e.Title, e.Text)
		}
	default:
		return Chunk{}, fmt.Errorf("static entry has unsupported source %q", e.Source)
	}

	return Chunk{
		ID:      uuid.New(),
		Content: ing.sanitizer.Apply(content),
		Metadata: Metadata{
			Source: e.Source,
			Title:  e.Title,
		},
	}, nil
}
