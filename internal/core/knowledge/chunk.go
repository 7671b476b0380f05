package knowledge

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Source tags what kind of content a chunk carries. Each source has its own
// known metadata fields, validated at the store boundary.
type Source string

const (
	SourceProduct Source = "product"
	SourceFAQ     Source = "faq"
	SourcePolicy  Source = "policy"
)

// Metadata is the structured tag set attached to a chunk. Product fields are
// only meaningful when Source is product.
type Metadata struct {
	Source   Source   `json:"source" validate:"required,oneof=product faq policy"`
	SKU      string   `json:"sku,omitempty" validate:"required_if=Source product"`
	Title    string   `json:"title,omitempty" validate:"required_if=Source product"`
	Category string   `json:"category,omitempty"`
	Price    float64  `json:"price,omitempty"`
	Stock    int      `json:"stock,omitempty" validate:"gte=0"`
	Image    string   `json:"image,omitempty"`
	Tags     []string `json:"tags,omitempty"`
}

// Chunk is one unit of ingestible knowledge: plain text plus its embedding,
// computed once at ingestion. The embedding dimension must match the query
// embedding dimension used at search time.
type Chunk struct {
	ID        uuid.UUID
	Content   string
	Metadata  Metadata
	Embedding []float32
}

// ScoredChunk pairs a chunk with its similarity score. Higher is closer.
type ScoredChunk struct {
	Chunk Chunk
	Score float64
}

var validate = validator.New()

// ValidateChunk checks a chunk before it enters the store.
func ValidateChunk(c Chunk) error {
	if c.Content == "" {
		return fmt.Errorf("chunk content cannot be empty")
	}
	if len(c.Embedding) == 0 {
		return fmt.Errorf("chunk %s has no embedding", c.ID)
	}
	if err := validate.Struct(c.Metadata); err != nil {
		return fmt.Errorf("invalid metadata for chunk %s: %w", c.ID, err)
	}
	return nil
}
