package knowledge

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

// chunkRow is the GORM model behind PgStore. Rows are versioned by
// generation; searches only see the highest committed generation, so an
// in-flight re-ingestion is invisible until it commits.
type chunkRow struct {
	ID         uuid.UUID       `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Generation int64           `gorm:"not null;index:idx_chunk_generation"`
	Position   int             `gorm:"not null"` // ingestion order, breaks score ties
	Content    string          `gorm:"type:text;not null"`
	Source     string          `gorm:"type:text;not null"`
	SKU        string          `gorm:"type:text"`
	Title      string          `gorm:"type:text"`
	Category   string          `gorm:"type:text"`
	Price      float64         `gorm:"type:numeric"`
	Stock      int             `gorm:"type:int"`
	Image      string          `gorm:"type:text"`
	Tags       pq.StringArray  `gorm:"type:text[]"`
	Embedding  pgvector.Vector `gorm:"type:vector(768)"`
	CreatedAt  time.Time       `gorm:"autoCreateTime"`
}

func (chunkRow) TableName() string {
	return "knowledge_chunks"
}

func (r *chunkRow) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// PgStore is the Postgres/pgvector implementation of Store.
type PgStore struct {
	db *gorm.DB
}

func NewPgStore(db *gorm.DB) *PgStore {
	return &PgStore{db: db}
}

// ReplaceAll writes chunks as a new generation and removes prior generations
// in the same transaction. Readers never observe a partial collection.
func (s *PgStore) ReplaceAll(ctx context.Context, chunks []Chunk) error {
	for _, c := range chunks {
		if err := ValidateChunk(c); err != nil {
			return err
		}
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current int64
		if err := tx.Model(&chunkRow{}).
			Select("COALESCE(MAX(generation), 0)").
			Scan(&current).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		next := current + 1

		rows := make([]chunkRow, len(chunks))
		for i, c := range chunks {
			rows[i] = chunkRow{
				ID:         c.ID,
				Generation: next,
				Position:   i,
				Content:    c.Content,
				Source:     string(c.Metadata.Source),
				SKU:        c.Metadata.SKU,
				Title:      c.Metadata.Title,
				Category:   c.Metadata.Category,
				Price:      c.Metadata.Price,
				Stock:      c.Metadata.Stock,
				Image:      c.Metadata.Image,
				Tags:       c.Metadata.Tags,
				Embedding:  pgvector.NewVector(c.Embedding),
			}
		}

		if len(rows) > 0 {
			if err := tx.CreateInBatches(rows, 100).Error; err != nil {
				return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
			}
		}

		if err := tx.Where("generation < ?", next).Delete(&chunkRow{}).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		return nil
	})
}

// Search runs cosine nearest-neighbor search over the latest generation.
// Score is cosine similarity (1 - distance); results come back best first,
// ties broken by ingestion position.
func (s *PgStore) Search(ctx context.Context, queryVector []float32, topK int) ([]ScoredChunk, error) {
	if topK <= 0 {
		topK = 3
	}

	type result struct {
		chunkRow
		Similarity float64
	}
	var results []result

	qv := pgvector.NewVector(queryVector)
	err := s.db.WithContext(ctx).
		Table("knowledge_chunks").
		Select("knowledge_chunks.*, 1 - (embedding <=> ?) AS similarity", qv).
		Where("generation = (SELECT COALESCE(MAX(generation), 0) FROM knowledge_chunks)").
		Order("similarity DESC, position ASC").
		Limit(topK).
		Scan(&results).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	scored := make([]ScoredChunk, len(results))
	for i, r := range results {
		scored[i] = ScoredChunk{
			Chunk: Chunk{
				ID:      r.ID,
				Content: r.Content,
				Metadata: Metadata{
					Source:   Source(r.Source),
					SKU:      r.SKU,
					Title:    r.Title,
					Category: r.Category,
					Price:    r.Price,
					Stock:    r.Stock,
					Image:    r.Image,
					Tags:     r.Tags,
				},
				Embedding: r.Embedding.Slice(),
			},
			Score: r.Similarity,
		}
	}
	return scored, nil
}
