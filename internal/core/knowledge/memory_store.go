package knowledge

import (
	"context"
	"math"
	"sort"
	"sync"
)

// MemoryStore is an in-process Store with brute-force cosine search. It backs
// tests and local runs without Postgres; the snapshot swap under a write lock
// gives the same all-or-nothing visibility as PgStore's generation swap.
type MemoryStore struct {
	mu     sync.RWMutex
	chunks []Chunk
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) ReplaceAll(ctx context.Context, chunks []Chunk) error {
	for _, c := range chunks {
		if err := ValidateChunk(c); err != nil {
			return err
		}
	}

	snapshot := make([]Chunk, len(chunks))
	copy(snapshot, chunks)

	s.mu.Lock()
	s.chunks = snapshot
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Search(ctx context.Context, queryVector []float32, topK int) ([]ScoredChunk, error) {
	if topK <= 0 {
		topK = 3
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	scored := make([]ScoredChunk, 0, len(s.chunks))
	for _, c := range s.chunks {
		scored = append(scored, ScoredChunk{Chunk: c, Score: cosineSimilarity(queryVector, c.Embedding)})
	}

	// SliceStable keeps ingestion order for equal scores.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > topK {
		scored = scored[:topK]
	}
	return scored, nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
