package retrieval

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/essenzadelsur/support-agent-be/internal/core/embedding"
	"github.com/essenzadelsur/support-agent-be/internal/core/knowledge"
	"github.com/essenzadelsur/support-agent-be/internal/core/session"
)

// Result is the transient outcome of one retrieval pass. Chunks is ranked
// best-first and already threshold-filtered; an empty Chunks is a valid
// answer ("nothing relevant"), never an error. Product is the single card
// candidate, always one of Chunks.
type Result struct {
	Chunks  []knowledge.ScoredChunk
	Product *knowledge.Chunk
}

// Retriever turns a user message plus conversation history into grounded
// context for the response generator.
type Retriever struct {
	embedder  *embedding.Service
	store     knowledge.Store
	topK      int
	threshold float64
}

// NewRetriever wires a retriever. threshold is the minimum cosine similarity
// a chunk must clear to count as relevant.
func NewRetriever(embedder *embedding.Service, store knowledge.Store, topK int, threshold float64) *Retriever {
	if topK <= 0 {
		topK = 3
	}
	return &Retriever{
		embedder:  embedder,
		store:     store,
		topK:      topK,
		threshold: threshold,
	}
}

// Retrieve embeds the query and searches the knowledge store.
//
// Under-specified follow-ups ("fotos?", "que precio tiene?") are anchored to
// the topic of the previous turns before embedding, so a short question after
// discussing lavender keeps surfacing lavender instead of drifting to an
// unrelated top-scoring product.
func (r *Retriever) Retrieve(ctx context.Context, query string, history []session.Turn) (*Result, error) {
	searchText := query
	if isFollowUp(query) {
		if topic := topicFromHistory(history); topic != "" {
			searchText = topic + "\n" + query
			log.Debug().Str("query", query).Msg("follow-up anchored to previous topic")
		}
	}

	queryVector, err := r.embedder.Embed(ctx, searchText)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	scored, err := r.store.Search(ctx, queryVector, r.topK)
	if err != nil {
		return nil, fmt.Errorf("search knowledge: %w", err)
	}

	result := &Result{}
	for _, sc := range scored {
		if sc.Score < r.threshold {
			continue
		}
		result.Chunks = append(result.Chunks, sc)
	}

	// At most one card per reply: the best-scoring product chunk.
	for i := range result.Chunks {
		if result.Chunks[i].Chunk.Metadata.Source == knowledge.SourceProduct {
			result.Product = &result.Chunks[i].Chunk
			break
		}
	}

	log.Debug().
		Int("candidates", len(scored)).
		Int("relevant", len(result.Chunks)).
		Bool("card", result.Product != nil).
		Msg("retrieval pass finished")
	return result, nil
}
