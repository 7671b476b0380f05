package knowledge

import (
	"context"
	"errors"
)

// ErrStoreUnavailable indicates the chunk store could not be queried. This is
// distinct from an empty result: searches against an empty store succeed with
// zero chunks.
var ErrStoreUnavailable = errors.New("knowledge store unavailable")

// Store holds the chunk collection and answers nearest-neighbor queries.
//
// ReplaceAll swaps the whole collection atomically from the reader's
// perspective: concurrent searches see either the old generation or the new
// one, never a partially replaced set.
//
// Search returns at most topK results, best match first, ties broken by
// ingestion order. An empty store yields an empty slice, not an error.
type Store interface {
	ReplaceAll(ctx context.Context, chunks []Chunk) error
	Search(ctx context.Context, queryVector []float32, topK int) ([]ScoredChunk, error)
}
