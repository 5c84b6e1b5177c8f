package narrative

import (
	"context"

	"github.com/pgvector/pgvector-go"
)

// SearchIndex provides similarity search over embedded narrative chunks.
// Implementations fail with errors.ErrStoreUnavailable when the store cannot
// be reached and errors.ErrCollectionMissing when the index has never been
// populated; callers treat both as "no narrative evidence".
type SearchIndex interface {
	// Search returns the topK most similar chunks at or above the score
	// threshold, highest similarity first. Ticker/year/doc-type filtering is
	// the caller's responsibility: those fields are payload attributes, not
	// indexed predicates.
	Search(ctx context.Context, embedding pgvector.Vector, topK int, scoreThreshold float64) ([]Chunk, error)
}
