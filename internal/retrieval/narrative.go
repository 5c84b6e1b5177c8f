package retrieval

import (
	"context"
	"strings"
	"time"

	"github.com/pgvector/pgvector-go"

	"github.com/ayushthakur13/fin-vault-ai/internal/adapters/embeddings"
	"github.com/ayushthakur13/fin-vault-ai/internal/domain/narrative"
	"github.com/ayushthakur13/fin-vault-ai/pkg/errors"
	"github.com/ayushthakur13/fin-vault-ai/pkg/logger"
)

// Bounds for a single narrative search.
const (
	MinTopK = 1
	MaxTopK = 10
)

// candidateMultiplier widens the similarity search so client-side filtering
// still leaves topK results to choose from.
const candidateMultiplier = 4

// Filter narrows narrative results after retrieval. The filter fields are
// payload attributes in the index, not indexed predicates, so they are
// applied client-side over the candidate set.
type Filter struct {
	Tickers  []string
	DocTypes []narrative.DocType
	YearMin  int
	YearMax  int
}

// NarrativeRetriever embeds the query and searches the vector index for
// narrative passages. An unreachable or never-populated index yields an empty
// list plus a recoverable error signal; downstream treats "no narrative
// evidence" as a valid, common state.
type NarrativeRetriever struct {
	embedder embeddings.Provider
	index    narrative.SearchIndex
	timeout  time.Duration
	log      *logger.Logger
}

// NewNarrativeRetriever creates a narrative retriever.
// timeout bounds the vector query; zero means 5s.
func NewNarrativeRetriever(embedder embeddings.Provider, index narrative.SearchIndex, timeout time.Duration) *NarrativeRetriever {
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	return &NarrativeRetriever{
		embedder: embedder,
		index:    index,
		timeout:  timeout,
		log:      logger.Get().With("component", "narrative_retriever"),
	}
}

// Search returns up to topK chunks similar to the query, post-filtered.
// topK is clamped to [1,10] and scoreThreshold to [0,1].
func (r *NarrativeRetriever) Search(ctx context.Context, query string, filter Filter, topK int, scoreThreshold float64) ([]narrative.Chunk, error) {
	topK = clampInt(topK, MinTopK, MaxTopK)
	scoreThreshold = clampFloat(scoreThreshold, 0.0, 1.0)

	embedding, err := r.embedder.GenerateEmbedding(ctx, query)
	if err != nil {
		r.log.Warnw("Query embedding failed", "error", err)
		return []narrative.Chunk{}, errors.Wrap(errors.ErrModelUnavailable, "embed query")
	}
	if len(embedding) == 0 {
		r.log.Warn("Query embedding is empty")
		return []narrative.Chunk{}, nil
	}

	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	candidates, err := r.index.Search(callCtx, pgvector.NewVector(embedding), topK*candidateMultiplier, scoreThreshold)
	if err != nil {
		// Designed degradation path, not a failure of the query.
		r.log.Warnw("Narrative search degraded to empty", "error", err)
		return []narrative.Chunk{}, err
	}

	chunks := make([]narrative.Chunk, 0, topK)
	for _, chunk := range candidates {
		if !matchesFilter(chunk, filter) {
			continue
		}
		chunk.Similarity = clampFloat(chunk.Similarity, 0.0, 1.0)
		chunks = append(chunks, chunk)
		if len(chunks) == topK {
			break
		}
	}

	r.log.Infow("Retrieved narrative chunks", "count", len(chunks), "candidates", len(candidates))
	return chunks, nil
}

func matchesFilter(chunk narrative.Chunk, filter Filter) bool {
	if len(filter.Tickers) > 0 {
		found := false
		for _, t := range filter.Tickers {
			if strings.EqualFold(chunk.Ticker, t) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if len(filter.DocTypes) > 0 {
		found := false
		for _, dt := range filter.DocTypes {
			if chunk.DocType == dt {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if filter.YearMin > 0 && chunk.Year < filter.YearMin {
		return false
	}
	if filter.YearMax > 0 && chunk.Year > filter.YearMax {
		return false
	}

	return true
}

func clampFloat(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
