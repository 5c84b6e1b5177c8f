package retrieval

import (
	"context"
	"testing"

	"github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayushthakur13/fin-vault-ai/internal/domain/narrative"
	"github.com/ayushthakur13/fin-vault-ai/pkg/errors"
)

type fakeEmbedder struct {
	embedding []float32
	err       error
}

func (f *fakeEmbedder) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	return f.embedding, f.err
}

func (f *fakeEmbedder) Dimensions() int { return len(f.embedding) }
func (f *fakeEmbedder) Name() string    { return "fake" }

type fakeSearchIndex struct {
	chunks []narrative.Chunk
	err    error

	topKSeen      int
	thresholdSeen float64
}

func (f *fakeSearchIndex) Search(ctx context.Context, embedding pgvector.Vector, topK int, scoreThreshold float64) ([]narrative.Chunk, error) {
	f.topKSeen = topK
	f.thresholdSeen = scoreThreshold
	return f.chunks, f.err
}

func TestSearchReturnsTopK(t *testing.T) {
	index := &fakeSearchIndex{
		chunks: []narrative.Chunk{
			chunkFixture(1, "AAPL", 0.9, "a"),
			chunkFixture(2, "AAPL", 0.8, "b"),
			chunkFixture(3, "AAPL", 0.7, "c"),
		},
	}
	r := NewNarrativeRetriever(&fakeEmbedder{embedding: []float32{0.1, 0.2}}, index, 0)

	chunks, err := r.Search(context.Background(), "outlook", Filter{}, 2, 0.4)

	require.NoError(t, err)
	assert.Len(t, chunks, 2)
	// Candidate set widened for client-side filtering.
	assert.Equal(t, 2*candidateMultiplier, index.topKSeen)
	assert.Equal(t, 0.4, index.thresholdSeen)
}

func TestSearchClampsParameters(t *testing.T) {
	index := &fakeSearchIndex{}
	r := NewNarrativeRetriever(&fakeEmbedder{embedding: []float32{0.1}}, index, 0)

	_, err := r.Search(context.Background(), "q", Filter{}, 50, 3.5)
	require.NoError(t, err)
	assert.Equal(t, MaxTopK*candidateMultiplier, index.topKSeen)
	assert.Equal(t, 1.0, index.thresholdSeen)

	_, err = r.Search(context.Background(), "q", Filter{}, -1, -0.5)
	require.NoError(t, err)
	assert.Equal(t, MinTopK*candidateMultiplier, index.topKSeen)
	assert.Equal(t, 0.0, index.thresholdSeen)
}

func TestSearchEmbeddingFailureSignalsModelUnavailable(t *testing.T) {
	r := NewNarrativeRetriever(
		&fakeEmbedder{err: errors.ErrProvider},
		&fakeSearchIndex{},
		0,
	)

	chunks, err := r.Search(context.Background(), "q", Filter{}, 5, 0.4)

	assert.Empty(t, chunks)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrModelUnavailable))
}

func TestSearchIndexFailureReturnsEmptyWithSignal(t *testing.T) {
	r := NewNarrativeRetriever(
		&fakeEmbedder{embedding: []float32{0.1}},
		&fakeSearchIndex{err: errors.ErrCollectionMissing},
		0,
	)

	chunks, err := r.Search(context.Background(), "q", Filter{}, 5, 0.4)

	assert.NotNil(t, chunks)
	assert.Empty(t, chunks)
	assert.True(t, errors.Is(err, errors.ErrCollectionMissing))
}

func TestSearchAppliesTickerFilter(t *testing.T) {
	index := &fakeSearchIndex{
		chunks: []narrative.Chunk{
			chunkFixture(1, "AAPL", 0.9, "apple"),
			chunkFixture(2, "MSFT", 0.85, "microsoft"),
			chunkFixture(3, "aapl", 0.8, "lowercase ticker"),
		},
	}
	r := NewNarrativeRetriever(&fakeEmbedder{embedding: []float32{0.1}}, index, 0)

	chunks, err := r.Search(context.Background(), "q", Filter{Tickers: []string{"AAPL"}}, 5, 0.4)

	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, int64(1), chunks[0].ID)
	assert.Equal(t, int64(3), chunks[1].ID)
}

func TestSearchAppliesDocTypeAndYearFilters(t *testing.T) {
	risk := chunkFixture(1, "AAPL", 0.9, "risk text")
	risk.DocType = narrative.DocRiskFactors
	risk.Year = 2022

	call := chunkFixture(2, "AAPL", 0.8, "call text")
	call.Year = 2024

	index := &fakeSearchIndex{chunks: []narrative.Chunk{risk, call}}
	r := NewNarrativeRetriever(&fakeEmbedder{embedding: []float32{0.1}}, index, 0)

	chunks, err := r.Search(context.Background(), "q",
		Filter{DocTypes: []narrative.DocType{narrative.DocEarningsCall}, YearMin: 2023}, 5, 0.4)

	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, int64(2), chunks[0].ID)
}

func TestSearchClampsChunkSimilarity(t *testing.T) {
	index := &fakeSearchIndex{
		chunks: []narrative.Chunk{chunkFixture(1, "AAPL", 1.2, "text")},
	}
	r := NewNarrativeRetriever(&fakeEmbedder{embedding: []float32{0.1}}, index, 0)

	chunks, err := r.Search(context.Background(), "q", Filter{}, 5, 0.4)

	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, 1.0, chunks[0].Similarity)
}

func TestSearchEmptyEmbeddingReturnsEmpty(t *testing.T) {
	index := &fakeSearchIndex{chunks: []narrative.Chunk{chunkFixture(1, "AAPL", 0.9, "x")}}
	r := NewNarrativeRetriever(&fakeEmbedder{embedding: nil}, index, 0)

	chunks, err := r.Search(context.Background(), "q", Filter{}, 5, 0.4)

	require.NoError(t, err)
	assert.Empty(t, chunks)
	assert.Zero(t, index.topKSeen, "index must not be queried with an empty vector")
}
