package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/ayushthakur13/fin-vault-ai/internal/domain/narrative"
	"github.com/ayushthakur13/fin-vault-ai/pkg/errors"
)

// Compile-time check
var _ narrative.SearchIndex = (*NarrativeRepository)(nil)

// NarrativeRepository implements narrative.SearchIndex using pgvector cosine
// similarity over the narrative_chunks table.
type NarrativeRepository struct {
	db *sqlx.DB
}

// NewNarrativeRepository creates a new narrative search repository
func NewNarrativeRepository(db *sqlx.DB) *NarrativeRepository {
	return &NarrativeRepository{db: db}
}

// Search performs semantic search using pgvector cosine similarity
func (r *NarrativeRepository) Search(ctx context.Context, embedding pgvector.Vector, topK int, scoreThreshold float64) ([]narrative.Chunk, error) {
	var chunks []narrative.Chunk

	query := `
		SELECT id, company, ticker, year, doc_type, section_title,
		       chunk_id, total_chunks, content,
		       1 - (embedding <=> $1) AS similarity
		FROM narrative_chunks
		WHERE 1 - (embedding <=> $1) >= $2
		ORDER BY embedding <=> $1
		LIMIT $3`

	err := r.db.SelectContext(ctx, &chunks, query, embedding, scoreThreshold, topK)
	if err != nil {
		return nil, mapVectorError(err)
	}

	return chunks, nil
}

// mapVectorError distinguishes a never-populated index from a store outage.
func mapVectorError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "42P01" { // undefined_table
		return errors.Wrap(errors.ErrCollectionMissing, err.Error())
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errors.Wrap(errors.ErrTimeout, err.Error())
	}
	return errors.Wrap(errors.ErrStoreUnavailable, err.Error())
}
