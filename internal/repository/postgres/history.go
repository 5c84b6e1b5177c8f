package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ayushthakur13/fin-vault-ai/pkg/errors"
)

// HistoryRecord is one answered query, persisted for traceability.
type HistoryRecord struct {
	ID             uuid.UUID `db:"id"`
	Query          string    `db:"query"`
	Tier           string    `db:"tier"`
	RetrievalMode  string    `db:"retrieval_mode"`
	MetricsCount   int       `db:"retrieved_metrics_count"`
	NarrativeCount int       `db:"retrieved_narrative_count"`
	Response       string    `db:"response"`
	ModelUsed      string    `db:"model_used"`
	TokensUsed     int       `db:"tokens_used"`
	LatencyMs      int64     `db:"latency_ms"`
	CreatedAt      time.Time `db:"created_at"`
}

// HistoryRepository persists answered queries. History lives at the API
// boundary: the orchestrator itself never writes it.
type HistoryRepository struct {
	db *sqlx.DB
}

// NewHistoryRepository creates a new query history repository
func NewHistoryRepository(db *sqlx.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Insert stores one answered query
func (r *HistoryRepository) Insert(ctx context.Context, rec *HistoryRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO query_history (
			id, query, tier, retrieval_mode,
			retrieved_metrics_count, retrieved_narrative_count,
			response, model_used, tokens_used, latency_ms, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
		)`

	_, err := r.db.ExecContext(ctx, query,
		rec.ID, rec.Query, rec.Tier, rec.RetrievalMode,
		rec.MetricsCount, rec.NarrativeCount,
		rec.Response, rec.ModelUsed, rec.TokensUsed, rec.LatencyMs, rec.CreatedAt,
	)
	if err != nil {
		return errors.Wrap(err, "insert query history")
	}
	return nil
}
