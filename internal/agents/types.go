package agents

import (
	"github.com/google/uuid"

	"github.com/ayushthakur13/fin-vault-ai/internal/reasoning"
	"github.com/ayushthakur13/fin-vault-ai/internal/retrieval"
)

// Request is the single entry point's input. Tier defaults to fast;
// ForceMode, when valid, overrides automatic classification.
type Request struct {
	Query     string
	Tier      reasoning.Tier
	Tickers   []string
	ForceMode retrieval.Mode
}

// Response is the external contract of one answered query. Immutable once
// constructed.
type Response struct {
	ID                   uuid.UUID          `json:"id"`
	Query                string             `json:"query"`
	Analysis             string             `json:"analysis"`
	RetrievalMode        retrieval.Mode     `json:"retrieval_mode"`
	Model                string             `json:"model"`
	NumericDataCount     int                `json:"numeric_data_count"`
	NarrativeChunksCount int                `json:"narrative_chunks_count"`
	Sources              []string           `json:"sources"`
	LatencyMs            int64              `json:"latency_ms"`
	TokensUsed           int                `json:"tokens_used"`
	Contradiction        *reasoning.Finding `json:"contradiction,omitempty"`
}
