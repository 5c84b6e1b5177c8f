package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/ayushthakur13/fin-vault-ai/internal/agents"
	"github.com/ayushthakur13/fin-vault-ai/internal/reasoning"
	"github.com/ayushthakur13/fin-vault-ai/internal/repository/postgres"
	"github.com/ayushthakur13/fin-vault-ai/internal/retrieval"
	"github.com/ayushthakur13/fin-vault-ai/pkg/errors"
	"github.com/ayushthakur13/fin-vault-ai/pkg/logger"
)

// maxRequestBody caps the /query request body at 64 KiB. Queries are short
// natural-language questions, not documents.
const maxRequestBody = 64 << 10

// Answerer is the orchestration surface the handler depends on.
type Answerer interface {
	Answer(ctx context.Context, req agents.Request) (*agents.Response, error)
}

// HistoryWriter persists answered queries. Nil-able: history is best effort.
type HistoryWriter interface {
	Insert(ctx context.Context, rec *postgres.HistoryRecord) error
}

// QueryHandler serves POST /query
type QueryHandler struct {
	orchestrator Answerer
	history      HistoryWriter
	log          *logger.Logger
}

// NewQueryHandler creates the query endpoint handler. history may be nil.
func NewQueryHandler(orchestrator Answerer, history HistoryWriter) *QueryHandler {
	return &QueryHandler{
		orchestrator: orchestrator,
		history:      history,
		log:          logger.Get().With("component", "query_handler"),
	}
}

// queryRequest is the external request shape
type queryRequest struct {
	Query   string   `json:"query"`
	Tier    string   `json:"tier,omitempty"`    // "fast" (default) or "thorough"
	Tickers []string `json:"tickers,omitempty"` // optional scope filter
	Mode    string   `json:"mode,omitempty"`    // optional classification override
}

type errorResponse struct {
	Error string `json:"error"`
}

// ServeHTTP handles POST /query
func (h *QueryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}

	var req queryRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	tier := reasoning.Tier(req.Tier)
	if !tier.Valid() {
		tier = reasoning.TierFast
	}

	resp, err := h.orchestrator.Answer(r.Context(), agents.Request{
		Query:     req.Query,
		Tier:      tier,
		Tickers:   req.Tickers,
		ForceMode: retrieval.Mode(req.Mode),
	})
	if err != nil {
		if errors.Is(err, errors.ErrInvalidInput) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		h.log.Errorw("Query failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}

	h.recordHistory(resp, tier)

	writeJSON(w, http.StatusOK, resp)
}

// recordHistory persists the answered query. Failures are logged and
// swallowed: history never affects the response.
func (h *QueryHandler) recordHistory(resp *agents.Response, tier reasoning.Tier) {
	if h.history == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rec := &postgres.HistoryRecord{
		ID:             resp.ID,
		Query:          resp.Query,
		Tier:           string(tier),
		RetrievalMode:  resp.RetrievalMode.String(),
		MetricsCount:   resp.NumericDataCount,
		NarrativeCount: resp.NarrativeChunksCount,
		Response:       resp.Analysis,
		ModelUsed:      resp.Model,
		TokensUsed:     resp.TokensUsed,
		LatencyMs:      resp.LatencyMs,
	}

	if err := h.history.Insert(ctx, rec); err != nil {
		h.log.Warnw("Failed to persist query history", "query_id", resp.ID, "error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
