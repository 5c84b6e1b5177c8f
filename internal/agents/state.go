package agents

import (
	"time"

	"github.com/google/uuid"

	"github.com/ayushthakur13/fin-vault-ai/internal/domain/financials"
	"github.com/ayushthakur13/fin-vault-ai/internal/domain/narrative"
	"github.com/ayushthakur13/fin-vault-ai/internal/reasoning"
	"github.com/ayushthakur13/fin-vault-ai/internal/retrieval"
)

// Stage names the orchestration states in execution order.
type Stage string

const (
	StageClassified           Stage = "classified"
	StageRetrieved            Stage = "retrieved"
	StageAssembled            Stage = "assembled"
	StageReasoned             Stage = "reasoned"
	StageContradictionChecked Stage = "contradiction_checked"
	StageFormatted            Stage = "formatted"
)

// State is the orchestration's working record for one query. It is owned
// exclusively by one Answer invocation and mutated only by the stage
// currently executing; it is never shared across concurrent queries.
type State struct {
	ID      uuid.UUID
	Stage   Stage
	Started time.Time

	Query   string
	Tier    reasoning.Tier
	Tickers []string

	Mode    retrieval.Mode
	Metrics []financials.MetricRecord
	Chunks  []narrative.Chunk
	Context retrieval.HybridContext

	Analysis     reasoning.Result
	ReasoningErr error
	Finding      reasoning.Finding
}

func newState(req Request) *State {
	tier := req.Tier
	if !tier.Valid() {
		tier = reasoning.TierFast
	}
	return &State{
		ID:      uuid.New(),
		Started: time.Now(),
		Query:   req.Query,
		Tier:    tier,
		Tickers: req.Tickers,
		Finding: reasoning.Finding{Verdict: reasoning.VerdictSkipped},
	}
}
