package agents

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ayushthakur13/fin-vault-ai/internal/adapters/telemetry"
	"github.com/ayushthakur13/fin-vault-ai/internal/domain/financials"
	"github.com/ayushthakur13/fin-vault-ai/internal/domain/narrative"
	"github.com/ayushthakur13/fin-vault-ai/internal/reasoning"
	"github.com/ayushthakur13/fin-vault-ai/internal/retrieval"
	"github.com/ayushthakur13/fin-vault-ai/pkg/errors"
	"github.com/ayushthakur13/fin-vault-ai/pkg/logger"
)

// degradedAnalysisMessage is what the caller sees when the primary reasoning
// call fails. It never carries provider internals.
const degradedAnalysisMessage = "Analysis is temporarily unavailable. The evidence gathered for your query is reflected in the source counts below; please retry shortly."

// Config bounds per-query retrieval.
type Config struct {
	NumericLimit   int
	NarrativeTopK  int
	ScoreThreshold float64
}

// Orchestrator drives one query through the pipeline:
// Classify -> Retrieve -> Assemble -> Reason -> Detect-Contradictions -> Format.
// It is the only place allowed to decide "stop and return" versus "degrade
// and continue"; no collaborator terminates the pipeline on its own.
type Orchestrator struct {
	classifier *retrieval.Classifier
	metrics    *retrieval.MetricsRetriever
	narrative  *retrieval.NarrativeRetriever
	assembler  *retrieval.Assembler
	router     *reasoning.Router
	detector   *reasoning.Detector
	telemetry  *telemetry.Metrics
	cfg        Config
	log        *logger.Logger
}

// NewOrchestrator wires the pipeline together
func NewOrchestrator(
	classifier *retrieval.Classifier,
	metricsRetriever *retrieval.MetricsRetriever,
	narrativeRetriever *retrieval.NarrativeRetriever,
	assembler *retrieval.Assembler,
	router *reasoning.Router,
	detector *reasoning.Detector,
	tm *telemetry.Metrics,
	cfg Config,
) *Orchestrator {
	if cfg.NumericLimit == 0 {
		cfg.NumericLimit = 50
	}
	if cfg.NarrativeTopK == 0 {
		cfg.NarrativeTopK = 5
	}
	if cfg.ScoreThreshold == 0 {
		cfg.ScoreThreshold = 0.4
	}
	return &Orchestrator{
		classifier: classifier,
		metrics:    metricsRetriever,
		narrative:  narrativeRetriever,
		assembler:  assembler,
		router:     router,
		detector:   detector,
		telemetry:  tm,
		cfg:        cfg,
		log:        logger.Get().With("component", "orchestrator"),
	}
}

// Answer is the sole entry point. It always returns a structured Response
// for a non-empty query; partial evidence-source failures degrade the
// response instead of aborting it.
func (o *Orchestrator) Answer(ctx context.Context, req Request) (*Response, error) {
	if req.Query == "" {
		return nil, errors.Wrap(errors.ErrInvalidInput, "query is empty")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	state := newState(req)
	log := o.log.With("query_id", state.ID.String())
	log.Infow("Answering query", "tier", state.Tier, "query", truncateForLog(req.Query))

	o.classify(req, state, log)
	o.retrieve(ctx, state, log)
	o.assemble(state)
	o.reason(ctx, state, log)
	o.checkContradictions(ctx, state, log)

	resp := o.format(state)

	o.telemetry.QueriesTotal.WithLabelValues(state.Mode.String(), string(state.Tier)).Inc()
	o.telemetry.QueryDuration.WithLabelValues(string(state.Tier)).Observe(float64(resp.LatencyMs) / 1000.0)
	if resp.TokensUsed > 0 {
		o.telemetry.TokensUsed.WithLabelValues(string(state.Tier)).Add(float64(resp.TokensUsed))
	}

	log.Infow("Query answered",
		"mode", state.Mode,
		"numeric_count", resp.NumericDataCount,
		"narrative_count", resp.NarrativeChunksCount,
		"latency_ms", resp.LatencyMs)

	return resp, nil
}

// classify picks the retrieval mode. Classification never aborts the
// pipeline: the classifier is total, and an invalid forced mode falls back
// to automatic classification.
func (o *Orchestrator) classify(req Request, state *State, log *logger.Logger) {
	if req.ForceMode.Valid() {
		state.Mode = req.ForceMode
		log.Debugw("Retrieval mode forced", "mode", state.Mode)
	} else {
		state.Mode = o.classifier.Classify(req.Query)
	}
	state.Stage = StageClassified
}

// retrieve fans out to both evidence sources concurrently; neither depends
// on the other's result. A failed source degrades to empty.
func (o *Orchestrator) retrieve(ctx context.Context, state *State, log *logger.Logger) {
	var (
		wg         sync.WaitGroup
		metrics    []financials.MetricRecord
		metricsErr error
		chunks     []narrative.Chunk
		chunksErr  error
	)

	if state.Mode != retrieval.ModeNarrative {
		wg.Add(1)
		go func() {
			defer wg.Done()
			metrics, metricsErr = o.metrics.Fetch(ctx, state.Tickers, 0, 0, o.cfg.NumericLimit)
		}()
	}

	if state.Mode != retrieval.ModeNumeric {
		wg.Add(1)
		go func() {
			defer wg.Done()
			chunks, chunksErr = o.narrative.Search(ctx, state.Query,
				retrieval.Filter{Tickers: state.Tickers},
				o.cfg.NarrativeTopK, o.cfg.ScoreThreshold)
		}()
	}

	wg.Wait()

	if metricsErr != nil {
		log.Warnw("Numeric retrieval degraded to empty", "error", metricsErr)
		o.telemetry.RetrievalFailures.WithLabelValues("metrics").Inc()
		metrics = nil
	}
	if chunksErr != nil {
		log.Warnw("Narrative retrieval degraded to empty", "error", chunksErr)
		o.telemetry.RetrievalFailures.WithLabelValues("narrative").Inc()
		chunks = nil
	}

	state.Metrics = metrics
	state.Chunks = chunks
	state.Stage = StageRetrieved
}

func (o *Orchestrator) assemble(state *State) {
	state.Context = o.assembler.Assemble(state.Query, state.Mode, state.Metrics, state.Chunks)
	state.Context.Summary.LatencyMs = time.Since(state.Started).Milliseconds()
	state.Stage = StageAssembled
}

// reason runs the primary analysis. A provider failure is recorded on the
// state; the pipeline continues so the caller still receives the gathered
// evidence counts.
func (o *Orchestrator) reason(ctx context.Context, state *State, log *logger.Logger) {
	prompt := reasoning.BuildAnalysisPrompt(state.Query, state.Context)

	result, err := o.router.Reason(ctx, prompt, state.Tier)
	if err != nil {
		log.Warnw("Primary reasoning failed, returning degraded response", "error", err)
		state.ReasoningErr = err
	} else {
		state.Analysis = result
	}
	state.Stage = StageReasoned
}

// checkContradictions runs the secondary pass. It is skipped when the
// primary reasoning already failed (the provider is known-unhealthy) and its
// own failures only omit the contradiction field, never the response.
func (o *Orchestrator) checkContradictions(ctx context.Context, state *State, log *logger.Logger) {
	if state.ReasoningErr == nil {
		state.Finding = o.detector.Detect(ctx, state.Context)
	}
	o.telemetry.Contradictions.WithLabelValues(state.Finding.Verdict.String()).Inc()
	state.Stage = StageContradictionChecked
}

// format freezes the state into the external response shape.
func (o *Orchestrator) format(state *State) *Response {
	analysis := state.Analysis.Text
	model := state.Analysis.Model
	if state.ReasoningErr != nil {
		analysis = degradedAnalysisMessage
		model = o.router.ModelFor(state.Tier)
	}

	resp := &Response{
		ID:                   state.ID,
		Query:                state.Query,
		Analysis:             analysis,
		RetrievalMode:        state.Mode,
		Model:                model,
		NumericDataCount:     state.Context.Summary.NumericCount,
		NarrativeChunksCount: state.Context.Summary.NarrativeCount,
		Sources:              collectSources(state.Context),
		LatencyMs:            time.Since(state.Started).Milliseconds(),
		TokensUsed:           state.Analysis.TokensUsed,
	}

	if state.Finding.Verdict != reasoning.VerdictSkipped {
		finding := state.Finding
		resp.Contradiction = &finding
	}

	state.Stage = StageFormatted
	return resp
}

// collectSources lists every evidence source surfaced in the context, in
// context order, deduplicated.
func collectSources(hc retrieval.HybridContext) []string {
	sources := make([]string, 0, len(hc.Metrics)+len(hc.Chunks))
	seen := make(map[string]struct{})

	add := func(label string) {
		if _, ok := seen[label]; ok {
			return
		}
		seen[label] = struct{}{}
		sources = append(sources, label)
	}

	for _, m := range hc.Metrics {
		add(fmt.Sprintf("%s (%s) FY%d financial metrics", m.Company, m.Ticker, m.Year))
	}
	for _, c := range hc.Chunks {
		add(retrieval.SourceLabel(c))
	}

	return sources
}

func truncateForLog(query string) string {
	const max = 80
	runes := []rune(query)
	if len(runes) <= max {
		return query
	}
	return string(runes[:max]) + "..."
}
