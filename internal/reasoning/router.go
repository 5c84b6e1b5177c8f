package reasoning

import (
	"context"
	"time"

	"github.com/ayushthakur13/fin-vault-ai/internal/adapters/ai"
	"github.com/ayushthakur13/fin-vault-ai/pkg/errors"
	"github.com/ayushthakur13/fin-vault-ai/pkg/logger"
)

// Tier selects the reasoning depth. Fast targets sub-30-second single-pass
// prompts; thorough allows multi-step comparative prompts up to ~3 minutes.
type Tier string

const (
	TierFast     Tier = "fast"
	TierThorough Tier = "thorough"
)

// Valid checks if the tier is known
func (t Tier) Valid() bool {
	return t == TierFast || t == TierThorough
}

// Result is the strict, fully-populated outcome of one reasoning call. No
// loosely-typed provider value crosses past the router: failures become
// errors, successes become this struct, and TokensUsed is zero (not absent)
// when the provider does not report usage.
type Result struct {
	Text       string
	Model      string
	TokensUsed int
	LatencyMs  int64
}

// RouterConfig configures model and timeout per tier.
type RouterConfig struct {
	FastModel       string
	ThoroughModel   string
	FastTimeout     time.Duration
	ThoroughTimeout time.Duration
	Temperature     float64
}

// Router invokes one of two LLM tiers and records latency and token usage.
// Tier selection is driven by the caller, never inferred.
type Router struct {
	provider ai.ChatProvider
	cfg      RouterConfig
	log      *logger.Logger
}

// NewRouter creates a model router over a chat provider
func NewRouter(provider ai.ChatProvider, cfg RouterConfig) *Router {
	if cfg.FastTimeout == 0 {
		cfg.FastTimeout = 30 * time.Second
	}
	if cfg.ThoroughTimeout == 0 {
		cfg.ThoroughTimeout = 3 * time.Minute
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.2
	}
	return &Router{
		provider: provider,
		cfg:      cfg,
		log:      logger.Get().With("component", "model_router"),
	}
}

// ModelFor returns the model identifier for a tier.
func (r *Router) ModelFor(tier Tier) string {
	if tier == TierThorough {
		return r.cfg.ThoroughModel
	}
	return r.cfg.FastModel
}

// Reason sends the prompt to the tier's model. Every provider failure is
// caught here and returned as a structured error wrapping errors.ErrTimeout
// or errors.ErrProvider; the zero Result is never partially trusted.
func (r *Router) Reason(ctx context.Context, prompt string, tier Tier) (Result, error) {
	if !tier.Valid() {
		tier = TierFast
	}

	model := r.ModelFor(tier)
	timeout := r.cfg.FastTimeout
	if tier == TierThorough {
		timeout = r.cfg.ThoroughTimeout
	}

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	resp, err := r.provider.Chat(callCtx, ai.ChatRequest{
		Model:       model,
		Temperature: r.cfg.Temperature,
		Messages: []ai.Message{
			{Role: ai.RoleUser, Content: prompt},
		},
	})
	latency := time.Since(start).Milliseconds()

	if err != nil {
		if callCtx.Err() == context.DeadlineExceeded || errors.Is(err, errors.ErrTimeout) {
			r.log.Warnw("Reasoning call timed out", "tier", tier, "model", model, "latency_ms", latency)
			return Result{}, errors.Wrapf(errors.ErrTimeout, "tier %s", tier)
		}
		r.log.Warnw("Reasoning call failed", "tier", tier, "model", model, "error", err)
		return Result{}, errors.Wrapf(errors.ErrProvider, "tier %s: %v", tier, err)
	}

	if len(resp.Choices) == 0 {
		return Result{}, errors.Wrapf(errors.ErrProvider, "tier %s: empty completion", tier)
	}

	result := Result{
		Text:       resp.Choices[0].Message.Content,
		Model:      model,
		TokensUsed: resp.Usage.TotalTokens, // zero when the provider omits usage
		LatencyMs:  latency,
	}

	r.log.Infow("Reasoning completed",
		"tier", tier,
		"model", model,
		"tokens_used", result.TokensUsed,
		"latency_ms", latency,
		"chars", len(result.Text))

	return result, nil
}
