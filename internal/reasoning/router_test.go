package reasoning

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayushthakur13/fin-vault-ai/internal/adapters/ai"
	"github.com/ayushthakur13/fin-vault-ai/pkg/errors"
)

// fakeChatProvider returns a canned response or error and records the request.
type fakeChatProvider struct {
	resp  *ai.ChatResponse
	err   error
	delay time.Duration

	lastReq ai.ChatRequest
}

func (f *fakeChatProvider) Name() string { return "fake" }

func (f *fakeChatProvider) Chat(ctx context.Context, req ai.ChatRequest) (*ai.ChatResponse, error) {
	f.lastReq = req
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func chatResponse(text string, tokens int) *ai.ChatResponse {
	return &ai.ChatResponse{
		Choices: []ai.Choice{
			{Message: ai.Message{Role: ai.RoleAssistant, Content: text}},
		},
		Usage: ai.Usage{TotalTokens: tokens},
	}
}

func testRouterConfig() RouterConfig {
	return RouterConfig{
		FastModel:     "fast-model",
		ThoroughModel: "thorough-model",
	}
}

func TestReasonSelectsModelByTier(t *testing.T) {
	provider := &fakeChatProvider{resp: chatResponse("analysis", 100)}
	r := NewRouter(provider, testRouterConfig())

	result, err := r.Reason(context.Background(), "prompt", TierFast)
	require.NoError(t, err)
	assert.Equal(t, "fast-model", result.Model)
	assert.Equal(t, "fast-model", provider.lastReq.Model)

	result, err = r.Reason(context.Background(), "prompt", TierThorough)
	require.NoError(t, err)
	assert.Equal(t, "thorough-model", result.Model)
	assert.Equal(t, "thorough-model", provider.lastReq.Model)
}

func TestReasonInvalidTierDefaultsToFast(t *testing.T) {
	provider := &fakeChatProvider{resp: chatResponse("ok", 10)}
	r := NewRouter(provider, testRouterConfig())

	result, err := r.Reason(context.Background(), "prompt", Tier("turbo"))

	require.NoError(t, err)
	assert.Equal(t, "fast-model", result.Model)
}

func TestReasonPopulatesResult(t *testing.T) {
	provider := &fakeChatProvider{resp: chatResponse("the analysis", 250)}
	r := NewRouter(provider, testRouterConfig())

	result, err := r.Reason(context.Background(), "prompt", TierFast)

	require.NoError(t, err)
	assert.Equal(t, "the analysis", result.Text)
	assert.Equal(t, 250, result.TokensUsed)
	assert.GreaterOrEqual(t, result.LatencyMs, int64(0))
}

func TestReasonMissingUsageDefaultsToZero(t *testing.T) {
	provider := &fakeChatProvider{resp: chatResponse("text", 0)}
	r := NewRouter(provider, testRouterConfig())

	result, err := r.Reason(context.Background(), "prompt", TierFast)

	require.NoError(t, err)
	assert.Zero(t, result.TokensUsed)
}

func TestReasonTimeoutSignalsErrTimeout(t *testing.T) {
	cfg := testRouterConfig()
	cfg.FastTimeout = 10 * time.Millisecond
	provider := &fakeChatProvider{resp: chatResponse("late", 1), delay: time.Second}
	r := NewRouter(provider, cfg)

	result, err := r.Reason(context.Background(), "prompt", TierFast)

	assert.Empty(t, result.Text)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrTimeout))
}

func TestReasonProviderFailureSignalsErrProvider(t *testing.T) {
	provider := &fakeChatProvider{err: errors.New("upstream 500")}
	r := NewRouter(provider, testRouterConfig())

	result, err := r.Reason(context.Background(), "prompt", TierFast)

	assert.Empty(t, result.Text)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrProvider))
}

func TestReasonEmptyCompletionIsProviderError(t *testing.T) {
	provider := &fakeChatProvider{resp: &ai.ChatResponse{}}
	r := NewRouter(provider, testRouterConfig())

	_, err := r.Reason(context.Background(), "prompt", TierFast)

	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrProvider))
}

func TestModelFor(t *testing.T) {
	r := NewRouter(&fakeChatProvider{}, testRouterConfig())

	assert.Equal(t, "fast-model", r.ModelFor(TierFast))
	assert.Equal(t, "thorough-model", r.ModelFor(TierThorough))
}
