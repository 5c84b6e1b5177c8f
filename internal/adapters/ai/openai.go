package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ayushthakur13/fin-vault-ai/pkg/errors"
	"github.com/ayushthakur13/fin-vault-ai/pkg/logger"
)

// Ensure OpenAICompatProvider implements ChatProvider
var _ ChatProvider = (*OpenAICompatProvider)(nil)

// OpenAICompatProvider talks to any OpenAI-compatible chat completions
// endpoint (Groq, OpenAI, local gateways) over plain HTTP.
type OpenAICompatProvider struct {
	apiKey      string
	baseURL     string
	httpClient  *http.Client
	rateLimiter *Limiter
	log         *logger.Logger
}

// NewOpenAICompatProvider creates a chat provider for an OpenAI-compatible API.
func NewOpenAICompatProvider(apiKey, baseURL string, requestsPerMinute int) *OpenAICompatProvider {
	baseURL = strings.TrimRight(baseURL, "/")
	if requestsPerMinute <= 0 {
		requestsPerMinute = 60
	}

	return &OpenAICompatProvider{
		apiKey:  apiKey,
		baseURL: baseURL,
		// Per-request deadlines come from the caller's context; this is a
		// safety net against connections that never complete.
		httpClient:  &http.Client{Timeout: 5 * time.Minute},
		rateLimiter: NewLimiter("chat", requestsPerMinute),
		log:         logger.Get().With("component", "chat_provider"),
	}
}

// Name returns the provider identifier
func (p *OpenAICompatProvider) Name() string {
	return "openai-compat"
}

// Chat sends a chat completion request.
func (p *OpenAICompatProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if p.apiKey == "" {
		return nil, errors.Wrap(errors.ErrInvalidInput, "chat API key not configured")
	}

	if err := p.rateLimiter.Wait(ctx); err != nil {
		return nil, errors.Wrap(errors.ErrRateLimitExceeded, err.Error())
	}

	apiReq := apiRequest{
		Model:       req.Model,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	if apiReq.MaxTokens == 0 {
		apiReq.MaxTokens = 4096
	}
	for _, msg := range req.Messages {
		apiReq.Messages = append(apiReq.Messages, apiMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}

	body, err := json.Marshal(apiReq)
	if err != nil {
		return nil, errors.Wrap(err, "marshal chat request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", p.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "create HTTP request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.Wrap(errors.ErrTimeout, "chat request deadline exceeded")
		}
		return nil, errors.Wrap(errors.ErrProvider, err.Error())
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(errors.ErrProvider, "read chat response")
	}

	if resp.StatusCode != http.StatusOK {
		var errResp struct {
			Error struct {
				Message string `json:"message"`
				Type    string `json:"type"`
			} `json:"error"`
		}
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error.Message != "" {
			return nil, errors.Wrapf(errors.ErrProvider, "chat API error (%d): %s - %s",
				resp.StatusCode, errResp.Error.Type, errResp.Error.Message)
		}
		return nil, errors.Wrapf(errors.ErrProvider, "chat API error (%d)", resp.StatusCode)
	}

	var apiResp apiResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return nil, errors.Wrap(errors.ErrProvider, "unmarshal chat response")
	}

	chatResp := &ChatResponse{
		ID:    apiResp.ID,
		Model: apiResp.Model,
		Usage: Usage{
			PromptTokens:     apiResp.Usage.PromptTokens,
			CompletionTokens: apiResp.Usage.CompletionTokens,
			TotalTokens:      apiResp.Usage.TotalTokens,
		},
	}

	for _, choice := range apiResp.Choices {
		finishReason := FinishReasonStop
		switch choice.FinishReason {
		case "length":
			finishReason = FinishReasonLength
		case "error":
			finishReason = FinishReasonError
		}

		chatResp.Choices = append(chatResp.Choices, Choice{
			Index: choice.Index,
			Message: Message{
				Role:    MessageRole(choice.Message.Role),
				Content: choice.Message.Content,
			},
			FinishReason: finishReason,
		})
	}

	return chatResp, nil
}

// Wire types for the OpenAI-compatible chat completions API

type apiRequest struct {
	Model       string       `json:"model"`
	Messages    []apiMessage `json:"messages"`
	Temperature float64      `json:"temperature,omitempty"`
	MaxTokens   int          `json:"max_tokens,omitempty"`
}

type apiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type apiResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index        int        `json:"index"`
		Message      apiMessage `json:"message"`
		FinishReason string     `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}
