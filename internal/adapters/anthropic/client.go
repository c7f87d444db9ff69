// Package anthropic adapts the Anthropic SDK to domain.ChatModel for one-
// shot, single-turn prompt/response calls (grading, intent classification,
// generation). Grounded on manifold's internal/llm/anthropic.Client, with
// the multi-turn/tool-call/thinking-block machinery that package needs for
// its agent loop stripped down to the single-user-message round trip this
// pipeline's prompts actually need.
package anthropic

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/wealthlens/ragpipe/internal/domain"
)

// Config configures the Anthropic-backed ChatModel.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
}

// Client implements domain.ChatModel over the Anthropic Messages API.
type Client struct {
	sdk   sdk.Client
	model string
}

// New constructs a Client. httpClient may be nil to use http.DefaultClient.
func New(cfg Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	opts := []option.RequestOption{
		option.WithAPIKey(strings.TrimSpace(cfg.APIKey)),
		option.WithHTTPClient(httpClient),
	}
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimSuffix(base, "/")))
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = string(sdk.ModelClaude3_7SonnetLatest)
	}
	return &Client{sdk: sdk.NewClient(opts...), model: model}
}

// Chat sends a single user-turn message and returns the concatenated text
// content of the reply.
func (c *Client) Chat(ctx context.Context, prompt string, opts domain.ChatOptions) (string, error) {
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = c.model
	}
	maxTokens := int64(opts.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	params := sdk.MessageNewParams{
		Model:     sdk.Model(model),
		MaxTokens: maxTokens,
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(prompt)),
		},
	}
	resp, err := c.sdk.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic: chat: %w", err)
	}
	var sb strings.Builder
	for _, block := range resp.Content {
		if tb, ok := block.AsAny().(sdk.TextBlock); ok {
			sb.WriteString(tb.Text)
		}
	}
	return sb.String(), nil
}

// Rerank is not supported by the Anthropic Messages API; callers fall back
// to internal/retrieve.ConfidenceReranker on this error.
func (c *Client) Rerank(context.Context, string, []string) ([]float64, error) {
	return nil, fmt.Errorf("anthropic: rerank not supported")
}
