// Package openai adapts the OpenAI SDK to domain.ChatModel, grounded on
// manifold's internal/llm/openai.Client (the sdk.Client/model/baseURL/apiKey
// struct shape) but reduced to the single-turn chat-completion call this
// pipeline's grading, intent, expansion, and generation prompts need.
package openai

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"github.com/wealthlens/ragpipe/internal/domain"
)

// Config configures the OpenAI-backed ChatModel.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
}

// Client implements domain.ChatModel over the OpenAI chat completions API.
type Client struct {
	sdk   openai.Client
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
		model = openai.ChatModelGPT4o
	}
	return &Client{sdk: openai.NewClient(opts...), model: model}
}

// Chat sends a single user-turn message and returns the reply text.
func (c *Client) Chat(ctx context.Context, prompt string, opts domain.ChatOptions) (string, error) {
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = c.model
	}
	params := openai.ChatCompletionNewParams{
		Model: model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	}
	if opts.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(opts.MaxTokens))
	}
	if opts.Temperature > 0 {
		params.Temperature = openai.Float(opts.Temperature)
	}
	resp, err := c.sdk.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai: chat: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai: chat: empty choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// Rerank is not supported by the chat completions API; callers fall back to
// internal/retrieve.ConfidenceReranker on this error.
func (c *Client) Rerank(context.Context, string, []string) ([]float64, error) {
	return nil, fmt.Errorf("openai: rerank not supported")
}
