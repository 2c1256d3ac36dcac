// Package openai adapts the official OpenAI SDK to the text-completion
// interface used by the script and keyword stages.
package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	sdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
)

const (
	defaultModel          = "gpt-4o"
	defaultTimeout        = 60 * time.Second
	defaultMaxOutputToken = 4096
)

// Config captures the settings for the OpenAI-backed text service.
type Config struct {
	APIKey          string
	BaseURL         string
	Model           string
	Temperature     float64
	MaxOutputTokens int64
	TimeoutSeconds  int
}

// Client issues completions through the Responses API.
type Client struct {
	sdk             sdk.Client
	model           string
	temperature     float64
	maxOutputTokens int64
}

// NewClient constructs a client. SDK-level retries are disabled so that a
// non-success status reaches the caller on the first failure.
func NewClient(cfg Config, opts ...option.RequestOption) (*Client, error) {
	key := strings.TrimSpace(cfg.APIKey)
	if key == "" {
		return nil, errors.New("openai client: api key required")
	}
	timeout := defaultTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	base := []option.RequestOption{
		option.WithAPIKey(key),
		option.WithMaxRetries(0),
		option.WithRequestTimeout(timeout),
	}
	if url := strings.TrimSpace(cfg.BaseURL); url != "" {
		base = append(base, option.WithBaseURL(url))
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}
	maxOut := cfg.MaxOutputTokens
	if maxOut <= 0 {
		maxOut = defaultMaxOutputToken
	}
	return &Client{
		sdk:             sdk.NewClient(append(base, opts...)...),
		model:           model,
		temperature:     cfg.Temperature,
		maxOutputTokens: maxOut,
	}, nil
}

// Complete sends the system prompt as instructions and the user prompt as a
// single input message, returning the concatenated output text.
func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	systemPrompt = strings.TrimSpace(systemPrompt)
	userPrompt = strings.TrimSpace(userPrompt)
	if systemPrompt == "" {
		return "", errors.New("openai complete: system prompt required")
	}
	if userPrompt == "" {
		return "", errors.New("openai complete: user prompt required")
	}
	input := []responses.ResponseInputItemUnionParam{
		responses.ResponseInputItemParamOfMessage(userPrompt, responses.EasyInputMessageRoleUser),
	}
	params := responses.ResponseNewParams{
		Model:           c.model,
		MaxOutputTokens: sdk.Int(c.maxOutputTokens),
		Instructions:    sdk.String(systemPrompt),
		Temperature:     sdk.Float(c.temperature),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: input,
		},
	}
	resp, err := c.sdk.Responses.New(ctx, params)
	if err != nil {
		var apiErr *sdk.Error
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("openai complete: http %d: %w", apiErr.StatusCode, err)
		}
		return "", fmt.Errorf("openai complete: %w", err)
	}
	content := strings.TrimSpace(resp.OutputText())
	if content == "" {
		return "", fmt.Errorf("openai complete: empty content (status=%s)", resp.Status)
	}
	return content, nil
}
