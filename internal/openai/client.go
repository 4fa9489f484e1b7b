// Package openai provides a thin wrapper around the official OpenAI Go SDK for chat completions.
package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openaisdk "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/packages/param"
	"golang.org/x/time/rate"
)

var (
	// ErrEmptyPrompt is returned when Complete is called with an empty user prompt.
	ErrEmptyPrompt = errors.New("openai: prompt is empty")
	// ErrNoChoicesInResponse is returned when the API response contains no completion choices.
	ErrNoChoicesInResponse = errors.New("openai: no choices in response")
)

const (
	defaultModel       = openaisdk.ChatModelGPT4oMini
	defaultTemperature = 0.3
	defaultMaxTokens   = 800
)

// Client calls the OpenAI chat completions API via the official SDK.
// Calls are rate limited so automation bursts stay inside the account quota.
type Client struct {
	sdk       openaisdk.Client
	model     openaisdk.ChatModel
	maxTokens int64
	limiter   *rate.Limiter
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithModel overrides the completion model.
func WithModel(model string) ClientOption {
	return func(c *Client) {
		if model != "" {
			c.model = openaisdk.ChatModel(model)
		}
	}
}

// WithRateLimit caps completions per second.
func WithRateLimit(perSecond float64) ClientOption {
	return func(c *Client) {
		if perSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

// NewClient creates an OpenAI chat completion client using the official SDK.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	client := &Client{
		sdk:       openaisdk.NewClient(option.WithAPIKey(apiKey)),
		model:     defaultModel,
		maxTokens: defaultMaxTokens,
		limiter:   rate.NewLimiter(rate.Limit(2), 1),
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// Complete returns the model's completion for the given system and user prompts.
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	user = strings.TrimSpace(user)
	if user == "" {
		return "", ErrEmptyPrompt
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}

	messages := []openaisdk.ChatCompletionMessageParamUnion{}
	if system != "" {
		messages = append(messages, openaisdk.SystemMessage(system))
	}
	messages = append(messages, openaisdk.UserMessage(user))

	resp, err := c.sdk.Chat.Completions.New(ctx, openaisdk.ChatCompletionNewParams{
		Messages:    messages,
		Model:       c.model,
		Temperature: param.NewOpt(defaultTemperature),
		MaxTokens:   param.NewOpt(c.maxTokens),
	})
	if err != nil {
		return "", fmt.Errorf("openai completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", ErrNoChoicesInResponse
	}

	return resp.Choices[0].Message.Content, nil
}
