package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicBackend generates through the Anthropic Messages API.
type AnthropicBackend struct {
	api       *anthropic.Client
	model     anthropic.Model
	maxTokens int64
	hasKey    bool
}

// NewAnthropic creates the remote backend. An empty API key is allowed at
// construction time; the backend reports itself unavailable instead of
// failing requests with an opaque auth error.
func NewAnthropic(apiKey, model string, maxTokens int64) *AnthropicBackend {
	opts := []option.RequestOption{}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	client := anthropic.NewClient(opts...)
	return &AnthropicBackend{
		api:       &client,
		model:     anthropic.Model(model),
		maxTokens: maxTokens,
		hasKey:    apiKey != "",
	}
}

// Name implements Backend.
func (b *AnthropicBackend) Name() string { return "anthropic" }

// Ready implements Backend. The remote API has no load phase; the only
// local precondition is a configured key.
func (b *AnthropicBackend) Ready(ctx context.Context) error {
	if !b.hasKey {
		return errors.New("anthropic API key not configured")
	}
	return nil
}

// Generate implements Backend.
func (b *AnthropicBackend) Generate(ctx context.Context, system, user string) (string, bool, error) {
	msg, err := b.api.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     b.model,
		MaxTokens: b.maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: system},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
	})
	if err != nil {
		return "", false, fmt.Errorf("anthropic API call: %w", err)
	}

	var text string
	for _, block := range msg.Content {
		if block.Type == "text" {
			text = block.Text
			break
		}
	}

	truncated := string(msg.StopReason) == "max_tokens"
	return strings.TrimSpace(text), truncated, nil
}
