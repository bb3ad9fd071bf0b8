package llm

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/hiresignal/scout-cli/pkg/anthropic"
	"github.com/hiresignal/scout-cli/pkg/chatapi"
)

// ProviderClient executes a single completion against one provider.
// Implementations return the raw completion text; empty text is the
// caller's problem to interpret.
type ProviderClient interface {
	Name() string
	Generate(ctx context.Context, model, prompt string) (string, error)
}

// chatProvider adapts an OpenAI-compatible endpoint (Groq, OpenRouter)
// to the ProviderClient contract.
type chatProvider struct {
	name      string
	client    chatapi.Client
	maxTokens int
}

// NewChatProvider wraps a chatapi client as a named fallback provider.
func NewChatProvider(name string, client chatapi.Client, maxTokens int) ProviderClient {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxOutputTokens
	}
	return &chatProvider{name: name, client: client, maxTokens: maxTokens}
}

func (p *chatProvider) Name() string { return p.name }

func (p *chatProvider) Generate(ctx context.Context, model, prompt string) (string, error) {
	resp, err := p.client.ChatCompletion(ctx, chatapi.ChatCompletionRequest{
		Model:     model,
		Messages:  []chatapi.Message{{Role: "user", Content: prompt}},
		MaxTokens: &p.maxTokens,
	})
	if err != nil {
		return "", eris.Wrapf(err, "llm: %s completion", p.name)
	}
	return resp.Text(), nil
}

// anthropicProvider adapts the Anthropic messages API to the
// ProviderClient contract.
type anthropicProvider struct {
	client    anthropic.Client
	maxTokens int
}

// NewAnthropicProvider wraps an Anthropic client as a fallback provider.
func NewAnthropicProvider(client anthropic.Client, maxTokens int) ProviderClient {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxOutputTokens
	}
	return &anthropicProvider{client: client, maxTokens: maxTokens}
}

func (p *anthropicProvider) Name() string { return "anthropic" }

func (p *anthropicProvider) Generate(ctx context.Context, model, prompt string) (string, error) {
	resp, err := p.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     model,
		MaxTokens: int64(p.maxTokens),
		Messages:  []anthropic.Message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", eris.Wrap(err, "llm: anthropic completion")
	}

	zap.L().Debug("llm: anthropic call",
		zap.String("model", model),
		zap.Int64("input_tokens", resp.Usage.InputTokens),
		zap.Int64("output_tokens", resp.Usage.OutputTokens),
		zap.Float64("est_cost_usd", resp.Usage.EstimateCost(model)),
	)

	return resp.Text(), nil
}
