package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hiresignal/scout-cli/pkg/anthropic"
	"github.com/hiresignal/scout-cli/pkg/chatapi"
)

// fakeChatAPI captures the request and returns a scripted response.
type fakeChatAPI struct {
	req  chatapi.ChatCompletionRequest
	resp *chatapi.ChatCompletionResponse
	err  error
}

func (f *fakeChatAPI) ChatCompletion(_ context.Context, req chatapi.ChatCompletionRequest) (*chatapi.ChatCompletionResponse, error) {
	f.req = req
	return f.resp, f.err
}

func TestChatProvider_Generate(t *testing.T) {
	fake := &fakeChatAPI{
		resp: &chatapi.ChatCompletionResponse{
			Choices: []chatapi.Choice{
				{Message: chatapi.Message{Role: "assistant", Content: "SCORE: 0.8"}},
			},
		},
	}
	p := NewChatProvider("groq", fake, 300)

	text, err := p.Generate(context.Background(), "llama-3.3-70b-versatile", "rate this")
	require.NoError(t, err)
	assert.Equal(t, "SCORE: 0.8", text)

	assert.Equal(t, "llama-3.3-70b-versatile", fake.req.Model)
	require.Len(t, fake.req.Messages, 1)
	assert.Equal(t, "user", fake.req.Messages[0].Role)
	assert.Equal(t, "rate this", fake.req.Messages[0].Content)
	require.NotNil(t, fake.req.MaxTokens)
	assert.Equal(t, 300, *fake.req.MaxTokens)
}

func TestChatProvider_Error(t *testing.T) {
	fake := &fakeChatAPI{err: assert.AnError}
	p := NewChatProvider("openrouter", fake, 0)

	_, err := p.Generate(context.Background(), "some-model", "prompt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "openrouter")
}

func TestChatProvider_Name(t *testing.T) {
	t.Parallel()
	p := NewChatProvider("groq", &fakeChatAPI{}, 0)
	assert.Equal(t, "groq", p.Name())
}

// fakeAnthropic captures the request and returns a scripted response.
type fakeAnthropic struct {
	req  anthropic.MessageRequest
	resp *anthropic.MessageResponse
	err  error
}

func (f *fakeAnthropic) CreateMessage(_ context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	f.req = req
	return f.resp, f.err
}

func TestAnthropicProvider_Generate(t *testing.T) {
	fake := &fakeAnthropic{
		resp: &anthropic.MessageResponse{
			Content: []anthropic.ContentBlock{
				{Type: "text", Text: "SCORE: 0.9\nREASON: Great."},
			},
		},
	}
	p := NewAnthropicProvider(fake, 256)

	text, err := p.Generate(context.Background(), "claude-haiku-4-5-20251001", "rate this")
	require.NoError(t, err)
	assert.Equal(t, "SCORE: 0.9\nREASON: Great.", text)

	assert.Equal(t, "claude-haiku-4-5-20251001", fake.req.Model)
	assert.Equal(t, int64(256), fake.req.MaxTokens)
	require.Len(t, fake.req.Messages, 1)
	assert.Equal(t, "user", fake.req.Messages[0].Role)
}

func TestAnthropicProvider_DefaultMaxTokens(t *testing.T) {
	fake := &fakeAnthropic{resp: &anthropic.MessageResponse{}}
	p := NewAnthropicProvider(fake, 0)

	_, err := p.Generate(context.Background(), "claude-haiku-4-5-20251001", "prompt")
	require.NoError(t, err)
	assert.Equal(t, int64(DefaultMaxOutputTokens), fake.req.MaxTokens)
}

func TestAnthropicProvider_Name(t *testing.T) {
	t.Parallel()
	p := NewAnthropicProvider(&fakeAnthropic{}, 0)
	assert.Equal(t, "anthropic", p.Name())
}
