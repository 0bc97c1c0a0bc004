package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"

	"github.com/S342D32/Mini-Perplexity/internal/config"
	"github.com/S342D32/Mini-Perplexity/internal/domain"
	"github.com/S342D32/Mini-Perplexity/internal/logger"
)

type fakeModel struct {
	messages []llms.MessageContent
	resp     *llms.ContentResponse
	err      error
}

func (f *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	f.messages = messages
	return f.resp, f.err
}

func TestClientGenerate(t *testing.T) {
	fake := &fakeModel{resp: &llms.ContentResponse{Choices: []*llms.ContentChoice{{
		Content:        "Quantum computers use qubits.",
		GenerationInfo: map[string]any{"PromptTokens": 12, "CompletionTokens": 5, "TotalTokens": 17},
	}}}}
	client := newClientWithModel(fake, "gemini-2.0-flash", time.Second)

	gen, err := client.Generate(context.Background(), &Request{
		Prompt: "User Question: what is quantum computing?",
		History: []Turn{
			{Role: domain.RoleUser, Content: "hi"},
			{Role: domain.RoleAssistant, Content: "hello"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Quantum computers use qubits.", gen.Text)
	assert.Equal(t, "gemini-2.0-flash", gen.Model)
	assert.Equal(t, 17, gen.TotalTokens)

	require.Len(t, fake.messages, 3)
	assert.Equal(t, schema.ChatMessageTypeHuman, fake.messages[0].Role)
	assert.Equal(t, schema.ChatMessageTypeAI, fake.messages[1].Role)
	assert.Equal(t, schema.ChatMessageTypeHuman, fake.messages[2].Role)
}

func TestClientGenerateVendorError(t *testing.T) {
	client := newClientWithModel(&fakeModel{err: errors.New("503 upstream")}, "gemini", time.Second)

	_, err := client.Generate(context.Background(), &Request{Prompt: "q"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrVendorUnavailable))
}

func TestClientGenerateNoChoices(t *testing.T) {
	client := newClientWithModel(&fakeModel{resp: &llms.ContentResponse{}}, "gemini", time.Second)

	gen, err := client.Generate(context.Background(), &Request{Prompt: "q"})
	require.NoError(t, err)
	assert.Empty(t, gen.Text)
}

func TestMockClientGenerate(t *testing.T) {
	gen, err := NewMockClient().Generate(context.Background(), &Request{
		Prompt: "Search Results:\nSource: x\n\nUser Question: What is Go?\n\nNow answer.",
	})
	require.NoError(t, err)
	assert.Contains(t, gen.Text, "[MOCK]")
	assert.Contains(t, gen.Text, "What is Go?")
	assert.Positive(t, gen.TotalTokens)
}

func TestNewGenerator(t *testing.T) {
	log := logger.Discard()

	assert.IsType(t, &MockClient{}, NewGenerator(&config.Config{Mode: config.ModeMock}, log))

	gen := NewGenerator(&config.Config{LLMProvider: ProviderGoogleAI}, log)
	require.IsType(t, &UnavailableClient{}, gen)
	_, err := gen.Generate(context.Background(), &Request{Prompt: "q"})
	assert.True(t, errors.Is(err, domain.ErrVendorUnavailable))

	gen = NewGenerator(&config.Config{
		LLMProvider:   ProviderGoogleAI,
		GeminiAPIKey:  "key",
		GeminiModel:   "gemini-2.0-flash",
		GeminiBaseURL: "https://generativelanguage.googleapis.com/v1beta/openai/",
	}, log)
	require.IsType(t, &Client{}, gen)
	assert.Equal(t, "gemini-2.0-flash", gen.Model())
}
