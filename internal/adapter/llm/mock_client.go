package llm

import (
	"context"
	"fmt"
	"strings"
)

// MockClient is a Generator that answers without calling a vendor.
type MockClient struct{}

// NewMockClient creates a new mock generator.
func NewMockClient() *MockClient {
	return &MockClient{}
}

// Ensure MockClient implements Generator interface.
var _ Generator = (*MockClient)(nil)

// Model implements Generator.
func (m *MockClient) Model() string {
	return "mock-gemini"
}

// Generate returns a canned answer echoing the question.
func (m *MockClient) Generate(ctx context.Context, req *Request) (*Generation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	text := fmt.Sprintf("[MOCK] Here is what the search results say about %q. This is a mock response.",
		truncate(questionOf(req.Prompt), 100))

	promptTokens := len(req.Prompt) / 4
	for _, turn := range req.History {
		promptTokens += len(turn.Content) / 4
	}
	completionTokens := len(text) / 4
	return &Generation{
		Text:             text,
		Model:            m.Model(),
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
		TotalTokens:      promptTokens + completionTokens,
	}, nil
}

// questionOf pulls the user question out of a chat prompt, falling back to
// the whole prompt.
func questionOf(prompt string) string {
	const marker = "User Question:"
	i := strings.LastIndex(prompt, marker)
	if i < 0 {
		return strings.TrimSpace(prompt)
	}
	rest := prompt[i+len(marker):]
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		rest = rest[:nl]
	}
	return strings.TrimSpace(rest)
}

// truncate truncates a string to the given length.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
