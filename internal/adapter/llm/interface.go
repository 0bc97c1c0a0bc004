// Package llm provides the text generation vendor behind /api/chat.
package llm

import (
	"context"

	"github.com/S342D32/Mini-Perplexity/internal/domain"
)

// Generator produces an answer for a prompt.
type Generator interface {
	// Generate runs one non-streaming completion. Vendor failures are
	// reported wrapping domain.ErrVendorUnavailable.
	Generate(ctx context.Context, req *Request) (*Generation, error)

	// Model names the model answers come from.
	Model() string
}

// Turn is one prior message given to the model as context.
type Turn struct {
	Role    domain.Role
	Content string
}

// Request is a generation request.
type Request struct {
	Prompt    string
	History   []Turn
	MaxTokens int
}

// Generation is a completed answer.
type Generation struct {
	Text             string
	Model            string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Ensure Client implements Generator interface.
var _ Generator = (*Client)(nil)
