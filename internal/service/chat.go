package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/S342D32/Mini-Perplexity/internal/adapter/llm"
	"github.com/S342D32/Mini-Perplexity/internal/domain"
	"github.com/S342D32/Mini-Perplexity/internal/policy"
	"github.com/S342D32/Mini-Perplexity/internal/search"
)

// Texts returned in place of an answer.
const (
	ApologyText    = "I apologize, but I encountered an error while processing your request. Please try again."
	NoAnswerText   = "I apologize, but I couldn't generate a response at this time."
	fallbackSuffix = "_fallback"
)

// AskInput is one chat question.
type AskInput struct {
	Message   string
	SessionID string
}

// AskResult is the answer to a chat question. When generation fails the
// answer is ApologyText, Sources is empty and Masked is set.
type AskResult struct {
	Response       string             `json:"response"`
	Sources        []domain.RawSource `json:"sources"`
	SessionID      string             `json:"sessionId,omitempty"`
	Model          string             `json:"model_used,omitempty"`
	TokensUsed     int                `json:"tokens_used,omitempty"`
	ResponseTimeMs int                `json:"response_time_ms,omitempty"`
	SearchQuery    string             `json:"search_query,omitempty"`
	Masked         bool               `json:"-"`
}

// Ask searches the web for the question and has the model answer from the
// results. Vendor failures never surface as errors: search falls back to
// suggestion links and a failed generation yields ApologyText. Only a
// missing question is an error. Storage is used best effort for prior
// turns and search analytics.
func (s *Service) Ask(ctx context.Context, in AskInput, requester string) (*AskResult, error) {
	question := strings.TrimSpace(in.Message)
	if question == "" {
		return nil, fmt.Errorf("message is required: %w", domain.ErrInvalidInput)
	}
	started := time.Now()

	sessionID := s.readableSession(ctx, in.SessionID, requester)
	results := s.search(ctx, question, sessionID)
	history := s.history(ctx, sessionID, question)

	genCtx, cancel := withTimeout(ctx, s.config.LLMTimeout)
	defer cancel()
	genStart := time.Now()
	gen, err := s.generator.Generate(genCtx, &llm.Request{
		Prompt:  BuildPrompt(question, results),
		History: history,
	})
	s.metrics.ObserveVendor("llm", genStart, err)
	if err != nil {
		s.log.Warn("generation failed, answering with apology", "model", s.generator.Model(), "error", err)
		s.metrics.MaskedFailure()
		return &AskResult{
			Response:  ApologyText,
			Sources:   []domain.RawSource{},
			SessionID: in.SessionID,
			Masked:    true,
		}, nil
	}

	text := strings.TrimSpace(gen.Text)
	if text == "" {
		text = NoAnswerText
	}
	return &AskResult{
		Response:       text,
		Sources:        results,
		SessionID:      in.SessionID,
		Model:          gen.Model,
		TokensUsed:     gen.TotalTokens,
		ResponseTimeMs: int(time.Since(started).Milliseconds()),
		SearchQuery:    question,
	}, nil
}

// search runs the search vendor and degrades to suggestion links.
func (s *Service) search(ctx context.Context, query, sessionID string) []domain.RawSource {
	sctx, cancel := withTimeout(ctx, s.config.SearchTimeout)
	defer cancel()

	start := time.Now()
	resp, err := s.searcher.Search(sctx, query)
	s.metrics.ObserveVendor("search", start, err)

	provider := s.searcher.Name()
	var results []domain.RawSource
	switch {
	case err != nil:
		s.log.Warn("search failed, using fallback suggestions", "provider", provider, "error", err)
		provider += fallbackSuffix
		results = search.Fallback(query)
	case len(resp.Results) == 0:
		results = search.NoResults(query)
	default:
		results = resp.Results
	}

	s.recordSearch(ctx, query, sessionID, provider, len(results), time.Since(start))
	return results
}

func (s *Service) recordSearch(ctx context.Context, query, sessionID, provider string, count int, took time.Duration) {
	rec := &domain.SearchRecord{
		ID:               uuid.New().String(),
		Query:            query,
		ResultsCount:     count,
		SearchDurationMs: int(took.Milliseconds()),
		Provider:         provider,
		ProviderMetadata: domain.Metadata{},
		CreatedAt:        s.now(),
	}
	if sessionID != "" {
		rec.SessionID = &sessionID
	}
	sctx, cancel := s.storageCtx(ctx)
	defer cancel()
	if err := s.store.SaveSearchRecord(sctx, rec); err != nil {
		s.log.Warn("failed to record search analytics", "error", err)
	}
}

// readableSession returns sessionID when it names a session requester may
// read, and "" otherwise.
func (s *Service) readableSession(ctx context.Context, sessionID, requester string) string {
	if sessionID == "" {
		return ""
	}
	if err := s.checkAccess(ctx, sessionID, requester, policy.ActionRead); err != nil {
		s.log.Debug("ignoring session for chat context", "session_id", sessionID, "error", err)
		return ""
	}
	return sessionID
}

// history loads prior turns of a readable session. The current question is
// dropped when the client already saved it.
func (s *Service) history(ctx context.Context, sessionID, question string) []llm.Turn {
	if sessionID == "" {
		return nil
	}
	msgs, err := s.ConversationContext(ctx, sessionID)
	if err != nil {
		s.log.Warn("failed to load conversation context", "session_id", sessionID, "error", err)
		return nil
	}
	if n := len(msgs); n > 0 && msgs[n-1].Role == domain.RoleUser && msgs[n-1].Content == question {
		msgs = msgs[:n-1]
	}
	turns := make([]llm.Turn, 0, len(msgs))
	for _, m := range msgs {
		turns = append(turns, llm.Turn{Role: m.Role, Content: m.Content})
	}
	return turns
}

// BuildPrompt lays out the search results and the question for the model.
func BuildPrompt(question string, results []domain.RawSource) string {
	var b strings.Builder
	b.WriteString(`You are Mini Perplexity, an AI search assistant. Provide a comprehensive, conversational, and well-structured answer based on the search results.

FORMATTING RULES:
- Start directly with the answer (no greetings or intros)
- Use short section headers
- Use bullet points (-) for lists
- Do NOT use **bold** or *italic* Markdown formatting
- Keep answers friendly, simple, and easy to read

Search Results:
`)
	for i, r := range results {
		if i > 0 {
			b.WriteString("\n\n")
		}
		snippet := r.Snippet
		if snippet == "" {
			snippet = r.Content
		}
		fmt.Fprintf(&b, "Source: %s\nContent: %s", r.Title, snippet)
	}
	fmt.Fprintf(&b, "\n\nUser Question: %s\n\nNow write the final answer in a friendly tone.\n", question)
	return b.String()
}
