package search

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"unicode"

	"github.com/S342D32/Mini-Perplexity/internal/domain"
)

// MockSearcher returns canned results picked by keywords in the query. It
// stands in for the real vendor when no API key is configured.
type MockSearcher struct{}

var _ Searcher = (*MockSearcher)(nil)

// NewMockSearcher creates a new mock searcher.
func NewMockSearcher() *MockSearcher {
	return &MockSearcher{}
}

// Name implements Searcher.
func (m *MockSearcher) Name() string {
	return "mock"
}

// Search implements Searcher.
func (m *MockSearcher) Search(ctx context.Context, query string) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &Response{Provider: m.Name(), Results: mockResults(query)}, nil
}

func mockResults(query string) []domain.RawSource {
	lower := strings.ToLower(query)
	words := strings.FieldsFunc(lower, func(r rune) bool { return !unicode.IsLetter(r) && !unicode.IsDigit(r) })
	has := func(w string) bool {
		for _, word := range words {
			if word == w {
				return true
			}
		}
		return false
	}

	var results []domain.RawSource
	switch {
	case has("ai") || strings.Contains(lower, "artificial intelligence"):
		results = []domain.RawSource{
			{
				Title:   "OpenAI - Artificial Intelligence Research",
				URL:     "https://openai.com",
				Snippet: "OpenAI is an AI research and deployment company. Our mission is to ensure that artificial general intelligence benefits all of humanity.",
				Score:   score(0.95),
			},
			{
				Title:   "Google AI - Machine Learning Research",
				URL:     "https://ai.google",
				Snippet: "Google AI is advancing the state of the art in machine learning and making AI helpful for everyone.",
				Score:   score(0.90),
			},
		}
	case has("tech") || has("technology"):
		results = []domain.RawSource{
			{
				Title:   "TechCrunch - Latest Technology News",
				URL:     "https://techcrunch.com",
				Snippet: "TechCrunch is a leading technology media property, dedicated to profiling startups, reviewing new Internet products, and breaking tech news.",
				Score:   score(0.92),
			},
			{
				Title:   "Wired - Technology, Science, Culture",
				URL:     "https://wired.com",
				Snippet: "WIRED is where tomorrow is realized. It is the essential source of information and ideas that make sense of a world in constant transformation.",
				Score:   score(0.88),
			},
		}
	default:
		results = []domain.RawSource{
			{
				Title:   "Wikipedia - " + query,
				URL:     wikipediaURL(query),
				Snippet: fmt.Sprintf("Wikipedia article about %q with comprehensive information from reliable sources.", query),
				Score:   score(0.85),
			},
			{
				Title:   "Latest News about " + query,
				URL:     "https://news.google.com/search?q=" + url.QueryEscape(query),
				Snippet: fmt.Sprintf("Recent news articles and updates about %q from various news sources.", query),
				Score:   score(0.80),
			},
		}
	}
	for i := range results {
		results[i] = withOrigin(results[i])
	}
	return results
}
