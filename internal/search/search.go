// Package search finds web sources for a chat question.
package search

import (
	"context"
	"fmt"
	"net/url"

	"github.com/S342D32/Mini-Perplexity/internal/domain"
)

// Searcher returns ranked sources for a query.
type Searcher interface {
	Search(ctx context.Context, query string) (*Response, error)
	Name() string
}

// Response is the outcome of one search.
type Response struct {
	Provider string
	Answer   string
	Results  []domain.RawSource
}

// NoResults is the single suggestion returned when a search finds nothing.
func NoResults(query string) []domain.RawSource {
	return []domain.RawSource{
		withOrigin(domain.RawSource{
			Title:   fmt.Sprintf("No specific results found for %q", query),
			URL:     googleURL(query),
			Snippet: fmt.Sprintf("No specific results were found. You can try searching on Google for more information about %q.", query),
			Score:   score(0.3),
		}),
	}
}

// Fallback is the suggestion list returned when the search vendor fails.
func Fallback(query string) []domain.RawSource {
	return []domain.RawSource{
		withOrigin(domain.RawSource{
			Title:   fmt.Sprintf("Search %q on Google", query),
			URL:     googleURL(query),
			Snippet: fmt.Sprintf("I encountered an issue while searching. You can search for %q on Google for the latest information.", query),
			Score:   score(0.4),
		}),
		withOrigin(domain.RawSource{
			Title:   "Wikipedia - " + query,
			URL:     wikipediaURL(query),
			Snippet: fmt.Sprintf("Check Wikipedia for comprehensive information about %q.", query),
			Score:   score(0.3),
		}),
	}
}

func googleURL(query string) string {
	return "https://www.google.com/search?q=" + url.QueryEscape(query)
}

func wikipediaURL(query string) string {
	return "https://en.wikipedia.org/wiki/" + url.PathEscape(query)
}

func score(v float64) *float64 {
	return &v
}

// withOrigin fills domain and favicon from the URL so clients can render
// the source before it is persisted.
func withOrigin(src domain.RawSource) domain.RawSource {
	if src.Domain == "" {
		src.Domain = domain.DomainOf(src.URL)
	}
	if src.Favicon == "" {
		src.Favicon = domain.FaviconOf(src.URL)
	}
	return src
}
