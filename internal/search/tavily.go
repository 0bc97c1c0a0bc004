package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/S342D32/Mini-Perplexity/internal/domain"
)

// DefaultExcludedDomains keeps social networks out of citations.
var DefaultExcludedDomains = []string{"pinterest.com", "instagram.com", "facebook.com", "twitter.com"}

// TavilyClient calls the Tavily search API.
type TavilyClient struct {
	baseURL        string
	apiKey         string
	maxResults     int
	excludeDomains []string
	httpClient     *http.Client
}

var _ Searcher = (*TavilyClient)(nil)

// NewTavilyClient creates a new Tavily client.
func NewTavilyClient(baseURL, apiKey string, timeout time.Duration) *TavilyClient {
	return &TavilyClient{
		baseURL:        strings.TrimSuffix(baseURL, "/"),
		apiKey:         apiKey,
		maxResults:     6,
		excludeDomains: DefaultExcludedDomains,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type tavilyRequest struct {
	Query          string   `json:"query"`
	SearchDepth    string   `json:"search_depth"`
	IncludeAnswer  bool     `json:"include_answer"`
	IncludeImages  bool     `json:"include_images"`
	MaxResults     int      `json:"max_results"`
	ExcludeDomains []string `json:"exclude_domains,omitempty"`
	Days           int      `json:"days,omitempty"`
}

type tavilyResponse struct {
	Answer  string `json:"answer"`
	Results []struct {
		Title         string  `json:"title"`
		URL           string  `json:"url"`
		Content       string  `json:"content"`
		Score         float64 `json:"score"`
		PublishedDate string  `json:"published_date"`
	} `json:"results"`
}

// Name implements Searcher.
func (c *TavilyClient) Name() string {
	return "tavily"
}

// Search implements Searcher. Transport failures and non-2xx answers are
// reported as domain.ErrVendorUnavailable.
func (c *TavilyClient) Search(ctx context.Context, query string) (*Response, error) {
	body, err := json.Marshal(tavilyRequest{
		Query:          query,
		SearchDepth:    "advanced",
		IncludeAnswer:  true,
		MaxResults:     c.maxResults,
		ExcludeDomains: c.excludeDomains,
		Days:           30,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: tavily request failed: %w", domain.ErrVendorUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: tavily API error [%d]: %s", domain.ErrVendorUnavailable, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var decoded tavilyResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("%w: failed to decode tavily response: %w", domain.ErrVendorUnavailable, err)
	}

	out := &Response{Provider: c.Name(), Answer: decoded.Answer, Results: make([]domain.RawSource, 0, len(decoded.Results))}
	for _, r := range decoded.Results {
		s := r.Score
		if s == 0 {
			s = 0.5
		}
		snippet := r.Content
		if snippet == "" {
			snippet = "No content available"
		}
		out.Results = append(out.Results, withOrigin(domain.RawSource{
			Title:         r.Title,
			URL:           r.URL,
			Snippet:       snippet,
			Score:         score(s),
			PublishedDate: r.PublishedDate,
		}))
	}
	return out, nil
}
