package domain

import (
	"net/url"
	"strings"
	"time"
)

// RawSource is a citation as received from a client or a search vendor.
// Every field is optional; NormalizeSource maps it onto a Source.
type RawSource struct {
	Title          string   `json:"title,omitempty"`
	URL            string   `json:"url,omitempty"`
	Snippet        string   `json:"snippet,omitempty"`
	Content        string   `json:"content,omitempty"`
	Domain         string   `json:"domain,omitempty"`
	Favicon        string   `json:"favicon,omitempty"`
	FaviconURL     string   `json:"favicon_url,omitempty"`
	PublishedDate  string   `json:"publishedDate,omitempty"`
	Published      string   `json:"published_date,omitempty"`
	Score          *float64 `json:"score,omitempty"`
	RelevanceScore *float64 `json:"relevance_score,omitempty"`
	ContentType    string   `json:"content_type,omitempty"`
	WordCount      *int     `json:"word_count,omitempty"`
	Language       string   `json:"language,omitempty"`
	Metadata       Metadata `json:"metadata,omitempty"`
}

// Defaults applied by NormalizeSource.
const (
	UntitledSource     = "Untitled"
	PlaceholderURL     = "#"
	MissingSnippet     = "No snippet available"
	UnknownDomain      = "unknown"
	DefaultContentType = "article"
	DefaultLanguage    = "en"
)

var publishedLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	time.RFC1123Z,
	time.RFC1123,
}

// NormalizeSource maps a raw citation to a Source at the given 1-based
// display position. It never fails.
func NormalizeSource(raw RawSource, displayOrder int) Source {
	src := Source{
		Title:        firstNonBlank(raw.Title, UntitledSource),
		URL:          firstNonBlank(raw.URL, PlaceholderURL),
		Snippet:      firstNonBlank(raw.Snippet, raw.Content, MissingSnippet),
		Domain:       firstNonBlank(raw.Domain, DomainOf(raw.URL), UnknownDomain),
		FaviconURL:   firstNonBlank(raw.Favicon, raw.FaviconURL, FaviconOf(raw.URL)),
		DisplayOrder: displayOrder,
		ContentType:  firstNonBlank(raw.ContentType, DefaultContentType),
		WordCount:    raw.WordCount,
		Language:     firstNonBlank(raw.Language, DefaultLanguage),
		Metadata:     raw.Metadata,
	}
	if src.Metadata == nil {
		src.Metadata = Metadata{}
	}
	switch {
	case raw.Score != nil:
		src.RelevanceScore = *raw.Score
	case raw.RelevanceScore != nil:
		src.RelevanceScore = *raw.RelevanceScore
	}
	src.PublishedDate = parsePublished(firstNonBlank(raw.PublishedDate, raw.Published))
	return src
}

// NormalizeSources assigns display orders 1..N in input order.
func NormalizeSources(raws []RawSource) []Source {
	out := make([]Source, 0, len(raws))
	for i, raw := range raws {
		out = append(out, NormalizeSource(raw, i+1))
	}
	return out
}

// DomainOf returns the hostname of rawURL, or "" when it has none.
func DomainOf(rawURL string) string {
	u, ok := parseAbsolute(rawURL)
	if !ok {
		return ""
	}
	return u.Hostname()
}

// FaviconOf returns origin + "/favicon.ico" for rawURL, or "" when the URL
// has no origin.
func FaviconOf(rawURL string) string {
	u, ok := parseAbsolute(rawURL)
	if !ok {
		return ""
	}
	return u.Scheme + "://" + u.Host + "/favicon.ico"
}

func parseAbsolute(rawURL string) (*url.URL, bool) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, false
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, false
	}
	return u, true
}

func parsePublished(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range publishedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
