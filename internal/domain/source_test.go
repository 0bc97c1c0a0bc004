package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeSourceDerivesMissingFields(t *testing.T) {
	src := NormalizeSource(RawSource{
		Title: "Quantum computing",
		URL:   "https://en.wikipedia.org/wiki/Quantum_computing",
	}, 1)

	assert.Equal(t, "Quantum computing", src.Title)
	assert.Equal(t, "en.wikipedia.org", src.Domain)
	assert.Equal(t, "https://en.wikipedia.org/favicon.ico", src.FaviconURL)
	assert.Equal(t, MissingSnippet, src.Snippet)
	assert.Equal(t, DefaultLanguage, src.Language)
	assert.Equal(t, DefaultContentType, src.ContentType)
	assert.Equal(t, 1, src.DisplayOrder)
	assert.NotNil(t, src.Metadata)
	assert.Nil(t, src.PublishedDate)
}

func TestNormalizeSourceKeepsProvidedFields(t *testing.T) {
	score := 0.87
	src := NormalizeSource(RawSource{
		Title:         "Post",
		URL:           "https://example.com/post",
		Content:       "body text",
		Domain:        "example.org",
		FaviconURL:    "https://cdn.example.com/icon.png",
		PublishedDate: "2024-05-01",
		Score:         &score,
		Language:      "de",
	}, 3)

	assert.Equal(t, "body text", src.Snippet)
	assert.Equal(t, "example.org", src.Domain)
	assert.Equal(t, "https://cdn.example.com/icon.png", src.FaviconURL)
	assert.Equal(t, 0.87, src.RelevanceScore)
	assert.Equal(t, "de", src.Language)
	assert.Equal(t, 3, src.DisplayOrder)
	if assert.NotNil(t, src.PublishedDate) {
		assert.Equal(t, 2024, src.PublishedDate.Year())
	}
}

func TestNormalizeSourceEmptyInput(t *testing.T) {
	src := NormalizeSource(RawSource{URL: "not a url"}, 2)

	assert.Equal(t, UntitledSource, src.Title)
	assert.Equal(t, "not a url", src.URL)
	assert.Equal(t, UnknownDomain, src.Domain)
	assert.Equal(t, "", src.FaviconURL)

	blank := NormalizeSource(RawSource{}, 1)
	assert.Equal(t, PlaceholderURL, blank.URL)
	assert.Equal(t, 0.0, blank.RelevanceScore)
}

func TestNormalizeSourcesPreservesOrder(t *testing.T) {
	sources := NormalizeSources([]RawSource{
		{Title: "c", URL: "https://c.example"},
		{Title: "a", URL: "https://a.example"},
		{Title: "b", URL: "https://b.example"},
	})

	if len(sources) != 3 {
		t.Fatalf("expected 3 sources, got %d", len(sources))
	}
	for i, want := range []string{"c", "a", "b"} {
		assert.Equal(t, want, sources[i].Title)
		assert.Equal(t, i+1, sources[i].DisplayOrder)
	}
	assert.Empty(t, NormalizeSources(nil))
}

func TestDeriveTitle(t *testing.T) {
	assert.Equal(t, "What is Go?", DeriveTitle("What is Go?"))
	assert.Equal(t, "What is Go?", DeriveTitle("\n  What is Go?  \n"))

	long := strings.Repeat("x", 80)
	title := DeriveTitle(long)
	assert.Len(t, title, 53)
	assert.True(t, strings.HasSuffix(title, "..."))

	exact := strings.Repeat("y", TitleMaxRunes)
	assert.Equal(t, exact, DeriveTitle(exact))

	multibyte := strings.Repeat("é", 60)
	assert.Equal(t, TitleMaxRunes+3, len([]rune(DeriveTitle(multibyte))))
}

func TestParseRole(t *testing.T) {
	role, ok := ParseRole("ai")
	assert.True(t, ok)
	assert.Equal(t, RoleAssistant, role)

	role, ok = ParseRole("User")
	assert.True(t, ok)
	assert.Equal(t, RoleUser, role)

	_, ok = ParseRole("system")
	assert.False(t, ok)
}

func TestMetadataScan(t *testing.T) {
	var m Metadata
	if err := m.Scan(`{"tier":"pro"}`); err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	assert.Equal(t, "pro", m["tier"])

	var empty Metadata
	assert.NoError(t, empty.Scan(nil))
	assert.NotNil(t, empty)

	var tags Tags
	assert.NoError(t, tags.Scan([]byte(`["go","sqlite"]`)))
	assert.Equal(t, Tags{"go", "sqlite"}, tags)
}
