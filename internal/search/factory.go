package search

import (
	"log/slog"

	"github.com/S342D32/Mini-Perplexity/internal/config"
)

// New picks the search vendor from the configuration: the mock when mock
// mode is on or no Tavily key is set, Tavily otherwise.
func New(cfg *config.Config, log *slog.Logger) Searcher {
	if cfg.MockMode() || cfg.TavilyAPIKey == "" {
		log.Info("using mock search provider", "mock_mode", cfg.MockMode())
		return NewMockSearcher()
	}
	return NewTavilyClient(cfg.TavilyURL, cfg.TavilyAPIKey, cfg.SearchTimeout)
}
