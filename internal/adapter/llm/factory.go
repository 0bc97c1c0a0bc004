package llm

import (
	"log/slog"

	"github.com/S342D32/Mini-Perplexity/internal/config"
)

// NewGenerator creates a Generator based on the configured mode.
// In mock mode it returns a MockClient; if the vendor client cannot be
// built it returns an UnavailableClient and logs why.
func NewGenerator(cfg *config.Config, log *slog.Logger) Generator {
	if cfg.MockMode() {
		log.Info("mock mode detected, using mock LLM client")
		return NewMockClient()
	}

	client, err := NewClient(cfg)
	if err != nil {
		log.Warn("LLM client unavailable, chat answers will be apologies", "error", err)
		return NewUnavailableClient(err)
	}
	return client
}
