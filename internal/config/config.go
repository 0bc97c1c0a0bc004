// Package config provides configuration for the Mini Perplexity server.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ModeMock forces mock search and generation vendors.
const ModeMock = "MOCK"

// Config holds the server configuration.
type Config struct {
	// Server settings
	HTTPPort    int
	CORSOrigins []string
	ChatRPS     float64
	ChatBurst   int

	// Database
	DatabaseURL string

	// Vendors
	Mode          string
	LLMProvider   string
	GeminiAPIKey  string
	GeminiModel   string
	GeminiBaseURL string
	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string
	TavilyAPIKey  string
	TavilyURL     string

	// Timeouts
	SearchTimeout  time.Duration
	LLMTimeout     time.Duration
	StorageTimeout time.Duration

	// Chat behaviour
	AppendRetries   int
	SessionPageSize int
	ContextMessages int

	// Auth
	JWTSecret string
	TokenTTL  time.Duration

	// Logging
	LogLevel string
}

// Load reads an optional .env file and then the environment.
func Load() *Config {
	// A missing .env is the normal case outside local development.
	_ = godotenv.Load()

	cfg := &Config{
		HTTPPort:        getEnvInt("HTTP_PORT", 3000),
		CORSOrigins:     getEnvList("CORS_ORIGINS", []string{"*"}),
		ChatRPS:         getEnvFloat("CHAT_RPS", 2),
		ChatBurst:       getEnvInt("CHAT_BURST", 5),
		DatabaseURL:     getEnv("DATABASE_URL", "file:miniperplexity.db"),
		Mode:            strings.ToUpper(getEnv("MINIPLEX_MODE", "")),
		LLMProvider:     strings.ToLower(getEnv("LLM_PROVIDER", "googleai")),
		GeminiAPIKey:    getEnv("GEMINI_API_KEY", ""),
		GeminiModel:     getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		GeminiBaseURL:   getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta/openai/"),
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:     getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL:   getEnv("OPENAI_BASE_URL", ""),
		TavilyAPIKey:    getEnv("TAVILY_API_KEY", ""),
		TavilyURL:       getEnv("TAVILY_URL", "https://api.tavily.com"),
		SearchTimeout:   time.Duration(getEnvInt("SEARCH_TIMEOUT_MS", 5000)) * time.Millisecond,
		LLMTimeout:      time.Duration(getEnvInt("LLM_TIMEOUT_MS", 30000)) * time.Millisecond,
		StorageTimeout:  time.Duration(getEnvInt("STORAGE_TIMEOUT_MS", 5000)) * time.Millisecond,
		AppendRetries:   getEnvInt("APPEND_RETRIES", 5),
		SessionPageSize: getEnvInt("SESSION_PAGE_SIZE", 20),
		ContextMessages: getEnvInt("CONTEXT_MESSAGES", 10),
		JWTSecret:       getEnv("AUTH_SECRET", "dev-secret-change-me"),
		TokenTTL:        time.Duration(getEnvInt("TOKEN_TTL_MINUTES", 24*60)) * time.Minute,
		LogLevel:        getEnv("LOG_LEVEL", "info"),
	}
	return cfg
}

// MockMode reports whether vendors should be mocked.
func (c *Config) MockMode() bool {
	return c.Mode == ModeMock
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvList(key string, defaultVal []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}
