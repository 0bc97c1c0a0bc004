package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"

	"github.com/S342D32/Mini-Perplexity/internal/config"
	"github.com/S342D32/Mini-Perplexity/internal/domain"
)

// Supported providers.
const (
	ProviderGoogleAI = "googleai"
	ProviderOpenAI   = "openai"
)

// contentGenerator is the part of llms.Model the client needs.
type contentGenerator interface {
	GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error)
}

// Client generates answers through a langchaingo model. Gemini is reached
// through its OpenAI-compatible endpoint.
type Client struct {
	llm       contentGenerator
	modelName string
	timeout   time.Duration
}

// NewClient builds a client for the configured provider.
func NewClient(cfg *config.Config) (*Client, error) {
	var opts []openai.Option
	var model string
	switch cfg.LLMProvider {
	case ProviderGoogleAI, "gemini", "":
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY is not configured")
		}
		model = cfg.GeminiModel
		opts = []openai.Option{
			openai.WithToken(cfg.GeminiAPIKey),
			openai.WithModel(model),
			openai.WithBaseURL(cfg.GeminiBaseURL),
		}
	case ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is not configured")
		}
		model = cfg.OpenAIModel
		opts = []openai.Option{
			openai.WithToken(cfg.OpenAIAPIKey),
			openai.WithModel(model),
		}
		if cfg.OpenAIBaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.OpenAIBaseURL))
		}
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.LLMProvider)
	}

	m, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s client: %w", cfg.LLMProvider, err)
	}
	return newClientWithModel(m, model, cfg.LLMTimeout), nil
}

func newClientWithModel(m contentGenerator, modelName string, timeout time.Duration) *Client {
	return &Client{llm: m, modelName: modelName, timeout: timeout}
}

// Model implements Generator.
func (c *Client) Model() string {
	return c.modelName
}

// Generate implements Generator.
func (c *Client) Generate(ctx context.Context, req *Request) (*Generation, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	content := make([]llms.MessageContent, 0, len(req.History)+1)
	for _, turn := range req.History {
		msgType := schema.ChatMessageTypeHuman
		if turn.Role == domain.RoleAssistant {
			msgType = schema.ChatMessageTypeAI
		}
		content = append(content, llms.TextParts(msgType, turn.Content))
	}
	content = append(content, llms.TextParts(schema.ChatMessageTypeHuman, req.Prompt))

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 2048
	}
	resp, err := c.llm.GenerateContent(ctx, content,
		llms.WithMaxTokens(maxTokens),
		llms.WithTemperature(0.3),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %s generation failed: %w", domain.ErrVendorUnavailable, c.modelName, err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return &Generation{Model: c.modelName}, nil
	}

	choice := resp.Choices[0]
	gen := &Generation{
		Text:             choice.Content,
		Model:            c.modelName,
		PromptTokens:     intInfo(choice.GenerationInfo, "PromptTokens"),
		CompletionTokens: intInfo(choice.GenerationInfo, "CompletionTokens"),
		TotalTokens:      intInfo(choice.GenerationInfo, "TotalTokens"),
	}
	return gen, nil
}

func intInfo(info map[string]any, key string) int {
	switch v := info[key].(type) {
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}
