// Package llm is the transport behind the decision oracle: chat-completion
// clients for OpenRouter, Anthropic and Gemini, plus retry, rate limiting and
// latency tracking around them.
package llm

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dgallion1/matclass/internal/config"
	"golang.org/x/time/rate"
)

// Image is an inline image attached to a request.
type Image struct {
	MIME string
	Data []byte
}

// Request is a single-turn completion request.
type Request struct {
	Model     string
	System    string
	Prompt    string
	JSON      bool // ask the provider for a JSON object response
	MaxTokens int
	Image     *Image
}

// Usage reports token accounting when the provider returns it.
type Usage struct {
	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`
}

// Completion is the text returned by a provider.
type Completion struct {
	Text  string
	Model string
	Usage Usage
}

// Completer sends one completion request.
type Completer interface {
	Complete(ctx context.Context, req Request) (Completion, error)
}

const defaultMaxTokens = 1024

func maxTokens(req Request) int {
	if req.MaxTokens > 0 {
		return req.MaxTokens
	}
	return defaultMaxTokens
}

// Client is the configured provider wrapped in retry, rate limiting and
// stats. It is safe for concurrent use.
type Client struct {
	*Retrying
	provider string
	closer   func()
}

// New builds the client for cfg.LLMProvider.
func New(ctx context.Context, cfg config.Config, log *slog.Logger) (*Client, error) {
	var (
		base   Completer
		closer = func() {}
	)
	switch cfg.LLMProvider {
	case config.ProviderOpenRouter:
		or := NewOpenRouterClient(cfg.OpenRouterBaseURL, cfg.OpenRouterAPIKey, cfg.SiteURL, cfg.AppName)
		base, closer = or, or.Close
	case config.ProviderAnthropic:
		base = NewAnthropicClient(cfg.AnthropicAPIKey)
	case config.ProviderGemini:
		g, err := NewGeminiClient(ctx, cfg.GeminiAPIKey)
		if err != nil {
			return nil, err
		}
		base = g
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLMProvider)
	}

	r := NewRetrying(base, RetryOptions{
		Provider:   cfg.LLMProvider,
		Timeout:    cfg.OracleTimeout,
		MaxRetries: cfg.OracleMaxRetries,
		Limiter:    rate.NewLimiter(rate.Limit(cfg.OracleRPS), cfg.OracleBurst),
		Stats:      NewStats(cfg.LLMStatsWindow),
		Log:        log,
	})
	return &Client{Retrying: r, provider: cfg.LLMProvider, closer: closer}, nil
}

// Provider returns the configured provider name.
func (c *Client) Provider() string {
	return c.provider
}

// Close releases idle connections.
func (c *Client) Close() {
	c.closer()
}
