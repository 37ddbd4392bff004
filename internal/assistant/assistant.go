// Package assistant produces chat completions for the Mark3 assistant from a
// hosted language model.
package assistant

import (
	"context"
	"strings"

	"github.com/joelkehle/mark3/internal/apperr"
	"github.com/joelkehle/mark3/internal/config"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of chat history.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Completer interface {
	Complete(ctx context.Context, history []Message, message string) (string, error)
}

// Pinger is implemented by completers that can verify their credentials
// without generating text.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options are the generation parameters shared by every provider.
type Options struct {
	Model       string
	MaxTokens   int64
	Temperature float64
}

// New returns the completer for the configured provider. A missing API key
// yields a completer that fails every call with not_configured.
func New(ctx context.Context, cfg config.Config) (Completer, error) {
	apiKey := strings.TrimSpace(cfg.LLM.APIKey)
	opts := Options{
		Model:       cfg.LLMModel(),
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
	}
	if apiKey == "" {
		return Unconfigured{}, nil
	}
	switch cfg.LLM.Provider {
	case config.ProviderGemini:
		return NewGemini(ctx, apiKey, opts)
	default:
		return NewAnthropic(apiKey, opts), nil
	}
}

// Unconfigured stands in when no API key is set.
type Unconfigured struct{}

func (Unconfigured) Complete(context.Context, []Message, string) (string, error) {
	return "", apperr.NotConfigured("the assistant")
}

func (Unconfigured) Ping(context.Context) error {
	return apperr.NotConfigured("the assistant")
}
