package assistant

import (
	"context"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/pagination"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const tracerName = "github.com/joelkehle/mark3/internal/assistant"

type AnthropicMessager interface {
	New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

type AnthropicModelLister interface {
	List(ctx context.Context, params anthropic.ModelListParams, opts ...option.RequestOption) (*pagination.Page[anthropic.ModelInfo], error)
}

type AnthropicClientCreator func(apiKey string) (AnthropicMessager, AnthropicModelLister)

func defaultAnthropicCreator(apiKey string) (AnthropicMessager, AnthropicModelLister) {
	c := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &c.Messages, &c.Models
}

var newAnthropicClient AnthropicClientCreator = defaultAnthropicCreator

type Anthropic struct {
	messages AnthropicMessager
	models   AnthropicModelLister
	opts     Options
}

func NewAnthropic(apiKey string, opts Options) *Anthropic {
	messages, models := newAnthropicClient(apiKey)
	return &Anthropic{messages: messages, models: models, opts: opts}
}

func (a *Anthropic) Complete(ctx context.Context, history []Message, message string) (string, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "assistant.Complete")
	defer span.End()
	span.SetAttributes(
		attribute.String("llm.provider", "anthropic"),
		attribute.String("llm.model", a.opts.Model),
		attribute.Int("llm.history_turns", len(history)),
	)

	turns := conversation(history, message)
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(a.opts.Model),
		MaxTokens:   a.opts.MaxTokens,
		System:      []anthropic.TextBlockParam{{Text: systemPrompt}},
		Messages:    make([]anthropic.MessageParam, 0, len(turns)),
		Temperature: anthropic.Float(a.opts.Temperature),
	}
	for _, t := range turns {
		block := anthropic.NewTextBlock(t.Content)
		if t.Role == RoleAssistant {
			params.Messages = append(params.Messages, anthropic.NewAssistantMessage(block))
		} else {
			params.Messages = append(params.Messages, anthropic.NewUserMessage(block))
		}
	}

	out, err := withRetry(ctx, func(ctx context.Context) (string, error) {
		resp, err := a.messages.New(ctx, params)
		if err != nil {
			return "", err
		}
		var sb strings.Builder
		for _, b := range resp.Content {
			if b.Type == "text" {
				sb.WriteString(b.Text)
			}
		}
		return sb.String(), nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "completion failed")
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// Ping lists a single model, which fails fast on a bad key.
func (a *Anthropic) Ping(ctx context.Context) error {
	_, err := a.models.List(ctx, anthropic.ModelListParams{Limit: anthropic.Int(1)})
	return err
}
