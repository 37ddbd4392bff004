package assistant

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"google.golang.org/genai"
)

type GeminiModels interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	Get(ctx context.Context, model string, config *genai.GetModelConfig) (*genai.Model, error)
}

type Gemini struct {
	models GeminiModels
	opts   Options
}

func NewGemini(ctx context.Context, apiKey string, opts Options) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return NewGeminiWithModels(client.Models, opts), nil
}

func NewGeminiWithModels(models GeminiModels, opts Options) *Gemini {
	return &Gemini{models: models, opts: opts}
}

func (g *Gemini) Complete(ctx context.Context, history []Message, message string) (string, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "assistant.Complete")
	defer span.End()
	span.SetAttributes(
		attribute.String("llm.provider", "gemini"),
		attribute.String("llm.model", g.opts.Model),
		attribute.Int("llm.history_turns", len(history)),
	)

	turns := conversation(history, message)
	contents := make([]*genai.Content, 0, len(turns))
	for _, t := range turns {
		role := genai.Role(genai.RoleUser)
		if t.Role == RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(t.Content, role))
	}
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
		Temperature:       genai.Ptr(float32(g.opts.Temperature)),
		MaxOutputTokens:   int32(g.opts.MaxTokens),
	}

	out, err := withRetry(ctx, func(ctx context.Context) (string, error) {
		resp, err := g.models.GenerateContent(ctx, g.opts.Model, contents, cfg)
		if err != nil {
			return "", err
		}
		return resp.Text(), nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "completion failed")
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func (g *Gemini) Ping(ctx context.Context) error {
	_, err := g.models.Get(ctx, g.opts.Model, nil)
	return err
}
