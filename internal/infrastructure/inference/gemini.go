package inference

import (
	"context"
	"errors"
	"fmt"
	"strings"

	genai "google.golang.org/genai"

	"skin-advisor/internal/domain/apperr"
	"skin-advisor/internal/domain/port"
)

var (
	ErrSafetyBlocked = errors.New("request blocked by provider safety filter")
	ErrEmptyResponse = errors.New("provider returned empty response")
)

// GeminiBackend обёртка над официальным клиентом genai.
// Просит модель отвечать JSON и возвращает текст ответа как есть.
type GeminiBackend struct {
	cli         *genai.Client
	model       string
	temperature float32
}

// NewGeminiBackend создаёт клиент Gemini API для одной модели
func NewGeminiBackend(ctx context.Context, apiKey, model string, temperature float32) (*GeminiBackend, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, apperr.Configuration("inference.gemini", "GEMINI_API_KEY")
	}

	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.KindConfiguration, "inference.gemini", "init client", err)
	}

	return &GeminiBackend{cli: cli, model: model, temperature: temperature}, nil
}

func (g *GeminiBackend) Model() string { return g.model }
func (g *GeminiBackend) Ready() error  { return nil }

// DescribeImage отправляет промпт и снимок одним сообщением
func (g *GeminiBackend) DescribeImage(ctx context.Context, prompt string, image port.InlineImage) (string, error) {
	parts := []*genai.Part{
		{Text: prompt},
		{InlineData: &genai.Blob{MIMEType: image.MIMEType, Data: image.Data}},
	}
	return g.generate(ctx, "inference.gemini.describe_image", parts)
}

// Complete отправляет текстовый промпт
func (g *GeminiBackend) Complete(ctx context.Context, prompt string) (string, error) {
	return g.generate(ctx, "inference.gemini.complete", []*genai.Part{{Text: prompt}})
}

func (g *GeminiBackend) generate(ctx context.Context, op string, parts []*genai.Part) (string, error) {
	resp, err := g.cli.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{{Parts: parts}},
		&genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
			Temperature:      genai.Ptr(g.temperature),
		},
	)
	if err != nil {
		return "", apperr.Wrap(apperr.KindUpstream, op, fmt.Sprintf("gemini %s", g.model), err)
	}

	text, err := responseText(resp)
	if err != nil {
		return "", apperr.Wrap(apperr.KindUpstream, op, fmt.Sprintf("gemini %s", g.model), err)
	}
	return text, nil
}

// responseText достаёт текст первого кандидата и распознаёт блокировку фильтром
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", ErrEmptyResponse
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("%w: prompt %s", ErrSafetyBlocked, resp.PromptFeedback.BlockReason)
	}
	if len(resp.Candidates) == 0 {
		return "", ErrEmptyResponse
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return "", ErrSafetyBlocked
	}
	if candidate.Content == nil {
		return "", ErrEmptyResponse
	}

	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if part != nil {
			sb.WriteString(part.Text)
		}
	}
	if strings.TrimSpace(sb.String()) == "" {
		return "", ErrEmptyResponse
	}
	return sb.String(), nil
}

var _ port.InferenceBackend = (*GeminiBackend)(nil)
