package inference

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"skin-advisor/internal/domain/apperr"
	"skin-advisor/internal/domain/port"
)

// OpenAIConfig настройки OpenAI-совместимого провайдера
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
}

// OpenAIBackend провайдер с OpenAI-совместимым API.
// Снимок передаётся data URI в мультимодальном сообщении.
type OpenAIBackend struct {
	client      *openai.Client
	model       string
	temperature float32
}

// NewOpenAIBackend создаёт клиента; пустой BaseURL означает api.openai.com
func NewOpenAIBackend(cfg OpenAIConfig) (*OpenAIBackend, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, apperr.Configuration("inference.openai", "OPENAI_API_KEY")
	}

	clientConfig := openai.DefaultConfig(apiKey)
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		clientConfig.BaseURL = base
	}

	return &OpenAIBackend{
		client:      openai.NewClientWithConfig(clientConfig),
		model:       cfg.Model,
		temperature: cfg.Temperature,
	}, nil
}

func (o *OpenAIBackend) Model() string { return o.model }
func (o *OpenAIBackend) Ready() error  { return nil }

// DescribeImage отправляет промпт и снимок
func (o *OpenAIBackend) DescribeImage(ctx context.Context, prompt string, image port.InlineImage) (string, error) {
	msg := openai.ChatCompletionMessage{
		Role: openai.ChatMessageRoleUser,
		MultiContent: []openai.ChatMessagePart{
			{
				Type: openai.ChatMessagePartTypeText,
				Text: prompt,
			},
			{
				Type: openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{
					URL:    fmt.Sprintf("data:%s;base64,%s", image.MIMEType, image.Base64),
					Detail: openai.ImageURLDetailHigh,
				},
			},
		},
	}
	return o.chat(ctx, "inference.openai.describe_image", msg)
}

// Complete отправляет текстовый промпт
func (o *OpenAIBackend) Complete(ctx context.Context, prompt string) (string, error) {
	msg := openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	}
	return o.chat(ctx, "inference.openai.complete", msg)
}

func (o *OpenAIBackend) chat(ctx context.Context, op string, msg openai.ChatCompletionMessage) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.model,
		Messages:    []openai.ChatCompletionMessage{msg},
		Temperature: o.temperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return "", apperr.Wrap(apperr.KindUpstream, op, fmt.Sprintf("openai %s", o.model), err)
	}

	if len(resp.Choices) == 0 {
		return "", apperr.Wrap(apperr.KindUpstream, op, fmt.Sprintf("openai %s", o.model), ErrEmptyResponse)
	}
	choice := resp.Choices[0]
	if choice.FinishReason == openai.FinishReasonContentFilter {
		return "", apperr.Wrap(apperr.KindUpstream, op, fmt.Sprintf("openai %s", o.model), ErrSafetyBlocked)
	}
	if strings.TrimSpace(choice.Message.Content) == "" {
		return "", apperr.Wrap(apperr.KindUpstream, op, fmt.Sprintf("openai %s", o.model), ErrEmptyResponse)
	}

	return choice.Message.Content, nil
}

var _ port.InferenceBackend = (*OpenAIBackend)(nil)
