package inference

import (
	"context"
	"strings"

	"skin-advisor/internal/domain/port"
)

// Settings выбор провайдера и моделей
type Settings struct {
	Provider      string
	GeminiAPIKey  string
	GeminiModel   string
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string
	Temperature   float32
}

// New собирает бэкенд по настройкам. Ошибка конфигурации не прерывает
// старт: вместо клиента возвращается Unavailable с причиной.
func New(ctx context.Context, s Settings) port.InferenceBackend {
	switch strings.ToLower(strings.TrimSpace(s.Provider)) {
	case "openai":
		backend, err := NewOpenAIBackend(OpenAIConfig{
			APIKey:      s.OpenAIAPIKey,
			BaseURL:     s.OpenAIBaseURL,
			Model:       s.OpenAIModel,
			Temperature: s.Temperature,
		})
		if err != nil {
			return Unavailable{Setting: "OPENAI_API_KEY", Cause: err}
		}
		return backend
	default:
		backend, err := NewGeminiBackend(ctx, s.GeminiAPIKey, s.GeminiModel, s.Temperature)
		if err != nil {
			return Unavailable{Setting: "GEMINI_API_KEY", Cause: err}
		}
		return backend
	}
}
