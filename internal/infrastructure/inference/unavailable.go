package inference

import (
	"context"

	"skin-advisor/internal/domain/apperr"
	"skin-advisor/internal/domain/port"
)

// Unavailable бэкенд без настроек. Любой вызов возвращает ошибку
// конфигурации с именем недостающей настройки, так что сервис
// стартует, а сбой виден в ответе конкретного этапа.
type Unavailable struct {
	Setting string
	Cause   error
}

func (u Unavailable) Model() string { return "unconfigured" }
func (u Unavailable) Ready() error  { return u.err() }

func (u Unavailable) DescribeImage(ctx context.Context, prompt string, image port.InlineImage) (string, error) {
	return "", u.err()
}

func (u Unavailable) Complete(ctx context.Context, prompt string) (string, error) {
	return "", u.err()
}

func (u Unavailable) err() error {
	if u.Cause != nil {
		if _, ok := apperr.KindOf(u.Cause); ok {
			return u.Cause
		}
	}
	return apperr.Configuration("inference", u.Setting)
}

var _ port.InferenceBackend = Unavailable{}
