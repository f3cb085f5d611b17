package port

import (
	"context"
	"errors"
	"time"

	"skin-advisor/internal/domain/entity"
)

// ErrNotFound объект или запись не найдены
var ErrNotFound = errors.New("not found")

// FetchedImage содержимое снимка и заявленный тип
type FetchedImage struct {
	Data        []byte
	ContentType string
}

// ImageFetcher получает байты снимка по ссылке
type ImageFetcher interface {
	Fetch(ctx context.Context, url string) (*FetchedImage, error)
}

// ImageStore принимает загруженные снимки и выдаёт на них ссылки
type ImageStore interface {
	Upload(ctx context.Context, userID string, data []byte, contentType string) (string, error)
}

// ObjectPublisher публикует объект и выдаёт временную ссылку на него
type ObjectPublisher interface {
	Publish(ctx context.Context, key string, data []byte, contentType string, ttl time.Duration) (string, error)
}

// ResultRepository хранилище итогов анализа
type ResultRepository interface {
	Save(ctx context.Context, result *entity.OrchestrationResult) error
	Get(ctx context.Context, resultID string) (*entity.OrchestrationResult, error)
}

// AuthVerifier проверяет токен доступа и возвращает идентификатор пользователя
type AuthVerifier interface {
	Verify(ctx context.Context, token string) (string, error)
}
