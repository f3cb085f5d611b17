package port

import (
	"context"

	"skin-advisor/internal/domain/entity"
)

// UserRepository хранилище диалоговых сессий бота
type UserRepository interface {
	// Get возвращает сессию по Telegram ID, создаёт новую если её нет
	Get(ctx context.Context, userID, chatID int64) (*entity.User, error)

	// Save сохраняет состояние и собранные снимки
	Save(ctx context.Context, user *entity.User) error
}
