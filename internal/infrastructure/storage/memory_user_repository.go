package storage

import (
	"context"
	"slices"
	"sync"

	"skin-advisor/internal/domain/entity"
	"skin-advisor/internal/domain/port"
)

// MemoryUserRepository хранит диалоговые сессии в памяти процесса.
// Наружу отдаются копии: изменения видны только после Save.
type MemoryUserRepository struct {
	mu    sync.Mutex
	users map[int64]entity.User
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[int64]entity.User)}
}

// Get возвращает сессию пользователя, при первом обращении создаёт новую
func (r *MemoryUserRepository) Get(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[userID]
	if !ok {
		user = *entity.NewUser(userID, chatID)
		r.users[userID] = user
	}
	return snapshot(user), nil
}

func (r *MemoryUserRepository) Save(ctx context.Context, user *entity.User) error {
	r.mu.Lock()
	r.users[user.ID] = *snapshot(*user)
	r.mu.Unlock()
	return nil
}

func snapshot(u entity.User) *entity.User {
	u.Pending = slices.Clone(u.Pending)
	return &u
}

var _ port.UserRepository = (*MemoryUserRepository)(nil)
