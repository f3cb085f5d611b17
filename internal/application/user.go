package app

import (
	"context"

	"skin-advisor/internal/domain/entity"
	"skin-advisor/internal/domain/port"
)

type UserService struct {
	repo port.UserRepository
}

func NewUserService(repo port.UserRepository) *UserService {
	return &UserService{repo: repo}
}

func (s *UserService) Get(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.repo.Get(ctx, userID, chatID)
}

func (s *UserService) SetState(ctx context.Context, userID, chatID int64, state entity.UserState) (*entity.User, error) {
	user, err := s.repo.Get(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}

	user.SetState(state)
	if err := s.repo.Save(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

func (s *UserService) Save(ctx context.Context, user *entity.User) error {
	return s.repo.Save(ctx, user)
}

// BeginCheck начинает новую проверку: сбрасывает фото и ждёт фронтальный снимок
func (s *UserService) BeginCheck(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.reset(ctx, userID, chatID, entity.StateAwaitingFrontPhoto)
}

// Cancel возвращает пользователя в главное меню и забывает собранные фото
func (s *UserService) Cancel(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.reset(ctx, userID, chatID, entity.StateMainMenu)
}

func (s *UserService) reset(ctx context.Context, userID, chatID int64, state entity.UserState) (*entity.User, error) {
	user, err := s.repo.Get(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}

	user.ResetPhotos()
	user.SetState(state)
	if err := s.repo.Save(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}
