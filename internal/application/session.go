package app

import (
	"context"
	"errors"
	"strconv"

	"skin-advisor/internal/domain/apperr"
	"skin-advisor/internal/domain/entity"
	"skin-advisor/internal/domain/port"
)

// ErrSessionFull все ракурсы уже собраны
var ErrSessionFull = errors.New("all angles are already collected")

// SessionService собирает снимки пользователя бота и запускает анализ
type SessionService struct {
	users    *UserService
	images   port.ImageStore
	analysis *AnalysisService
	quality  port.PhotoQualityGate
}

// NewSessionService создаёт сервис, который ведёт проверку в диалоге.
// quality может быть nil: тогда снимки принимаются без проверки.
func NewSessionService(users *UserService, images port.ImageStore, analysis *AnalysisService, quality port.PhotoQualityGate) *SessionService {
	return &SessionService{
		users:    users,
		images:   images,
		analysis: analysis,
		quality:  quality,
	}
}

// AcceptPhoto сохраняет снимок и добавляет его в текущую проверку.
// Первый снимок считается фронтальным, следующие боковыми.
func (s *SessionService) AcceptPhoto(ctx context.Context, userID, chatID int64, photo []byte, contentType string) (*entity.User, error) {
	user, err := s.users.Get(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}
	if user.State == entity.StateMainMenu || user.State == entity.StateProcessing {
		if user, err = s.users.BeginCheck(ctx, userID, chatID); err != nil {
			return nil, err
		}
	}
	if len(user.Pending) >= entity.MaxSessionPhotos {
		return user, ErrSessionFull
	}
	if s.quality != nil {
		if err := s.quality.CheckPhoto(photo); err != nil {
			return user, apperr.Wrap(apperr.KindValidation, "session.accept_photo", "photo quality", err)
		}
	}

	url, err := s.images.Upload(ctx, strconv.FormatInt(userID, 10), photo, contentType)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStorage, "session.accept_photo", "store photo", err)
	}

	user.AddPhoto(url)
	user.SetState(entity.StateAwaitingSidePhoto)
	if err := s.users.Save(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Finish запускает анализ собранных снимков и возвращает пользователя
// в главное меню при любом исходе.
func (s *SessionService) Finish(ctx context.Context, userID, chatID int64) (*entity.AnalysisOutput, error) {
	user, err := s.users.SetState(ctx, userID, chatID, entity.StateProcessing)
	if err != nil {
		return nil, err
	}
	defer func() {
		_, _ = s.users.Cancel(ctx, userID, chatID)
	}()

	if len(user.Pending) == 0 {
		return nil, apperr.New(apperr.KindValidation, "session.finish", "no photos collected")
	}

	images := make([]entity.ImageReference, len(user.Pending))
	copy(images, user.Pending)

	return s.analysis.Analyze(ctx, entity.AnalysisRequest{
		Images: images,
		UserID: strconv.FormatInt(userID, 10),
	})
}
