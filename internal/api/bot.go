package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	app "skin-advisor/internal/application"
	"skin-advisor/internal/domain/apperr"
	"skin-advisor/internal/domain/entity"
	"skin-advisor/internal/domain/port"
)

const (
	msgStart = `👋 Привет! Я помогу оценить состояние кожи по фото лица.

📸 Пришлите фото анфас, затем при желании фото слева и справа, и отправьте /done.

📋 Команды:
/check — начать новую проверку
/done — запустить анализ присланных фото
/help — справка
/cancel — отменить текущую проверку`

	msgHelp = `ℹ️ Как пользоваться ботом:

1️⃣ Отправьте /check
2️⃣ Пришлите фото лица анфас
3️⃣ По желанию пришлите фото слева и справа
4️⃣ Отправьте /done и получите описание и подходящие процедуры

💡 Рекомендации:
• Снимайте при дневном свете, без макияжа
• Держите лицо в центре кадра
• Фото должно быть чётким, без бликов и теней

Результат носит справочный характер и не является медицинским диагнозом.`

	msgAwaitingFront   = "📸 Пришлите фото лица анфас."
	msgAwaitingLeft    = "✅ Фото анфас принято. Пришлите фото слева или отправьте /done."
	msgAwaitingRight   = "✅ Фото слева принято. Пришлите фото справа или отправьте /done."
	msgAllAngles       = "✅ Все ракурсы собраны. Отправьте /done для анализа."
	msgCancelled       = "❌ Проверка отменена. Отправьте /check, чтобы начать заново."
	msgSendPhoto       = "📸 Пожалуйста, пришлите фото лица."
	msgUnknownCommand  = "❓ Неизвестная команда. Используйте /help для справки."
	msgProcessing      = "⏳ Анализирую фото, это может занять до минуты..."
	msgNoPhotos        = "📸 Сначала пришлите хотя бы одно фото лица."
	msgPoorPhoto       = "⚠️ Фото не подходит для анализа: %s. Переснимите его при хорошем освещении."
	msgProcessingError = "⚠️ Не удалось обработать фото. Попробуйте позже или пришлите другое фото."
	msgReviewNeeded    = "🩺 Результат стоит показать специалисту."
)

// Bot представляет Telegram-бота
type Bot struct {
	api      *tgbotapi.BotAPI
	users    *app.UserService
	sessions *app.SessionService
	files    port.ImageFetcher
	logger   *slog.Logger
}

// NewBot создаёт нового бота. files скачивает присланные фото по ссылке Telegram.
func NewBot(token string, users *app.UserService, sessions *app.SessionService, files port.ImageFetcher, logger *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("telegram bot authorized", slog.String("account", api.Self.UserName))

	return &Bot{
		api:      api,
		users:    users,
		sessions: sessions,
		files:    files,
		logger:   logger,
	}, nil
}

// Run запускает основной цикл обработки сообщений до отмены ctx
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			b.handleMessage(ctx, update.Message)
		}
	}
}

// handleMessage обрабатывает входящее сообщение
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	// Обработка команд
	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}

	// Обработка фото
	if len(msg.Photo) > 0 {
		b.handlePhoto(ctx, msg)
		return
	}

	b.sendMessage(msg.Chat.ID, msgSendPhoto)
}

// handleCommand обрабатывает команды бота
func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	userID, chatID := msg.From.ID, msg.Chat.ID

	switch msg.Command() {
	case "start":
		if _, err := b.users.Cancel(ctx, userID, chatID); err != nil {
			b.logError(ctx, "reset user", err)
		}
		b.sendMessage(chatID, msgStart)

	case "help":
		b.sendMessage(chatID, msgHelp)

	case "check":
		if _, err := b.users.BeginCheck(ctx, userID, chatID); err != nil {
			b.logError(ctx, "begin check", err)
		}
		b.sendMessage(chatID, msgAwaitingFront)

	case "done":
		b.handleDone(ctx, msg)

	case "cancel":
		if _, err := b.users.Cancel(ctx, userID, chatID); err != nil {
			b.logError(ctx, "cancel check", err)
		}
		b.sendMessage(chatID, msgCancelled)

	default:
		b.sendMessage(chatID, msgUnknownCommand)
	}
}

// handlePhoto сохраняет фото с максимальным разрешением в текущую проверку
func (b *Bot) handlePhoto(ctx context.Context, msg *tgbotapi.Message) {
	photo := msg.Photo[len(msg.Photo)-1]

	image, err := b.downloadFile(ctx, photo.FileID)
	if err != nil {
		b.logError(ctx, "download photo", err)
		b.sendMessage(msg.Chat.ID, msgProcessingError)
		return
	}

	user, err := b.sessions.AcceptPhoto(ctx, msg.From.ID, msg.Chat.ID, image.Data, "image/jpeg")
	switch {
	case errors.Is(err, app.ErrSessionFull):
		b.sendMessage(msg.Chat.ID, msgAllAngles)
		return
	case apperr.IsKind(err, apperr.KindValidation):
		b.sendMessage(msg.Chat.ID, fmt.Sprintf(msgPoorPhoto, errors.Unwrap(err)))
		return
	case err != nil:
		b.logError(ctx, "accept photo", err)
		b.sendMessage(msg.Chat.ID, msgProcessingError)
		return
	}

	b.sendMessage(msg.Chat.ID, photoPrompt(len(user.Pending)))
}

// handleDone запускает анализ собранных фото и отправляет результат
func (b *Bot) handleDone(ctx context.Context, msg *tgbotapi.Message) {
	b.sendMessage(msg.Chat.ID, msgProcessing)

	out, err := b.sessions.Finish(ctx, msg.From.ID, msg.Chat.ID)
	if err != nil {
		if apperr.IsKind(err, apperr.KindValidation) {
			b.sendMessage(msg.Chat.ID, msgNoPhotos)
			return
		}
		b.logError(ctx, "analysis", err)
		b.sendMessage(msg.Chat.ID, msgProcessingError)
		return
	}

	if out.HeatmapURL != "" {
		heatmap := tgbotapi.NewPhoto(msg.Chat.ID, tgbotapi.FileURL(out.HeatmapURL))
		if _, err := b.api.Send(heatmap); err != nil {
			b.logError(ctx, "send heatmap", err)
		}
	}
	b.sendMessage(msg.Chat.ID, formatResult(out.Result))
}

// downloadFile скачивает файл из Telegram
func (b *Bot) downloadFile(ctx context.Context, fileID string) (*port.FetchedImage, error) {
	file, err := b.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}

	return b.files.Fetch(ctx, file.Link(b.api.Token))
}

// sendMessage отправляет текстовое сообщение
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("send message", slog.Int64("chat_id", chatID), slog.Any("error", err))
	}
}

func (b *Bot) logError(ctx context.Context, action string, err error) {
	b.logger.ErrorContext(ctx, action+" failed", slog.Any("error", err))
}

// photoPrompt подсказка после очередного принятого фото
func photoPrompt(collected int) string {
	switch collected {
	case 1:
		return msgAwaitingLeft
	case 2:
		return msgAwaitingRight
	}
	return msgAllAngles
}

// formatResult текст ответа: заголовок, абзацы и подобранные процедуры
func formatResult(result *entity.OrchestrationResult) string {
	var sb strings.Builder
	sb.WriteString(result.NLG.Headline)
	sb.WriteString("\n\n")
	for _, p := range result.NLG.Paragraphs {
		sb.WriteString(p)
		sb.WriteString("\n\n")
	}

	if len(result.Mapping.TreatmentCandidates) > 0 {
		sb.WriteString("💆 Часто выбирают:\n")
		for _, c := range result.Mapping.TreatmentCandidates {
			fmt.Fprintf(&sb, "• %s — до %.0f%% улучшения\n", c.Name, c.ExpectedImprovementPct*100)
		}
		sb.WriteString("\n")
	}
	if result.ReviewNeeded {
		sb.WriteString(msgReviewNeeded)
		sb.WriteString("\n\n")
	}

	cta := result.NLG.CTA
	if cta.Label != "" {
		fmt.Fprintf(&sb, "👉 %s: %s", cta.Label, cta.URL)
	}
	return strings.TrimSpace(sb.String())
}
