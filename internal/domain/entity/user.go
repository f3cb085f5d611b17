package entity

// UserState состояние пользователя в диалоге
type UserState string

const (
	StateMainMenu           UserState = "main_menu"            // В главном меню
	StateAwaitingFrontPhoto UserState = "awaiting_front_photo" // Ожидание фронтального фото
	StateAwaitingSidePhoto  UserState = "awaiting_side_photo"  // Ожидание боковых фото или /done
	StateProcessing         UserState = "processing"           // Идёт анализ
)

// MaxSessionPhotos фронт + два боковых ракурса
const MaxSessionPhotos = 3

// User представляет пользователя бота
type User struct {
	ID      int64            // Telegram User ID
	ChatID  int64            // Telegram Chat ID
	State   UserState        // Текущее состояние пользователя
	Pending []ImageReference // Фото, собранные в текущей проверке
}

// NewUser создаёт нового пользователя с начальным состоянием
func NewUser(userID, chatID int64) *User {
	return &User{
		ID:     userID,
		ChatID: chatID,
		State:  StateMainMenu,
	}
}

// SetState обновляет состояние пользователя
func (u *User) SetState(state UserState) {
	u.State = state
}

// NextAngle ракурс для следующего присланного фото
func (u *User) NextAngle() Angle {
	switch len(u.Pending) {
	case 0:
		return AngleFront
	case 1:
		return AngleLeft
	default:
		return AngleRight
	}
}

// AddPhoto добавляет фото в текущую проверку. Возвращает false, если лимит исчерпан.
func (u *User) AddPhoto(url string) bool {
	if len(u.Pending) >= MaxSessionPhotos {
		return false
	}
	u.Pending = append(u.Pending, ImageReference{URL: url, Angle: u.NextAngle()})
	return true
}

// ResetPhotos очищает собранные фото
func (u *User) ResetPhotos() {
	u.Pending = nil
}
