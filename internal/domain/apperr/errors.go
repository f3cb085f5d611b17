package apperr

import (
	"context"
	"errors"
	"fmt"
)

// Kind категория ошибки
type Kind string

const (
	KindConfiguration Kind = "configuration" // нет ключей/настроек бэкенда
	KindValidation    Kind = "validation"    // некорректный вход
	KindUpstream      Kind = "upstream"      // бэкенд недоступен, отказал или истёк таймаут
	KindParse         Kind = "parse"         // ответ бэкенда не разобран
	KindAuth          Kind = "auth"          // токен не прошёл проверку
	KindStorage       Kind = "storage"       // ошибка хранилища
)

// Error типизированная ошибка с операцией и причиной
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Kind, e.Op, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Kind, e.Op, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New создаёт ошибку без причины
func New(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

// Wrap оборачивает err. Уже типизированная ошибка возвращается как есть,
// истёкший дедлайн всегда считается ошибкой upstream.
func Wrap(kind Kind, op, message string, err error) error {
	if err == nil {
		return nil
	}

	var typed *Error
	if errors.As(err, &typed) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		kind = KindUpstream
	}

	return &Error{Kind: kind, Op: op, Message: message, Cause: err}
}

// Configuration ошибка отсутствующей настройки; имя настройки попадает в текст.
func Configuration(op, setting string) *Error {
	return &Error{Kind: KindConfiguration, Op: op, Message: setting + " is not set"}
}

// KindOf возвращает категорию первой типизированной ошибки в цепочке.
func KindOf(err error) (Kind, bool) {
	var typed *Error
	if errors.As(err, &typed) {
		return typed.Kind, true
	}
	return "", false
}

// IsKind проверяет категорию ошибки в цепочке
func IsKind(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
