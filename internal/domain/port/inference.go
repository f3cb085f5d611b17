package port

import "context"

// InlineImage снимок, подготовленный для отправки модели
type InlineImage struct {
	MIMEType string
	Data     []byte
	Base64   string
}

// InferenceBackend внешняя модель, отвечающая JSON-текстом.
// Ответ возвращается как есть; разбор остаётся за вызывающим.
type InferenceBackend interface {
	// DescribeImage отправляет промпт вместе со снимком
	DescribeImage(ctx context.Context, prompt string, image InlineImage) (string, error)

	// Complete отправляет текстовый промпт
	Complete(ctx context.Context, prompt string) (string, error)

	// Model имя модели для тегов версий
	Model() string

	// Ready сообщает, настроен ли бэкенд; вызывается до сетевой работы
	Ready() error
}
