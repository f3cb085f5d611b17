package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"skin-advisor/internal/domain/port"
)

// DefaultMaxBytes сколько байт читаем из ответа; больший снимок отклонит этап A
const DefaultMaxBytes = 10*1024*1024 + 1

// HTTPFetcher скачивает снимки по http(s)
type HTTPFetcher struct {
	client   *http.Client
	maxBytes int64
}

// NewHTTPFetcher создаёт загрузчик с общим таймаутом на запрос
func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPFetcher{
		client:   &http.Client{Timeout: timeout},
		maxBytes: DefaultMaxBytes,
	}
}

// Fetch скачивает снимок; ответ не 2xx считается ошибкой
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (*port.FetchedImage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("download image: unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}

	return &port.FetchedImage{Data: data, ContentType: resp.Header.Get("Content-Type")}, nil
}

var _ port.ImageFetcher = (*HTTPFetcher)(nil)
