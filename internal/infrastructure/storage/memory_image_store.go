package storage

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"skin-advisor/internal/domain/port"
)

// MemoryScheme схема ссылок на снимки в памяти процесса
const MemoryScheme = "mem"

type memoryObject struct {
	data        []byte
	contentType string
}

// MemoryImageStore хранит снимки в памяти и сам же отдаёт их по ссылке mem://
type MemoryImageStore struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
}

// NewMemoryImageStore создаёт пустое хранилище
func NewMemoryImageStore() *MemoryImageStore {
	return &MemoryImageStore{objects: make(map[string]memoryObject)}
}

// Upload сохраняет копию снимка и возвращает ссылку вида mem://<user>/<id>.jpg
func (s *MemoryImageStore) Upload(ctx context.Context, userID string, data []byte, contentType string) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("image is empty")
	}
	key := objectKey(userID, contentType)

	stored := make([]byte, len(data))
	copy(stored, data)

	s.mu.Lock()
	s.objects[key] = memoryObject{data: stored, contentType: contentType}
	s.mu.Unlock()

	return MemoryScheme + "://" + key, nil
}

// Fetch отдаёт снимок по ссылке mem://
func (s *MemoryImageStore) Fetch(ctx context.Context, url string) (*port.FetchedImage, error) {
	key, ok := strings.CutPrefix(url, MemoryScheme+"://")
	if !ok {
		return nil, fmt.Errorf("unsupported image url %q", url)
	}

	s.mu.RLock()
	obj, exists := s.objects[key]
	s.mu.RUnlock()
	if !exists {
		return nil, fmt.Errorf("image %q: %w", key, port.ErrNotFound)
	}

	return &port.FetchedImage{Data: obj.data, ContentType: obj.contentType}, nil
}

// objectKey ключ загруженного снимка с расширением по типу
func objectKey(userID, contentType string) string {
	userID = strings.Trim(strings.TrimSpace(userID), "/")
	if userID == "" {
		userID = "anonymous"
	}
	return "uploads/" + userID + "/" + uuid.NewString() + extensionFor(contentType)
}

func extensionFor(contentType string) string {
	switch strings.ToLower(strings.TrimSpace(contentType)) {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	}
	return ".jpg"
}

var (
	_ port.ImageStore   = (*MemoryImageStore)(nil)
	_ port.ImageFetcher = (*MemoryImageStore)(nil)
)
