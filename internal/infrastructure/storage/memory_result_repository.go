package storage

import (
	"context"
	"fmt"
	"sync"

	"skin-advisor/internal/domain/entity"
	"skin-advisor/internal/domain/port"
)

// MemoryResultRepository in-memory хранилище итогов анализа
type MemoryResultRepository struct {
	mu      sync.RWMutex
	results map[string]entity.OrchestrationResult
}

// NewMemoryResultRepository создаёт новое in-memory хранилище
func NewMemoryResultRepository() *MemoryResultRepository {
	return &MemoryResultRepository{
		results: make(map[string]entity.OrchestrationResult),
	}
}

// Save сохраняет итог под его идентификатором
func (r *MemoryResultRepository) Save(ctx context.Context, result *entity.OrchestrationResult) error {
	if result == nil || result.ResultID == "" {
		return fmt.Errorf("result id is required")
	}

	r.mu.Lock()
	r.results[result.ResultID] = *result
	r.mu.Unlock()

	return nil
}

// Get возвращает копию сохранённого итога
func (r *MemoryResultRepository) Get(ctx context.Context, resultID string) (*entity.OrchestrationResult, error) {
	r.mu.RLock()
	result, exists := r.results[resultID]
	r.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("result %q: %w", resultID, port.ErrNotFound)
	}
	return &result, nil
}

// Проверка реализации интерфейса
var _ port.ResultRepository = (*MemoryResultRepository)(nil)
