package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/hashicorp/golang-lru/v2"
	_ "github.com/jackc/pgx/v5/stdlib"

	"skin-advisor/internal/domain/entity"
	"skin-advisor/internal/domain/port"
)

const resultCacheSize = 1024

// PostgresResultRepository хранит итоги анализа в Postgres (JSONB),
// последние прочитанные и записанные итоги держит в LRU-кэше.
type PostgresResultRepository struct {
	db         *sql.DB
	cache      *lru.Cache[string, entity.OrchestrationResult]
	schemaOnce sync.Once
	schemaErr  error
}

// NewPostgresResultRepository открывает соединение и проверяет его
func NewPostgresResultRepository(ctx context.Context, dsn string) (*PostgresResultRepository, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("postgres dsn is required")
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return newPostgresResultRepository(db)
}

func newPostgresResultRepository(db *sql.DB) (*PostgresResultRepository, error) {
	cache, err := lru.New[string, entity.OrchestrationResult](resultCacheSize)
	if err != nil {
		return nil, err
	}
	return &PostgresResultRepository{db: db, cache: cache}, nil
}

func (r *PostgresResultRepository) ensureSchema(ctx context.Context) error {
	r.schemaOnce.Do(func() {
		_, r.schemaErr = r.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS analysis_results (
  result_id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL DEFAULT '',
  confidence DOUBLE PRECISION NOT NULL DEFAULT 0,
  review_needed BOOLEAN NOT NULL DEFAULT FALSE,
  payload JSONB NOT NULL,
  created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_analysis_results_user_id ON analysis_results (user_id);
`)
	})
	return r.schemaErr
}

// Save записывает итог; повторная запись с тем же id заменяет его
func (r *PostgresResultRepository) Save(ctx context.Context, result *entity.OrchestrationResult) error {
	if result == nil || result.ResultID == "" {
		return fmt.Errorf("result id is required")
	}
	if err := r.ensureSchema(ctx); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO analysis_results (result_id, user_id, confidence, review_needed, payload, created_at)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (result_id)
DO UPDATE SET user_id=EXCLUDED.user_id,
  confidence=EXCLUDED.confidence,
  review_needed=EXCLUDED.review_needed,
  payload=EXCLUDED.payload`,
		result.ResultID, result.UserID, result.Analysis.Confidence, result.ReviewNeeded, payload, result.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert result: %w", err)
	}

	r.cache.Add(result.ResultID, *result)
	return nil
}

// Get читает итог сначала из кэша, затем из базы
func (r *PostgresResultRepository) Get(ctx context.Context, resultID string) (*entity.OrchestrationResult, error) {
	if cached, ok := r.cache.Get(resultID); ok {
		return &cached, nil
	}
	if err := r.ensureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	var payload []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT payload FROM analysis_results WHERE result_id = $1`, resultID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("result %q: %w", resultID, port.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("select result: %w", err)
	}

	var result entity.OrchestrationResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, fmt.Errorf("unmarshal result: %w", err)
	}

	r.cache.Add(resultID, result)
	return &result, nil
}

// Close закрывает пул соединений
func (r *PostgresResultRepository) Close() error {
	return r.db.Close()
}

var _ port.ResultRepository = (*PostgresResultRepository)(nil)
