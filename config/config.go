package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	TelegramToken string
	HTTPAddr      string
	LogLevel      string
	LogFormat     string

	InferenceProvider string
	GeminiAPIKey      string
	GeminiVisionModel string
	GeminiTextModel   string
	OpenAIAPIKey      string
	OpenAIBaseURL     string
	OpenAIVisionModel string
	OpenAITextModel   string

	MappingMode          string
	NarrativeMode        string
	StageTimeout         time.Duration
	TreatmentCatalogPath string

	AuthJWTSecret    string
	ResultStorePGDSN string

	S3Endpoint  string
	S3Region    string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3UseSSL    bool
}

// S3Enabled настроено ли объектное хранилище
func (c *Config) S3Enabled() bool {
	return c.S3Endpoint != ""
}

// Load читает настройки из окружения. Отсутствие ключей бэкендов
// ошибкой не считается: этапы сообщат о них сами.
func Load() (*Config, error) {
	// Загружаем .env файл (игнорируем ошибку если файла нет)
	_ = godotenv.Load()

	cfg := &Config{
		TelegramToken: os.Getenv("TELEGRAM_TOKEN"),
		HTTPAddr:      getenv("HTTP_ADDR", ":8080"),
		LogLevel:      getenv("LOG_LEVEL", "info"),
		LogFormat:     getenv("LOG_FORMAT", "text"),

		InferenceProvider: getenv("INFERENCE_PROVIDER", "gemini"),
		GeminiAPIKey:      os.Getenv("GEMINI_API_KEY"),
		GeminiVisionModel: getenv("GEMINI_VISION_MODEL", "gemini-2.5-pro"),
		GeminiTextModel:   getenv("GEMINI_TEXT_MODEL", "gemini-2.5-flash"),
		OpenAIAPIKey:      os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:     os.Getenv("OPENAI_BASE_URL"),
		OpenAIVisionModel: getenv("OPENAI_VISION_MODEL", "gpt-4o"),
		OpenAITextModel:   getenv("OPENAI_TEXT_MODEL", "gpt-4o-mini"),

		MappingMode:          strings.ToLower(getenv("MAPPING_MODE", "rules")),
		NarrativeMode:        strings.ToLower(getenv("NARRATIVE_MODE", "ai")),
		TreatmentCatalogPath: os.Getenv("TREATMENT_CATALOG_PATH"),

		AuthJWTSecret:    os.Getenv("AUTH_JWT_SECRET"),
		ResultStorePGDSN: os.Getenv("RESULT_STORE_PG_DSN"),

		S3Endpoint:  os.Getenv("S3_ENDPOINT"),
		S3Region:    os.Getenv("S3_REGION"),
		S3AccessKey: os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey: os.Getenv("S3_SECRET_KEY"),
		S3Bucket:    getenv("S3_BUCKET", "skin-advisor"),
	}

	timeout, err := time.ParseDuration(getenv("STAGE_TIMEOUT", "60s"))
	if err != nil {
		return nil, fmt.Errorf("STAGE_TIMEOUT: %w", err)
	}
	cfg.StageTimeout = timeout

	if raw := os.Getenv("S3_USE_SSL"); raw != "" {
		if cfg.S3UseSSL, err = strconv.ParseBool(raw); err != nil {
			return nil, fmt.Errorf("S3_USE_SSL: %w", err)
		}
	}

	switch cfg.MappingMode {
	case "rules", "ai":
	default:
		return nil, fmt.Errorf("MAPPING_MODE: unknown mode %q", cfg.MappingMode)
	}
	switch cfg.NarrativeMode {
	case "ai", "template":
	default:
		return nil, fmt.Errorf("NARRATIVE_MODE: unknown mode %q", cfg.NarrativeMode)
	}

	return cfg, nil
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
