package container

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"skin-advisor/config"
	app "skin-advisor/internal/application"
	"skin-advisor/internal/domain/entity"
	"skin-advisor/internal/domain/port"
	"skin-advisor/internal/infrastructure/auth"
	"skin-advisor/internal/infrastructure/catalog"
	"skin-advisor/internal/infrastructure/fetch"
	"skin-advisor/internal/infrastructure/inference"
	"skin-advisor/internal/infrastructure/logging"
	"skin-advisor/internal/infrastructure/storage"
	"skin-advisor/internal/infrastructure/vision"
)

// Температуры запросов к моделям
const (
	visionTemperature = 0.2
	textTemperature   = 0.4
)

type Container struct {
	Catalog         *entity.TreatmentCatalog
	Files           *fetch.HTTPFetcher
	UserService     *app.UserService
	AnalysisService *app.AnalysisService
	SessionService  *app.SessionService
	// Components версии этапов для /health
	Components map[string]string

	closers []io.Closer
}

// New собирает сервисы по конфигурации. Ошибкой считаются только
// неверный каталог и недоступные хранилища; отсутствие ключей моделей
// проявится на соответствующем этапе.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Container{}

	treatments, err := catalog.Load(cfg.TreatmentCatalogPath)
	if err != nil {
		return nil, err
	}
	c.Catalog = treatments

	visionBackend := inference.New(ctx, inference.Settings{
		Provider:      cfg.InferenceProvider,
		GeminiAPIKey:  cfg.GeminiAPIKey,
		GeminiModel:   cfg.GeminiVisionModel,
		OpenAIAPIKey:  cfg.OpenAIAPIKey,
		OpenAIBaseURL: cfg.OpenAIBaseURL,
		OpenAIModel:   cfg.OpenAIVisionModel,
		Temperature:   visionTemperature,
	})
	textBackend := inference.New(ctx, inference.Settings{
		Provider:      cfg.InferenceProvider,
		GeminiAPIKey:  cfg.GeminiAPIKey,
		GeminiModel:   cfg.GeminiTextModel,
		OpenAIAPIKey:  cfg.OpenAIAPIKey,
		OpenAIBaseURL: cfg.OpenAIBaseURL,
		OpenAIModel:   cfg.OpenAITextModel,
		Temperature:   textTemperature,
	})
	if err := visionBackend.Ready(); err != nil {
		logger.Warn("inference backend is not configured", slog.Any("error", err))
	}

	c.Files = fetch.NewHTTPFetcher(cfg.StageTimeout)
	router := fetch.NewRouter(c.Files)

	// Снимки из бота: S3, если задан endpoint, иначе память процесса
	var (
		images    port.ImageStore
		publisher port.ObjectPublisher
	)
	if cfg.S3Enabled() {
		s3, err := storage.NewS3ObjectStore(storage.S3Config{
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Bucket:    cfg.S3Bucket,
			UseSSL:    cfg.S3UseSSL,
		})
		if err != nil {
			return nil, err
		}
		router.Register(storage.S3Scheme, s3)
		images, publisher = s3, s3
	} else {
		mem := storage.NewMemoryImageStore()
		router.Register(storage.MemoryScheme, mem)
		images = mem
	}

	var results port.ResultRepository = storage.NewMemoryResultRepository()
	if cfg.ResultStorePGDSN != "" {
		pg, err := storage.NewPostgresResultRepository(ctx, cfg.ResultStorePGDSN)
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, pg)
		results = pg
	}

	var verifier port.AuthVerifier
	if cfg.AuthJWTSecret != "" {
		jwtVerifier, err := auth.NewJWTVerifier(cfg.AuthJWTSecret)
		if err != nil {
			return nil, err
		}
		verifier = jwtVerifier
	}

	var mapper port.TreatmentMapper
	if cfg.MappingMode == "ai" {
		mapper = app.NewModelMapper(textBackend, treatments)
	} else {
		mapper = app.NewRuleMapper(treatments)
	}

	visionService := app.NewVisionService(router, visionBackend, logger)
	narrative := app.NewNarrativeService(textBackend, app.NarrativeMode(cfg.NarrativeMode))
	pipeline := app.NewPipeline(visionService, mapper, narrative, app.PipelineOptions{
		StageTimeout: cfg.StageTimeout,
		Events:       logging.NewEventSink(logger),
	})

	highlighter := vision.NewHighlighter()

	c.AnalysisService = app.NewAnalysisService(app.AnalysisDeps{
		Pipeline:    pipeline,
		Results:     results,
		Auth:        verifier,
		Fetcher:     router,
		Highlighter: highlighter,
		Publisher:   publisher,
		Logger:      logger,
	})

	c.UserService = app.NewUserService(storage.NewMemoryUserRepository())
	c.SessionService = app.NewSessionService(c.UserService, images, c.AnalysisService, highlighter)

	c.Components = map[string]string{
		"stage_a":           visionService.Version(),
		"stage_b":           mapper.Version(),
		"stage_c":           narrative.Version(),
		"treatment_catalog": treatments.Version,
	}

	return c, nil
}

// Close освобождает соединения с хранилищами
func (c *Container) Close() error {
	var first error
	for _, closer := range c.closers {
		if err := closer.Close(); err != nil && first == nil {
			first = fmt.Errorf("close: %w", err)
		}
	}
	return first
}
