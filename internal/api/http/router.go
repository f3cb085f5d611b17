package httpapi

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"skin-advisor/internal/domain/entity"
)

// Analyzer то, что HTTP-слою нужно от сервиса анализа
type Analyzer interface {
	Analyze(ctx context.Context, req entity.AnalysisRequest) (*entity.AnalysisOutput, error)
	Result(ctx context.Context, resultID string) (*entity.OrchestrationResult, error)
}

// Options параметры сборки роутера
type Options struct {
	Analyzer     Analyzer
	Logger       *slog.Logger
	Debug        bool
	AllowOrigins []string
	// Components версии этапов для /health
	Components map[string]string
}

// Build собирает gin engine с recovery, логированием, CORS и маршрутами анализа
func Build(opts Options) *gin.Engine {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if opts.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(loggingMiddleware(logger))

	origins := opts.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	engine.Use(cors.New(cors.Config{
		AllowOrigins:  origins,
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}))

	h := &handler{analyzer: opts.Analyzer, logger: logger, components: opts.Components}
	engine.GET("/health", h.health)
	engine.POST("/analyze", h.analyze)
	engine.GET("/analyze/results/:id", h.result)

	return engine
}

func loggingMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.LogAttrs(c.Request.Context(), slog.LevelInfo, "http request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("duration", time.Since(start)),
		)
	}
}
