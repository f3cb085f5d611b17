package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"skin-advisor/internal/domain/apperr"
	"skin-advisor/internal/domain/entity"
	"skin-advisor/internal/domain/port"
)

// DefaultHeatmapTTL срок жизни ссылки на снимок с подсветкой
const DefaultHeatmapTTL = time.Hour

// AnalysisDeps зависимости сервиса анализа. Auth, Highlighter и Publisher
// необязательны: без них проверка токена и подсветка пропускаются.
type AnalysisDeps struct {
	Pipeline    *Pipeline
	Results     port.ResultRepository
	Auth        port.AuthVerifier
	Fetcher     port.ImageFetcher
	Highlighter port.RegionHighlighter
	Publisher   port.ObjectPublisher
	Logger      *slog.Logger
	HeatmapTTL  time.Duration
}

// AnalysisService принимает запрос, проверяет токен, запускает конвейер,
// сохраняет итог и публикует снимок с подсветкой.
type AnalysisService struct {
	deps AnalysisDeps
}

// NewAnalysisService создаёт сервис анализа
func NewAnalysisService(deps AnalysisDeps) *AnalysisService {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.HeatmapTTL <= 0 {
		deps.HeatmapTTL = DefaultHeatmapTTL
	}
	return &AnalysisService{deps: deps}
}

// Analyze выполняет полный цикл для одного запроса
func (s *AnalysisService) Analyze(ctx context.Context, req entity.AnalysisRequest) (*entity.AnalysisOutput, error) {
	const op = "analysis.analyze"

	req = req.Normalize()
	if len(req.Images) == 0 {
		return nil, apperr.New(apperr.KindValidation, op, "images or image_url is required")
	}
	if req.UserID == "" {
		return nil, apperr.New(apperr.KindValidation, op, "user_id is required")
	}
	for _, img := range req.Images {
		if !img.Angle.Valid() {
			return nil, apperr.New(apperr.KindValidation, op,
				fmt.Sprintf("unknown angle %q: expected front, left or right", img.Angle))
		}
	}
	if err := s.authorize(ctx, req); err != nil {
		return nil, err
	}

	result, err := s.deps.Pipeline.Run(ctx, req)
	if err != nil {
		s.deps.Logger.ErrorContext(ctx, "analysis failed",
			slog.String("user_id", req.UserID),
			slog.Any("error", err),
		)
		return nil, err
	}

	if s.deps.Results != nil {
		if err := s.deps.Results.Save(ctx, result); err != nil {
			return nil, apperr.Wrap(apperr.KindStorage, op, "save result", err)
		}
	}

	output := &entity.AnalysisOutput{Result: result}
	output.HeatmapURL = s.publishHeatmap(ctx, req.Images, result)

	s.deps.Logger.InfoContext(ctx, "analysis completed",
		slog.String("user_id", req.UserID),
		slog.String("result_id", result.ResultID),
		slog.Float64("confidence", result.Analysis.Confidence),
		slog.Bool("review_needed", result.ReviewNeeded),
		slog.Int("candidates", len(result.Mapping.TreatmentCandidates)),
	)

	return output, nil
}

// Result возвращает сохранённый итог по идентификатору
func (s *AnalysisService) Result(ctx context.Context, resultID string) (*entity.OrchestrationResult, error) {
	if s.deps.Results == nil {
		return nil, apperr.New(apperr.KindConfiguration, "analysis.result", "result storage is not configured")
	}
	return s.deps.Results.Get(ctx, resultID)
}

// authorize сверяет токен с user_id; запрос без токена не проверяется
func (s *AnalysisService) authorize(ctx context.Context, req entity.AnalysisRequest) error {
	const op = "analysis.authorize"

	if req.AccessToken == "" || s.deps.Auth == nil {
		return nil
	}
	userID, err := s.deps.Auth.Verify(ctx, req.AccessToken)
	if err != nil {
		return apperr.Wrap(apperr.KindAuth, op, "authentication failed", err)
	}
	if userID != req.UserID {
		return apperr.New(apperr.KindAuth, op, "authentication failed: token does not belong to user_id")
	}
	return nil
}

// publishHeatmap рисует найденные области на основном снимке и возвращает
// временную ссылку. Любой сбой только пишется в лог.
func (s *AnalysisService) publishHeatmap(ctx context.Context, images []entity.ImageReference, result *entity.OrchestrationResult) string {
	if s.deps.Highlighter == nil || s.deps.Publisher == nil || s.deps.Fetcher == nil {
		return ""
	}
	if len(result.Analysis.Masks) == 0 {
		return ""
	}

	url, err := s.renderHeatmap(ctx, images[entity.PrimaryIndex(images)], result)
	if err != nil {
		s.deps.Logger.WarnContext(ctx, "heatmap skipped",
			slog.String("result_id", result.ResultID),
			slog.Any("error", err),
		)
		return ""
	}
	return url
}

func (s *AnalysisService) renderHeatmap(ctx context.Context, primary entity.ImageReference, result *entity.OrchestrationResult) (string, error) {
	fetched, err := s.deps.Fetcher.Fetch(ctx, primary.URL)
	if err != nil {
		return "", fmt.Errorf("fetch primary image: %w", err)
	}

	highlighted, err := s.deps.Highlighter.HighlightRegions(fetched.Data, result.Analysis.Masks)
	if err != nil {
		return "", fmt.Errorf("highlight regions: %w", err)
	}

	key := fmt.Sprintf("heatmaps/%s.jpg", result.ResultID)
	return s.deps.Publisher.Publish(ctx, key, highlighted, "image/jpeg", s.deps.HeatmapTTL)
}
