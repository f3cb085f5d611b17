package app

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"strings"

	"golang.org/x/sync/errgroup"

	"skin-advisor/internal/domain/apperr"
	"skin-advisor/internal/domain/entity"
	"skin-advisor/internal/domain/port"
	"skin-advisor/internal/infrastructure/encoding"
)

// MaxImageBytes предел размера исходного снимка
const MaxImageBytes = 10 * 1024 * 1024

const visionPrompt = `Analyze the provided face image. Detect presence and severity (0.0-1.0) for:
- pigmentation
- acne
- redness
- pores (enlarged pores)
- wrinkles

Return JSON only with the following structure:
{
  "skin_condition_scores": {
    "pigmentation": 0.0-1.0,
    "acne": 0.0-1.0,
    "redness": 0.0-1.0,
    "pores": 0.0-1.0,
    "wrinkles": 0.0-1.0
  },
  "masks": [
    {"label": "pigmentation", "x": 0, "y": 0, "w": 100, "h": 100}
  ],
  "metrics": {
    "area_pct_by_label": {"pigmentation": 0.11, "acne": 0.02},
    "color_deltaE": 0.0
  },
  "confidence": 0.0-1.0
}

Mask coordinates are pixels of the original image. Area percentages are fractions of the face area.
Do not include any medical advice or recommendations.`

// VisionService этап A: анализ снимков и объединение ракурсов
type VisionService struct {
	fetcher port.ImageFetcher
	backend port.InferenceBackend
	logger  *slog.Logger
}

// NewVisionService создаёт сервис анализа снимков
func NewVisionService(fetcher port.ImageFetcher, backend port.InferenceBackend, logger *slog.Logger) *VisionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &VisionService{fetcher: fetcher, backend: backend, logger: logger}
}

// Version тег модели этапа A
func (s *VisionService) Version() string {
	return "vision-v1-" + s.backend.Model()
}

// Analyze анализирует основной снимок, затем боковые параллельно,
// и объединяет результаты.
func (s *VisionService) Analyze(ctx context.Context, images []entity.ImageReference, user port.UserContext) (*entity.VisionAnalysis, error) {
	const op = "stage_a.analyze"

	if err := s.backend.Ready(); err != nil {
		return nil, err
	}
	if len(images) == 0 {
		return nil, apperr.New(apperr.KindValidation, op, "no images supplied")
	}
	if !anyImageSuffix(images) {
		return nil, apperr.New(apperr.KindValidation, op, "invalid image format or URL: expected .jpg, .jpeg, .png or .webp")
	}

	primaryIdx := entity.PrimaryIndex(images)
	primary, err := s.analyzeSingle(ctx, images[primaryIdx])
	if err != nil {
		return nil, err
	}

	secondaries := s.analyzeSecondaries(ctx, images, entity.SecondaryIndexes(images, primaryIdx), user)
	if len(secondaries) == 0 {
		return primary, nil
	}

	return fuse(primary, secondaries), nil
}

// analyzeSecondaries запускает боковые снимки параллельно; сбой одного
// снимка записывается в лог и не влияет на остальные.
func (s *VisionService) analyzeSecondaries(ctx context.Context, images []entity.ImageReference, indexes []int, user port.UserContext) []*entity.VisionAnalysis {
	if len(indexes) == 0 {
		return nil
	}

	results := make([]*entity.VisionAnalysis, len(indexes))
	var g errgroup.Group
	for i, idx := range indexes {
		ref := images[idx]
		g.Go(func() error {
			analysis, err := s.analyzeSingle(ctx, ref)
			if err != nil {
				s.logger.WarnContext(ctx, "secondary image skipped",
					slog.String("user_id", user.UserID),
					slog.String("angle", string(ref.Angle)),
					slog.Int("index", idx),
					slog.Any("error", err),
				)
				return nil
			}
			results[i] = analysis
			return nil
		})
	}
	_ = g.Wait()

	out := results[:0]
	for _, r := range results {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}

// analyzeSingle полный путь одного снимка: загрузка, кодирование,
// запрос к модели, разбор и калибровка уверенности.
func (s *VisionService) analyzeSingle(ctx context.Context, ref entity.ImageReference) (*entity.VisionAnalysis, error) {
	const op = "stage_a.image"

	fetched, err := s.fetcher.Fetch(ctx, ref.URL)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUpstream, op, "fetch image", err)
	}
	if len(fetched.Data) > MaxImageBytes {
		return nil, apperr.New(apperr.KindValidation, op,
			fmt.Sprintf("image is too large (%d MB), at most %d MB supported", len(fetched.Data)/(1024*1024), MaxImageBytes/(1024*1024)))
	}

	b64, err := encoding.Encode(fetched.Data)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindValidation, op, "encode image", err)
	}

	text, err := s.backend.DescribeImage(ctx, visionPrompt, port.InlineImage{
		MIMEType: resolveMIMEType(fetched.ContentType, ref),
		Data:     fetched.Data,
		Base64:   b64,
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUpstream, op, "vision backend", err)
	}

	var payload visionPayload
	if err := decodeJSON(text, &payload); err != nil {
		return nil, apperr.Wrap(apperr.KindParse, op, "vision response", err)
	}

	analysis, backendConfidence := payload.normalize(s.Version())
	area := detectedArea(analysis, fetched.Data)
	analysis.Confidence, analysis.UncertaintyEstimate = calibrate(len(fetched.Data), len(analysis.Masks), area, backendConfidence)

	return analysis, nil
}

// fuse объединяет основной анализ с боковыми: максимум по каждому
// показателю, объединение масок, усиленная средняя уверенность.
// Неопределённость остаётся от основного снимка.
func fuse(primary *entity.VisionAnalysis, secondaries []*entity.VisionAnalysis) *entity.VisionAnalysis {
	if primary.Metrics.AreaPctByLabel == nil {
		primary.Metrics.AreaPctByLabel = make(map[string]float64)
	}

	var secondaryConfidence float64
	for _, sec := range secondaries {
		for _, c := range entity.Conditions {
			if v := sec.Scores.Get(c); v > primary.Scores.Get(c) {
				primary.Scores.Set(c, v)
			}
		}
		primary.Masks = append(primary.Masks, sec.Masks...)
		for label, pct := range sec.Metrics.AreaPctByLabel {
			if pct > primary.Metrics.AreaPctByLabel[label] {
				primary.Metrics.AreaPctByLabel[label] = pct
			}
		}
		secondaryConfidence += sec.Confidence
	}
	secondaryConfidence /= float64(len(secondaries))

	primary.Confidence = min(1, multiAngleBoost*(primary.Confidence+secondaryConfidence)/2)
	return primary
}

func anyImageSuffix(images []entity.ImageReference) bool {
	for _, img := range images {
		if img.HasImageSuffix() {
			return true
		}
	}
	return false
}

// resolveMIMEType тип из заголовка без параметров, иначе по расширению, иначе JPEG
func resolveMIMEType(contentType string, ref entity.ImageReference) string {
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil && strings.HasPrefix(mediaType, "image/") {
		return mediaType
	}
	if byExt, ok := ref.SuffixMIMEType(); ok {
		return byExt
	}
	return "image/jpeg"
}
