package port

import (
	"context"

	"skin-advisor/internal/domain/entity"
)

// VisionExtractor этап A: признаки кожи по набору снимков
type VisionExtractor interface {
	Analyze(ctx context.Context, images []entity.ImageReference, user UserContext) (*entity.VisionAnalysis, error)
	Version() string
}

// TreatmentMapper этап B: подбор процедур по оценкам кожи
type TreatmentMapper interface {
	Map(ctx context.Context, vision *entity.VisionAnalysis, profile entity.UserProfile) (*entity.MappingResult, error)
	Version() string
}

// NarrativeGenerator этап C: текст для пользователя
type NarrativeGenerator interface {
	Generate(ctx context.Context, vision *entity.VisionAnalysis, mapping *entity.MappingResult, profile entity.UserProfile) (*entity.NLGResult, error)
	Version() string
}

// UserContext сведения о запросе, доступные этапу A
type UserContext struct {
	UserID  string
	Profile entity.UserProfile
	Meta    entity.RequestMeta
}
