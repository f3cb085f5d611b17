package app

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"skin-advisor/internal/domain/apperr"
	"skin-advisor/internal/domain/entity"
	"skin-advisor/internal/domain/port"
)

// maxModelCandidates сколько кандидатов оставляем из ответа модели
const maxModelCandidates = 5

// ModelMapper подбор процедур внешней моделью. Правила безопасности
// берутся из того же каталога, что и у RuleMapper.
type ModelMapper struct {
	backend port.InferenceBackend
	catalog *entity.TreatmentCatalog
}

// NewModelMapper создаёт подбор через модель
func NewModelMapper(backend port.InferenceBackend, catalog *entity.TreatmentCatalog) *ModelMapper {
	return &ModelMapper{backend: backend, catalog: catalog}
}

func (m *ModelMapper) Version() string {
	return "map-v2-ai-" + m.backend.Model()
}

// Map строит промпт по оценкам и профилю, разбирает ответ и
// нормализует кандидатов.
func (m *ModelMapper) Map(ctx context.Context, vision *entity.VisionAnalysis, profile entity.UserProfile) (*entity.MappingResult, error) {
	const op = "stage_b.map"

	if err := m.backend.Ready(); err != nil {
		return nil, err
	}

	safety := applySafetyRules(m.catalog, vision.Scores, profile)

	text, err := m.backend.Complete(ctx, mappingPrompt(vision, profile, safety))
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUpstream, op, "mapping backend", err)
	}

	var payload mappingPayload
	if err := decodeJSON(text, &payload); err != nil {
		return nil, apperr.Wrap(apperr.KindParse, op, "mapping response", err)
	}

	all := payload.normalize(func() string { return "treatment_" + uuid.NewString()[:8] })
	candidates := make([]entity.TreatmentCandidate, 0, len(all))
	for _, c := range all {
		if safety.blocked[c.ID] {
			continue
		}
		// ограничения каталога по возрасту и фототипу модель не решает
		if def, ok := m.catalog.Treatment(c.ID); ok && !def.Eligible(profile) {
			continue
		}
		candidates = append(candidates, c)
	}

	sortByScore(candidates)
	if len(candidates) > maxModelCandidates {
		candidates = candidates[:maxModelCandidates]
	}

	return &entity.MappingResult{
		TreatmentCandidates:   candidates,
		MappingVersion:        m.Version(),
		AppliedRules:          safety.applied,
		NeedsMedicalClearance: needsClearance(vision, safety),
	}, nil
}

func mappingPrompt(vision *entity.VisionAnalysis, profile entity.UserProfile, safety safetyOutcome) string {
	type issue struct {
		name  entity.Condition
		value float64
	}
	issues := make([]issue, 0, len(entity.Conditions))
	for _, c := range entity.Conditions {
		if v := vision.Scores.Get(c); v > 0.3 {
			issues = append(issues, issue{c, v})
		}
	}
	sort.SliceStable(issues, func(i, j int) bool { return issues[i].value > issues[j].value })

	parts := make([]string, 0, len(issues))
	for _, is := range issues {
		parts = append(parts, fmt.Sprintf("%s: %.0f%%", is.name, is.value*100))
	}
	topIssues := strings.Join(parts, ", ")
	if topIssues == "" {
		topIssues = "None significant"
	}

	area, _ := json.Marshal(vision.Metrics.AreaPctByLabel)

	age := "unknown"
	if profile.Age != nil {
		age = fmt.Sprintf("%d", *profile.Age)
	}
	tone := profile.SkinTone
	if tone == "" {
		tone = "unknown"
	}

	blocked := make([]string, 0, len(safety.blocked))
	for id := range safety.blocked {
		blocked = append(blocked, id)
	}
	sort.Strings(blocked)

	s := vision.Scores
	return fmt.Sprintf(`You are a cosmetic treatment recommendation assistant (non-medical, informational only).

### Task
Based on the skin analysis results, recommend 3-5 cosmetic treatments.

### Input Data
Skin Condition Scores (0.0-1.0):
- Pigmentation: %.2f
- Acne: %.2f
- Redness: %.2f
- Pores: %.2f
- Wrinkles: %.2f

Top Issues: %s
Area Percentages: %s
Confidence: %.0f%%
User Profile: Age %s, Skin Tone %s
Excluded treatment ids: %s

### Output Format (JSON only)
{
  "treatment_candidates": [
    {
      "id": "laser_toning",
      "name": "Лазерное тонирование",
      "score": 0.75,
      "expected_improvement_pct": 0.30,
      "notes": ["..."]
    }
  ]
}

### Requirements
1. Prioritize the highest scores (above 0.4).
2. If redness > 0.5 prioritize vascular treatments; if pigmentation > 0.5 pigment lasers; if pores > 0.5 pore-reducing treatments.
3. Minimum age for laser treatments is 18.
4. Never recommend excluded treatment ids.
5. Write names and notes in Russian. Do not use diagnostic language.

Output strictly JSON only.`,
		s.Pigmentation, s.Acne, s.Redness, s.Pores, s.Wrinkles,
		topIssues, string(area), vision.Confidence*100, age, tone, strings.Join(blocked, ", "))
}

var _ port.TreatmentMapper = (*ModelMapper)(nil)
