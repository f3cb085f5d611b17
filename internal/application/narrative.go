package app

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"skin-advisor/internal/domain/apperr"
	"skin-advisor/internal/domain/entity"
	"skin-advisor/internal/domain/port"
)

// NarrativeMode способ построения текста
type NarrativeMode string

const (
	NarrativeAI       NarrativeMode = "ai"
	NarrativeTemplate NarrativeMode = "template"
)

const (
	DisclaimerText   = "Это описание не является медицинским диагнозом; перед процедурой рекомендуется консультация врача-дерматолога."
	ExpertReviewText = "Рекомендуем показать результат специалисту: точность анализа ограничена, для надёжной оценки нужна очная консультация."

	goodConditionSummary    = "Кожа в целом в хорошем состоянии"
	expertReviewUncertainty = 0.4
)

// Фрагменты, по которым абзац считается дисклеймером
var disclaimerMarkers = []string{"медицинским диагнозом", "медицинский диагноз", "консультация врача", "справочн"}

var consultCTA = entity.CTA{Label: "Записаться на консультацию", URL: "/consult"}

// Пороги, выше которых показатель упоминается в сводке
var summaryThresholds = []struct {
	condition entity.Condition
	threshold float64
	title     string
}{
	{entity.ConditionPigmentation, 0.5, "пигментация"},
	{entity.ConditionAcne, 0.4, "акне"},
	{entity.ConditionRedness, 0.3, "покраснение"},
	{entity.ConditionPores, 0.5, "расширенные поры"},
	{entity.ConditionWrinkles, 0.3, "морщины"},
}

// skinSummary короткая сводка по заметным показателям
func skinSummary(scores entity.SkinConditionScores) string {
	issues := make([]string, 0, len(summaryThresholds))
	for _, t := range summaryThresholds {
		if scores.Get(t.condition) > t.threshold {
			issues = append(issues, t.title)
		}
	}
	if len(issues) == 0 {
		return goodConditionSummary
	}
	return "Заметнее всего: " + strings.Join(issues, ", ")
}

// NarrativeService этап C: текст для пользователя
type NarrativeService struct {
	backend port.InferenceBackend
	mode    NarrativeMode
}

// NewNarrativeService создаёт генератор текста. Шаблонный режим
// не обращается к сети.
func NewNarrativeService(backend port.InferenceBackend, mode NarrativeMode) *NarrativeService {
	if mode != NarrativeTemplate {
		mode = NarrativeAI
	}
	return &NarrativeService{backend: backend, mode: mode}
}

func (s *NarrativeService) Version() string {
	if s.mode == NarrativeTemplate {
		return "nlg-v1-template"
	}
	return "nlg-v1-" + s.backend.Model()
}

// Generate строит текст и всегда применяет обязательную постобработку
func (s *NarrativeService) Generate(ctx context.Context, vision *entity.VisionAnalysis, mapping *entity.MappingResult, profile entity.UserProfile) (*entity.NLGResult, error) {
	var (
		result entity.NLGResult
		err    error
	)
	if s.mode == NarrativeTemplate {
		result = templateNarrative(vision, mapping)
	} else {
		result, err = s.modelNarrative(ctx, vision, mapping, profile)
		if err != nil {
			return nil, err
		}
	}

	result.NLGVersion = s.Version()
	result = PostProcess(result, vision.UncertaintyEstimate)
	return &result, nil
}

func (s *NarrativeService) modelNarrative(ctx context.Context, vision *entity.VisionAnalysis, mapping *entity.MappingResult, profile entity.UserProfile) (entity.NLGResult, error) {
	const op = "stage_c.generate"

	if err := s.backend.Ready(); err != nil {
		return entity.NLGResult{}, err
	}

	summary := skinSummary(vision.Scores)
	prompt, err := narrativePrompt(summary, vision, mapping, profile)
	if err != nil {
		return entity.NLGResult{}, apperr.Wrap(apperr.KindValidation, op, "build prompt", err)
	}

	text, err := s.backend.Complete(ctx, prompt)
	if err != nil {
		return entity.NLGResult{}, apperr.Wrap(apperr.KindUpstream, op, "narrative backend", err)
	}

	var payload narrativePayload
	if err := decodeJSON(text, &payload); err != nil {
		return entity.NLGResult{}, apperr.Wrap(apperr.KindParse, op, "narrative response", err)
	}
	return payload.normalize(summary), nil
}

func narrativePrompt(summary string, vision *entity.VisionAnalysis, mapping *entity.MappingResult, profile entity.UserProfile) (string, error) {
	input, err := json.MarshalIndent(map[string]any{
		"skin_summary":         summary,
		"treatment_candidates": mapping.TreatmentCandidates,
		"confidence":           vision.Confidence,
		"uncertainty":          vision.UncertaintyEstimate,
		"user_profile":         profile,
	}, "", "  ")
	if err != nil {
		return "", err
	}

	return fmt.Sprintf(`You are a friendly, concise assistant for cosmetic guidance (non-medical).

[INPUT JSON]
%s

Generate a JSON output with the following structure:
{
  "headline": "short headline in Russian",
  "paragraphs": [
    "what the photo analysis shows, including confidence",
    "commonly chosen options",
    "precautions, stating this is not a medical diagnosis"
  ],
  "cta": {"label": "%s", "url": "%s"}
}

Rules:
- Never use words that sound like a prescription or a diagnosis.
- Prefer "informational", "commonly chosen", "may help", "consider consulting".
- Always include the disclaimer: "%s"
- If uncertainty > 0.4, recommend an expert review.
- Use natural Russian, 2-3 sentences per paragraph.

Output ONLY JSON.`, input, consultCTA.Label, consultCTA.URL, DisclaimerText), nil
}

// templateNarrative текст по сводке и лучшему кандидату без обращения к модели
func templateNarrative(vision *entity.VisionAnalysis, mapping *entity.MappingResult) entity.NLGResult {
	summary := skinSummary(vision.Scores)

	paragraphs := []string{
		fmt.Sprintf("%s. Точность анализа по фото около %.0f%%.", summary, vision.Confidence*100),
	}
	if top, ok := mapping.Top(); ok {
		paragraphs = append(paragraphs, fmt.Sprintf(
			"Для похожих случаев часто выбирают процедуру «%s»: ожидаемое улучшение до %.0f%%.",
			top.Name, top.ExpectedImprovementPct*100))
	} else {
		paragraphs = append(paragraphs, "Конкретных процедур по этому снимку не подобрано.")
	}

	return entity.NLGResult{
		Headline:   summary + " (справочная информация)",
		Paragraphs: paragraphs,
		CTA:        consultCTA,
	}
}

// PostProcess добавляет совет показать результат специалисту при высокой
// неопределённости и дисклеймер, если его ещё нет. Повторный вызов
// ничего не меняет.
func PostProcess(result entity.NLGResult, uncertainty float64) entity.NLGResult {
	paragraphs := make([]string, 0, len(result.Paragraphs)+2)
	paragraphs = append(paragraphs, result.Paragraphs...)

	if uncertainty > expertReviewUncertainty && !containsParagraph(paragraphs, ExpertReviewText) {
		paragraphs = append(paragraphs, ExpertReviewText)
	}
	if !hasDisclaimer(paragraphs) {
		paragraphs = append(paragraphs, DisclaimerText)
	}

	result.Paragraphs = paragraphs
	return result
}

func containsParagraph(paragraphs []string, text string) bool {
	for _, p := range paragraphs {
		if p == text {
			return true
		}
	}
	return false
}

func hasDisclaimer(paragraphs []string) bool {
	for _, p := range paragraphs {
		lower := strings.ToLower(p)
		for _, marker := range disclaimerMarkers {
			if strings.Contains(lower, marker) {
				return true
			}
		}
	}
	return false
}

var _ port.NarrativeGenerator = (*NarrativeService)(nil)
