package app

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strings"

	"skin-advisor/internal/domain/entity"
)

// Значения по умолчанию для полей, которые модель может не вернуть
const (
	defaultBackendConfidence = 0.6
	defaultTreatmentName     = "Unknown treatment"
)

var (
	fencedJSON = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")
	bareObject = regexp.MustCompile(`(?s)\{.*\}`)
)

// extractJSON вырезает JSON из ответа в markdown-блоке или в окружении текста
func extractJSON(text string) string {
	if m := fencedJSON.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	if m := bareObject.FindString(text); m != "" {
		return m
	}
	return strings.TrimSpace(text)
}

func decodeJSON(text string, v any) error {
	if err := json.Unmarshal([]byte(extractJSON(text)), v); err != nil {
		return fmt.Errorf("decode model response: %w", err)
	}
	return nil
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}

func clamp01(v float64) float64 { return clamp(v, 0, 1) }

func valueOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

// visionPayload ответ модели этапа A до нормализации
type visionPayload struct {
	Scores struct {
		Pigmentation  *float64 `json:"pigmentation"`
		Acne          *float64 `json:"acne"`
		Redness       *float64 `json:"redness"`
		Pores         *float64 `json:"pores"`
		EnlargedPores *float64 `json:"enlarged_pores"`
		Wrinkles      *float64 `json:"wrinkles"`
	} `json:"skin_condition_scores"`
	Masks []struct {
		Label string  `json:"label"`
		X     float64 `json:"x"`
		Y     float64 `json:"y"`
		W     float64 `json:"w"`
		H     float64 `json:"h"`
	} `json:"masks"`
	Metrics struct {
		AreaPctByLabel map[string]float64 `json:"area_pct_by_label"`
		ColorDeltaE    *float64           `json:"color_deltaE"`
	} `json:"metrics"`
	Confidence *float64 `json:"confidence"`
}

// normalize приводит ответ к VisionAnalysis без неопределённых полей.
// Возвращает также самооценку модели для калибровки.
func (p visionPayload) normalize(modelVersion string) (*entity.VisionAnalysis, float64) {
	pores := p.Scores.Pores
	if pores == nil {
		pores = p.Scores.EnlargedPores
	}

	analysis := &entity.VisionAnalysis{
		Scores: entity.SkinConditionScores{
			Pigmentation: clamp01(valueOr(p.Scores.Pigmentation, 0)),
			Acne:         clamp01(valueOr(p.Scores.Acne, 0)),
			Redness:      clamp01(valueOr(p.Scores.Redness, 0)),
			Pores:        clamp01(valueOr(pores, 0)),
			Wrinkles:     clamp01(valueOr(p.Scores.Wrinkles, 0)),
		},
		Masks: make([]entity.RegionMask, 0, len(p.Masks)),
		Metrics: entity.VisionMetrics{
			AreaPctByLabel: make(map[string]float64, len(p.Metrics.AreaPctByLabel)),
			ColorDeltaE:    p.Metrics.ColorDeltaE,
		},
		ModelVersion: modelVersion,
	}

	for _, m := range p.Masks {
		mask := entity.RegionMask{
			Label: strings.ToLower(strings.TrimSpace(m.Label)),
			X:     int(math.Round(m.X)),
			Y:     int(math.Round(m.Y)),
			W:     int(math.Round(m.W)),
			H:     int(math.Round(m.H)),
		}
		if mask.Area() == 0 {
			continue
		}
		analysis.Masks = append(analysis.Masks, mask)
	}

	for label, pct := range p.Metrics.AreaPctByLabel {
		label = strings.ToLower(strings.TrimSpace(label))
		if label == "" || pct <= 0 {
			continue
		}
		analysis.Metrics.AreaPctByLabel[label] = clamp01(pct)
	}

	return analysis, clamp01(valueOr(p.Confidence, defaultBackendConfidence))
}

// notesField принимает как строку, так и список строк
type notesField []string

func (n *notesField) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*n = list
		return nil
	}
	var single string
	if err := json.Unmarshal(data, &single); err != nil {
		return err
	}
	if single == "" {
		*n = nil
		return nil
	}
	*n = []string{single}
	return nil
}

// mappingPayload ответ модели этапа B до нормализации
type mappingPayload struct {
	TreatmentCandidates []struct {
		ID                     string     `json:"id"`
		Name                   string     `json:"name"`
		Score                  *float64   `json:"score"`
		ExpectedImprovementPct *float64   `json:"expected_improvement_pct"`
		Notes                  notesField `json:"notes"`
	} `json:"treatment_candidates"`
}

func (p mappingPayload) normalize(newID func() string) []entity.TreatmentCandidate {
	out := make([]entity.TreatmentCandidate, 0, len(p.TreatmentCandidates))
	for _, c := range p.TreatmentCandidates {
		candidate := entity.TreatmentCandidate{
			ID:                     strings.TrimSpace(c.ID),
			Name:                   strings.TrimSpace(c.Name),
			Score:                  clamp01(valueOr(c.Score, 0)),
			ExpectedImprovementPct: clamp01(valueOr(c.ExpectedImprovementPct, 0)),
			Notes:                  []string(c.Notes),
		}
		if candidate.ID == "" {
			candidate.ID = newID()
		}
		if candidate.Name == "" {
			candidate.Name = defaultTreatmentName
		}
		if candidate.Notes == nil {
			candidate.Notes = []string{}
		}
		out = append(out, candidate)
	}
	return out
}

// narrativePayload ответ модели этапа C до нормализации
type narrativePayload struct {
	Headline   string      `json:"headline"`
	Paragraphs notesField  `json:"paragraphs"`
	CTA        *entity.CTA `json:"cta"`
}

func (p narrativePayload) normalize(summary string) entity.NLGResult {
	result := entity.NLGResult{
		Headline: strings.TrimSpace(p.Headline),
		CTA:      consultCTA,
	}
	if result.Headline == "" {
		result.Headline = summary + " (справочная информация)"
	}
	if p.CTA != nil && strings.TrimSpace(p.CTA.Label) != "" && strings.TrimSpace(p.CTA.URL) != "" {
		result.CTA = *p.CTA
	}

	result.Paragraphs = make([]string, 0, len(p.Paragraphs)+2)
	for _, para := range p.Paragraphs {
		if para = strings.TrimSpace(para); para != "" {
			result.Paragraphs = append(result.Paragraphs, para)
		}
	}
	return result
}
