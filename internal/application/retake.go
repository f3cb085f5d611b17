package app

import (
	"fmt"

	"skin-advisor/internal/domain/entity"
)

// Версии шаблонного ответа при низкой уверенности
const (
	RetakeNLGVersion = "nlg-v1-photo-guide-template"
	RetakeURL        = "/analyze?retake=1"

	skippedStageTag  = "skipped"
	templateStageTag = "template"
)

// skippedMapping пустой подбор, когда этап B пропущен
func skippedMapping() *entity.MappingResult {
	return &entity.MappingResult{
		TreatmentCandidates:   []entity.TreatmentCandidate{},
		MappingVersion:        MappingSkipped,
		AppliedRules:          []string{},
		NeedsMedicalClearance: false,
	}
}

// retakeNarrative инструкция по повторной съёмке вместо этапа C
func retakeNarrative(confidence float64) *entity.NLGResult {
	return &entity.NLGResult{
		Headline: "Нужно фото лучшего качества",
		Paragraphs: []string{
			fmt.Sprintf("Точность анализа этого снимка около %.0f%%. Для надёжной оценки переснимите фото.", confidence*100),
			"Как сделать хороший снимок:",
			"1. Снимайте при ярком дневном свете или хорошем освещении",
			"2. Держите лицо в центре кадра и смотрите прямо в камеру",
			"3. Снимите макияж",
			"4. Расстояние от камеры до лица 30–50 см",
			"5. Проверьте, что фото резкое и в фокусе",
			"6. Избегайте теней и бликов на лице",
		},
		CTA:        entity.CTA{Label: "Переснять фото", URL: RetakeURL},
		NLGVersion: RetakeNLGVersion,
	}
}
