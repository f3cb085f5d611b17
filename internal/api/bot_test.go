package telegram

import (
	"testing"

	"github.com/stretchr/testify/require"

	"skin-advisor/internal/domain/entity"
)

func TestPhotoPrompt(t *testing.T) {
	require.Equal(t, msgAwaitingLeft, photoPrompt(1))
	require.Equal(t, msgAwaitingRight, photoPrompt(2))
	require.Equal(t, msgAllAngles, photoPrompt(3))
}

func TestFormatResult(t *testing.T) {
	text := formatResult(&entity.OrchestrationResult{
		NLG: entity.NLGResult{
			Headline:   "Заметнее всего: пигментация",
			Paragraphs: []string{"Первый абзац.", "Второй абзац."},
			CTA:        entity.CTA{Label: "Записаться на консультацию", URL: "/consult"},
		},
		Mapping: entity.MappingResult{TreatmentCandidates: []entity.TreatmentCandidate{
			{Name: "Лазерное тонирование", ExpectedImprovementPct: 0.32},
		}},
		ReviewNeeded: true,
	})

	require.Contains(t, text, "Заметнее всего: пигментация\n\nПервый абзац.\n\nВторой абзац.")
	require.Contains(t, text, "• Лазерное тонирование — до 32% улучшения")
	require.Contains(t, text, msgReviewNeeded)
	require.True(t, len(text) > 0 && text[len(text)-len("/consult"):] == "/consult")
}

func TestFormatResult_NoCandidates(t *testing.T) {
	text := formatResult(&entity.OrchestrationResult{NLG: entity.NLGResult{Headline: "Нужно фото лучшего качества"}})
	require.Equal(t, "Нужно фото лучшего качества", text)
}
