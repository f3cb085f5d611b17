package app

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"skin-advisor/internal/domain/apperr"
	"skin-advisor/internal/domain/entity"
	"skin-advisor/internal/infrastructure/catalog"
)

func intPtr(v int) *int    { return &v }
func boolPtr(v bool) *bool { return &v }

func defaultCatalog(t *testing.T) *entity.TreatmentCatalog {
	t.Helper()
	c, err := catalog.Default()
	require.NoError(t, err)
	return c
}

func visionWith(scores entity.SkinConditionScores) *entity.VisionAnalysis {
	return &entity.VisionAnalysis{Scores: scores, Confidence: 0.9, UncertaintyEstimate: 0.1}
}

func candidateIDs(m *entity.MappingResult) []string {
	ids := make([]string, 0, len(m.TreatmentCandidates))
	for _, c := range m.TreatmentCandidates {
		ids = append(ids, c.ID)
	}
	return ids
}

func TestRuleMapper_GoodSkinGivesNoCandidates(t *testing.T) {
	mapper := NewRuleMapper(defaultCatalog(t))
	scores := entity.SkinConditionScores{Pigmentation: 0.1, Acne: 0.1, Redness: 0.1, Pores: 0.1, Wrinkles: 0.1}

	got, err := mapper.Map(context.Background(), visionWith(scores), entity.UserProfile{})
	require.NoError(t, err)

	require.NotNil(t, got.TreatmentCandidates)
	require.Empty(t, got.TreatmentCandidates)
	require.Equal(t, "map-v1-rules", got.MappingVersion)
	require.Empty(t, got.AppliedRules)
	require.False(t, got.NeedsMedicalClearance)
}

func TestRuleMapper_AgeRestrictions(t *testing.T) {
	mapper := NewRuleMapper(defaultCatalog(t))
	scores := entity.SkinConditionScores{Pigmentation: 0.8, Acne: 0.5, Wrinkles: 0.5}

	teen, err := mapper.Map(context.Background(), visionWith(scores), entity.UserProfile{Age: intPtr(15)})
	require.NoError(t, err)
	require.Equal(t, []string{"chemical_peel"}, candidateIDs(teen))

	adult, err := mapper.Map(context.Background(), visionWith(scores), entity.UserProfile{Age: intPtr(30)})
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"laser_toning", "pico_laser", "ipl"}, candidateIDs(adult))
	for i := 1; i < len(adult.TreatmentCandidates); i++ {
		require.GreaterOrEqual(t, adult.TreatmentCandidates[i-1].Score, adult.TreatmentCandidates[i].Score)
	}
}

func TestRuleMapper_PregnancyBlocksAndRequiresClearance(t *testing.T) {
	mapper := NewRuleMapper(defaultCatalog(t))
	scores := entity.SkinConditionScores{Pigmentation: 0.8, Acne: 0.5, Wrinkles: 0.5}

	got, err := mapper.Map(context.Background(), visionWith(scores), entity.UserProfile{Age: intPtr(30), Pregnant: boolPtr(true)})
	require.NoError(t, err)

	require.Empty(t, got.TreatmentCandidates)
	require.Equal(t, []string{"pregnancy_check"}, got.AppliedRules)
	require.True(t, got.NeedsMedicalClearance)
}

func TestRuleMapper_ActiveAcneBlocksResurfacing(t *testing.T) {
	mapper := NewRuleMapper(defaultCatalog(t))
	scores := entity.SkinConditionScores{Acne: 0.7, Pores: 0.5, Wrinkles: 0.5}

	got, err := mapper.Map(context.Background(), visionWith(scores), entity.UserProfile{Age: intPtr(30)})
	require.NoError(t, err)

	require.Equal(t, []string{"active_acne_resurfacing"}, got.AppliedRules)
	require.NotContains(t, candidateIDs(got), "fractional_laser")
	require.NotContains(t, candidateIDs(got), "rf_microneedling")
	require.True(t, got.NeedsMedicalClearance)
}

func TestRuleMapper_ClearanceOnLowConfidence(t *testing.T) {
	mapper := NewRuleMapper(defaultCatalog(t))
	vision := visionWith(entity.SkinConditionScores{Redness: 0.5})
	vision.Confidence = 0.45

	got, err := mapper.Map(context.Background(), vision, entity.UserProfile{})
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"ipl", "vbeam_laser"}, candidateIDs(got))
	require.True(t, got.NeedsMedicalClearance)
}

func TestRuleMapper_ScoreFloorIsExclusive(t *testing.T) {
	mapper := NewRuleMapper(&entity.TreatmentCatalog{
		Version:       "test",
		ScoreFloor:    0.2,
		MaxCandidates: 3,
		Treatments: []entity.TreatmentDefinition{{
			ID:         "peel",
			Name:       "Peel",
			Conditions: map[entity.Condition]entity.ConditionRule{entity.ConditionAcne: {Min: 0.1, Weight: 1, Improvement: 3}},
		}},
	})

	atFloor, err := mapper.Map(context.Background(), visionWith(entity.SkinConditionScores{Acne: 0.2}), entity.UserProfile{})
	require.NoError(t, err)
	require.Empty(t, atFloor.TreatmentCandidates)

	above, err := mapper.Map(context.Background(), visionWith(entity.SkinConditionScores{Acne: 0.5}), entity.UserProfile{})
	require.NoError(t, err)
	require.Len(t, above.TreatmentCandidates, 1)
	require.Equal(t, 1.0, above.TreatmentCandidates[0].ExpectedImprovementPct)
}

const modelCandidates = `{"treatment_candidates": [
	{"id": "fractional_laser", "name": "Фракционный лазер", "score": 0.9},
	{"id": "a", "name": "A", "score": 0.8, "notes": ["a"]},
	{"id": "b", "name": "B", "score": 0.7},
	{"id": "c", "name": "C", "score": 0.6},
	{"id": "d", "name": "D", "score": 0.5},
	{"id": "e", "name": "E", "score": 0.4},
	{"score": 0.85}
]}`

func TestModelMapper_NormalizesAndFilters(t *testing.T) {
	var prompt string
	backend := &fakeBackend{complete: func(p string) (string, error) {
		prompt = p
		return modelCandidates, nil
	}}
	mapper := NewModelMapper(backend, defaultCatalog(t))
	vision := visionWith(entity.SkinConditionScores{Acne: 0.7, Pores: 0.5})

	got, err := mapper.Map(context.Background(), vision, entity.UserProfile{Age: intPtr(30)})
	require.NoError(t, err)

	require.Len(t, got.TreatmentCandidates, maxModelCandidates)
	require.NotContains(t, candidateIDs(got), "fractional_laser")
	first := got.TreatmentCandidates[0]
	require.Equal(t, defaultTreatmentName, first.Name)
	require.True(t, strings.HasPrefix(first.ID, "treatment_"), first.ID)
	require.Len(t, first.ID, len("treatment_")+8)
	require.Equal(t, []string{"a", "b", "c", "d"}, candidateIDs(got)[1:])
	require.Equal(t, "map-v2-ai-fake", got.MappingVersion)
	require.Equal(t, []string{"active_acne_resurfacing"}, got.AppliedRules)
	require.True(t, got.NeedsMedicalClearance)
	require.Contains(t, prompt, "Excluded treatment ids: fractional_laser, rf_microneedling")
	require.Contains(t, prompt, "acne: 70%")
}

func TestModelMapper_AgeAndToneRestrictions(t *testing.T) {
	backend := &fakeBackend{complete: func(string) (string, error) {
		return `{"treatment_candidates": [
			{"id": "laser_toning", "name": "Лазерное тонирование", "score": 0.9},
			{"id": "ipl", "name": "IPL", "score": 0.8},
			{"id": "vbeam_laser", "name": "Vbeam", "score": 0.7}
		]}`, nil
	}}
	mapper := NewModelMapper(backend, defaultCatalog(t))
	vision := visionWith(entity.SkinConditionScores{Pigmentation: 0.6, Redness: 0.5})

	teen, err := mapper.Map(context.Background(), vision, entity.UserProfile{Age: intPtr(15)})
	require.NoError(t, err)
	require.Equal(t, []string{"vbeam_laser"}, candidateIDs(teen))

	dark, err := mapper.Map(context.Background(), vision, entity.UserProfile{Age: intPtr(30), SkinTone: "type_vi"})
	require.NoError(t, err)
	require.Equal(t, []string{"laser_toning", "vbeam_laser"}, candidateIDs(dark))

	unknown, err := mapper.Map(context.Background(), vision, entity.UserProfile{})
	require.NoError(t, err)
	require.Equal(t, []string{"laser_toning", "ipl", "vbeam_laser"}, candidateIDs(unknown))
}

func TestModelMapper_Errors(t *testing.T) {
	vision := visionWith(entity.SkinConditionScores{Acne: 0.5})

	backend := &fakeBackend{readyErr: apperr.Configuration("inference.openai", "OPENAI_API_KEY")}
	_, err := NewModelMapper(backend, defaultCatalog(t)).Map(context.Background(), vision, entity.UserProfile{})
	require.True(t, apperr.IsKind(err, apperr.KindConfiguration))
	require.Zero(t, backend.completeCalls.Load())

	backend = &fakeBackend{complete: func(string) (string, error) { return "", errors.New("timeout") }}
	_, err = NewModelMapper(backend, defaultCatalog(t)).Map(context.Background(), vision, entity.UserProfile{})
	require.True(t, apperr.IsKind(err, apperr.KindUpstream))

	backend = &fakeBackend{complete: func(string) (string, error) { return "sorry", nil }}
	_, err = NewModelMapper(backend, defaultCatalog(t)).Map(context.Background(), vision, entity.UserProfile{})
	require.True(t, apperr.IsKind(err, apperr.KindParse))
}
