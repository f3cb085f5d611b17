package app

import (
	"context"

	"skin-advisor/internal/domain/entity"
	"skin-advisor/internal/domain/port"
)

// RuleMapper детерминированный подбор процедур по каталогу
type RuleMapper struct {
	catalog *entity.TreatmentCatalog
}

// NewRuleMapper создаёт подбор по неизменяемому каталогу
func NewRuleMapper(catalog *entity.TreatmentCatalog) *RuleMapper {
	return &RuleMapper{catalog: catalog}
}

func (m *RuleMapper) Version() string {
	return m.catalog.Version
}

// Map применяет правила безопасности, оценивает каждое допустимое
// определение как взвешенное среднее выполненных условий и оставляет
// лучшие. Пустой список при хорошем состоянии кожи не считается ошибкой.
func (m *RuleMapper) Map(ctx context.Context, vision *entity.VisionAnalysis, profile entity.UserProfile) (*entity.MappingResult, error) {
	_ = ctx
	safety := applySafetyRules(m.catalog, vision.Scores, profile)

	candidates := make([]entity.TreatmentCandidate, 0, len(m.catalog.Treatments))
	for _, def := range m.catalog.Treatments {
		if safety.blocked[def.ID] || !def.Eligible(profile) {
			continue
		}
		if candidate, ok := scoreDefinition(def, vision.Scores, m.catalog.ScoreFloor); ok {
			candidates = append(candidates, candidate)
		}
	}

	sortByScore(candidates)
	if len(candidates) > m.catalog.MaxCandidates {
		candidates = candidates[:m.catalog.MaxCandidates]
	}

	return &entity.MappingResult{
		TreatmentCandidates:   candidates,
		MappingVersion:        m.catalog.Version,
		AppliedRules:          safety.applied,
		NeedsMedicalClearance: needsClearance(vision, safety),
	}, nil
}

// scoreDefinition взвешенное среднее по условиям, достигшим порога
func scoreDefinition(def entity.TreatmentDefinition, scores entity.SkinConditionScores, floor float64) (entity.TreatmentCandidate, bool) {
	var total, totalWeight, improvement float64
	for _, cond := range entity.Conditions {
		rule, ok := def.Conditions[cond]
		if !ok {
			continue
		}
		score := scores.Get(cond)
		if score < rule.Min {
			continue
		}
		total += score * rule.Weight
		totalWeight += rule.Weight
		improvement += rule.Improvement * score
	}
	if totalWeight == 0 {
		return entity.TreatmentCandidate{}, false
	}

	final := total / totalWeight
	if final <= floor {
		return entity.TreatmentCandidate{}, false
	}

	notes := make([]string, len(def.Notes))
	copy(notes, def.Notes)

	return entity.TreatmentCandidate{
		ID:                     def.ID,
		Name:                   def.Name,
		Score:                  clamp01(final),
		ExpectedImprovementPct: min(improvement, 1),
		Notes:                  notes,
	}, true
}

var _ port.TreatmentMapper = (*RuleMapper)(nil)
