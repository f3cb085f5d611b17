package app

import (
	"sort"

	"skin-advisor/internal/domain/entity"
)

// Пороги, при которых результату нужен допуск специалиста
const (
	clearanceUncertainty = 0.4
	clearanceConfidence  = 0.5
)

// MappingSkipped версия пустого подбора на пути низкой уверенности
const MappingSkipped = "map-v1-skipped"

// safetyOutcome итог применения правил безопасности
type safetyOutcome struct {
	blocked    map[string]bool
	applied    []string
	blockedAny bool
}

func applySafetyRules(catalog *entity.TreatmentCatalog, scores entity.SkinConditionScores, profile entity.UserProfile) safetyOutcome {
	out := safetyOutcome{blocked: make(map[string]bool), applied: []string{}}
	if catalog == nil {
		return out
	}
	for _, rule := range catalog.SafetyRules {
		if !rule.Triggered(scores, profile) {
			continue
		}
		out.applied = append(out.applied, rule.Name)
		for _, id := range rule.Blocks {
			out.blocked[id] = true
			out.blockedAny = true
		}
	}
	return out
}

func needsClearance(vision *entity.VisionAnalysis, safety safetyOutcome) bool {
	return safety.blockedAny ||
		vision.UncertaintyEstimate > clearanceUncertainty ||
		vision.Confidence < clearanceConfidence
}

func sortByScore(candidates []entity.TreatmentCandidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
}
