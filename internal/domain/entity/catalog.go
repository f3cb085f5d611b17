package entity

import "strings"

// ConditionRule порог и вес одного показателя в определении процедуры
type ConditionRule struct {
	Min         float64 `yaml:"min"`
	Weight      float64 `yaml:"weight"`
	Improvement float64 `yaml:"improvement"`
}

// TreatmentDefinition процедура из каталога
type TreatmentDefinition struct {
	ID                string                      `yaml:"id"`
	Name              string                      `yaml:"name"`
	Conditions        map[Condition]ConditionRule `yaml:"conditions"`
	Notes             []string                    `yaml:"notes"`
	MinAge            int                         `yaml:"min_age"`
	ExcludedSkinTones []string                    `yaml:"excluded_skin_tones"`
}

// Eligible проверяет возрастные и фототиповые ограничения.
// Неизвестный возраст ограничение не нарушает.
func (d TreatmentDefinition) Eligible(profile UserProfile) bool {
	if d.MinAge > 0 && profile.Age != nil && *profile.Age < d.MinAge {
		return false
	}
	tone := strings.ToLower(strings.TrimSpace(profile.SkinTone))
	if tone == "" {
		return true
	}
	for _, excluded := range d.ExcludedSkinTones {
		if strings.EqualFold(excluded, tone) {
			return false
		}
	}
	return true
}

// SafetyRule именованный предикат, исключающий процедуры.
// Все заданные условия должны выполниться одновременно;
// правило без условий не срабатывает.
type SafetyRule struct {
	Name        string                `yaml:"name"`
	Enabled     *bool                 `yaml:"enabled"`
	ScoreAbove  map[Condition]float64 `yaml:"score_above"`
	AgeBelow    int                   `yaml:"age_below"`
	ProfileFlag string                `yaml:"profile_flag"`
	Blocks      []string              `yaml:"blocks"`
	Message     string                `yaml:"message"`
}

// ProfileFlagPregnant единственный флаг профиля, известный правилам
const ProfileFlagPregnant = "pregnant"

// IsEnabled правило включено, если не выключено явно
func (r SafetyRule) IsEnabled() bool {
	return r.Enabled == nil || *r.Enabled
}

// Triggered проверяет правило против оценок и профиля
func (r SafetyRule) Triggered(scores SkinConditionScores, profile UserProfile) bool {
	if !r.IsEnabled() {
		return false
	}

	checked := false
	for cond, threshold := range r.ScoreAbove {
		checked = true
		if scores.Get(cond) <= threshold {
			return false
		}
	}
	if r.AgeBelow > 0 {
		checked = true
		if profile.Age == nil || *profile.Age >= r.AgeBelow {
			return false
		}
	}
	if r.ProfileFlag != "" {
		checked = true
		if !profileFlag(profile, r.ProfileFlag) {
			return false
		}
	}

	return checked
}

func profileFlag(profile UserProfile, flag string) bool {
	switch flag {
	case ProfileFlagPregnant:
		return profile.Pregnant != nil && *profile.Pregnant
	}
	return false
}

// TreatmentCatalog неизменяемый каталог процедур и правил безопасности.
// Загружается один раз при старте и передаётся в этап B по указателю.
type TreatmentCatalog struct {
	Version       string                `yaml:"version"`
	ScoreFloor    float64               `yaml:"score_floor"`
	MaxCandidates int                   `yaml:"max_candidates"`
	Treatments    []TreatmentDefinition `yaml:"treatments"`
	SafetyRules   []SafetyRule          `yaml:"safety_rules"`
}

// Treatment ищет определение по id
func (c *TreatmentCatalog) Treatment(id string) (TreatmentDefinition, bool) {
	for _, def := range c.Treatments {
		if def.ID == id {
			return def, true
		}
	}
	return TreatmentDefinition{}, false
}
