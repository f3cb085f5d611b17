package entity

// UserProfile данные пользователя, влияющие на подбор процедур
type UserProfile struct {
	Age      *int   `json:"age,omitempty"`
	SkinTone string `json:"skin_tone,omitempty"`
	Gender   string `json:"gender,omitempty"`
	Pregnant *bool  `json:"pregnant,omitempty"` // nil если неизвестно
}

// TreatmentCandidate предложенная процедура
type TreatmentCandidate struct {
	ID                     string   `json:"id"`
	Name                   string   `json:"name"`
	Score                  float64  `json:"score"`
	ExpectedImprovementPct float64  `json:"expected_improvement_pct"`
	Notes                  []string `json:"notes"`
}

// MappingResult итог этапа B
type MappingResult struct {
	TreatmentCandidates   []TreatmentCandidate `json:"treatment_candidates"`
	MappingVersion        string               `json:"mapping_version"`
	AppliedRules          []string             `json:"applied_rules"`
	NeedsMedicalClearance bool                 `json:"needs_medical_clearance"`
}

// Top возвращает лучший кандидат, если он есть
func (m *MappingResult) Top() (TreatmentCandidate, bool) {
	if m == nil || len(m.TreatmentCandidates) == 0 {
		return TreatmentCandidate{}, false
	}
	return m.TreatmentCandidates[0], true
}

// CTA кнопка призыва к действию
type CTA struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// NLGResult пользовательский текст этапа C
type NLGResult struct {
	Headline   string   `json:"headline"`
	Paragraphs []string `json:"paragraphs"`
	CTA        CTA      `json:"cta"`
	NLGVersion string   `json:"nlg_version"`
}
