package entity

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int    { return &v }
func boolPtr(v bool) *bool { return &v }

func TestSafetyRule_Triggered(t *testing.T) {
	scores := SkinConditionScores{Acne: 0.7, Redness: 0.2}

	tests := []struct {
		name    string
		rule    SafetyRule
		profile UserProfile
		want    bool
	}{
		{"no predicates", SafetyRule{Name: "empty"}, UserProfile{}, false},
		{"score above", SafetyRule{ScoreAbove: map[Condition]float64{ConditionAcne: 0.6}}, UserProfile{}, true},
		{"score not above", SafetyRule{ScoreAbove: map[Condition]float64{ConditionRedness: 0.2}}, UserProfile{}, false},
		{"age below", SafetyRule{AgeBelow: 18}, UserProfile{Age: intPtr(15)}, true},
		{"age unknown", SafetyRule{AgeBelow: 18}, UserProfile{}, false},
		{"pregnant", SafetyRule{ProfileFlag: ProfileFlagPregnant}, UserProfile{Pregnant: boolPtr(true)}, true},
		{"pregnancy unknown", SafetyRule{ProfileFlag: ProfileFlagPregnant}, UserProfile{}, false},
		{"unknown flag", SafetyRule{ProfileFlag: "recent_scars"}, UserProfile{Pregnant: boolPtr(true)}, false},
		{"disabled", SafetyRule{Enabled: boolPtr(false), ScoreAbove: map[Condition]float64{ConditionAcne: 0.1}}, UserProfile{}, false},
		{
			"all predicates must hold",
			SafetyRule{ScoreAbove: map[Condition]float64{ConditionAcne: 0.6}, AgeBelow: 18},
			UserProfile{Age: intPtr(30)},
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.rule.Triggered(scores, tt.profile))
		})
	}
}

func TestTreatmentDefinition_Eligible(t *testing.T) {
	def := TreatmentDefinition{ID: "ipl", MinAge: 18, ExcludedSkinTones: []string{"type_vi"}}

	require.True(t, def.Eligible(UserProfile{}))
	require.True(t, def.Eligible(UserProfile{Age: intPtr(18), SkinTone: "type_ii"}))
	require.False(t, def.Eligible(UserProfile{Age: intPtr(15)}))
	require.False(t, def.Eligible(UserProfile{SkinTone: " TYPE_VI "}))
}
