package entity

// Condition название показателя состояния кожи
type Condition string

const (
	ConditionPigmentation Condition = "pigmentation"
	ConditionAcne         Condition = "acne"
	ConditionRedness      Condition = "redness"
	ConditionPores        Condition = "pores"
	ConditionWrinkles     Condition = "wrinkles"
)

// Conditions все показатели в фиксированном порядке
var Conditions = []Condition{
	ConditionPigmentation,
	ConditionAcne,
	ConditionRedness,
	ConditionPores,
	ConditionWrinkles,
}

// SkinConditionScores выраженность показателей в диапазоне [0, 1]
type SkinConditionScores struct {
	Pigmentation float64 `json:"pigmentation"`
	Acne         float64 `json:"acne"`
	Redness      float64 `json:"redness"`
	Pores        float64 `json:"pores"`
	Wrinkles     float64 `json:"wrinkles"`
}

// Get возвращает значение показателя
func (s SkinConditionScores) Get(c Condition) float64 {
	switch c {
	case ConditionPigmentation:
		return s.Pigmentation
	case ConditionAcne:
		return s.Acne
	case ConditionRedness:
		return s.Redness
	case ConditionPores:
		return s.Pores
	case ConditionWrinkles:
		return s.Wrinkles
	}
	return 0
}

// Set записывает значение показателя
func (s *SkinConditionScores) Set(c Condition, v float64) {
	switch c {
	case ConditionPigmentation:
		s.Pigmentation = v
	case ConditionAcne:
		s.Acne = v
	case ConditionRedness:
		s.Redness = v
	case ConditionPores:
		s.Pores = v
	case ConditionWrinkles:
		s.Wrinkles = v
	}
}

// Total сумма всех показателей
func (s SkinConditionScores) Total() float64 {
	var total float64
	for _, c := range Conditions {
		total += s.Get(c)
	}
	return total
}

// RegionMask область на снимке, где модель нашла признак
type RegionMask struct {
	Label string `json:"label"`
	X     int    `json:"x"` // левый верхний угол
	Y     int    `json:"y"`
	W     int    `json:"w"`
	H     int    `json:"h"`
}

// Area площадь области в пикселях
func (m RegionMask) Area() int {
	if m.W <= 0 || m.H <= 0 {
		return 0
	}
	return m.W * m.H
}

// Center возвращает координаты центра области
func (m RegionMask) Center() (x, y int) {
	return m.X + m.W/2, m.Y + m.H/2
}

// VisionMetrics площадные метрики по меткам
type VisionMetrics struct {
	AreaPctByLabel map[string]float64 `json:"area_pct_by_label"`
	ColorDeltaE    *float64           `json:"color_deltaE,omitempty"`
}

// VisionAnalysis итог этапа A. После возврата из этапа не изменяется.
type VisionAnalysis struct {
	Scores              SkinConditionScores `json:"skin_condition_scores"`
	Masks               []RegionMask        `json:"masks"`
	Metrics             VisionMetrics       `json:"metrics"`
	Confidence          float64             `json:"confidence"`
	UncertaintyEstimate float64             `json:"uncertainty_estimate"`
	ModelVersion        string              `json:"model_version"`
}
