package entity

import (
	"encoding/json"
	"strings"
	"time"
)

// Stage этап конвейера
type Stage string

const (
	StageA Stage = "stage_a" // извлечение признаков по фото
	StageB Stage = "stage_b" // подбор процедур
	StageC Stage = "stage_c" // генерация текста
)

// Title человекочитаемое название этапа
func (s Stage) Title() string {
	switch s {
	case StageA:
		return "vision analysis"
	case StageB:
		return "treatment mapping"
	case StageC:
		return "narrative generation"
	}
	return string(s)
}

// StageMetadata время и исход одного этапа
type StageMetadata struct {
	Duration   time.Duration
	Error      string
	VersionTag string
}

type stageMetadataJSON struct {
	DurationMS int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
	VersionTag string `json:"version,omitempty"`
}

func (m StageMetadata) MarshalJSON() ([]byte, error) {
	return json.Marshal(stageMetadataJSON{
		DurationMS: m.Duration.Milliseconds(),
		Error:      m.Error,
		VersionTag: m.VersionTag,
	})
}

func (m *StageMetadata) UnmarshalJSON(data []byte) error {
	var raw stageMetadataJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	m.Duration = time.Duration(raw.DurationMS) * time.Millisecond
	m.Error = raw.Error
	m.VersionTag = raw.VersionTag
	return nil
}

// StageMetadataSet метаданные всех трёх этапов одного запуска
type StageMetadataSet struct {
	StageA StageMetadata `json:"stage_a"`
	StageB StageMetadata `json:"stage_b"`
	StageC StageMetadata `json:"stage_c"`
}

// For возвращает указатель на метаданные этапа
func (s *StageMetadataSet) For(stage Stage) *StageMetadata {
	switch stage {
	case StageA:
		return &s.StageA
	case StageB:
		return &s.StageB
	case StageC:
		return &s.StageC
	}
	return nil
}

// HasError сообщает, записал ли какой-либо этап ошибку
func (s StageMetadataSet) HasError() bool {
	return s.StageA.Error != "" || s.StageB.Error != "" || s.StageC.Error != ""
}

// OrchestrationResult итог успешного запуска конвейера
type OrchestrationResult struct {
	ResultID      string           `json:"result_id"`
	UserID        string           `json:"user_id,omitempty"`
	Analysis      VisionAnalysis   `json:"analysis"`
	Mapping       MappingResult    `json:"mapping"`
	NLG           NLGResult        `json:"nlg"`
	ReviewNeeded  bool             `json:"review_needed"`
	StageMetadata StageMetadataSet `json:"stage_metadata"`
	CreatedAt     time.Time        `json:"created_at"`
}

// RequestMeta сведения о съёмке
type RequestMeta struct {
	Camera      string `json:"camera,omitempty"`
	Orientation *int   `json:"orientation,omitempty"`
}

// AnalysisRequest запрос на анализ. ImageURL устаревшая форма с одним снимком.
type AnalysisRequest struct {
	Images      []ImageReference `json:"images"`
	ImageURL    string           `json:"image_url,omitempty"`
	UserID      string           `json:"user_id"`
	AccessToken string           `json:"access_token,omitempty"`
	Profile     UserProfile      `json:"user_profile"`
	Meta        RequestMeta      `json:"meta"`
}

// Normalize приводит устаревшую форму к списку снимков и заполняет пустые ракурсы:
// первый снимок без ракурса считается фронтальным, если фронтального нет,
// остальные по очереди левым и правым. Неизвестные ракурсы не трогает.
func (r AnalysisRequest) Normalize() AnalysisRequest {
	out := r
	out.Images = make([]ImageReference, 0, len(r.Images)+1)
	hasFront := false
	for _, img := range r.Images {
		img.URL = strings.TrimSpace(img.URL)
		if img.URL == "" {
			continue
		}
		img.Angle = Angle(strings.ToLower(strings.TrimSpace(string(img.Angle))))
		if img.Angle == AngleFront {
			hasFront = true
		}
		out.Images = append(out.Images, img)
	}
	if len(out.Images) == 0 && strings.TrimSpace(r.ImageURL) != "" {
		out.Images = append(out.Images, ImageReference{URL: strings.TrimSpace(r.ImageURL), Angle: AngleFront})
	}

	sides := 0
	for i := range out.Images {
		if out.Images[i].Angle != "" {
			continue
		}
		if !hasFront {
			out.Images[i].Angle = AngleFront
			hasFront = true
			continue
		}
		if sides%2 == 0 {
			out.Images[i].Angle = AngleLeft
		} else {
			out.Images[i].Angle = AngleRight
		}
		sides++
	}

	out.ImageURL = ""
	out.UserID = strings.TrimSpace(r.UserID)
	return out
}

// AnalysisOutput результат для вызывающей стороны
type AnalysisOutput struct {
	Result     *OrchestrationResult
	HeatmapURL string
}
