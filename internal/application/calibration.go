package app

import (
	"bytes"
	"image"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"skin-advisor/internal/domain/entity"
)

const (
	kb = 1024
	mb = 1024 * kb

	// веса качества снимка, обнаружения лица и самооценки модели
	weightQuality   = 0.3
	weightSubject   = 0.4
	weightBackend   = 0.3
	smallPayload    = 50 * kb
	smallPenalty    = 0.7
	minConfidence   = 0.2
	minSubjectArea  = 0.01
	fullSubjectArea = 0.10
	multiAngleBoost = 1.10
)

// qualityScore оценка качества по размеру файла
func qualityScore(size int) float64 {
	switch {
	case size <= 0:
		return 0.3
	case size < 100*kb:
		return 0.3 + 0.2*float64(size)/float64(100*kb)
	case size < 1*mb:
		return 0.5 + 0.3*float64(size-100*kb)/float64(1*mb-100*kb)
	case size < 5*mb:
		return 0.8 + 0.2*float64(size-1*mb)/float64(4*mb)
	}
	return 1.0
}

// subjectScore оценка того, что модель действительно нашла области на лице
func subjectScore(masks int, area float64) float64 {
	switch {
	case masks == 0:
		return 0.2
	case area < minSubjectArea:
		return 0.3 + 0.1*area/minSubjectArea
	}
	return 0.7 + 0.3*clamp01((area-minSubjectArea)/(fullSubjectArea-minSubjectArea))
}

// calibrate итоговая уверенность и неопределённость для одного снимка
func calibrate(size int, masks int, area, backendConfidence float64) (confidence, uncertainty float64) {
	confidence = weightQuality*qualityScore(size) +
		weightSubject*subjectScore(masks, area) +
		weightBackend*backendConfidence
	if size < smallPayload {
		confidence *= smallPenalty
	}
	confidence = clamp(confidence, minConfidence, 1)
	return confidence, clamp01(1 - confidence)
}

// detectedArea доля кадра под найденными областями: большее из суммы
// area_pct_by_label и площади масок относительно размеров снимка
func detectedArea(analysis *entity.VisionAnalysis, imageData []byte) float64 {
	var reported float64
	for _, pct := range analysis.Metrics.AreaPctByLabel {
		reported += pct
	}

	var pixels int
	for _, m := range analysis.Masks {
		pixels += m.Area()
	}
	if pixels > 0 {
		if cfg, _, err := image.DecodeConfig(bytes.NewReader(imageData)); err == nil && cfg.Width > 0 && cfg.Height > 0 {
			fromMasks := float64(pixels) / float64(cfg.Width*cfg.Height)
			if fromMasks > reported {
				reported = fromMasks
			}
		}
	}

	return clamp01(reported)
}
