package port

import "skin-advisor/internal/domain/entity"

// RegionHighlighter рисует найденные области поверх снимка
type RegionHighlighter interface {
	HighlightRegions(imageData []byte, masks []entity.RegionMask) ([]byte, error)
}

// PhotoQualityGate отсеивает снимки, которые не стоит отправлять на анализ
type PhotoQualityGate interface {
	CheckPhoto(imageData []byte) error
}
