package vision

import (
	"errors"
	"image/color"
	"strings"

	"skin-advisor/internal/domain/port"
)

var errEmptyImage = errors.New("empty image")

// Highlighter рисует области масок на снимке и проверяет качество фото
// перед анализом.
type Highlighter struct {
	MinImageSide          int
	MinSharpnessEdgeRatio float64
	MaxOverexposedRatio   float64
	MaxUnderexposedRatio  float64
	MaxGlareRatio         float64
	LineThickness         int
	JPEGQuality           int
}

// NewHighlighter создаёт рисовальщик с порогами по умолчанию
func NewHighlighter() *Highlighter {
	return &Highlighter{
		MinImageSide:          400,
		MinSharpnessEdgeRatio: 0.008,
		MaxOverexposedRatio:   0.35,
		MaxUnderexposedRatio:  0.45,
		MaxGlareRatio:         0.08,
		LineThickness:         2,
		JPEGQuality:           90,
	}
}

var labelColors = map[string]color.RGBA{
	"pigmentation": {R: 160, G: 82, B: 45, A: 255},
	"acne":         {R: 255, A: 255},
	"redness":      {R: 255, B: 255, A: 255},
	"pores":        {B: 255, A: 255},
	"wrinkles":     {R: 255, G: 255, A: 255},
}

// colorFor цвет рамки по метке; неизвестные метки зелёные
func colorFor(label string) color.RGBA {
	if c, ok := labelColors[strings.ToLower(label)]; ok {
		return c
	}
	return color.RGBA{G: 255, A: 255}
}

var (
	_ port.RegionHighlighter = (*Highlighter)(nil)
	_ port.PhotoQualityGate  = (*Highlighter)(nil)
)
