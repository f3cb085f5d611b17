//go:build !gocv
// +build !gocv

package vision

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"skin-advisor/internal/domain/entity"
)

// HighlightRegions рисует рамки масок без OpenCV и возвращает JPEG
func (h *Highlighter) HighlightRegions(imageData []byte, masks []entity.RegionMask) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	if src.Bounds().Empty() {
		return nil, errEmptyImage
	}

	canvas := image.NewRGBA(src.Bounds())
	draw.Draw(canvas, canvas.Bounds(), src, src.Bounds().Min, draw.Src)

	for _, m := range masks {
		rect := image.Rect(m.X, m.Y, m.X+m.W, m.Y+m.H).Add(canvas.Bounds().Min)
		drawFrame(canvas, rect, colorFor(m.Label), h.LineThickness)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, canvas, &jpeg.Options{Quality: h.JPEGQuality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// CheckPhoto без OpenCV проверяет только размер снимка
func (h *Highlighter) CheckPhoto(imageData []byte) error {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(imageData))
	if err != nil {
		return fmt.Errorf("failed to decode image: %w", err)
	}
	if cfg.Width < h.MinImageSide || cfg.Height < h.MinImageSide {
		return fmt.Errorf("photo is too small (%dx%d)", cfg.Width, cfg.Height)
	}
	return nil
}

// drawFrame рамка толщиной t внутри r, обрезанная по границам снимка
func drawFrame(dst *image.RGBA, r image.Rectangle, c color.RGBA, t int) {
	r = r.Intersect(dst.Bounds())
	if r.Empty() {
		return
	}
	if t <= 0 {
		t = 1
	}

	fill := image.NewUniform(c)
	edges := []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+t),
		image.Rect(r.Min.X, r.Max.Y-t, r.Max.X, r.Max.Y),
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+t, r.Max.Y),
		image.Rect(r.Max.X-t, r.Min.Y, r.Max.X, r.Max.Y),
	}
	for _, e := range edges {
		draw.Draw(dst, e.Intersect(r), fill, image.Point{}, draw.Src)
	}
}
