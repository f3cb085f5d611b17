//go:build gocv
// +build gocv

package vision

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"

	"gocv.io/x/gocv"

	"skin-advisor/internal/domain/entity"
)

// HighlightRegions рисует рамку и подпись для каждой маски и возвращает JPEG
func (h *Highlighter) HighlightRegions(imageData []byte, masks []entity.RegionMask) ([]byte, error) {
	mat, err := decodeToMat(imageData)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	if mat.Empty() {
		return nil, errEmptyImage
	}

	for _, m := range masks {
		c := colorFor(m.Label)
		rect := image.Rect(m.X, m.Y, m.X+m.W, m.Y+m.H)
		gocv.Rectangle(&mat, rect, c, h.LineThickness)
		gocv.PutText(&mat, m.Label, image.Pt(m.X, maxInt(m.Y-4, 12)), gocv.FontHersheySimplex, 0.5, c, 1)
	}

	img, err := mat.ToImage()
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: h.JPEGQuality}); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// CheckPhoto отклоняет маленькие, размытые, пере- и недоэкспонированные
// снимки и снимки с сильными бликами.
func (h *Highlighter) CheckPhoto(imageData []byte) error {
	mat, err := decodeToMat(imageData)
	if err != nil {
		return err
	}
	defer mat.Close()

	if mat.Cols() < h.MinImageSide || mat.Rows() < h.MinImageSide {
		return fmt.Errorf("photo is too small (%dx%d)", mat.Cols(), mat.Rows())
	}

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(mat, &gray, gocv.ColorBGRToGray)

	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(gray, &edges, 80, 160)
	if ratio := ratioOfMask(edges); ratio < h.MinSharpnessEdgeRatio {
		return fmt.Errorf("photo is blurry (edge_ratio=%.4f)", ratio)
	}

	bright := gocv.NewMat()
	defer bright.Close()
	gocv.Threshold(gray, &bright, 250, 255, gocv.ThresholdBinary)
	if ratio := ratioOfMask(bright); ratio > h.MaxOverexposedRatio {
		return fmt.Errorf("photo is overexposed (ratio=%.4f)", ratio)
	}

	dark := gocv.NewMat()
	defer dark.Close()
	gocv.Threshold(gray, &dark, 20, 255, gocv.ThresholdBinaryInv)
	if ratio := ratioOfMask(dark); ratio > h.MaxUnderexposedRatio {
		return fmt.Errorf("photo is underexposed (ratio=%.4f)", ratio)
	}

	hsv := gocv.NewMat()
	defer hsv.Close()
	gocv.CvtColor(mat, &hsv, gocv.ColorBGRToHSV)
	channels := gocv.Split(hsv)
	for i := range channels {
		defer channels[i].Close()
	}
	if len(channels) < 3 {
		return errors.New("invalid hsv channels")
	}

	// блик: низкая насыщенность при высокой яркости
	lowSat := gocv.NewMat()
	defer lowSat.Close()
	gocv.Threshold(channels[1], &lowSat, 40, 255, gocv.ThresholdBinaryInv)

	highVal := gocv.NewMat()
	defer highVal.Close()
	gocv.Threshold(channels[2], &highVal, 245, 255, gocv.ThresholdBinary)

	glare := gocv.NewMat()
	defer glare.Close()
	gocv.BitwiseAnd(lowSat, highVal, &glare)
	if ratio := ratioOfMask(glare); ratio > h.MaxGlareRatio {
		return fmt.Errorf("photo has too much glare (ratio=%.4f)", ratio)
	}

	return nil
}

// decodeToMat превращает байты изображения в gocv.Mat.
func decodeToMat(imageData []byte) (gocv.Mat, error) {
	mat, err := gocv.IMDecode(imageData, gocv.IMReadColor)
	if err == nil && !mat.Empty() {
		return mat, nil
	}
	if !mat.Empty() {
		mat.Close()
	}
	return gocv.NewMat(), errors.New("failed to decode image")
}

func ratioOfMask(mask gocv.Mat) float64 {
	total := mask.Cols() * mask.Rows()
	if total <= 0 {
		return 0
	}
	return float64(gocv.CountNonZero(mask)) / float64(total)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
