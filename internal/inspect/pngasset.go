package inspect

import (
	"image"
	"os"
	"path/filepath"
	"strings"

	_ "image/png"
)

// IsGraphicAssetPNG reports whether a PNG looks like a UI asset (logo, icon,
// effect) rather than a photograph: smallish, alpha-heavy, low colour
// complexity. Thresholds are conservative to avoid false positives.
func IsGraphicAssetPNG(path string) bool {
	if strings.ToLower(filepath.Ext(path)) != ".png" {
		return false
	}
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return false
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w == 0 || h == 0 {
		return false
	}
	area := w * h

	trans := transparentRatio(img)
	cx := complexityScore(img)

	smallish := max(w, h) <= 1024 || area <= 512*512
	verySmall := max(w, h) <= 256 || area <= 128*128
	alphaHeavy := trans >= 0.15 || (hasAlpha(img) && verySmall)
	lowComplex := cx <= 0.25 || verySmall

	return (smallish && alphaHeavy && lowComplex) || verySmall
}

func hasAlpha(img image.Image) bool {
	switch img.(type) {
	case *image.NRGBA, *image.NRGBA64, *image.RGBA, *image.RGBA64, *image.Alpha, *image.Alpha16:
		return true
	}
	return false
}

// complexityScore samples pixels and returns colour diversity in 0..1; the
// more diverse the colours, the more photo-like the image.
func complexityScore(img image.Image) float64 {
	const step = 4
	bounds := img.Bounds()
	colors := map[[4]uint32]bool{}
	pixels := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y += step {
		for x := bounds.Min.X; x < bounds.Max.X; x += step {
			r, g, b, a := img.At(x, y).RGBA()
			colors[[4]uint32{r, g, b, a}] = true
			pixels++
		}
	}
	if pixels == 0 {
		return 0
	}
	score := float64(len(colors)) / float64(pixels)
	if score > 1 {
		score = 1
	}
	return score
}

func transparentRatio(img image.Image) float64 {
	const step = 2
	bounds := img.Bounds()
	total, transparent := 0, 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y += step {
		for x := bounds.Min.X; x < bounds.Max.X; x += step {
			_, _, _, a := img.At(x, y).RGBA()
			total++
			if a>>8 < 10 {
				transparent++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return float64(transparent) / float64(total)
}
