package inspect

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupOf(t *testing.T) {
	cases := map[string]string{
		"/x/report.pdf":   "document",
		"/x/notes.TXT":    "document",
		"/x/sheet.xlsx":   "document",
		"/x/photo.jpeg":   "image",
		"/x/scan.HEIC":    "image",
		"/x/song.mp3":     "audio",
		"/x/movie.mkv":    "video",
		"/x/clip.m4v":     "video",
		"/x/archive.zip":  "other",
		"/x/no_extension": "other",
	}
	for path, want := range cases {
		assert.Equal(t, want, GroupOf(path), "path %s", path)
	}
}

func writePNG(t *testing.T, img image.Image) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "img.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
	return path
}

func TestIsGraphicAssetPNGSmallTransparentIcon(t *testing.T) {
	icon := image.NewNRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			if x > 16 && x < 48 && y > 16 && y < 48 {
				icon.Set(x, y, color.NRGBA{R: 200, G: 40, B: 40, A: 255})
			}
		}
	}
	assert.True(t, IsGraphicAssetPNG(writePNG(t, icon)))
}

func TestIsGraphicAssetPNGLargeNoisyImage(t *testing.T) {
	photo := image.NewRGBA(image.Rect(0, 0, 1200, 1100))
	seed := uint32(12345)
	for y := 0; y < 1100; y++ {
		for x := 0; x < 1200; x++ {
			seed = seed*1664525 + 1013904223
			photo.Set(x, y, color.RGBA{
				R: uint8(seed >> 24),
				G: uint8(seed >> 16),
				B: uint8(seed >> 8),
				A: 255,
			})
		}
	}
	assert.False(t, IsGraphicAssetPNG(writePNG(t, photo)))
}

func TestIsGraphicAssetPNGRejectsNonPNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "photo.jpg")
	require.NoError(t, os.WriteFile(path, []byte("not an image"), 0o644))
	assert.False(t, IsGraphicAssetPNG(path))

	missing := filepath.Join(t.TempDir(), "gone.png")
	assert.False(t, IsGraphicAssetPNG(missing))
}

func TestReadPDFTextOnGarbageIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 garbage"), 0o644))
	assert.Empty(t, ReadPDFText(path, 1500))
}
