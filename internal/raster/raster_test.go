package raster

import (
	"image"
	"image/color"
	"path/filepath"
	"strings"
	"testing"

	"sprite-curator/internal/testsupport"
	"sprite-curator/pkg/colorutil"
	"sprite-curator/pkg/geometry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDecodesPNG(t *testing.T) {
	t.Parallel()

	sheet := testsupport.BoxSheet(3, 4, 16, 18)
	path := testsupport.WritePNG(t, t.TempDir(), "sheet.png", sheet)

	r, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "png", r.Format)
	assert.Equal(t, path, r.Path)
	assert.Equal(t, 48, r.Width())
	assert.Equal(t, 72, r.Height())
	assert.True(t, r.HasAlpha)
}

func TestLoadReportsDecodeError(t *testing.T) {
	t.Parallel()

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		_, err := Load(filepath.Join(t.TempDir(), "nope.png"))
		require.Error(t, err)
		assert.True(t, IsDecodeError(err))
	})

	t.Run("corrupt bytes", func(t *testing.T) {
		t.Parallel()
		_, err := Decode(strings.NewReader("definitely not an image"))
		require.Error(t, err)
		assert.True(t, IsDecodeError(err))
	})
}

func TestOpaqueImageHasNoAlpha(t *testing.T) {
	t.Parallel()

	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, colorutil.Black)
		}
	}
	assert.False(t, New(img).HasAlpha)
}

func TestRegion(t *testing.T) {
	t.Parallel()

	img := image.NewRGBA(image.Rect(10, 10, 42, 42))
	img.Set(10+17, 10+3, colorutil.Red)
	r := New(img)

	sub, err := r.Region(geometry.NewRectInt(16, 0, 16, 16))
	require.NoError(t, err)
	assert.Equal(t, 16, sub.Bounds().Dx())
	assert.Equal(t, 16, sub.Bounds().Dy())

	p := Intensity(sub)
	assert.Greater(t, p.At(1, 3), 0.0)
	assert.Equal(t, 0.0, p.At(0, 0))

	_, err = r.Region(geometry.NewRectInt(20, 20, 16, 16))
	assert.Error(t, err)
}

func TestPlaneSums(t *testing.T) {
	t.Parallel()

	img := image.NewRGBA(image.Rect(0, 0, 4, 2))
	img.Set(0, 0, color.RGBA{A: 255, R: 255, G: 255, B: 255})
	img.Set(3, 1, color.RGBA{A: 128})

	alpha := Alpha(img)
	assert.Equal(t, 255.0, alpha.At(0, 0))
	assert.Equal(t, 128.0, alpha.At(3, 1))
	assert.Equal(t, 383.0, alpha.Total())
	assert.Equal(t, 255.0, alpha.Sum(0, 0, 2, 2))
	assert.Equal(t, 0.0, alpha.Mean(2, 2, 2, 2))

	ink := Ink(img, true)
	assert.InDelta(t, 1.0, ink.At(0, 0), 1e-9)
}

func TestIsSupportedFormat(t *testing.T) {
	t.Parallel()

	for _, p := range []string{"hero.png", "sheets/Slime.GIF", "a.webp", "b.tiff"} {
		assert.True(t, IsSupportedFormat(p), p)
	}
	for _, p := range []string{"notes.txt", "hero", "archive.png.zip"} {
		assert.False(t, IsSupportedFormat(p), p)
	}
}
