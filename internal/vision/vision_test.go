package vision

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"

	"sprite-curator/internal/testsupport"
)

func TestUpsampleFactor(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 4, upsampleFactor(16, 18, 64))
	assert.Equal(t, 3, upsampleFactor(24, 40, 64))
	assert.Equal(t, 1, upsampleFactor(64, 80, 64))
	assert.Equal(t, 1, upsampleFactor(0, 16, 64))
}

func TestToRGBAReanchorsSubImages(t *testing.T) {
	t.Parallel()

	sheet := testsupport.BoxSheet(3, 1, 16, 16)
	sub := sheet.SubImage(image.Rect(16, 0, 32, 16))

	rgba := toRGBA(sub)
	assert.Equal(t, image.Rect(0, 0, 16, 16), rgba.Bounds())
	assert.Equal(t, 16*4, rgba.Stride)
	assert.Equal(t, sheet.At(20, 4), rgba.At(4, 4))

	assert.Same(t, sheet, toRGBA(sheet))
}

func TestBands(t *testing.T) {
	t.Parallel()

	th := thirds(16, 16)
	assert.Equal(t, image.Rect(0, 0, 16, 5), th[0])
	assert.Equal(t, image.Rect(0, 11, 16, 16), th[2])

	hv := halves(15, 10)
	assert.Equal(t, 7, hv[0].Dx())
	assert.Equal(t, 7, hv[1].Dx())
	assert.Equal(t, 8, hv[1].Min.X)
}
