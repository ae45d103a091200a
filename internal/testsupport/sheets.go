// Package testsupport builds synthetic sprite sheets for package tests.
package testsupport

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"sprite-curator/pkg/colorutil"
)

// TilePainter draws the contents of one tile. cell is the tile rectangle in
// sheet coordinates.
type TilePainter func(img *image.RGBA, cell image.Rectangle, row, col int)

// NewSheet returns a fully transparent sheet of cols x rows tiles.
func NewSheet(cols, rows, fw, fh int) *image.RGBA {
	return image.NewRGBA(image.Rect(0, 0, cols*fw, rows*fh))
}

// Sheet builds a cols x rows sheet of fw x fh tiles, calling paint per tile.
func Sheet(cols, rows, fw, fh int, paint TilePainter) *image.RGBA {
	img := NewSheet(cols, rows, fw, fh)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			cell := image.Rect(c*fw, r*fh, (c+1)*fw, (r+1)*fh)
			paint(img, cell, r, c)
		}
	}
	return img
}

// FillRect paints a rectangle relative to cell.Min.
func FillRect(img *image.RGBA, cell image.Rectangle, x0, y0, x1, y1 int, c color.Color) {
	r := image.Rect(x0, y0, x1, y1).Add(cell.Min).Intersect(cell)
	draw.Draw(img, r, &image.Uniform{C: c}, image.Point{}, draw.Src)
}

// BoxSheet builds a sheet where every tile holds the same opaque white 6x6
// box at (fw/4, fh/4). Every tile edge signal is identical, so the sheet
// repeats with exactly the tile period on both axes.
func BoxSheet(cols, rows, fw, fh int) *image.RGBA {
	return Sheet(cols, rows, fw, fh, func(img *image.RGBA, cell image.Rectangle, _, _ int) {
		x0, y0 := fw/4, fh/4
		FillRect(img, cell, x0, y0, x0+6, y0+6, colorutil.White)
	})
}

// DirectionalSheet builds a 4-row character sheet of 16x16 frames:
// row 0 top-heavy (front facing), row 1 mass on the left half, row 2 mass on
// the right half, row 3 bottom-heavy (back facing).
func DirectionalSheet(framesPerRow int) *image.RGBA {
	return Sheet(framesPerRow, 4, 16, 16, func(img *image.RGBA, cell image.Rectangle, row, col int) {
		shift := col % 2
		switch row {
		case 0:
			FillRect(img, cell, 4, 1+shift, 12, 5+shift, colorutil.White)
		case 1:
			FillRect(img, cell, 1, 5+shift, 6, 10+shift, colorutil.White)
		case 2:
			FillRect(img, cell, 10, 5+shift, 15, 10+shift, colorutil.White)
		case 3:
			FillRect(img, cell, 4, 11, 12, 15, colorutil.White)
		}
	})
}

// EncodePNG encodes img as PNG.
func EncodePNG(t testing.TB, img image.Image) []byte {
	t.Helper()

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// WritePNG writes img as a PNG file under dir and returns its path.
func WritePNG(t testing.TB, dir, name string, img image.Image) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, EncodePNG(t, img), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
