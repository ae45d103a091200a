package raster

import (
	"image"
	"image/color"

	"sprite-curator/pkg/colorutil"
)

// Plane is a single-channel float image in row-major order. Coordinates are
// relative to the top-left of the source image.
type Plane struct {
	W, H int
	Pix  []float64
}

// NewPlane allocates a zeroed plane.
func NewPlane(w, h int) Plane {
	return Plane{W: w, H: h, Pix: make([]float64, w*h)}
}

// At returns the value at (x, y). Out-of-range coordinates return 0.
func (p Plane) At(x, y int) float64 {
	if x < 0 || y < 0 || x >= p.W || y >= p.H {
		return 0
	}
	return p.Pix[y*p.W+x]
}

// Sum returns the sum of values in the half-open box [x0,x1) x [y0,y1),
// clipped to the plane.
func (p Plane) Sum(x0, y0, x1, y1 int) float64 {
	x0, y0 = max(x0, 0), max(y0, 0)
	x1, y1 = min(x1, p.W), min(y1, p.H)
	var s float64
	for y := y0; y < y1; y++ {
		row := p.Pix[y*p.W : (y+1)*p.W]
		for x := x0; x < x1; x++ {
			s += row[x]
		}
	}
	return s
}

// Mean returns the mean value over the box, or 0 for an empty box.
func (p Plane) Mean(x0, y0, x1, y1 int) float64 {
	x0, y0 = max(x0, 0), max(y0, 0)
	x1, y1 = min(x1, p.W), min(y1, p.H)
	n := (x1 - x0) * (y1 - y0)
	if x1 <= x0 || y1 <= y0 || n == 0 {
		return 0
	}
	return p.Sum(x0, y0, x1, y1) / float64(n)
}

// Total returns the sum of all values.
func (p Plane) Total() float64 {
	return p.Sum(0, 0, p.W, p.H)
}

// Intensity returns the grayscale intensity plane (0-255) of img.
func Intensity(img image.Image) Plane {
	return planeOf(img, colorutil.Luma)
}

// Alpha returns the alpha plane (0-255) of img.
func Alpha(img image.Image) Plane {
	return planeOf(img, colorutil.Alpha)
}

// Ink returns a 0-1 coverage plane: alpha for transparent sheets, intensity
// otherwise.
func Ink(img image.Image, hasAlpha bool) Plane {
	b := img.Bounds()
	p := NewPlane(b.Dx(), b.Dy())
	for y := 0; y < p.H; y++ {
		for x := 0; x < p.W; x++ {
			p.Pix[y*p.W+x] = colorutil.Ink(img.At(b.Min.X+x, b.Min.Y+y), hasAlpha)
		}
	}
	return p
}

func planeOf(img image.Image, fn func(color.Color) float64) Plane {
	b := img.Bounds()
	p := NewPlane(b.Dx(), b.Dy())
	for y := 0; y < p.H; y++ {
		for x := 0; x < p.W; x++ {
			p.Pix[y*p.W+x] = fn(img.At(b.Min.X+x, b.Min.Y+y))
		}
	}
	return p
}
