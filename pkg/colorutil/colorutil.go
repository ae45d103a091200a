// Package colorutil provides shared color utilities for sprite sheet analysis.
package colorutil

import (
	"image/color"
)

// Common colors used by synthetic sheets and debug output.
var (
	Transparent = color.RGBA{}
	Black       = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	White       = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Red         = color.RGBA{R: 255, G: 0, B: 0, A: 255}
	Green       = color.RGBA{R: 0, G: 255, B: 0, A: 255}
	Blue        = color.RGBA{R: 0, G: 0, B: 255, A: 255}
)

// Luma returns the grayscale intensity (0-255) of c using the same integer
// weights as image/color.GrayModel. Colors are alpha-premultiplied, so fully
// transparent pixels have zero intensity.
func Luma(c color.Color) float64 {
	r, g, b, _ := c.RGBA()
	return float64((19595*r+38470*g+7471*b+1<<15)>>24)
}

// Alpha returns the alpha channel of c in the 0-255 range.
func Alpha(c color.Color) float64 {
	_, _, _, a := c.RGBA()
	return float64(a >> 8)
}

// Ink returns a 0-1 coverage value: alpha when the source carries
// transparency, otherwise normalized intensity.
func Ink(c color.Color, hasAlpha bool) float64 {
	if hasAlpha {
		return Alpha(c) / 255.0
	}
	return Luma(c) / 255.0
}
