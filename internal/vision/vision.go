// Package vision computes frame shape features with OpenCV (gocv). The
// backend is only compiled with the "gocv" build tag; without it Available
// reports false and the feature direction method is not registered.
package vision

import (
	"image"
	"image/draw"
)

// Params holds parameters for feature extraction.
type Params struct {
	// Frames smaller than this on either side are upsampled first (px)
	UpsampleMin int

	// Canny hysteresis thresholds
	CannyLow  float32
	CannyHigh float32

	// Sobel kernel size
	SobelKernel int
}

// DefaultParams returns default feature extraction parameters.
func DefaultParams() Params {
	return Params{
		UpsampleMin: 64,
		CannyLow:    50,
		CannyHigh:   150,
		SobelKernel: 3,
	}
}

// WithUpsampleMin returns a copy of params with a custom upsampling threshold.
func (p Params) WithUpsampleMin(px int) Params {
	p.UpsampleMin = px
	return p
}

// upsampleFactor returns the integer scale that brings the smaller side of a
// w x h frame to at least minSide. Returns 1 when no scaling is needed.
func upsampleFactor(w, h, minSide int) int {
	short := min(w, h)
	if short <= 0 || short >= minSide {
		return 1
	}
	return (minSide + short - 1) / short
}

// toRGBA copies img into a tightly packed RGBA buffer anchored at the origin.
// Sub-images share their parent's stride and cannot be handed to OpenCV as is.
func toRGBA(img image.Image) *image.RGBA {
	b := img.Bounds()
	if rgba, ok := img.(*image.RGBA); ok && b.Min == (image.Point{}) && rgba.Stride == 4*b.Dx() {
		return rgba
	}
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

// thirds splits a height into top, middle and bottom bands.
func thirds(w, h int) [3]image.Rectangle {
	t := h / 3
	return [3]image.Rectangle{
		image.Rect(0, 0, w, t),
		image.Rect(0, t, w, h-t),
		image.Rect(0, h-t, w, h),
	}
}

// halves splits a width into left and right bands of equal width.
func halves(w, h int) [2]image.Rectangle {
	half := w / 2
	return [2]image.Rectangle{
		image.Rect(0, 0, half, h),
		image.Rect(w-half, 0, w, h),
	}
}
