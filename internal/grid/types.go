// Package grid infers sprite sheet frame geometry from pixel data.
package grid

import (
	"errors"
	"fmt"

	"sprite-curator/pkg/geometry"
)

// Confidence holds the autocorrelation scores backing each frame dimension.
// They are relative scores, not probabilities.
type Confidence struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Geometry describes the frame grid of a sprite sheet.
type Geometry struct {
	FrameWidth  int        `json:"frame_width"`
	FrameHeight int        `json:"frame_height"`
	Columns     int        `json:"columns"`
	Rows        int        `json:"rows"`
	Padding     int        `json:"padding"`
	TotalFrames int        `json:"total_frames"`
	Confidence  Confidence `json:"confidence"`

	ImageWidth  int `json:"image_width"`
	ImageHeight int `json:"image_height"`
}

// FrameSize returns the frame dimensions.
func (g Geometry) FrameSize() geometry.Size {
	return geometry.NewSize(g.FrameWidth, g.FrameHeight)
}

// Degenerate returns true if either frame dimension is zero.
func (g Geometry) Degenerate() bool {
	return g.FrameWidth <= 0 || g.FrameHeight <= 0
}

// ExactTiling returns true if the frame size tiles the image with no remainder.
func (g Geometry) ExactTiling() bool {
	if g.Degenerate() {
		return false
	}
	return g.ImageWidth%g.FrameWidth == 0 && g.ImageHeight%g.FrameHeight == 0
}

// Validate returns a *DegenerateGeometryError if the geometry cannot be used
// to slice frames.
func (g Geometry) Validate() error {
	if g.Degenerate() {
		return &DegenerateGeometryError{FrameWidth: g.FrameWidth, FrameHeight: g.FrameHeight}
	}
	if g.Columns < 1 || g.Rows < 1 {
		return &DegenerateGeometryError{FrameWidth: g.FrameWidth, FrameHeight: g.FrameHeight,
			Reason: fmt.Sprintf("frame larger than image %dx%d", g.ImageWidth, g.ImageHeight)}
	}
	return nil
}

// NewGeometry builds a geometry for the given frame size, deriving counts and
// padding from the image size.
func NewGeometry(imgW, imgH, fw, fh int) Geometry {
	g := Geometry{
		FrameWidth:  fw,
		FrameHeight: fh,
		Columns:     1,
		Rows:        1,
		ImageWidth:  imgW,
		ImageHeight: imgH,
	}
	if fw > 0 {
		g.Columns = imgW / fw
	}
	if fh > 0 {
		g.Rows = imgH / fh
	}
	g.TotalFrames = g.Columns * g.Rows
	g.Padding = estimatePadding(g)
	return g
}

// estimatePadding spreads leftover pixels evenly around the tiles on each
// axis and reports the larger of the two estimates.
func estimatePadding(g Geometry) int {
	if g.Degenerate() {
		return 0
	}

	var padW, padH int
	if rem := g.ImageWidth - g.FrameWidth*g.Columns; rem > 0 && g.Columns > 1 {
		padW = rem / (g.Columns + 1)
	}
	if rem := g.ImageHeight - g.FrameHeight*g.Rows; rem > 0 && g.Rows > 1 {
		padH = rem / (g.Rows + 1)
	}
	return max(padW, padH)
}

// DegenerateGeometryError reports a zero frame dimension (or a frame that
// does not fit the image). It routes the sheet to a failed verdict instead of
// letting callers divide by zero.
type DegenerateGeometryError struct {
	FrameWidth  int
	FrameHeight int
	Reason      string
}

func (e *DegenerateGeometryError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("degenerate grid geometry %dx%d: %s", e.FrameWidth, e.FrameHeight, e.Reason)
	}
	return fmt.Sprintf("degenerate grid geometry %dx%d", e.FrameWidth, e.FrameHeight)
}

// IsDegenerate reports whether err is (or wraps) a DegenerateGeometryError.
func IsDegenerate(err error) bool {
	var de *DegenerateGeometryError
	return errors.As(err, &de)
}

// Params holds parameters for grid detection.
// See params.go for defaults.
type Params struct {
	// Peak picking on the edge signals
	MinPeakDistance int     // Minimum spacing between accepted peaks (px)
	PeakSigma       float64 // Peak threshold in standard deviations above the mean

	// Autocorrelation search range for the frame period (px)
	MinPeriod int
	MaxPeriod int
}
