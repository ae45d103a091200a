//go:build !gocv

package vision

import (
	"image"

	"sprite-curator/internal/direction"
)

// Available reports whether the OpenCV backend is compiled in.
func Available() bool { return false }

// Extractor is a placeholder when built without OpenCV.
type Extractor struct{}

// NewExtractor returns direction.ErrUnavailable without the gocv build tag.
func NewExtractor(Params) (*Extractor, error) {
	return nil, direction.ErrUnavailable
}

// FrameFeatures always fails without the gocv build tag.
func (e *Extractor) FrameFeatures(image.Image) (direction.Features, error) {
	return direction.Features{}, direction.ErrUnavailable
}
