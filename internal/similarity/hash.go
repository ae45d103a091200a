// Package similarity fingerprints frames with an average hash and clusters
// visually related frames.
package similarity

import (
	"fmt"
	"image"
	"strings"

	"github.com/corona10/goimagehash"
	"golang.org/x/image/draw"
)

// DefaultHashSize is the side of the downsampled hash grid.
const DefaultHashSize = 8

// Hash is an average-hash fingerprint of size x size bits.
type Hash struct {
	ext *goimagehash.ExtImageHash
}

// AverageHash downsamples img to size x size, converts to grayscale and sets
// each bit whose pixel is brighter than the mean. size must be a multiple
// of 8.
func AverageHash(img image.Image, size int) (Hash, error) {
	if size <= 0 || size%8 != 0 {
		return Hash{}, fmt.Errorf("invalid hash size %d: must be a positive multiple of 8", size)
	}
	b := img.Bounds()
	if b.Empty() {
		return Hash{}, fmt.Errorf("empty image")
	}

	// Frames are sub-images of the sheet; hash a copy anchored at the origin.
	src := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(src, src.Bounds(), img, b.Min, draw.Src)

	h, err := goimagehash.ExtAverageHash(src, size, size)
	if err != nil {
		return Hash{}, fmt.Errorf("failed to hash image: %w", err)
	}
	return Hash{ext: h}, nil
}

// Bits returns the fingerprint length.
func (h Hash) Bits() int {
	if h.ext == nil {
		return 0
	}
	return h.ext.Bits()
}

// Distance returns the Hamming distance between two hashes of equal size.
func Distance(a, b Hash) (int, error) {
	if a.ext == nil || b.ext == nil {
		return 0, fmt.Errorf("distance of an empty hash")
	}
	d, err := a.ext.Distance(b.ext)
	if err != nil {
		return 0, fmt.Errorf("failed to compare hashes: %w", err)
	}
	return d, nil
}

// String renders the hash as hex.
func (h Hash) String() string {
	if h.ext == nil {
		return ""
	}
	var sb strings.Builder
	for _, w := range h.ext.GetHash() {
		fmt.Fprintf(&sb, "%016x", w)
	}
	return sb.String()
}
