// Package raster provides sprite sheet loading and pixel access.
package raster

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"sprite-curator/pkg/geometry"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// DecodeError reports an unreadable or corrupt image. It is fatal for that
// image only; batch callers skip the sheet and report it.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("failed to decode image: %v", e.Err)
	}
	return fmt.Sprintf("failed to decode image %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// IsDecodeError reports whether err is (or wraps) a DecodeError.
func IsDecodeError(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}

// Raster is a decoded sprite sheet. It is never mutated after loading.
type Raster struct {
	Path     string      // Source path, empty for in-memory images
	Format   string      // Decoder name, e.g. "png"
	Image    image.Image // Decoded pixel data
	HasAlpha bool        // True if any pixel is not fully opaque
}

// New wraps an already decoded image.
func New(img image.Image) *Raster {
	return &Raster{
		Image:    img,
		HasAlpha: hasTransparency(img),
	}
}

// Load reads and decodes the image at path.
func Load(path string) (*Raster, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}
	defer file.Close()

	r, err := Decode(file)
	if err != nil {
		var de *DecodeError
		if errors.As(err, &de) {
			de.Path = path
		}
		return nil, err
	}
	r.Path = path
	return r, nil
}

// Decode decodes an image from a reader.
func Decode(rd io.Reader) (*Raster, error) {
	img, format, err := image.Decode(rd)
	if err != nil {
		return nil, &DecodeError{Err: err}
	}
	if b := img.Bounds(); b.Dx() == 0 || b.Dy() == 0 {
		return nil, &DecodeError{Err: fmt.Errorf("empty image %dx%d", b.Dx(), b.Dy())}
	}

	r := New(img)
	r.Format = format
	return r, nil
}

// Width returns the image width in pixels.
func (r *Raster) Width() int {
	if r == nil || r.Image == nil {
		return 0
	}
	return r.Image.Bounds().Dx()
}

// Height returns the image height in pixels.
func (r *Raster) Height() int {
	if r == nil || r.Image == nil {
		return 0
	}
	return r.Image.Bounds().Dy()
}

// Region returns the sub-image covered by rect, given in image-relative
// coordinates (0,0 is the top-left pixel regardless of the image bounds).
func (r *Raster) Region(rect geometry.RectInt) (image.Image, error) {
	return Region(r.Image, rect)
}

// Region extracts rect (relative to the image's top-left) from img. Images
// that support SubImage share pixel memory with the source; others are copied.
func Region(img image.Image, rect geometry.RectInt) (image.Image, error) {
	b := img.Bounds()
	full := geometry.NewRectInt(0, 0, b.Dx(), b.Dy())
	if rect.Empty() || !rect.Within(full) {
		return nil, fmt.Errorf("region %+v outside image %dx%d", rect, b.Dx(), b.Dy())
	}

	abs := rect.ImageRect().Add(b.Min)
	if sub, ok := img.(interface {
		SubImage(image.Rectangle) image.Image
	}); ok {
		return sub.SubImage(abs), nil
	}

	dst := image.NewRGBA(image.Rect(0, 0, rect.Width, rect.Height))
	draw.Draw(dst, dst.Bounds(), img, abs.Min, draw.Src)
	return dst, nil
}

// hasTransparency reports whether img carries any non-opaque pixel.
func hasTransparency(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return !o.Opaque()
	}
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if _, _, _, a := img.At(x, y).RGBA(); a != 0xffff {
				return true
			}
		}
	}
	return false
}

// SupportedFormats returns the list of supported image extensions.
func SupportedFormats() []string {
	return []string{".png", ".gif", ".jpg", ".jpeg", ".bmp", ".tif", ".tiff", ".webp"}
}

// IsSupportedFormat checks if the given path has a supported image extension.
func IsSupportedFormat(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, format := range SupportedFormats() {
		if ext == format {
			return true
		}
	}
	return false
}
