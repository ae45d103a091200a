// Package frames slices a sprite sheet into frames along a detected grid.
package frames

import (
	"fmt"
	"image"

	"sprite-curator/internal/grid"
	"sprite-curator/internal/raster"
	"sprite-curator/pkg/geometry"
)

// Frame is one tile of the sheet. X and Y are the tile origin in sheet
// coordinates; Image is a view into the source image where possible.
type Frame struct {
	Index int         `json:"index"`
	Row   int         `json:"row"`
	Col   int         `json:"col"`
	X     int         `json:"x"`
	Y     int         `json:"y"`
	Image image.Image `json:"-"`
}

// Bounds returns the frame rectangle in sheet coordinates.
func (f Frame) Bounds() geometry.RectInt {
	b := f.Image.Bounds()
	return geometry.NewRectInt(f.X, f.Y, b.Dx(), b.Dy())
}

// Row is one horizontal strip of frames, in column order.
type Row struct {
	Index  int     `json:"index"`
	Frames []Frame `json:"frames"`
}

// Len returns the number of frames in the row.
func (r Row) Len() int {
	return len(r.Frames)
}

// Extract returns every frame of the geometry in row-major order. Frame (r, c)
// starts at (c*FrameWidth, r*FrameHeight); padding is not applied.
func Extract(img image.Image, geo grid.Geometry) ([]Frame, error) {
	rows, err := Rows(img, geo, geo.Columns, geo.Rows)
	if err != nil {
		return nil, err
	}

	out := make([]Frame, 0, geo.Columns*geo.Rows)
	for _, r := range rows {
		out = append(out, r.Frames...)
	}
	return out, nil
}

// Rows slices rowCount rows of framesPerRow frames each.
func Rows(img image.Image, geo grid.Geometry, framesPerRow, rowCount int) ([]Row, error) {
	if geo.Degenerate() {
		return nil, &grid.DegenerateGeometryError{FrameWidth: geo.FrameWidth, FrameHeight: geo.FrameHeight}
	}
	if framesPerRow < 1 || rowCount < 1 {
		return nil, fmt.Errorf("invalid row layout %dx%d", framesPerRow, rowCount)
	}

	b := img.Bounds()
	sheet := geometry.NewRectInt(0, 0, b.Dx(), b.Dy())
	size := geo.FrameSize()

	rows := make([]Row, 0, rowCount)
	for r := 0; r < rowCount; r++ {
		row := Row{Index: r, Frames: make([]Frame, 0, framesPerRow)}
		for c := 0; c < framesPerRow; c++ {
			cell := geometry.GridCell(size, r, c)
			if !cell.Within(sheet) {
				return nil, fmt.Errorf("frame (%d,%d) at %d,%d %dx%d exceeds image %dx%d",
					r, c, cell.X, cell.Y, cell.Width, cell.Height, b.Dx(), b.Dy())
			}
			sub, err := raster.Region(img, cell)
			if err != nil {
				return nil, fmt.Errorf("failed to slice frame (%d,%d): %w", r, c, err)
			}
			row.Frames = append(row.Frames, Frame{
				Index: r*framesPerRow + c,
				Row:   r,
				Col:   c,
				X:     cell.X,
				Y:     cell.Y,
				Image: sub,
			})
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Flatten returns the frames of rows in row-major order.
func Flatten(rows []Row) []Frame {
	n := 0
	for _, r := range rows {
		n += r.Len()
	}
	out := make([]Frame, 0, n)
	for _, r := range rows {
		out = append(out, r.Frames...)
	}
	return out
}
