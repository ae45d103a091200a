//go:build gocv

package vision

import (
	"fmt"
	"image"

	"sprite-curator/internal/direction"

	"gocv.io/x/gocv"
)

// Available reports whether the OpenCV backend is compiled in.
func Available() bool { return true }

// Extractor computes direction.Features with OpenCV.
type Extractor struct {
	params Params
}

// NewExtractor returns an OpenCV feature extractor.
func NewExtractor(params Params) (*Extractor, error) {
	if params.UpsampleMin <= 0 {
		params.UpsampleMin = DefaultParams().UpsampleMin
	}
	if params.SobelKernel <= 0 {
		params.SobelKernel = DefaultParams().SobelKernel
	}
	return &Extractor{params: params}, nil
}

// FrameFeatures computes foreground density by thirds and halves, Sobel
// gradient magnitude by halves and Canny edge density by thirds.
func (e *Extractor) FrameFeatures(img image.Image) (direction.Features, error) {
	rgba := toRGBA(img)
	b := rgba.Bounds()
	if b.Empty() {
		return direction.Features{}, fmt.Errorf("empty frame")
	}

	src, err := gocv.NewMatFromBytes(b.Dy(), b.Dx(), gocv.MatTypeCV8UC4, rgba.Pix)
	if err != nil {
		return direction.Features{}, fmt.Errorf("failed to convert frame: %w", err)
	}
	defer src.Close()

	// Nearest neighbour keeps pixel-art edges hard
	mat := src
	if k := upsampleFactor(b.Dx(), b.Dy(), e.params.UpsampleMin); k > 1 {
		scaled := gocv.NewMat()
		defer scaled.Close()
		gocv.Resize(src, &scaled, image.Point{}, float64(k), float64(k), gocv.InterpolationNearestNeighbor)
		mat = scaled
	}
	w, h := mat.Cols(), mat.Rows()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(mat, &gray, gocv.ColorRGBAToGray)

	mask := e.foreground(mat, gray)
	defer mask.Close()

	var f direction.Features
	dens := make([]float64, 0, 3)
	for _, r := range thirds(w, h) {
		dens = append(dens, density(mask, r))
	}
	f.DensityTop, f.DensityMiddle, f.DensityBottom = dens[0], dens[1], dens[2]

	hv := halves(w, h)
	f.DensityLeft = density(mask, hv[0])
	f.DensityRight = density(mask, hv[1])

	gx := gocv.NewMat()
	defer gx.Close()
	gy := gocv.NewMat()
	defer gy.Close()
	gocv.Sobel(gray, &gx, gocv.MatTypeCV32F, 1, 0, e.params.SobelKernel, 1, 0, gocv.BorderDefault)
	gocv.Sobel(gray, &gy, gocv.MatTypeCV32F, 0, 1, e.params.SobelKernel, 1, 0, gocv.BorderDefault)

	mag := gocv.NewMat()
	defer mag.Close()
	gocv.Magnitude(gx, gy, &mag)

	// Normalize to 0-1 so gradients are comparable with densities
	f.GradientLeft = regionMean(mag, hv[0]) / 255
	f.GradientRight = regionMean(mag, hv[1]) / 255

	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(gray, &edges, e.params.CannyLow, e.params.CannyHigh)

	edge := make([]float64, 0, 3)
	for _, r := range thirds(w, h) {
		edge = append(edge, density(edges, r))
	}
	f.EdgeTop, f.EdgeMiddle, f.EdgeBottom = edge[0], edge[1], edge[2]

	return f, nil
}

// foreground returns a binary mask of visible pixels: alpha > 0 for frames
// with transparency, gray > 0 otherwise.
func (e *Extractor) foreground(rgba, gray gocv.Mat) gocv.Mat {
	channels := gocv.Split(rgba)
	defer func() {
		for _, c := range channels {
			c.Close()
		}
	}()

	mask := gocv.NewMat()
	alpha := channels[3]
	if gocv.CountNonZero(alpha) < alpha.Rows()*alpha.Cols() {
		gocv.Threshold(alpha, &mask, 0, 255, gocv.ThresholdBinary)
	} else {
		gocv.Threshold(gray, &mask, 0, 255, gocv.ThresholdBinary)
	}
	return mask
}

// density returns the fraction of non-zero pixels of a single-channel mat
// inside r.
func density(m gocv.Mat, r image.Rectangle) float64 {
	if r.Empty() {
		return 0
	}
	roi := m.Region(r)
	defer roi.Close()
	return float64(gocv.CountNonZero(roi)) / float64(r.Dx()*r.Dy())
}

// regionMean returns the mean value of a single-channel mat inside r.
func regionMean(m gocv.Mat, r image.Rectangle) float64 {
	if r.Empty() {
		return 0
	}
	roi := m.Region(r)
	defer roi.Close()
	return roi.Mean().Val1
}
