package grid

import (
	"image"
	"math"
	"sort"

	"sprite-curator/internal/raster"

	"gonum.org/v1/gonum/stat"
)

// Detection holds the intermediate signals behind a detected geometry, for
// verbose reporting.
type Detection struct {
	Geometry Geometry

	ColumnSignal []float64 // Edge strength between column x and x+1
	RowSignal    []float64 // Edge strength between row y and y+1
	ColumnPeaks  []int
	RowPeaks     []int

	WidthFromPeaks  int // Median column peak spacing (0 if fewer than 2 peaks)
	HeightFromPeaks int // Median row peak spacing (0 if fewer than 2 peaks)
}

// Detect infers the frame grid of img. The result is deterministic for a
// given image. A zero frame dimension is returned verbatim together with a
// *DegenerateGeometryError.
func Detect(img image.Image, params Params) (Geometry, error) {
	d := DetectDetailed(img, params)
	return d.Geometry, d.Geometry.Validate()
}

// DetectDetailed runs grid detection and returns all intermediate signals.
func DetectDetailed(img image.Image, params Params) *Detection {
	params = params.normalized()
	b := img.Bounds()
	gray := raster.Intensity(img)

	colSignal, rowSignal := EdgeSignals(gray)

	d := &Detection{
		ColumnSignal: colSignal,
		RowSignal:    rowSignal,
		ColumnPeaks:  FindPeaks(colSignal, params.MinPeakDistance, params.PeakSigma),
		RowPeaks:     FindPeaks(rowSignal, params.MinPeakDistance, params.PeakSigma),
	}
	d.WidthFromPeaks = medianSpacing(d.ColumnPeaks)
	d.HeightFromPeaks = medianSpacing(d.RowPeaks)

	widthPeriod, widthScore := RepeatingPeriod(colSignal, params.MinPeriod, params.MaxPeriod)
	heightPeriod, heightScore := RepeatingPeriod(rowSignal, params.MinPeriod, params.MaxPeriod)

	// Autocorrelation is the primary estimate; peak spacing is the fallback.
	fw := widthPeriod
	if fw == 0 {
		fw = d.WidthFromPeaks
	}
	fh := heightPeriod
	if fh == 0 {
		fh = d.HeightFromPeaks
	}

	d.Geometry = NewGeometry(b.Dx(), b.Dy(), fw, fh)
	d.Geometry.Confidence = Confidence{Width: widthScore, Height: heightScore}
	return d
}

// EdgeSignals sums the absolute first difference of intensity across each
// axis. cols[x] measures the edge between columns x and x+1 (summed over all
// rows); rows[y] the edge between rows y and y+1.
func EdgeSignals(gray raster.Plane) (cols, rows []float64) {
	if gray.W > 1 {
		cols = make([]float64, gray.W-1)
	}
	if gray.H > 1 {
		rows = make([]float64, gray.H-1)
	}

	for y := 0; y < gray.H; y++ {
		line := gray.Pix[y*gray.W : (y+1)*gray.W]
		for x := 0; x+1 < gray.W; x++ {
			cols[x] += math.Abs(line[x+1] - line[x])
		}
		if y+1 < gray.H {
			next := gray.Pix[(y+1)*gray.W : (y+2)*gray.W]
			for x := 0; x < gray.W; x++ {
				rows[y] += math.Abs(next[x] - line[x])
			}
		}
	}
	return cols, rows
}

// FindPeaks returns indices of local maxima above mean + sigma*stddev. A
// candidate must not be exceeded by any sample within minDistance, and is
// rejected if it lies closer than minDistance to an already accepted peak
// (candidates are visited in index order).
func FindPeaks(signal []float64, minDistance int, sigma float64) []int {
	if len(signal) < 3 {
		return nil
	}

	mean, std := stat.PopMeanStdDev(signal, nil)
	threshold := mean + sigma*std

	var peaks []int
	for i := 1; i < len(signal)-1; i++ {
		if signal[i] <= threshold {
			continue
		}

		lo := max(0, i-minDistance)
		hi := min(len(signal), i+minDistance+1)
		isPeak := true
		for j := lo; j < hi; j++ {
			if j != i && signal[j] > signal[i] {
				isPeak = false
				break
			}
		}
		if !isPeak {
			continue
		}

		tooClose := false
		for _, p := range peaks {
			if abs(i-p) < minDistance {
				tooClose = true
				break
			}
		}
		if !tooClose {
			peaks = append(peaks, i)
		}
	}
	return peaks
}

// RepeatingPeriod finds the shift p in [minPeriod, maxPeriod] (and below
// half the signal length) that maximizes the mean product s[i]*s[i+p].
// Returns period 0 if no shift scores above zero. Ties keep the smaller period.
func RepeatingPeriod(signal []float64, minPeriod, maxPeriod int) (period int, score float64) {
	n := len(signal)
	for p := minPeriod; p <= maxPeriod && p < n/2; p++ {
		var sum float64
		count := n - p
		for i := 0; i < count; i++ {
			sum += signal[i] * signal[i+p]
		}
		s := sum / float64(count)
		if s > score {
			score = s
			period = p
		}
	}
	return period, score
}

// medianSpacing returns the truncated median gap between consecutive peaks.
func medianSpacing(peaks []int) int {
	if len(peaks) < 2 {
		return 0
	}
	gaps := make([]float64, len(peaks)-1)
	for i := 1; i < len(peaks); i++ {
		gaps[i-1] = float64(peaks[i] - peaks[i-1])
	}
	sort.Float64s(gaps)

	mid := len(gaps) / 2
	if len(gaps)%2 == 1 {
		return int(gaps[mid])
	}
	return int((gaps[mid-1] + gaps[mid]) / 2)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
