package direction

import (
	"context"
	"math"

	"sprite-curator/internal/frames"
	"sprite-curator/internal/raster"

	"gonum.org/v1/gonum/stat"
)

// Empirical scales that map score spreads to a full confidence of 1.
const (
	traditionalFacingScale = 0.5
	traditionalAsymScale   = 0.3
)

// Traditional scores rows from raw pixel statistics. It needs no optional
// capability and is always registered.
type Traditional struct{}

// NewTraditional returns the pixel statistics method.
func NewTraditional() *Traditional {
	return &Traditional{}
}

func (t *Traditional) Name() string  { return NameTraditional }
func (t *Traditional) Richness() int { return 0 }

// Analyze computes a RowAnalysis per row and resolves the mapping from the
// facing and asymmetry scores.
func (t *Traditional) Analyze(ctx context.Context, rows []frames.Row) (Mapping, []RowAnalysis, error) {
	if err := ctx.Err(); err != nil {
		return Mapping{}, nil, execError(t.Name(), err)
	}

	analyses := make([]RowAnalysis, 0, len(rows))
	facing := make([]float64, 0, len(rows))
	asym := make([]float64, 0, len(rows))

	hasAlpha := sheetHasAlpha(rows)
	for _, row := range rows {
		a := AnalyzeRow(row, hasAlpha)
		analyses = append(analyses, a)
		facing = append(facing, a.FacingScore)
		asym = append(asym, a.HorizontalAsymmetry)
	}

	m := NewMapping()
	for d, r := range assignByFacing(facing, asym) {
		m.Directions[d] = analyses[r].Row
	}
	m.Confidence = separationConfidence(facing, asym, traditionalFacingScale, traditionalAsymScale)
	return m, analyses, nil
}

// AnalyzeRow computes the pixel statistics of one row. hasAlpha selects
// coverage or intensity as the facing ink and must be the same for every row
// of a sheet.
func AnalyzeRow(row frames.Row, hasAlpha bool) RowAnalysis {
	a := RowAnalysis{Row: row.Index}
	if len(row.Frames) == 0 {
		return a
	}

	grays := make([]raster.Plane, len(row.Frames))
	for i, f := range row.Frames {
		grays[i] = raster.Intensity(f.Image)
	}

	a.VerticalMotion = verticalMotion(grays)
	a.HorizontalAsymmetry = horizontalAsymmetry(grays)
	a.MotionAmount = motionAmount(grays)

	a.FacingScore = facingScore(raster.Ink(row.Frames[0].Image, hasAlpha))
	return a
}

// sheetHasAlpha reports whether any frame of the sheet is transparent.
func sheetHasAlpha(rows []frames.Row) bool {
	for _, row := range rows {
		for _, f := range row.Frames {
			if raster.New(f.Image).HasAlpha {
				return true
			}
		}
	}
	return false
}

// verticalMotion is the mean frame-to-frame shift of the intensity-weighted
// vertical centre of mass. Positive means moving down. Empty frames are
// skipped.
func verticalMotion(grays []raster.Plane) float64 {
	var centers []float64
	for _, g := range grays {
		var mass, moment float64
		for y := 0; y < g.H; y++ {
			rowMass := g.Sum(0, y, g.W, y+1)
			mass += rowMass
			moment += float64(y) * rowMass
		}
		if mass > 0 {
			centers = append(centers, moment/mass)
		}
	}
	if len(centers) < 2 {
		return 0
	}

	deltas := make([]float64, len(centers)-1)
	for i := 1; i < len(centers); i++ {
		deltas[i-1] = centers[i] - centers[i-1]
	}
	return stat.Mean(deltas, nil)
}

// horizontalAsymmetry is the mean over frames of (right-left)/(right+left),
// comparing the left half with the mirrored right half of equal width.
// Positive means the mass leans right.
func horizontalAsymmetry(grays []raster.Plane) float64 {
	var values []float64
	for _, g := range grays {
		half := g.W / 2
		left := g.Sum(0, 0, half, g.H)
		right := g.Sum(g.W-half, 0, g.W, g.H)
		if left+right > 0 {
			values = append(values, ratio(right, left))
		}
	}
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}

// motionAmount is the mean absolute intensity difference between
// consecutive frames.
func motionAmount(grays []raster.Plane) float64 {
	if len(grays) < 2 {
		return 0
	}

	diffs := make([]float64, 0, len(grays)-1)
	for i := 1; i < len(grays); i++ {
		a, b := grays[i-1], grays[i]
		w, h := min(a.W, b.W), min(a.H, b.H)
		if w == 0 || h == 0 {
			continue
		}
		var sum float64
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				sum += math.Abs(a.At(x, y) - b.At(x, y))
			}
		}
		diffs = append(diffs, sum/float64(w*h))
	}
	if len(diffs) == 0 {
		return 0
	}
	return stat.Mean(diffs, nil)
}

// facingScore compares the ink density of the top third with the bottom
// third of a frame. Top-heavy frames (a visible face) score positive.
func facingScore(ink raster.Plane) float64 {
	third := ink.H / 3
	if third == 0 {
		return 0
	}
	top := ink.Mean(0, 0, ink.W, third)
	bottom := ink.Mean(0, ink.H-third, ink.W, ink.H)
	return ratio(top, bottom)
}
