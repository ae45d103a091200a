package direction

import (
	"context"
	"fmt"
	"image"

	"sprite-curator/internal/frames"
)

const (
	featureFacingScale = 0.4
	featureAsymScale   = 0.25
)

// Features are the shape statistics of one frame (or the mean over a row)
// produced by a vision backend. Densities are the fraction of foreground
// pixels, gradients the mean gradient magnitude and edges the fraction of
// edge pixels in each region.
type Features struct {
	DensityTop    float64 `json:"density_top"`
	DensityMiddle float64 `json:"density_middle"`
	DensityBottom float64 `json:"density_bottom"`
	DensityLeft   float64 `json:"density_left"`
	DensityRight  float64 `json:"density_right"`

	GradientLeft  float64 `json:"gradient_left"`
	GradientRight float64 `json:"gradient_right"`

	EdgeTop    float64 `json:"edge_top"`
	EdgeMiddle float64 `json:"edge_middle"`
	EdgeBottom float64 `json:"edge_bottom"`
}

// add accumulates o into f.
func (f *Features) add(o Features) {
	f.DensityTop += o.DensityTop
	f.DensityMiddle += o.DensityMiddle
	f.DensityBottom += o.DensityBottom
	f.DensityLeft += o.DensityLeft
	f.DensityRight += o.DensityRight
	f.GradientLeft += o.GradientLeft
	f.GradientRight += o.GradientRight
	f.EdgeTop += o.EdgeTop
	f.EdgeMiddle += o.EdgeMiddle
	f.EdgeBottom += o.EdgeBottom
}

// scale multiplies every field by k.
func (f *Features) scale(k float64) {
	f.DensityTop *= k
	f.DensityMiddle *= k
	f.DensityBottom *= k
	f.DensityLeft *= k
	f.DensityRight *= k
	f.GradientLeft *= k
	f.GradientRight *= k
	f.EdgeTop *= k
	f.EdgeMiddle *= k
	f.EdgeBottom *= k
}

// Facing combines the vertical density and edge ratios. Top-heavy is
// positive.
func (f Features) Facing() float64 {
	return (ratio(f.DensityTop, f.DensityBottom) + ratio(f.EdgeTop, f.EdgeBottom)) / 2
}

// Asymmetry weights each half's density by its gradient energy and compares
// right with left. Right-leaning is positive.
func (f Features) Asymmetry() float64 {
	return ratio(f.DensityRight*(1+f.GradientRight), f.DensityLeft*(1+f.GradientLeft))
}

// FeatureExtractor computes Features for one frame. The gocv backend in
// internal/vision implements it.
type FeatureExtractor interface {
	FrameFeatures(img image.Image) (Features, error)
}

// Feature scores rows from shape features computed by a vision backend.
type Feature struct {
	extractor FeatureExtractor
}

// NewFeature returns the feature method, or ErrUnavailable without an
// extractor.
func NewFeature(extractor FeatureExtractor) (*Feature, error) {
	if extractor == nil {
		return nil, ErrUnavailable
	}
	return &Feature{extractor: extractor}, nil
}

func (m *Feature) Name() string  { return NameFeature }
func (m *Feature) Richness() int { return 1 }

// Analyze averages frame features per row and resolves the mapping the same
// way as the traditional method, using feature ratios.
func (m *Feature) Analyze(ctx context.Context, rows []frames.Row) (Mapping, []RowAnalysis, error) {
	analyses := make([]RowAnalysis, 0, len(rows))
	facing := make([]float64, 0, len(rows))
	asym := make([]float64, 0, len(rows))

	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return Mapping{}, nil, execError(m.Name(), err)
		}

		feats, err := m.rowFeatures(row)
		if err != nil {
			return Mapping{}, nil, execError(m.Name(), err)
		}

		a := RowAnalysis{
			Row:                 row.Index,
			FacingScore:         feats.Facing(),
			HorizontalAsymmetry: feats.Asymmetry(),
			Features:            &feats,
		}
		analyses = append(analyses, a)
		facing = append(facing, a.FacingScore)
		asym = append(asym, a.HorizontalAsymmetry)
	}

	mapping := NewMapping()
	for d, r := range assignByFacing(facing, asym) {
		mapping.Directions[d] = analyses[r].Row
	}
	mapping.Confidence = separationConfidence(facing, asym, featureFacingScale, featureAsymScale)
	return mapping, analyses, nil
}

func (m *Feature) rowFeatures(row frames.Row) (Features, error) {
	var sum Features
	if len(row.Frames) == 0 {
		return sum, nil
	}
	for _, f := range row.Frames {
		feats, err := m.extractor.FrameFeatures(f.Image)
		if err != nil {
			return Features{}, fmt.Errorf("frame %d: %w", f.Index, err)
		}
		sum.add(feats)
	}
	sum.scale(1 / float64(len(row.Frames)))
	return sum, nil
}
