package semantic

import (
	"context"
	"fmt"
	"image"

	"sprite-curator/internal/direction"
	"sprite-curator/internal/grid"
	"sprite-curator/internal/raster"
	"sprite-curator/pkg/geometry"
)

// ValidationThreshold is the mean framing confidence a layout must exceed.
const ValidationThreshold = 0.1

// FrameCheck is the framing verdict for one sampled frame.
type FrameCheck struct {
	Index      int                `json:"frame_idx"`
	Centered   float64            `json:"centered_score"`
	Bad        float64            `json:"bad_score"`
	Confidence float64            `json:"confidence"`
	Scores     map[string]float64 `json:"scores"`
}

// LayoutValidation reports whether sampled frames look like whole,
// centred sprites under a layout.
type LayoutValidation struct {
	Validated  bool         `json:"validated"`
	Confidence float64      `json:"confidence"`
	Reason     string       `json:"reason,omitempty"`
	Frames     []FrameCheck `json:"frame_results,omitempty"`
}

// framingPrompts: the first two describe a well cut frame, the rest a bad
// one. Sized prompts get the frame size spliced in.
var framingPrompts = []struct {
	key   string
	text  string
	sized bool
}{
	{"centered", "a %s character sprite centered in frame", true},
	{"complete", "a complete %s character in the center", true},
	{"empty", "an empty frame", false},
	{"edge", "a cropped character at the edge", false},
	{"cutoff", "partial sprite cut off at frame boundary", false},
}

// SampleIndices picks up to four frames spread over the sheet: first,
// quarter, middle and last.
func SampleIndices(total int) []int {
	if total <= 0 {
		return nil
	}
	candidates := []int{0, total / 4, total / 2, total - 1}
	return candidates[:min(len(candidates), total)]
}

// ValidateLayout asks the classifier whether frames cut with layout contain
// a centred subject. Confidence per frame is the mean of the two "good"
// prompts minus the mean of the three "bad" prompts.
func ValidateLayout(ctx context.Context, c direction.Classifier, img image.Image, layout grid.Layout) (LayoutValidation, error) {
	if !layout.Usable() {
		return LayoutValidation{Reason: "no_layout_detected"}, nil
	}

	size := fmt.Sprintf("%dx%d pixel", layout.FrameWidth, layout.FrameHeight)
	labels := make([]string, len(framingPrompts))
	for i, p := range framingPrompts {
		labels[i] = p.text
		if p.sized {
			labels[i] = fmt.Sprintf(p.text, size)
		}
	}

	indices := SampleIndices(layout.TotalFrames)
	if len(indices) == 0 {
		return LayoutValidation{Reason: "no_frames_extracted"}, nil
	}

	var v LayoutValidation
	for _, idx := range indices {
		row, col := idx/layout.Columns, idx%layout.Columns
		cell := geometry.GridCell(geometry.NewSize(layout.FrameWidth, layout.FrameHeight), row, col)
		frame, err := raster.Region(img, cell)
		if err != nil {
			return LayoutValidation{}, fmt.Errorf("failed to sample frame %d: %w", idx, err)
		}

		probs, err := c.Classify(ctx, frame, labels)
		if err != nil {
			return LayoutValidation{}, fmt.Errorf("failed to classify frame %d: %w", idx, err)
		}
		if len(probs) != len(labels) {
			return LayoutValidation{}, fmt.Errorf("classifier returned %d scores for %d labels", len(probs), len(labels))
		}

		check := FrameCheck{
			Index:    idx,
			Centered: (probs[0] + probs[1]) / 2,
			Bad:      (probs[2] + probs[3] + probs[4]) / 3,
			Scores:   make(map[string]float64, len(probs)),
		}
		check.Confidence = check.Centered - check.Bad
		for i, p := range framingPrompts {
			check.Scores[p.key] = probs[i]
		}
		v.Frames = append(v.Frames, check)
		v.Confidence += check.Confidence
	}

	v.Confidence /= float64(len(v.Frames))
	v.Validated = v.Confidence > ValidationThreshold
	return v, nil
}
