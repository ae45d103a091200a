package direction

import (
	"context"
	"fmt"
	"image"
	"time"

	"sprite-curator/internal/frames"

	"gonum.org/v1/gonum/stat"
)

// Classifier scores an image against candidate text labels and returns one
// probability per label, in label order.
type Classifier interface {
	Classify(ctx context.Context, img image.Image, labels []string) ([]float64, error)
}

// question is one forced-choice prompt. weights[i] is how much label i
// supports each direction.
type question struct {
	name    string
	labels  []string
	weights []map[Direction]float64
}

var semanticQuestions = []question{
	{
		name: "front_back",
		labels: []string{
			"a pixel art character facing the viewer, front view",
			"a pixel art character seen from behind, back view",
		},
		weights: []map[Direction]float64{
			{Down: 1.0},
			{Up: 1.0},
		},
	},
	{
		name: "profile",
		labels: []string{
			"a pixel art character in profile facing left",
			"a pixel art character in profile facing right",
		},
		weights: []map[Direction]float64{
			{Left: 0.8},
			{Right: 0.8},
		},
	},
	{
		name: "angle",
		labels: []string{
			"a character viewed from the front",
			"a character viewed from the back",
			"a character viewed from its left side",
			"a character viewed from its right side",
		},
		weights: []map[Direction]float64{
			{Down: 0.6},
			{Up: 0.6},
			{Left: 0.6},
			{Right: 0.6},
		},
	},
	{
		name: "body_part",
		labels: []string{
			"the character's face is visible",
			"the back of the character's head is visible",
			"the character's left side is visible",
			"the character's right side is visible",
		},
		weights: []map[Direction]float64{
			{Down: 0.9},
			{Up: 0.9},
			{Left: 0.5},
			{Right: 0.5},
		},
	},
	{
		name: "movement",
		labels: []string{
			"a character walking toward the viewer",
			"a character walking away from the viewer",
			"a character walking to the left",
			"a character walking to the right",
		},
		weights: []map[Direction]float64{
			{Down: 0.7},
			{Up: 0.7},
			{Left: 0.7},
			{Right: 0.7},
		},
	},
}

// weightTotals is the largest achievable composite per direction, used to
// normalize composites into [0, 1].
var weightTotals = func() map[Direction]float64 {
	totals := make(map[Direction]float64)
	for _, q := range semanticQuestions {
		best := make(map[Direction]float64)
		for _, w := range q.weights {
			for d, v := range w {
				best[d] = max(best[d], v)
			}
		}
		for d, v := range best {
			totals[d] += v
		}
	}
	return totals
}()

// DefaultSemanticTimeout bounds each classifier call.
const DefaultSemanticTimeout = 10 * time.Second

// Semantic asks an image-text classifier about representative frames of each
// row and combines the answers into per-direction composite scores.
type Semantic struct {
	classifier Classifier
	timeout    time.Duration
}

// NewSemantic returns the semantic method, or ErrUnavailable without a
// classifier. A non-positive timeout selects DefaultSemanticTimeout.
func NewSemantic(classifier Classifier, timeout time.Duration) (*Semantic, error) {
	if classifier == nil {
		return nil, ErrUnavailable
	}
	if timeout <= 0 {
		timeout = DefaultSemanticTimeout
	}
	return &Semantic{classifier: classifier, timeout: timeout}, nil
}

func (m *Semantic) Name() string  { return NameSemantic }
func (m *Semantic) Richness() int { return 2 }

// Analyze scores each row, then lets down, up, left and right claim the
// unused row with the highest composite, in that order. An earlier direction
// can take a row that a later one scored higher.
func (m *Semantic) Analyze(ctx context.Context, rows []frames.Row) (Mapping, []RowAnalysis, error) {
	analyses := make([]RowAnalysis, 0, len(rows))
	for _, row := range rows {
		composite, err := m.rowComposite(ctx, row)
		if err != nil {
			return Mapping{}, nil, execError(m.Name(), err)
		}
		analyses = append(analyses, RowAnalysis{Row: row.Index, Composite: composite})
	}

	mapping := NewMapping()
	used := make(map[int]bool)
	var all []float64
	for _, a := range analyses {
		for _, d := range All {
			all = append(all, a.Composite[d])
		}
	}

	for _, d := range All {
		best := -1
		for i, a := range analyses {
			if used[i] {
				continue
			}
			if best < 0 || a.Composite[d] > analyses[best].Composite[d] {
				best = i
			}
		}
		if best < 0 {
			break
		}
		used[best] = true
		mapping.Directions[d] = analyses[best].Row
	}

	if len(all) > 0 {
		maxScore := all[0]
		for _, v := range all[1:] {
			maxScore = max(maxScore, v)
		}
		mapping.Confidence = maxScore - stat.Mean(all, nil)
	}
	return mapping, analyses, nil
}

// rowComposite averages the weighted answers over the row's representative
// frames and normalizes each direction by its maximum weight.
func (m *Semantic) rowComposite(ctx context.Context, row frames.Row) (map[Direction]float64, error) {
	composite := make(map[Direction]float64, len(All))
	samples := representativeFrames(row)
	if len(samples) == 0 {
		return composite, nil
	}

	for _, f := range samples {
		for _, q := range semanticQuestions {
			probs, err := m.ask(ctx, f.Image, q)
			if err != nil {
				return nil, fmt.Errorf("row %d frame %d %s: %w", row.Index, f.Index, q.name, err)
			}
			for i, p := range probs {
				for d, w := range q.weights[i] {
					composite[d] += p * w
				}
			}
		}
	}

	for _, d := range All {
		composite[d] /= float64(len(samples)) * weightTotals[d]
	}
	return composite, nil
}

func (m *Semantic) ask(ctx context.Context, img image.Image, q question) ([]float64, error) {
	callCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	probs, err := m.classifier.Classify(callCtx, img, q.labels)
	if err != nil {
		return nil, err
	}
	if len(probs) != len(q.labels) {
		return nil, fmt.Errorf("classifier returned %d scores for %d labels", len(probs), len(q.labels))
	}
	return probs, nil
}

// representativeFrames returns the first and middle frame of a row.
func representativeFrames(row frames.Row) []frames.Frame {
	n := len(row.Frames)
	if n == 0 {
		return nil
	}
	if mid := n / 2; mid > 0 {
		return []frames.Frame{row.Frames[0], row.Frames[mid]}
	}
	return []frames.Frame{row.Frames[0]}
}
