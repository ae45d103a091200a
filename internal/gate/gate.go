// Package gate turns detection results into certain/uncertain/failed
// verdicts and decides whether a sheet is extracted automatically or queued
// for manual review.
package gate

import (
	"fmt"

	"sprite-curator/internal/ensemble"
	"sprite-curator/internal/grid"
)

// Verdict is the confidence class of a detection.
type Verdict int

const (
	Failed Verdict = iota
	Uncertain
	Certain
)

func (v Verdict) String() string {
	switch v {
	case Certain:
		return "certain"
	case Uncertain:
		return "uncertain"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// MarshalText encodes the verdict by name.
func (v Verdict) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText decodes a verdict name.
func (v *Verdict) UnmarshalText(text []byte) error {
	switch string(text) {
	case "certain":
		*v = Certain
	case "uncertain":
		*v = Uncertain
	case "failed":
		*v = Failed
	default:
		return fmt.Errorf("unknown verdict %q", text)
	}
	return nil
}

// Route is where a sheet goes after gating.
type Route int

const (
	RouteReview Route = iota
	RouteExtract
)

func (r Route) String() string {
	if r == RouteExtract {
		return "extract"
	}
	return "review"
}

// Route maps a verdict to its destination. Only certain sheets are extracted.
func (v Verdict) Route() Route {
	if v == Certain {
		return RouteExtract
	}
	return RouteReview
}

// Thresholds for the gate rules.
const (
	// TextHintMaxWaste is the largest waste percentage at which a layout
	// derived from a text size hint is still trusted.
	TextHintMaxWaste = 5.0
	// DirectionCertainConfidence is the mapping confidence reported as
	// certain. Direction verdicts are informational only.
	DirectionCertainConfidence = 0.5
)

// ClassifyGrid classifies a selected layout. A detection error, missing
// layout or degenerate frame size is failed; a perfect tiling, or a text
// hint that wastes less than 5% of the sheet, is certain.
func ClassifyGrid(layout *grid.Layout, err error) Verdict {
	if err != nil || layout == nil || !layout.Usable() {
		return Failed
	}
	if layout.PerfectFit {
		return Certain
	}
	if layout.Method == grid.MethodTextHint && layout.WastePercent < TextHintMaxWaste {
		return Certain
	}
	return Uncertain
}

// ClassifyGeometry classifies raw detector output.
func ClassifyGeometry(geo grid.Geometry, err error) Verdict {
	if err != nil || geo.Validate() != nil {
		return Failed
	}
	if geo.ExactTiling() {
		return Certain
	}
	return Uncertain
}

// ClassifyDirection reports how far to trust an ensemble result. It never
// gates extraction.
func ClassifyDirection(res *ensemble.Result) Verdict {
	if res == nil || res.Failed() || res.BestMapping.Empty() {
		return Failed
	}
	if res.BestMapping.Confidence >= DirectionCertainConfidence {
		return Certain
	}
	return Uncertain
}
