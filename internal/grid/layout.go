package grid

import (
	"image"
	"sort"

	"sprite-curator/internal/raster"
)

// Method identifies how a layout candidate was produced.
type Method string

const (
	// MethodTextHint derives the frame size from a "WxH" mention in the
	// sheet's title or description.
	MethodTextHint Method = "text_extraction"
	// MethodGapScan derives the frame size from fully transparent gutters.
	MethodGapScan Method = "computer_vision"
	// MethodAutocorrelation uses the edge-signal grid detector.
	MethodAutocorrelation Method = "autocorrelation"
	// MethodCommonSize tries common pixel-art frame sizes.
	MethodCommonSize Method = "heuristic_guess"
)

// priority orders candidate methods; lower wins.
func (m Method) priority() int {
	switch m {
	case MethodTextHint:
		return 0
	case MethodGapScan:
		return 1
	case MethodAutocorrelation:
		return 2
	case MethodCommonSize:
		return 3
	default:
		return 999
	}
}

// commonSizes are the frame sizes tried when nothing else yields a candidate.
var commonSizes = []int{8, 16, 24, 32, 48, 64, 96, 128, 256}

// Layout is a candidate frame grid scored by how well it tiles the image.
type Layout struct {
	FrameWidth   int     `json:"sprite_w"`
	FrameHeight  int     `json:"sprite_h"`
	Columns      int     `json:"cols"`
	Rows         int     `json:"rows"`
	TotalFrames  int     `json:"total_frames"`
	PerfectFit   bool    `json:"perfect_fit"`
	WastePercent float64 `json:"waste_percentage"`
	UsedWidth    int     `json:"used_width"`
	UsedHeight   int     `json:"used_height"`
	Method       Method  `json:"method"`

	ImageWidth  int `json:"image_width"`
	ImageHeight int `json:"image_height"`
}

// Fit scores a frame size against an image size.
func Fit(imgW, imgH, fw, fh int) Layout {
	l := Layout{
		FrameWidth:   fw,
		FrameHeight:  fh,
		ImageWidth:   imgW,
		ImageHeight:  imgH,
		WastePercent: 100,
	}
	if fw <= 0 || fh <= 0 || imgW+imgH == 0 {
		return l
	}

	l.Columns = imgW / fw
	l.Rows = imgH / fh
	l.TotalFrames = l.Columns * l.Rows
	l.PerfectFit = imgW%fw == 0 && imgH%fh == 0
	l.UsedWidth = l.Columns * fw
	l.UsedHeight = l.Rows * fh
	wasted := (imgW - l.UsedWidth) + (imgH - l.UsedHeight)
	l.WastePercent = float64(wasted) / float64(imgW+imgH) * 100
	return l
}

// Geometry converts the layout into a full Geometry.
func (l Layout) Geometry() Geometry {
	return NewGeometry(l.ImageWidth, l.ImageHeight, l.FrameWidth, l.FrameHeight)
}

// Usable returns true if the layout yields at least one whole frame.
func (l Layout) Usable() bool {
	return l.FrameWidth > 0 && l.FrameHeight > 0 && l.Columns >= 1 && l.Rows >= 1
}

// GuessSizes returns up to five common frame sizes that tile the image with
// less than 20% waste and 2-1000 frames, perfect fits first.
func GuessSizes(imgW, imgH int) []Layout {
	var candidates []Layout
	for _, w := range commonSizes {
		for _, h := range commonSizes {
			if imgW < w || imgH < h {
				continue
			}
			l := Fit(imgW, imgH, w, h)
			if l.WastePercent < 20 && l.TotalFrames >= 2 && l.TotalFrames <= 1000 {
				l.Method = MethodCommonSize
				candidates = append(candidates, l)
			}
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].PerfectFit != candidates[j].PerfectFit {
			return candidates[i].PerfectFit
		}
		return candidates[i].WastePercent < candidates[j].WastePercent
	})
	if len(candidates) > 5 {
		candidates = candidates[:5]
	}
	return candidates
}

// Hint carries catalog text that may mention the frame size.
type Hint struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
}

// Analysis collects every layout candidate for one sheet.
type Analysis struct {
	ImageWidth  int        `json:"image_width"`
	ImageHeight int        `json:"image_height"`
	Candidates  []Layout   `json:"candidates"`
	Best        *Layout    `json:"best,omitempty"`
	Detection   *Detection `json:"-"`
}

// Analyze gathers layout candidates from the text hint, gutter scan and
// autocorrelation detector, falling back to common sizes when none of them
// produced a usable layout, and selects the best one.
func Analyze(img image.Image, hint Hint, params Params) Analysis {
	b := img.Bounds()
	a := Analysis{ImageWidth: b.Dx(), ImageHeight: b.Dy()}

	if fw, fh, ok := SizeFromText(hint.Title, hint.Description); ok {
		l := Fit(a.ImageWidth, a.ImageHeight, fw, fh)
		l.Method = MethodTextHint
		a.add(l)
	}

	hasAlpha := raster.New(img).HasAlpha
	if fw, fh := ScanGaps(img, hasAlpha); fw > 0 && fh > 0 {
		l := Fit(a.ImageWidth, a.ImageHeight, fw, fh)
		l.Method = MethodGapScan
		a.add(l)
	}

	a.Detection = DetectDetailed(img, params)
	if g := a.Detection.Geometry; g.Validate() == nil {
		l := Fit(a.ImageWidth, a.ImageHeight, g.FrameWidth, g.FrameHeight)
		l.Method = MethodAutocorrelation
		a.add(l)
	}

	if len(a.Candidates) == 0 {
		for _, l := range GuessSizes(a.ImageWidth, a.ImageHeight) {
			a.add(l)
		}
	}

	a.Best = SelectBest(a.Candidates)
	return a
}

func (a *Analysis) add(l Layout) {
	if l.Usable() {
		a.Candidates = append(a.Candidates, l)
	}
}

// SelectBest picks the preferred candidate: by method priority, then perfect
// fit, then least waste. Returns nil for an empty list.
func SelectBest(candidates []Layout) *Layout {
	if len(candidates) == 0 {
		return nil
	}
	sorted := make([]Layout, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		pi, pj := sorted[i].Method.priority(), sorted[j].Method.priority()
		if pi != pj {
			return pi < pj
		}
		if sorted[i].PerfectFit != sorted[j].PerfectFit {
			return sorted[i].PerfectFit
		}
		return sorted[i].WastePercent < sorted[j].WastePercent
	})
	best := sorted[0]
	return &best
}
