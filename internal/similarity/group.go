package similarity

import (
	"fmt"
	"sort"

	"sprite-curator/internal/frames"
	"sprite-curator/pkg/geometry"
)

// DefaultThreshold is the default maximum Hamming distance to a group seed.
const DefaultThreshold = 10

// Params holds grouping parameters.
type Params struct {
	HashSize  int
	Threshold int
}

// DefaultParams returns the 8x8 hash with threshold 10.
func DefaultParams() Params {
	return Params{HashSize: DefaultHashSize, Threshold: DefaultThreshold}
}

// WithThreshold returns a copy of params with a custom threshold.
func (p Params) WithThreshold(t int) Params {
	p.Threshold = t
	return p
}

// FrameRef locates a grouped frame on the sheet.
type FrameRef struct {
	Index int `json:"index"`
	Row   int `json:"row"`
	Col   int `json:"col"`
	X     int `json:"x"`
	Y     int `json:"y"`
}

// Group is a cluster of similar frames in frame-index order.
type Group struct {
	ID         int        `json:"id"`
	Size       int        `json:"size"`
	IsSequence bool       `json:"is_sequence"`
	Frames     []FrameRef `json:"frames"`
}

// Region returns the atlas rectangle for the group: the whole run for an
// animation sequence, otherwise the first frame.
func (g Group) Region(frameW, frameH int) geometry.RectInt {
	if len(g.Frames) == 0 {
		return geometry.RectInt{}
	}
	first := g.Frames[0]
	w := frameW
	if g.IsSequence {
		w = frameW * g.Size
	}
	return geometry.NewRectInt(first.X, first.Y, w, frameH)
}

// GroupFrames clusters frames with the default hash size.
func GroupFrames(fs []frames.Frame, threshold int) ([]Group, error) {
	return Cluster(fs, DefaultParams().WithThreshold(threshold))
}

// Cluster groups frames greedily in index order: each ungrouped frame seeds a
// group and pulls in every later ungrouped frame within Threshold of the
// seed's hash. Every frame lands in exactly one group. Groups are returned
// largest first; equal sizes keep seed order.
func Cluster(fs []frames.Frame, params Params) ([]Group, error) {
	if params.HashSize <= 0 {
		params.HashSize = DefaultHashSize
	}
	maxDist := params.HashSize * params.HashSize
	if params.Threshold < 0 || params.Threshold > maxDist {
		return nil, fmt.Errorf("threshold %d outside 0..%d", params.Threshold, maxDist)
	}

	ordered := make([]frames.Frame, len(fs))
	copy(ordered, fs)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Index < ordered[j].Index })

	hashes := make([]Hash, len(ordered))
	for i, f := range ordered {
		h, err := AverageHash(f.Image, params.HashSize)
		if err != nil {
			return nil, fmt.Errorf("failed to hash frame %d: %w", f.Index, err)
		}
		hashes[i] = h
	}

	used := make([]bool, len(ordered))
	var groups []Group
	for i := range ordered {
		if used[i] {
			continue
		}
		used[i] = true
		members := []frames.Frame{ordered[i]}
		for j := i + 1; j < len(ordered); j++ {
			if used[j] {
				continue
			}
			d, err := Distance(hashes[i], hashes[j])
			if err != nil {
				return nil, err
			}
			if d <= params.Threshold {
				used[j] = true
				members = append(members, ordered[j])
			}
		}
		groups = append(groups, newGroup(members))
	}

	sort.SliceStable(groups, func(i, j int) bool { return groups[i].Size > groups[j].Size })
	for i := range groups {
		groups[i].ID = i
	}
	return groups, nil
}

func newGroup(members []frames.Frame) Group {
	g := Group{Size: len(members), Frames: make([]FrameRef, len(members))}
	for i, f := range members {
		g.Frames[i] = FrameRef{Index: f.Index, Row: f.Row, Col: f.Col, X: f.X, Y: f.Y}
	}
	g.IsSequence = IsSequence(g.Frames)
	return g
}

// IsSequence reports whether refs (in index order) form a run of
// consecutive columns within one row. Single frames are not sequences.
func IsSequence(refs []FrameRef) bool {
	if len(refs) < 2 {
		return false
	}
	row := refs[0].Row
	for i := 1; i < len(refs); i++ {
		if refs[i].Row != row || refs[i].Col != refs[i-1].Col+1 {
			return false
		}
	}
	return true
}

// Largest returns the first (largest) group, or nil.
func Largest(groups []Group) *Group {
	if len(groups) == 0 {
		return nil
	}
	return &groups[0]
}
