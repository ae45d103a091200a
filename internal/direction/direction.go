// Package direction scores the rows of a character sheet and maps them to
// facing directions. Each scoring strategy implements Method; the ensemble
// package runs whichever methods are available and keeps the best.
package direction

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"sprite-curator/internal/frames"
)

// Direction is a facing direction of one sheet row.
type Direction int

const (
	Down Direction = iota
	Up
	Left
	Right
)

// All lists every direction in claim order.
var All = []Direction{Down, Up, Left, Right}

func (d Direction) String() string {
	switch d {
	case Down:
		return "down"
	case Up:
		return "up"
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return "unknown"
	}
}

// MarshalText encodes the direction by name, so mappings serialize as
// {"down": 0, ...}.
func (d Direction) MarshalText() ([]byte, error) {
	if d < Down || d > Right {
		return nil, fmt.Errorf("invalid direction %d", int(d))
	}
	return []byte(d.String()), nil
}

// UnmarshalText decodes a direction name.
func (d *Direction) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Parse converts a direction name to a Direction.
func Parse(s string) (Direction, error) {
	for _, d := range All {
		if d.String() == s {
			return d, nil
		}
	}
	return Down, fmt.Errorf("unknown direction %q", s)
}

// Mapping assigns directions to row indices. It may be partial. Confidence is
// a relative score in [0, 1] for the built-in methods, not a probability.
type Mapping struct {
	Directions map[Direction]int `json:"directions"`
	Confidence float64           `json:"confidence"`
}

// NewMapping returns an empty mapping.
func NewMapping() Mapping {
	return Mapping{Directions: make(map[Direction]int)}
}

// Empty returns true if no direction is assigned.
func (m Mapping) Empty() bool {
	return len(m.Directions) == 0
}

// Row returns the row assigned to d.
func (m Mapping) Row(d Direction) (int, bool) {
	r, ok := m.Directions[d]
	return r, ok
}

// Validate checks that every row carries at most one direction.
func (m Mapping) Validate() error {
	seen := make(map[int]Direction, len(m.Directions))
	for _, d := range All {
		r, ok := m.Directions[d]
		if !ok {
			continue
		}
		if prev, dup := seen[r]; dup {
			return fmt.Errorf("row %d assigned to both %s and %s", r, prev, d)
		}
		seen[r] = d
	}
	return nil
}

// Assigned returns the assigned directions in claim order.
func (m Mapping) Assigned() []Direction {
	out := make([]Direction, 0, len(m.Directions))
	for d := range m.Directions {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// RowAnalysis is the per-row feature bundle a method computed.
type RowAnalysis struct {
	Row                 int     `json:"row"`
	VerticalMotion      float64 `json:"vertical_motion"`
	HorizontalAsymmetry float64 `json:"horizontal_asymmetry"`
	FacingScore         float64 `json:"facing_score"`
	MotionAmount        float64 `json:"motion_amount"`

	Features  *Features             `json:"features,omitempty"`
	Composite map[Direction]float64 `json:"composite,omitempty"`
}

// Method is one direction scoring strategy. Implementations must be safe to
// call from multiple goroutines on different rows.
type Method interface {
	// Name identifies the method in results.
	Name() string
	// Richness orders methods by information content. Higher wins
	// confidence ties.
	Richness() int
	// Analyze maps the rows to directions.
	Analyze(ctx context.Context, rows []frames.Row) (Mapping, []RowAnalysis, error)
}

// Method names.
const (
	NameTraditional = "traditional"
	NameFeature     = "feature"
	NameSemantic    = "semantic"
)

// ErrUnavailable is returned when an optional capability backing a method is
// not present. Such methods are left out of the ensemble.
var ErrUnavailable = errors.New("direction method unavailable")

// ExecutionError records a failure inside one method. It is kept in that
// method's result and never aborts the ensemble.
type ExecutionError struct {
	Method string
	Err    error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("%s method failed: %v", e.Method, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

func execError(method string, err error) error {
	return &ExecutionError{Method: method, Err: err}
}
