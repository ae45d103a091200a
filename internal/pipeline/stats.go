package pipeline

import (
	"sort"
	"sync"
)

// Summary is a point-in-time copy of run counters.
type Summary struct {
	RunID           string  `json:"run_id"`
	Total           int     `json:"total"`
	Processed       int     `json:"processed"`
	NeedsReview     int     `json:"needs_review"`
	Failed          int     `json:"failed"`
	Skipped         int     `json:"skipped"`
	ExtractedFrames int     `json:"extracted_frames"`
	SuccessRate     float64 `json:"success_rate"`
}

// RunStats is the shared state of one run. Workers update it through its
// methods; it is safe for concurrent use.
type RunStats struct {
	mu       sync.Mutex
	summary  Summary
	outcomes []Outcome
}

func newRunStats(runID string, total int) *RunStats {
	return &RunStats{summary: Summary{RunID: runID, Total: total}}
}

func (s *RunStats) record(o Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch o.Status {
	case StatusProcessed:
		s.summary.Processed++
		s.summary.ExtractedFrames += o.Frames
	case StatusNeedsReview:
		s.summary.NeedsReview++
	case StatusFailed:
		s.summary.Failed++
	case StatusSkipped:
		s.summary.Skipped++
	}
	s.outcomes = append(s.outcomes, o)
}

// Summary returns the current counters.
func (s *RunStats) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := s.summary
	if out.Total > 0 {
		out.SuccessRate = float64(out.Processed) / float64(out.Total) * 100
	}
	return out
}

// Outcomes returns per-sheet outcomes in input order.
func (s *RunStats) Outcomes() []Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Outcome, len(s.outcomes))
	copy(out, s.outcomes)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}
