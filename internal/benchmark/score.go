package benchmark

import "sprite-curator/internal/direction"

// Miss is a ground-truth direction the method got wrong. Predicted is nil
// when the method left the direction unassigned.
type Miss struct {
	Direction direction.Direction `json:"direction"`
	Predicted *int                `json:"predicted"`
	Expected  int                 `json:"expected"`
}

// Score compares a mapping with ground truth.
type Score struct {
	Accuracy float64 `json:"accuracy"`
	Correct  int     `json:"correct"`
	Total    int     `json:"total"`
	Errors   []Miss  `json:"errors,omitempty"`
}

// Accuracy scores every direction present in truth. Accuracy is a
// percentage; an empty truth scores 0.
func Accuracy(predicted direction.Mapping, truth map[direction.Direction]int) Score {
	var s Score
	for _, d := range direction.All {
		want, ok := truth[d]
		if !ok {
			continue
		}
		s.Total++
		got, assigned := predicted.Row(d)
		if assigned && got == want {
			s.Correct++
			continue
		}
		m := Miss{Direction: d, Expected: want}
		if assigned {
			m.Predicted = &got
		}
		s.Errors = append(s.Errors, m)
	}
	if s.Total > 0 {
		s.Accuracy = float64(s.Correct) / float64(s.Total) * 100
	}
	return s
}
