package direction

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// assignByFacing maps rows to directions from per-row facing and asymmetry
// scores. The highest facing row is down and the lowest remaining row is up.
// Of the rest, the most positive asymmetry is right and the most negative is
// left; a single leftover row goes right or left by the sign of its
// asymmetry. Further rows stay unassigned. A lone row is only ever down.
// Ties keep the lower row index.
func assignByFacing(facing, asym []float64) map[Direction]int {
	dirs := make(map[Direction]int)
	n := len(facing)
	if n == 0 {
		return dirs
	}

	down := argBest(facing, nil, func(a, b float64) bool { return a > b })
	dirs[Down] = down
	if n == 1 {
		return dirs
	}

	used := map[int]bool{down: true}
	up := argBest(facing, used, func(a, b float64) bool { return a < b })
	dirs[Up] = up
	used[up] = true

	remaining := n - 2
	switch {
	case remaining >= 2:
		right := argBest(asym, used, func(a, b float64) bool { return a > b })
		dirs[Right] = right
		used[right] = true
		dirs[Left] = argBest(asym, used, func(a, b float64) bool { return a < b })
	case remaining == 1:
		last := argBest(asym, used, func(a, b float64) bool { return a > b })
		if asym[last] > 0 {
			dirs[Right] = last
		} else {
			dirs[Left] = last
		}
	}
	return dirs
}

// argBest returns the index of the best unused value, where better(a, b)
// reports a strictly beating b. Returns -1 if every index is used.
func argBest(values []float64, used map[int]bool, better func(a, b float64) bool) int {
	best := -1
	for i, v := range values {
		if used[i] {
			continue
		}
		if best < 0 || better(v, values[best]) {
			best = i
		}
	}
	return best
}

// spread returns max - min, or 0 for fewer than two values.
func spread(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	return floats.Max(values) - floats.Min(values)
}

// separationConfidence averages how well facing and asymmetry magnitude
// separate the rows, each normalized by its scale and clamped to 1.
func separationConfidence(facing, asym []float64, facingScale, asymScale float64) float64 {
	if len(facing) == 0 {
		return 0
	}
	mags := make([]float64, len(asym))
	for i, a := range asym {
		mags[i] = math.Abs(a)
	}
	f := math.Min(spread(facing)/facingScale, 1)
	a := math.Min(spread(mags)/asymScale, 1)
	return (f + a) / 2
}

// ratio returns (a-b)/(a+b), or 0 when both are zero.
func ratio(a, b float64) float64 {
	if a+b == 0 {
		return 0
	}
	return (a - b) / (a + b)
}
