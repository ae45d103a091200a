package grid

import (
	"image"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"sprite-curator/internal/raster"
)

var sizePattern = regexp.MustCompile(`(\d+)\s*x\s*(\d+)`)

// Frame sizes outside this range are treated as unrelated numbers.
const (
	minHintSize = 8
	maxHintSize = 512
)

// SizeFromText extracts a frame size such as "32x32" or "16 x 18" from the
// title or description. The first mention with both sides in 8..512 wins.
func SizeFromText(title, description string) (w, h int, ok bool) {
	text := strings.ToLower(title + " " + description)
	for _, m := range sizePattern.FindAllStringSubmatch(text, -1) {
		w, errW := strconv.Atoi(m[1])
		h, errH := strconv.Atoi(m[2])
		if errW != nil || errH != nil {
			continue
		}
		if w >= minHintSize && w <= maxHintSize && h >= minHintSize && h <= maxHintSize {
			return w, h, true
		}
	}
	return 0, 0, false
}

// ScanGaps estimates the frame size from empty gutters: columns (rows) with
// no visible pixel are grouped into runs, and the most common distance
// between consecutive run starts is the frame size on that axis. Sheets
// without an alpha channel treat pure black as empty. Returns 0 for an axis
// with fewer than two gutters.
func ScanGaps(img image.Image, hasAlpha bool) (fw, fh int) {
	var cover raster.Plane
	if hasAlpha {
		cover = raster.Alpha(img)
	} else {
		cover = raster.Intensity(img)
	}

	emptyCols := make([]bool, cover.W)
	for x := 0; x < cover.W; x++ {
		emptyCols[x] = cover.Sum(x, 0, x+1, cover.H) == 0
	}
	emptyRows := make([]bool, cover.H)
	for y := 0; y < cover.H; y++ {
		emptyRows[y] = cover.Sum(0, y, cover.W, y+1) == 0
	}

	return modalRunSpacing(emptyCols), modalRunSpacing(emptyRows)
}

// modalRunSpacing returns the most common spacing between the starts of runs
// of true values. Ties prefer the smaller spacing.
func modalRunSpacing(empty []bool) int {
	var starts []int
	for i, e := range empty {
		if e && (i == 0 || !empty[i-1]) {
			starts = append(starts, i)
		}
	}
	if len(starts) < 2 {
		return 0
	}

	counts := make(map[int]int)
	for i := 1; i < len(starts); i++ {
		counts[starts[i]-starts[i-1]]++
	}

	spacings := make([]int, 0, len(counts))
	for s := range counts {
		spacings = append(spacings, s)
	}
	sort.Ints(spacings)

	best, bestCount := 0, 0
	for _, s := range spacings {
		if counts[s] > bestCount {
			best, bestCount = s, counts[s]
		}
	}
	if best < 2 {
		return 0
	}
	return best
}
