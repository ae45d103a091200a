package similarity

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sprite-curator/internal/frames"
	"sprite-curator/internal/grid"
	"sprite-curator/internal/testsupport"
	"sprite-curator/pkg/colorutil"
	"sprite-curator/pkg/geometry"
)

// shapeSheet is a 4x3 sheet of 16x16 frames:
// row 0: four top-left boxes; row 1: two bottom-right boxes then two
// horizontal bars; row 2: one top-left box then three vertical bars.
func shapeSheet(t *testing.T) []frames.Frame {
	t.Helper()

	img := testsupport.Sheet(4, 3, 16, 16, func(img *image.RGBA, cell image.Rectangle, row, col int) {
		switch {
		case row == 0, row == 2 && col == 0:
			testsupport.FillRect(img, cell, 2, 2, 8, 8, colorutil.White)
		case row == 1 && col < 2:
			testsupport.FillRect(img, cell, 8, 8, 14, 14, colorutil.White)
		case row == 1:
			testsupport.FillRect(img, cell, 0, 6, 16, 10, colorutil.White)
		default:
			testsupport.FillRect(img, cell, 6, 0, 10, 16, colorutil.White)
		}
	})
	fs, err := frames.Extract(img, grid.NewGeometry(64, 48, 16, 16))
	require.NoError(t, err)
	return fs
}

func indices(g Group) []int {
	out := make([]int, len(g.Frames))
	for i, f := range g.Frames {
		out[i] = f.Index
	}
	return out
}

func TestGroupFrames(t *testing.T) {
	t.Parallel()

	groups, err := GroupFrames(shapeSheet(t), DefaultThreshold)
	require.NoError(t, err)
	require.Len(t, groups, 4)

	assert.Equal(t, []int{0, 1, 2, 3, 8}, indices(groups[0]))
	assert.False(t, groups[0].IsSequence, "spans two rows")

	assert.Equal(t, []int{9, 10, 11}, indices(groups[1]))
	assert.True(t, groups[1].IsSequence)

	assert.Equal(t, []int{4, 5}, indices(groups[2]))
	assert.True(t, groups[2].IsSequence)
	assert.Equal(t, []int{6, 7}, indices(groups[3]))
	assert.True(t, groups[3].IsSequence)

	for i, g := range groups {
		assert.Equal(t, i, g.ID)
		assert.Equal(t, len(g.Frames), g.Size)
	}
}

func TestEveryFrameInExactlyOneGroup(t *testing.T) {
	t.Parallel()

	fs := shapeSheet(t)
	for _, threshold := range []int{0, 5, 10, 30, 64} {
		groups, err := GroupFrames(fs, threshold)
		require.NoError(t, err)

		seen := make(map[int]int)
		for _, g := range groups {
			for _, f := range g.Frames {
				seen[f.Index]++
			}
		}
		require.Len(t, seen, len(fs), "threshold %d", threshold)
		for idx, n := range seen {
			assert.Equal(t, 1, n, "frame %d at threshold %d", idx, threshold)
		}
	}
}

func TestGroupSizesGrowWithThreshold(t *testing.T) {
	t.Parallel()

	fs := shapeSheet(t)
	sizeOf := func(threshold int) map[int]int {
		groups, err := GroupFrames(fs, threshold)
		require.NoError(t, err)
		out := make(map[int]int)
		for _, g := range groups {
			for _, f := range g.Frames {
				out[f.Index] = g.Size
			}
		}
		return out
	}

	prev := sizeOf(0)
	for _, threshold := range []int{5, 10, 64} {
		cur := sizeOf(threshold)
		for idx, size := range prev {
			assert.GreaterOrEqual(t, cur[idx], size, "frame %d at threshold %d", idx, threshold)
		}
		prev = cur
	}
	assert.Equal(t, 12, prev[0])
}

func TestThresholdRange(t *testing.T) {
	t.Parallel()

	fs := shapeSheet(t)
	_, err := GroupFrames(fs, -1)
	assert.Error(t, err)
	_, err = GroupFrames(fs, 65)
	assert.Error(t, err)

	groups, err := GroupFrames(nil, 10)
	require.NoError(t, err)
	assert.Empty(t, groups)
}

func TestIsSequence(t *testing.T) {
	t.Parallel()

	run := []FrameRef{{Index: 3, Row: 1, Col: 0}, {Index: 4, Row: 1, Col: 1}, {Index: 5, Row: 1, Col: 2}}
	assert.True(t, IsSequence(run))

	gap := []FrameRef{{Index: 3, Row: 1, Col: 0}, {Index: 5, Row: 1, Col: 2}}
	assert.False(t, IsSequence(gap))

	rows := []FrameRef{{Index: 2, Row: 0, Col: 2}, {Index: 3, Row: 1, Col: 0}}
	assert.False(t, IsSequence(rows))

	assert.False(t, IsSequence(run[:1]))
}

func TestAverageHash(t *testing.T) {
	t.Parallel()

	half := func(leftWhite bool) image.Image {
		img := image.NewRGBA(image.Rect(0, 0, 16, 16))
		cell := img.Bounds()
		testsupport.FillRect(img, cell, 0, 0, 16, 16, colorutil.Black)
		if leftWhite {
			testsupport.FillRect(img, cell, 0, 0, 8, 16, colorutil.White)
		} else {
			testsupport.FillRect(img, cell, 8, 0, 16, 16, colorutil.White)
		}
		return img
	}

	a, err := AverageHash(half(true), DefaultHashSize)
	require.NoError(t, err)
	assert.Equal(t, 64, a.Bits())
	b, err := AverageHash(half(true), DefaultHashSize)
	require.NoError(t, err)
	c, err := AverageHash(half(false), DefaultHashSize)
	require.NoError(t, err)

	dist := func(x, y Hash) int {
		d, err := Distance(x, y)
		require.NoError(t, err)
		return d
	}
	assert.Zero(t, dist(a, b))
	assert.GreaterOrEqual(t, dist(a, c), 48)
	assert.Equal(t, dist(a, c), dist(c, a))
	assert.Len(t, a.String(), 16)

	big, err := AverageHash(half(true), 16)
	require.NoError(t, err)
	assert.Equal(t, 256, big.Bits())
	assert.Len(t, big.String(), 64)
	_, err = Distance(a, big)
	assert.Error(t, err)

	_, err = AverageHash(image.NewRGBA(image.Rectangle{}), 8)
	assert.Error(t, err)
	for _, size := range []int{0, 4, 12} {
		_, err = AverageHash(half(true), size)
		assert.Error(t, err, "size %d", size)
	}
}

func TestAverageHashIgnoresSheetOffset(t *testing.T) {
	t.Parallel()

	fs := shapeSheet(t)
	first, err := AverageHash(fs[0].Image, DefaultHashSize)
	require.NoError(t, err)
	for _, i := range []int{1, 2, 3, 8} {
		h, err := AverageHash(fs[i].Image, DefaultHashSize)
		require.NoError(t, err)
		d, err := Distance(first, h)
		require.NoError(t, err)
		assert.Zero(t, d, "frame %d", i)
	}
}

func TestGroupRegion(t *testing.T) {
	t.Parallel()

	seq := Group{Size: 3, IsSequence: true, Frames: []FrameRef{{X: 16, Y: 32}, {X: 32, Y: 32}, {X: 48, Y: 32}}}
	assert.Equal(t, geometry.NewRectInt(16, 32, 48, 16), seq.Region(16, 16))

	single := Group{Size: 2, Frames: []FrameRef{{X: 0, Y: 0}, {X: 0, Y: 16}}}
	assert.Equal(t, geometry.NewRectInt(0, 0, 16, 16), single.Region(16, 16))

	assert.Nil(t, Largest(nil))
	assert.Equal(t, 3, Largest([]Group{seq, single}).Size)
}
