package pixel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitRange_CoversWithoutOverlap(t *testing.T) {
	for _, tc := range []struct{ length, workers int }{
		{10, 3}, {100, 7}, {5, 5}, {6, 4}, {1, 1}, {8, 16},
	} {
		covered := 0
		prevEnd := 0
		for w := 0; w < tc.workers; w++ {
			start, end := SplitRange(tc.length, tc.workers, w)
			require.Equal(t, prevEnd, start, "contiguous ranges for %+v worker %d", tc, w)
			require.LessOrEqual(t, start, end, "ordered range for %+v worker %d", tc, w)
			covered += end - start
			prevEnd = end
		}
		assert.Equal(t, tc.length, covered, "full coverage for %+v", tc)
	}
}

func TestCFAIndex_Bayer(t *testing.T) {
	d := Descriptor{Channels: 1, Layout: LayoutBayer, Bayer: RGGB}
	assert.Equal(t, 0, d.CFAIndex(0, 0), "red site")
	assert.Equal(t, 1, d.CFAIndex(1, 0), "green site")
	assert.Equal(t, 1, d.CFAIndex(0, 1), "green site")
	assert.Equal(t, 2, d.CFAIndex(1, 1), "blue site")
	// pattern repeats
	assert.Equal(t, 0, d.CFAIndex(4, 6))
	assert.Equal(t, 2, d.CFAIndex(7, 3))
}

func TestCFAIndex_XTransRatio(t *testing.T) {
	d := Descriptor{Channels: 1, Layout: LayoutXTrans, XTrans: XTransStandard}
	var counts [3]int
	for y := 0; y < 6; y++ {
		for x := 0; x < 6; x++ {
			counts[d.CFAIndex(x, y)]++
		}
	}
	// 8:20:8 over the 6x6 tile, i.e. 2:5:2 per 3x3 cell
	assert.Equal(t, [3]int{8, 20, 8}, counts, "X-Trans site ratio")
}

func TestCFAIndex_PanicsOn4Ch(t *testing.T) {
	d := Descriptor{Channels: 4, Layout: Layout4Ch}
	assert.Panics(t, func() { d.CFAIndex(0, 0) }, "CFA lookup on an interleaved layout")
}

func TestBuffer_RowAndClone(t *testing.T) {
	b := NewBuffer(3, 2, 4)
	require.Len(t, b.Data, 24)
	row := b.Row(1)
	require.Len(t, row, 12)
	row[0] = 7

	c := b.Clone()
	assert.Equal(t, b.Data, c.Data)
	c.Data[12] = 9
	assert.Equal(t, float32(7), b.Data[12], "clone does not alias")
}
