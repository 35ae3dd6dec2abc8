package picker

import (
	"math"
	"testing"

	"github.com/jpfielding/colorpipe.go/pkg/colorspace"
	"github.com/jpfielding/colorpipe.go/pkg/pixel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fill4ch(width, height int, fn func(x, y int) [3]float32) *pixel.Buffer {
	buf := pixel.NewBuffer(width, height, 4)
	for y := 0; y < height; y++ {
		row := buf.Row(y)
		for x := 0; x < width; x++ {
			px := fn(x, y)
			row[x*4], row[x*4+1], row[x*4+2], row[x*4+3] = px[0], px[1], px[2], 1
		}
	}
	return buf
}

var desc4ch = pixel.Descriptor{Channels: 4, Space: pixel.SpaceRGB, Layout: pixel.Layout4Ch}

func TestReduce_SinglePixel(t *testing.T) {
	// 1x1 region is far below the threshold: sequential path,
	// mean == min == max == the pixel value
	buf := fill4ch(8, 8, func(x, y int) [3]float32 {
		return [3]float32{float32(x), float32(y), float32(x + y)}
	})
	st := NewEngine(4).Reduce(buf, desc4ch, Box{3, 5, 4, 6}, ViewNative)
	for ch, want := range []float32{3, 5, 8} {
		assert.Equal(t, want, st.Mean[ch], "mean channel %d", ch)
		assert.Equal(t, want, st.Min[ch], "min channel %d", ch)
		assert.Equal(t, want, st.Max[ch], "max channel %d", ch)
	}
}

func TestReduce_SequentialVsParallel(t *testing.T) {
	buf := fill4ch(64, 64, func(x, y int) [3]float32 {
		return [3]float32{
			float32(x*31%97) / 97.0,
			float32(y*17%89) / 89.0,
			float32((x+y)*13%83) / 83.0,
		}
	})

	// 9x9 = 81 px stays sequential even on a parallel engine;
	// shrinking the same engine's box cannot change results
	small := Box{10, 10, 19, 19}
	seq := NewEngine(1).Reduce(buf, desc4ch, small, ViewNative)
	par := NewEngine(8).Reduce(buf, desc4ch, small, ViewNative)
	assert.Equal(t, seq, par, "below threshold both engines run sequentially")

	// 40x40 = 1600 px exercises the fan-out
	big := Box{5, 5, 45, 45}
	seq = NewEngine(1).Reduce(buf, desc4ch, big, ViewNative)
	par = NewEngine(8).Reduce(buf, desc4ch, big, ViewNative)
	for ch := 0; ch < 3; ch++ {
		assert.Equal(t, seq.Min[ch], par.Min[ch], "min is order-independent, channel %d", ch)
		assert.Equal(t, seq.Max[ch], par.Max[ch], "max is order-independent, channel %d", ch)
		assert.InDelta(t, seq.Mean[ch], par.Mean[ch], 1e-6, "sum order tolerance, channel %d", ch)
	}
}

func TestReduce_LChView(t *testing.T) {
	lab := [3]float32{50, 30, -40}
	buf := fill4ch(16, 16, func(x, y int) [3]float32 { return lab })
	st := NewEngine(4).Reduce(buf, desc4ch, Box{0, 0, 16, 16}, ViewLCh)

	want := colorspace.LabToLCh(lab)
	for ch := 0; ch < 3; ch++ {
		assert.InDelta(t, want[ch], st.Mean[ch], 1e-5, "LCh mean channel %d", ch)
		assert.InDelta(t, want[ch], st.Min[ch], 1e-5, "LCh min channel %d", ch)
	}
}

func TestReduce_BayerWeighting(t *testing.T) {
	// constant fill per color site: means must equal the fills exactly
	fills := [3]float32{0.25, 0.5, 0.125}
	desc := pixel.Descriptor{Channels: 1, Layout: pixel.LayoutBayer, Bayer: pixel.RGGB}
	buf := pixel.NewBuffer(32, 32, 1)
	for y := 0; y < 32; y++ {
		row := buf.Row(y)
		for x := 0; x < 32; x++ {
			row[x] = fills[desc.CFAIndex(x, y)]
		}
	}

	st := NewEngine(4).Reduce(buf, desc, Box{0, 0, 32, 32}, ViewNative)
	for ch := 0; ch < 3; ch++ {
		assert.Equal(t, fills[ch], st.Mean[ch], "bayer mean channel %d", ch)
		assert.Equal(t, fills[ch], st.Min[ch], "bayer min channel %d", ch)
		assert.Equal(t, fills[ch], st.Max[ch], "bayer max channel %d", ch)
	}
}

func TestReduce_BayerGreenCount(t *testing.T) {
	// green is sampled twice per 2x2 tile; verify via distinct values
	desc := pixel.Descriptor{Channels: 1, Layout: pixel.LayoutBayer, Bayer: pixel.RGGB}
	buf := pixel.NewBuffer(2, 2, 1)
	buf.Data = []float32{1.0, 0.2, 0.6, 0.0} // R, G1, G2, B
	st := NewEngine(1).Reduce(buf, desc, Box{0, 0, 2, 2}, ViewNative)
	assert.Equal(t, float32(1.0), st.Mean[0], "single red sample")
	assert.InDelta(t, 0.4, st.Mean[1], 1e-6, "green averages its two sites")
	assert.Equal(t, float32(0.0), st.Mean[2], "single blue sample")
	assert.Equal(t, float32(0.2), st.Min[1], "green min")
	assert.Equal(t, float32(0.6), st.Max[1], "green max")
}

func TestReduce_XTrans(t *testing.T) {
	fills := [3]float32{0.1, 0.9, 0.4}
	desc := pixel.Descriptor{Channels: 1, Layout: pixel.LayoutXTrans, XTrans: pixel.XTransStandard}
	buf := pixel.NewBuffer(36, 36, 1)
	for y := 0; y < 36; y++ {
		row := buf.Row(y)
		for x := 0; x < 36; x++ {
			row[x] = fills[desc.CFAIndex(x, y)]
		}
	}
	// parallel region; per-color counts restore the balanced average
	st := NewEngine(8).Reduce(buf, desc, Box{0, 0, 36, 36}, ViewNative)
	for ch := 0; ch < 3; ch++ {
		assert.Equal(t, fills[ch], st.Mean[ch], "xtrans mean channel %d", ch)
	}
}

func TestReduce_ZeroArea(t *testing.T) {
	buf := fill4ch(8, 8, func(x, y int) [3]float32 { return [3]float32{1, 1, 1} })
	e := NewEngine(4)
	for name, box := range map[string]Box{
		"empty":    {4, 4, 4, 4},
		"inverted": {6, 6, 2, 2},
		"outside":  {20, 20, 30, 30},
		"negative": {-10, -10, -1, -1},
	} {
		st := e.Reduce(buf, desc4ch, box, ViewNative)
		for ch := 0; ch < 3; ch++ {
			assert.Equal(t, float32(0), st.Mean[ch], "%s sentinel mean channel %d", name, ch)
			assert.True(t, math.IsInf(float64(st.Min[ch]), 1), "%s sentinel min channel %d", name, ch)
			assert.True(t, math.IsInf(float64(st.Max[ch]), -1), "%s sentinel max channel %d", name, ch)
		}
	}
}

func TestReduce_EmptyColorBucket(t *testing.T) {
	// a 1x1 box on a Bayer mosaic samples exactly one color site
	desc := pixel.Descriptor{Channels: 1, Layout: pixel.LayoutBayer, Bayer: pixel.RGGB}
	buf := pixel.NewBuffer(4, 4, 1)
	buf.Data[0] = 0.7
	st := NewEngine(1).Reduce(buf, desc, Box{0, 0, 1, 1}, ViewNative)
	assert.Equal(t, float32(0.7), st.Mean[0], "sampled red site")
	assert.Equal(t, float32(0), st.Mean[1], "empty green bucket means 0, not NaN")
	assert.Equal(t, float32(0), st.Mean[2], "empty blue bucket means 0, not NaN")
	assert.False(t, math.IsNaN(float64(st.Mean[1])))
}

func TestReduce_ContractViolations(t *testing.T) {
	buf := pixel.NewBuffer(4, 4, 4)
	require.Panics(t, func() {
		NewEngine(1).Reduce(buf, pixel.Descriptor{Channels: 4, Layout: pixel.LayoutBayer}, Box{0, 0, 2, 2}, ViewNative)
	}, "4-channel Bayer is unreachable by contract")

	mono := pixel.NewBuffer(4, 4, 1)
	require.Panics(t, func() {
		NewEngine(1).Reduce(mono, pixel.Descriptor{Channels: 1, Layout: pixel.Layout4Ch}, Box{0, 0, 2, 2}, ViewNative)
	}, "single-channel without a CFA is unreachable by contract")
}
