// Package picker computes regional pixel statistics (mean/min/max)
// for live color sampling and histograms, dispatching on buffer layout
// and on the requested colorspace view.
package picker

import (
	"fmt"
	"math"
	"sync"

	"github.com/jpfielding/colorpipe.go/pkg/colorspace"
	"github.com/jpfielding/colorpipe.go/pkg/pixel"
)

// parallelThreshold is the region area below which the sequential loop
// always runs; thread fan-out overhead dominates smaller regions.
const parallelThreshold = 100

// View selects the colorspace the statistics are reported in.
type View int

const (
	// ViewNative accumulates channels as stored
	ViewNative View = iota
	// ViewLCh converts each Lab sample to LCh before accumulating
	ViewLCh
)

// Box is a half-open pixel rectangle [X0,X1) x [Y0,Y1).
type Box struct {
	X0, Y0, X1, Y1 int
}

func (b Box) clamp(width, height int) Box {
	if b.X0 < 0 {
		b.X0 = 0
	}
	if b.Y0 < 0 {
		b.Y0 = 0
	}
	if b.X1 > width {
		b.X1 = width
	}
	if b.Y1 > height {
		b.Y1 = height
	}
	return b
}

func (b Box) area() int {
	w, h := b.X1-b.X0, b.Y1-b.Y0
	if w <= 0 || h <= 0 {
		return 0
	}
	return w * h
}

// Stats is the reduction result. Channel meaning depends on the input:
// {L,a,b} or {R,G,B} for 4-channel buffers (LCh view reports {L,C,h}),
// CFA-site-weighted {R,G,B} for mosaics. The zero-sample sentinel is
// mean 0, min +Inf, max -Inf.
type Stats struct {
	Mean [3]float32
	Min  [3]float32
	Max  [3]float32
}

func sentinelStats() Stats {
	inf := float32(math.Inf(1))
	return Stats{
		Min: [3]float32{inf, inf, inf},
		Max: [3]float32{-inf, -inf, -inf},
	}
}

// accumulator collects per-channel partial results for one worker.
type accumulator struct {
	sum   [3]float64
	min   [3]float32
	max   [3]float32
	count [3]int64
}

func newAccumulator() accumulator {
	inf := float32(math.Inf(1))
	return accumulator{
		min: [3]float32{inf, inf, inf},
		max: [3]float32{-inf, -inf, -inf},
	}
}

func (a *accumulator) add(ch int, v float32) {
	a.sum[ch] += float64(v)
	a.count[ch]++
	if v < a.min[ch] {
		a.min[ch] = v
	}
	if v > a.max[ch] {
		a.max[ch] = v
	}
}

// merge folds o into a; channel min/max are order-independent, sums
// commute up to float rounding.
func (a *accumulator) merge(o accumulator) {
	for ch := 0; ch < 3; ch++ {
		a.sum[ch] += o.sum[ch]
		a.count[ch] += o.count[ch]
		if o.min[ch] < a.min[ch] {
			a.min[ch] = o.min[ch]
		}
		if o.max[ch] > a.max[ch] {
			a.max[ch] = o.max[ch]
		}
	}
}

func (a *accumulator) stats() Stats {
	out := Stats{Min: a.min, Max: a.max}
	for ch := 0; ch < 3; ch++ {
		if a.count[ch] > 0 {
			out.Mean[ch] = float32(a.sum[ch] / float64(a.count[ch]))
		}
		// an empty bucket keeps mean 0 and the Inf sentinels
	}
	return out
}

// Engine runs reductions with a fixed worker budget.
type Engine struct {
	workers int
}

// NewEngine builds a reduction engine; workers <= 0 means 4.
func NewEngine(workers int) *Engine {
	if workers <= 0 {
		workers = 4
	}
	return &Engine{workers: workers}
}

// Reduce computes per-channel mean/min/max over box. A zero-area box
// (after clamping) yields the sentinel stats. A 4-channel buffer
// described with a CFA layout is a caller contract violation and
// panics.
func (e *Engine) Reduce(buf *pixel.Buffer, desc pixel.Descriptor, box Box, view View) Stats {
	if desc.Channels == 4 && desc.Layout != pixel.Layout4Ch {
		panic(fmt.Sprintf("picker: 4-channel buffer with %v layout", desc.Layout))
	}
	if desc.Channels == 1 && desc.Layout == pixel.Layout4Ch {
		panic("picker: single-channel buffer without a CFA layout")
	}

	box = box.clamp(buf.Width, buf.Height)
	area := box.area()
	if area == 0 {
		return sentinelStats()
	}

	if area < parallelThreshold {
		acc := newAccumulator()
		e.accumulateRows(&acc, buf, desc, box, view, box.Y0, box.Y1)
		return acc.stats()
	}
	return e.reduceParallel(buf, desc, box, view)
}

func (e *Engine) reduceParallel(buf *pixel.Buffer, desc pixel.Descriptor, box Box, view View) Stats {
	rows := box.Y1 - box.Y0
	workers := e.workers
	if workers > rows {
		workers = rows
	}

	// private per-worker accumulators, merged single-threaded below
	parts := make([]accumulator, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		parts[w] = newAccumulator()
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			start, end := pixel.SplitRange(rows, workers, w)
			e.accumulateRows(&parts[w], buf, desc, box, view, box.Y0+start, box.Y0+end)
		}(w)
	}
	wg.Wait()

	// ascending worker order keeps diagnostic output reproducible
	total := newAccumulator()
	for w := 0; w < workers; w++ {
		total.merge(parts[w])
	}
	return total.stats()
}

func (e *Engine) accumulateRows(acc *accumulator, buf *pixel.Buffer, desc pixel.Descriptor, box Box, view View, y0, y1 int) {
	switch desc.Layout {
	case pixel.Layout4Ch:
		for y := y0; y < y1; y++ {
			row := buf.Row(y)
			for x := box.X0; x < box.X1; x++ {
				px := [3]float32{row[x*4], row[x*4+1], row[x*4+2]}
				if view == ViewLCh {
					px = colorspace.LabToLCh(px)
				}
				acc.add(0, px[0])
				acc.add(1, px[1])
				acc.add(2, px[2])
			}
		}
	case pixel.LayoutBayer, pixel.LayoutXTrans:
		for y := y0; y < y1; y++ {
			row := buf.Row(y)
			for x := box.X0; x < box.X1; x++ {
				acc.add(desc.CFAIndex(x, y), row[x])
			}
		}
	default:
		panic(fmt.Sprintf("picker: unknown layout %d", desc.Layout))
	}
}
