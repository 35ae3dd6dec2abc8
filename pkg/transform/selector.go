// Package transform picks and runs the cheapest correct conversion
// strategy for whole pixel buffers: identity copy, 3x3 matrix (with
// optional tone tables), mono luminance, or the engine's full
// transform when no matrix approximation exists.
package transform

import (
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/jpfielding/colorpipe.go/pkg/cms"
	"github.com/jpfielding/colorpipe.go/pkg/colorspace"
	"github.com/jpfielding/colorpipe.go/pkg/pixel"
	"github.com/jpfielding/colorpipe.go/pkg/profile"
)

// Path is the strategy chosen for one invocation.
type Path int

const (
	PathNone   Path = iota // nothing to do, or transform unavailable
	PathCopy               // identical profile identity
	PathMatrix             // 3x3 matrix (+ tone tables)
	PathFull               // engine transform
	PathMono               // single-channel luminance
)

func (p Path) String() string {
	switch p {
	case PathNone:
		return "none"
	case PathCopy:
		return "copy"
	case PathMatrix:
		return "matrix"
	case PathFull:
		return "full"
	case PathMono:
		return "mono"
	}
	return "unknown"
}

// Selector executes buffer conversions. The zero value is not usable;
// construct with NewSelector. Safe for concurrent use; engine
// transform objects themselves are driven from one goroutine at a time
// per Apply call.
type Selector struct {
	engine  cms.Engine
	workers int
}

// NewSelector builds a Selector over the engine. workers <= 0 selects
// GOMAXPROCS.
func NewSelector(engine cms.Engine, workers int) *Selector {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Selector{engine: engine, workers: workers}
}

// Select reports the strategy a to/from-Lab conversion through info
// takes for a buffer with the given channel count. The color modules
// record this at commit time; run dispatches on the same answer.
func Select(channels int, info *profile.Info) Path {
	if info.IsPCS() {
		return PathCopy
	}
	if channels == 1 {
		return PathMono
	}
	if _, _, ok := info.Matrices(); ok {
		return PathMatrix
	}
	return PathFull
}

// RGBToLab converts a buffer in info's RGB space to Lab, in place over
// rows fanned out across workers.
func (s *Selector) RGBToLab(buf *pixel.Buffer, info *profile.Info) error {
	return s.run(buf, info, true)
}

// LabToRGB converts a Lab buffer into info's RGB space.
func (s *Selector) LabToRGB(buf *pixel.Buffer, info *profile.Info) error {
	return s.run(buf, info, false)
}

func (s *Selector) run(buf *pixel.Buffer, info *profile.Info, toLab bool) error {
	switch Select(buf.Channels, info) {
	case PathCopy:
		return nil // already in the connection space
	case PathMono:
		s.parallelRows(buf, func(y int) { monoRow(buf.Row(y), toLab) })
		return nil
	case PathMatrix:
		matIn, matOut, _ := info.Matrices()
		slog.Debug("transform: matrix path",
			slog.String("profile", info.Description()),
			slog.Bool("to_lab", toLab))
		if toLab {
			s.parallelRows(buf, func(y int) { rgbToLabRow(buf.Row(y), info.ApplyLutIn, matIn) })
		} else {
			s.parallelRows(buf, func(y int) { labToRGBRow(buf.Row(y), info.ApplyLutOut, matOut) })
		}
		return nil
	default:
		return s.fullPath(buf, info, toLab)
	}
}

// fullPath delegates whole rows to the engine transform object; the
// object is built once per direction and must not be shared across
// concurrent Apply calls, so rows are pushed through it sequentially.
func (s *Selector) fullPath(buf *pixel.Buffer, info *profile.Info, toLab bool) error {
	if info.Profile() == nil {
		return fmt.Errorf("transform: no engine handle for %s", info.Key().Kind)
	}
	labp, err := s.engine.OpenBuiltin(cms.ProfileLab)
	if err != nil {
		return fmt.Errorf("transform: opening Lab endpoint: %w", err)
	}
	src, dst := info.Profile(), labp
	if !toLab {
		src, dst = labp, info.Profile()
	}
	tr, err := s.engine.NewTransform(src, dst, info.Key().Intent)
	if err != nil {
		// last link of the fallback chain: run the buffer through
		// linear Rec. 2020 instead of failing the operation
		slog.Warn("transform: engine transform construction failed, substituting linear Rec. 2020",
			slog.String("profile", info.Description()),
			slog.Any("error", err))
		return s.substitutePath(buf, toLab)
	}
	slog.Debug("transform: full engine path",
		slog.String("profile", info.Description()),
		slog.Bool("to_lab", toLab))
	for y := 0; y < buf.Height; y++ {
		row := buf.Row(y)
		tr.Apply(row, row, buf.Width)
	}
	return nil
}

func (s *Selector) substitutePath(buf *pixel.Buffer, toLab bool) error {
	fb, err := s.engine.OpenBuiltin(cms.ProfileLinRec2020)
	if err != nil {
		return fmt.Errorf("transform: opening substitute profile: %w", err)
	}
	mp, ok := fb.(cms.MatrixProfile)
	if !ok {
		return fmt.Errorf("transform: substitute profile has no matrix shape")
	}
	m, _ := mp.RGBToXYZ()
	mInv, ok := m.Invert()
	if !ok {
		return fmt.Errorf("transform: substitute profile matrix is singular")
	}
	if toLab {
		s.parallelRows(buf, func(y int) { rgbToLabRow(buf.Row(y), identityLut, m) })
	} else {
		s.parallelRows(buf, func(y int) { labToRGBRow(buf.Row(y), identityLut, mInv) })
	}
	return nil
}

// RGBToRGB converts between two RGB working spaces (softproof leg).
// Both endpoints must carry matrices; when either does not, the buffer
// is returned untouched and the chosen path is PathNone, which callers
// treat as "use input unchanged".
func (s *Selector) RGBToRGB(buf *pixel.Buffer, src, dst *profile.Info) Path {
	if src.SameIdentity(dst) {
		return PathCopy
	}
	srcIn, _, okSrc := src.Matrices()
	_, dstOut, okDst := dst.Matrices()
	if !okSrc || !okDst {
		slog.Debug("transform: rgb-rgb unavailable",
			slog.Bool("src_matrix", okSrc), slog.Bool("dst_matrix", okDst))
		return PathNone
	}
	m := dstOut.Mul(srcIn)
	s.parallelRows(buf, func(y int) { rgbToRGBRow(buf.Row(y), src, dst, m) })
	return PathMatrix
}

func (s *Selector) parallelRows(buf *pixel.Buffer, fn func(y int)) {
	workers := s.workers
	if workers > buf.Height {
		workers = buf.Height
	}
	if workers <= 1 {
		for y := 0; y < buf.Height; y++ {
			fn(y)
		}
		return
	}
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			start, end := pixel.SplitRange(buf.Height, workers, w)
			for y := start; y < end; y++ {
				fn(y)
			}
		}(w)
	}
	wg.Wait()
}

func identityLut(_ int, x float32) float32 { return x }

func rgbToLabRow(row []float32, lut func(int, float32) float32, matIn colorspace.Matrix3x3) {
	for i := 0; i+3 < len(row); i += 4 {
		lin := [3]float32{
			lut(0, row[i]),
			lut(1, row[i+1]),
			lut(2, row[i+2]),
		}
		lab := colorspace.XYZToLab(matIn.Apply(lin))
		row[i], row[i+1], row[i+2] = lab[0], lab[1], lab[2]
	}
}

func labToRGBRow(row []float32, lut func(int, float32) float32, matOut colorspace.Matrix3x3) {
	for i := 0; i+3 < len(row); i += 4 {
		xyz := colorspace.LabToXYZ([3]float32{row[i], row[i+1], row[i+2]})
		lin := matOut.Apply(xyz)
		row[i] = lut(0, lin[0])
		row[i+1] = lut(1, lin[1])
		row[i+2] = lut(2, lin[2])
	}
}

func rgbToRGBRow(row []float32, src, dst *profile.Info, m colorspace.Matrix3x3) {
	for i := 0; i+3 < len(row); i += 4 {
		lin := [3]float32{
			src.ApplyLutIn(0, row[i]),
			src.ApplyLutIn(1, row[i+1]),
			src.ApplyLutIn(2, row[i+2]),
		}
		out := m.Apply(lin)
		row[i] = dst.ApplyLutOut(0, out[0])
		row[i+1] = dst.ApplyLutOut(1, out[1])
		row[i+2] = dst.ApplyLutOut(2, out[2])
	}
}

// monoRow treats the single channel as luminance.
func monoRow(row []float32, toLab bool) {
	if toLab {
		for i := range row {
			row[i] = colorspace.LabFromY(row[i])
		}
		return
	}
	for i := range row {
		row[i] = colorspace.YFromLab(row[i])
	}
}
