package pipeline

import (
	"sync"

	"github.com/jpfielding/colorpipe.go/pkg/cms"
	"github.com/jpfielding/colorpipe.go/pkg/colorspace"
	"github.com/jpfielding/colorpipe.go/pkg/pixel"
	"github.com/jpfielding/colorpipe.go/pkg/profile"
	"github.com/jpfielding/colorpipe.go/pkg/transform"
)

// blue-highlight remap bounds; the correction bleeds a bounded amount
// of blue into green when the blue fraction of the channel sum exceeds
// the threshold, taming the magenta cast of clipped blue highlights
const (
	blueBoundZ = 0.5
	blueBoundY = 0.8
	blueAmount = 0.11
)

// InputParams are the committed parameters of the input color module.
type InputParams struct {
	Kind     profile.Kind
	Filename string
	Intent   cms.Intent
	// BlueRemap enables the blue-highlight correction
	BlueRemap bool
	// GamutClip routes pixels through a narrower RGB space, clamped
	// to [0,1], before converting onward; KindNone disables it
	GamutClip profile.Kind
}

// InputModule applies the input profile: buffer RGB to Lab, with the
// optional per-pixel corrections. Commit resolves profiles and
// precomputes every matrix Process needs; Process itself does no
// lookups and no allocation.
type InputModule struct {
	params InputParams
	info   *profile.Info
	path   transform.Path

	clip      bool
	camToClip colorspace.Matrix3x3 // working RGB -> clip RGB
	clipToXYZ colorspace.Matrix3x3
}

// Commit resolves the committed parameters against the context. Called
// on parameter change only, never from Process.
func (m *InputModule) Commit(pctx *Context, p InputParams) {
	m.params = p
	m.info = pctx.Cache.BindToPipeline(p.Kind, p.Filename, p.Intent)
	m.path = transform.Select(4, m.info)

	m.clip = false
	if p.GamutClip != profile.KindNone && m.path == transform.PathMatrix {
		matIn, _, _ := m.info.Matrices()
		clipInfo := pctx.Cache.GetOrCreate(p.GamutClip, "", p.Intent)
		if clipIn, clipOut, clipOK := clipInfo.Matrices(); clipOK {
			m.camToClip = clipOut.Mul(matIn)
			m.clipToXYZ = clipIn
			m.clip = true
		}
	}
}

// Path is the conversion strategy recorded by the last Commit.
func (m *InputModule) Path() transform.Path { return m.path }

// Process converts the buffer from the committed profile's RGB to Lab
// in place. The buffer must be 4-channel.
func (m *InputModule) Process(pctx *Context, buf *pixel.Buffer) error {
	if m.params.BlueRemap {
		forEachRow(buf, pctx.Workers, func(row []float32) {
			for i := 0; i+3 < len(row); i += 4 {
				row[i], row[i+1], row[i+2] = blueRemap(row[i], row[i+1], row[i+2])
			}
		})
	}

	if m.clip {
		forEachRow(buf, pctx.Workers, func(row []float32) { m.clipRow(row) })
		return nil
	}
	return pctx.Selector.RGBToLab(buf, m.info)
}

// clipRow is the gamut-clipping variant of the matrix path: linearize,
// into the clip space, clamp, onward to XYZ and Lab.
func (m *InputModule) clipRow(row []float32) {
	for i := 0; i+3 < len(row); i += 4 {
		lin := [3]float32{
			m.info.ApplyLutIn(0, row[i]),
			m.info.ApplyLutIn(1, row[i+1]),
			m.info.ApplyLutIn(2, row[i+2]),
		}
		clipped := m.camToClip.Apply(lin)
		for c := range clipped {
			if clipped[c] < 0 {
				clipped[c] = 0
			} else if clipped[c] > 1 {
				clipped[c] = 1
			}
		}
		lab := colorspace.XYZToLab(m.clipToXYZ.Apply(clipped))
		row[i], row[i+1], row[i+2] = lab[0], lab[1], lab[2]
	}
}

func blueRemap(r, g, b float32) (float32, float32, float32) {
	sum := r + g + b
	if sum <= 0 {
		return r, g, b
	}
	frac := b / sum
	if frac <= blueBoundZ {
		return r, g, b
	}
	scale := sum / blueBoundY
	if scale > 1 {
		scale = 1
	}
	t := (frac - blueBoundZ) / (1 - blueBoundZ) * scale
	return r, g + t*blueAmount, b - t*blueAmount
}

// forEachRow fans rows out over the context's worker budget; the
// modules share the selector's synchronous map-reduce shape.
func forEachRow(buf *pixel.Buffer, workers int, fn func(row []float32)) {
	n := workers
	if n > buf.Height {
		n = buf.Height
	}
	if n <= 1 {
		for y := 0; y < buf.Height; y++ {
			fn(buf.Row(y))
		}
		return
	}
	var wg sync.WaitGroup
	for w := 0; w < n; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			start, end := pixel.SplitRange(buf.Height, n, w)
			for y := start; y < end; y++ {
				fn(buf.Row(y))
			}
		}(w)
	}
	wg.Wait()
}
