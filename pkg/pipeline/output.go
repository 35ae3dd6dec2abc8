package pipeline

import (
	"github.com/jpfielding/colorpipe.go/pkg/cms"
	"github.com/jpfielding/colorpipe.go/pkg/pixel"
	"github.com/jpfielding/colorpipe.go/pkg/profile"
	"github.com/jpfielding/colorpipe.go/pkg/transform"
)

// OutputParams are the committed parameters of the output color module.
type OutputParams struct {
	Kind     profile.Kind
	Filename string
	Intent   cms.Intent
	// Softproof simulates this profile on the output device;
	// KindNone disables the leg
	Softproof profile.Kind
}

// OutputModule applies the display/export profile: Lab back to the
// target RGB, with an optional softproof leg through a second profile.
type OutputModule struct {
	params OutputParams
	info   *profile.Info
	proof  *profile.Info
	path   transform.Path
}

// Commit resolves the committed parameters against the context.
func (m *OutputModule) Commit(pctx *Context, p OutputParams) {
	m.params = p
	m.info = pctx.Cache.GetOrCreate(p.Kind, p.Filename, p.Intent)
	m.path = transform.Select(4, m.info)
	m.proof = nil
	if p.Softproof != profile.KindNone {
		m.proof = pctx.Cache.GetOrCreate(p.Softproof, "", p.Intent)
	}
}

// Path is the conversion strategy recorded by the last Commit for the
// output leg.
func (m *OutputModule) Path() transform.Path { return m.path }

// Process converts a Lab buffer into the committed output RGB. With a
// softproof profile, pixels pass through the proof space first and are
// clamped to its gamut; when the proof leg's RGB-RGB transform is
// unavailable (either endpoint without matrices) the proof rendering
// is skipped and the plain output applies, per the "input unchanged"
// contract.
func (m *OutputModule) Process(pctx *Context, buf *pixel.Buffer) error {
	if m.proof == nil {
		return pctx.Selector.LabToRGB(buf, m.info)
	}

	if err := pctx.Selector.LabToRGB(buf, m.proof); err != nil {
		return err
	}
	forEachRow(buf, pctx.Workers, func(row []float32) {
		for i := 0; i+3 < len(row); i += 4 {
			for c := 0; c < 3; c++ {
				if row[i+c] < 0 {
					row[i+c] = 0
				} else if row[i+c] > 1 {
					row[i+c] = 1
				}
			}
		}
	})
	// PathNone leaves the clamped proof-space pixels in place
	pctx.Selector.RGBToRGB(buf, m.proof, m.info)
	return nil
}
