package cms

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/jpfielding/colorpipe.go/pkg/colorspace"
	"github.com/jpfielding/colorpipe.go/pkg/util"
)

// BuiltinEngine is a matrix+TRC color-management engine covering the
// virtual profile table. It cannot read ICC byte streams; OpenBytes
// reports corrupt or unsupported so callers run their substitution
// path. Transform objects are memoized per (src, dst, intent).
type BuiltinEngine struct {
	mu         sync.Mutex
	transforms map[string]Transform
}

func NewBuiltinEngine() *BuiltinEngine {
	return &BuiltinEngine{transforms: map[string]Transform{}}
}

func (e *BuiltinEngine) OpenBuiltin(name string) (Profile, error) {
	p, ok := builtins[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProfile, name)
	}
	return p, nil
}

// OpenBytes validates the ICC header only; actual byte-stream parsing
// belongs to an external engine. A structurally valid stream still
// returns ErrUnsupportedProfile here.
func (e *BuiltinEngine) OpenBytes(data []byte) (Profile, error) {
	if len(data) < 132 || string(data[36:40]) != "acsp" {
		return nil, ErrCorruptProfile
	}
	return nil, fmt.Errorf("%w: ICC byte streams need an external engine", ErrUnsupportedProfile)
}

func (e *BuiltinEngine) NewTransform(src, dst Profile, intent Intent) (Transform, error) {
	key := util.HashUUID([]string{src.Description(), dst.Description(), intent.String()})
	e.mu.Lock()
	defer e.mu.Unlock()
	if t, ok := e.transforms[key]; ok {
		return t, nil
	}
	t, err := buildTransform(src, dst)
	if err != nil {
		return nil, err
	}
	slog.Debug("cms: built transform",
		slog.String("src", src.Description()),
		slog.String("dst", dst.Description()),
		slog.String("intent", intent.String()))
	e.transforms[key] = t
	return t, nil
}

// stage converts one endpoint to or from XYZ(D50).
type stage struct {
	model ColorModel
	m     colorspace.Matrix3x3 // RGB endpoints only
	mInv  colorspace.Matrix3x3
	trc   [3]*ToneCurve
}

func newStage(p Profile) (stage, error) {
	switch p.ColorModel() {
	case ModelLab:
		return stage{model: ModelLab}, nil
	case ModelXYZ:
		return stage{model: ModelXYZ}, nil
	case ModelRGB:
		mp, ok := p.(MatrixProfile)
		if !ok {
			return stage{}, fmt.Errorf("%w: %s has no matrix shape", ErrUnsupportedProfile, p.Description())
		}
		m, ok := mp.RGBToXYZ()
		if !ok {
			return stage{}, fmt.Errorf("%w: %s has no matrix shape", ErrUnsupportedProfile, p.Description())
		}
		mInv, ok := m.Invert()
		if !ok {
			return stage{}, fmt.Errorf("%w: %s matrix is singular", ErrUnsupportedProfile, p.Description())
		}
		return stage{
			model: ModelRGB,
			m:     m,
			mInv:  mInv,
			trc:   [3]*ToneCurve{mp.TRC(0), mp.TRC(1), mp.TRC(2)},
		}, nil
	default:
		return stage{}, fmt.Errorf("%w: color model %d", ErrUnsupportedProfile, p.ColorModel())
	}
}

func (s stage) toXYZ(px [3]float32) [3]float32 {
	switch s.model {
	case ModelLab:
		return colorspace.LabToXYZ(px)
	case ModelXYZ:
		return px
	default:
		lin := [3]float32{
			s.trc[0].Eval(px[0]),
			s.trc[1].Eval(px[1]),
			s.trc[2].Eval(px[2]),
		}
		return s.m.Apply(lin)
	}
}

func (s stage) fromXYZ(xyz [3]float32) [3]float32 {
	switch s.model {
	case ModelLab:
		return colorspace.XYZToLab(xyz)
	case ModelXYZ:
		return xyz
	default:
		lin := s.mInv.Apply(xyz)
		return [3]float32{
			s.trc[0].EvalInverse(lin[0]),
			s.trc[1].EvalInverse(lin[1]),
			s.trc[2].EvalInverse(lin[2]),
		}
	}
}

// matrixTransform pipes pixels through src.toXYZ then dst.fromXYZ.
type matrixTransform struct {
	src, dst stage
}

func buildTransform(src, dst Profile) (Transform, error) {
	s, err := newStage(src)
	if err != nil {
		return nil, err
	}
	d, err := newStage(dst)
	if err != nil {
		return nil, err
	}
	return &matrixTransform{src: s, dst: d}, nil
}

// Apply converts pixels 4-float pixels from src into dst. The fourth
// channel is copied through untouched.
func (t *matrixTransform) Apply(dst, src []float32, pixels int) {
	for i := 0; i < pixels*4; i += 4 {
		px := [3]float32{src[i], src[i+1], src[i+2]}
		out := t.dst.fromXYZ(t.src.toXYZ(px))
		dst[i], dst[i+1], dst[i+2] = out[0], out[1], out[2]
		dst[i+3] = src[i+3]
	}
}
