// Package cms is the boundary to the color-management engine: profile
// handles, rendering intents, and full colorimetric transforms. The
// pixel pipeline talks to these interfaces only; BuiltinEngine provides
// a matrix+TRC implementation so the pipeline runs without an external
// library.
package cms

import (
	"errors"

	"github.com/jpfielding/colorpipe.go/pkg/colorspace"
)

// Intent is the ICC rendering intent.
type Intent int

const (
	IntentPerceptual Intent = iota
	IntentRelativeColorimetric
	IntentSaturation
	IntentAbsoluteColorimetric
)

func (i Intent) String() string {
	switch i {
	case IntentPerceptual:
		return "perceptual"
	case IntentRelativeColorimetric:
		return "relative"
	case IntentSaturation:
		return "saturation"
	case IntentAbsoluteColorimetric:
		return "absolute"
	}
	return "unknown"
}

// ColorModel is the underlying color model of a profile.
type ColorModel int

const (
	ModelRGB ColorModel = iota
	ModelGray
	ModelCMYK
	ModelLab
	ModelXYZ
)

var (
	// ErrCorruptProfile marks profile bytes the engine cannot read at all.
	ErrCorruptProfile = errors.New("cms: corrupt profile data")
	// ErrUnsupportedProfile marks a readable profile the engine cannot model.
	ErrUnsupportedProfile = errors.New("cms: unsupported profile")
	// ErrUnknownProfile marks an unknown builtin name.
	ErrUnknownProfile = errors.New("cms: unknown builtin profile")
)

// Profile is an opaque handle to one colorimetric profile.
type Profile interface {
	Description() string
	ColorModel() ColorModel
}

// MatrixProfile is implemented by profiles with an analytic matrix+TRC
// shape. The pipeline derives its fast paths from this; profiles that
// only exist as LUT pipelines do not implement it and force the full
// transform path.
type MatrixProfile interface {
	Profile
	// RGBToXYZ returns the linear-RGB -> XYZ(D50) matrix.
	RGBToXYZ() (colorspace.Matrix3x3, bool)
	// TRC returns the encoded->linear transfer curve for channel ch.
	TRC(ch int) *ToneCurve
}

// Transform pushes 4-channel float pixels from the source to the
// destination space. A Transform must not be used from more than one
// goroutine concurrently.
type Transform interface {
	Apply(dst, src []float32, pixels int)
}

// Engine hands out profiles and transforms. Implementations memoize
// transform construction; callers still cache the returned object on
// their own processing state to avoid the lookup in hot paths.
type Engine interface {
	OpenBuiltin(name string) (Profile, error)
	OpenBytes(data []byte) (Profile, error)
	NewTransform(src, dst Profile, intent Intent) (Transform, error)
}
