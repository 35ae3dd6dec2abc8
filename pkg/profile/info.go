// Package profile builds and caches the per-profile records the pixel
// pipeline runs on: extracted matrices, tone-response tables, and the
// unbounded extrapolation coefficients for HDR values.
package profile

import (
	"github.com/jpfielding/colorpipe.go/pkg/cms"
	"github.com/jpfielding/colorpipe.go/pkg/colorspace"
)

// Kind identifies a profile's provenance.
type Kind int

const (
	KindNone Kind = iota
	KindEmbedded
	KindEmbeddedMatrix
	KindCameraMatrix
	KindSRGB
	KindAdobeRGB
	KindProPhoto
	KindLinProPhoto
	KindRec2020
	KindLinRec2020
	KindLinRec709
	KindLab
	KindXYZ
	KindDisplay
	KindSoftproof
	KindFile
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindEmbedded:
		return "embedded"
	case KindEmbeddedMatrix:
		return "embedded-matrix"
	case KindCameraMatrix:
		return "camera-matrix"
	case KindSRGB:
		return "srgb"
	case KindAdobeRGB:
		return "adobergb"
	case KindProPhoto:
		return "prophoto"
	case KindLinProPhoto:
		return "lin-prophoto"
	case KindRec2020:
		return "rec2020"
	case KindLinRec2020:
		return "lin-rec2020"
	case KindLinRec709:
		return "lin-rec709"
	case KindLab:
		return "lab"
	case KindXYZ:
		return "xyz"
	case KindDisplay:
		return "display"
	case KindSoftproof:
		return "softproof"
	case KindFile:
		return "file"
	}
	return "unknown"
}

// Key identifies one cache entry.
type Key struct {
	Kind     Kind
	Filename string
	Intent   cms.Intent
}

// Info is one colorimetric profile as consumed by the pixel pipeline.
// Immutable after construction; safe for concurrent readers.
type Info struct {
	key  Key
	desc string

	matIn, matOut colorspace.Matrix3x3 // RGB->XYZ(D50) and back
	haveMatrix    bool

	lutIn, lutOut [3][]float32 // nil means the channel is linear
	unboundedIn   [3][3]float32
	unboundedOut  [3][3]float32
	nonlinear     int
	grey          float32
	profile       cms.Profile // engine handle for the full path
	pcs           bool        // Lab/XYZ passthrough endpoint
}

// Key returns the (kind, filename, intent) identity.
func (n *Info) Key() Key { return n.key }

// Description is the engine's human-readable profile name.
func (n *Info) Description() string { return n.desc }

// Matrices returns the RGB->XYZ and XYZ->RGB matrices. ok is false when
// extraction failed; both are valid or neither is.
func (n *Info) Matrices() (in, out colorspace.Matrix3x3, ok bool) {
	return n.matIn, n.matOut, n.haveMatrix
}

// Profile returns the engine handle, nil when the engine had none.
func (n *Info) Profile() cms.Profile { return n.profile }

// IsPCS reports whether this is a Lab/XYZ passthrough endpoint.
func (n *Info) IsPCS() bool { return n.pcs }

// NonlinearChannels is the number of channels with a non-trivial LUT.
func (n *Info) NonlinearChannels() int { return n.nonlinear }

// Grey is the profile's middle-grey luminance.
func (n *Info) Grey() float32 { return n.grey }

// SameIdentity reports whether two records name the same profile
// (kind + filename); the transform selector short-circuits to a copy
// on a match.
func (n *Info) SameIdentity(o *Info) bool {
	if n == nil || o == nil {
		return n == o
	}
	return n.key.Kind == o.key.Kind && n.key.Filename == o.key.Filename
}

// ApplyLutIn linearizes channel ch through the input tone table, using
// the unbounded exponential model for x beyond the table domain.
func (n *Info) ApplyLutIn(ch int, x float32) float32 {
	return lutEval(n.lutIn[ch], n.unboundedIn[ch], x)
}

// ApplyLutOut encodes channel ch through the output tone table.
func (n *Info) ApplyLutOut(ch int, x float32) float32 {
	return lutEval(n.lutOut[ch], n.unboundedOut[ch], x)
}

// Luminance computes the luminance of an RGB triple in this profile's
// space, using the matrix Y row when available.
func (n *Info) Luminance(rgb [3]float32) float32 {
	if n.haveMatrix {
		return colorspace.MatrixLuminance(rgb, n.matIn)
	}
	return colorspace.Luminance(rgb)
}
