package cms

import (
	"github.com/jpfielding/colorpipe.go/pkg/colorspace"
)

// virtualProfile is a built-in matrix+TRC profile.
type virtualProfile struct {
	desc  string
	toXYZ colorspace.Matrix3x3
	trc   [3]*ToneCurve
}

func (p *virtualProfile) Description() string    { return p.desc }
func (p *virtualProfile) ColorModel() ColorModel { return ModelRGB }
func (p *virtualProfile) TRC(ch int) *ToneCurve  { return p.trc[ch] }
func (p *virtualProfile) RGBToXYZ() (colorspace.Matrix3x3, bool) {
	return p.toXYZ, true
}

// pcsProfile is a Lab or XYZ passthrough endpoint.
type pcsProfile struct {
	desc  string
	model ColorModel
}

func (p *pcsProfile) Description() string    { return p.desc }
func (p *pcsProfile) ColorModel() ColorModel { return p.model }

func sameCurve(c *ToneCurve) [3]*ToneCurve {
	return [3]*ToneCurve{c, c, c}
}

// rec2020Matrix is derived here because Rec. 2020 has no fixed matrix
// in colorspace; Rec. 709 shares the sRGB primaries and reuses its.
var rec2020Matrix = colorspace.MustRGBToXYZ(
	colorspace.Chromaticity{X: 0.708, Y: 0.292},
	colorspace.Chromaticity{X: 0.170, Y: 0.797},
	colorspace.Chromaticity{X: 0.131, Y: 0.046},
	colorspace.WhiteD65)

// Builtin profile names accepted by OpenBuiltin.
const (
	ProfileSRGB        = "srgb"
	ProfileAdobeRGB    = "adobergb"
	ProfileProPhoto    = "prophoto"
	ProfileRec2020     = "rec2020"
	ProfileLinRec709   = "lin_rec709"
	ProfileLinRec2020  = "lin_rec2020"
	ProfileLinProPhoto = "lin_prophoto"
	ProfileLab         = "lab"
	ProfileXYZ         = "xyz"
)

var builtins = map[string]Profile{
	ProfileSRGB: &virtualProfile{
		desc:  "sRGB (built-in)",
		toXYZ: colorspace.SRGBToXYZMatrix,
		trc:   sameCurve(SRGBCurve()),
	},
	ProfileAdobeRGB: &virtualProfile{
		desc:  "Adobe RGB (built-in)",
		toXYZ: colorspace.AdobeRGBToXYZMatrix,
		trc:   sameCurve(GammaCurve(563.0 / 256.0)),
	},
	ProfileProPhoto: &virtualProfile{
		desc:  "ProPhoto RGB (built-in)",
		toXYZ: colorspace.ProPhotoToXYZMatrix,
		trc:   sameCurve(ProPhotoCurve()),
	},
	ProfileRec2020: &virtualProfile{
		desc:  "Rec. 2020 (built-in)",
		toXYZ: rec2020Matrix,
		trc:   sameCurve(Rec709Curve()),
	},
	ProfileLinRec709: &virtualProfile{
		desc:  "linear Rec. 709 (built-in)",
		toXYZ: colorspace.SRGBToXYZMatrix,
		trc:   sameCurve(LinearCurve()),
	},
	ProfileLinRec2020: &virtualProfile{
		desc:  "linear Rec. 2020 (built-in)",
		toXYZ: rec2020Matrix,
		trc:   sameCurve(LinearCurve()),
	},
	ProfileLinProPhoto: &virtualProfile{
		desc:  "linear ProPhoto RGB (built-in)",
		toXYZ: colorspace.ProPhotoToXYZMatrix,
		trc:   sameCurve(LinearCurve()),
	},
	ProfileLab: &pcsProfile{desc: "Lab (PCS)", model: ModelLab},
	ProfileXYZ: &pcsProfile{desc: "XYZ (PCS)", model: ModelXYZ},
}

// BuiltinNames lists the accepted OpenBuiltin names, sorted.
func BuiltinNames() []string {
	return []string{
		ProfileAdobeRGB, ProfileLab, ProfileLinProPhoto, ProfileLinRec2020,
		ProfileLinRec709, ProfileProPhoto, ProfileRec2020, ProfileSRGB, ProfileXYZ,
	}
}
