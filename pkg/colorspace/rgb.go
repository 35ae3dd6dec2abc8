package colorspace

import (
	"fmt"
	"math"
)

// Chromaticity is a CIE 1931 xy coordinate.
type Chromaticity struct {
	X, Y float64
}

// XYZ returns the coordinate as an XYZ vector with Y normalized to 1.
func (c Chromaticity) XYZ() [3]float32 {
	return [3]float32{
		float32(c.X / c.Y),
		1.0,
		float32((1.0 - c.X - c.Y) / c.Y),
	}
}

// Standard illuminant chromaticities.
var (
	WhiteD65 = Chromaticity{0.3127, 0.3290}
	WhiteD50 = Chromaticity{0.3457, 0.3585}
)

// RGBToXYZForPrimaries builds the linear-RGB -> XYZ matrix from the
// primaries and white point: columns of unscaled primaries, scaled so
// the white point maps to white, then Bradford-adapted so (1,1,1)
// lands exactly on D50. The adaptation runs even for a D50 white so
// every space shares the one D50 constant the Lab conversion uses.
func RGBToXYZForPrimaries(red, green, blue, white Chromaticity) (Matrix3x3, error) {
	prim := Matrix3x3{
		float32(red.X / red.Y), float32(green.X / green.Y), float32(blue.X / blue.Y),
		1, 1, 1,
		float32((1 - red.X - red.Y) / red.Y), float32((1 - green.X - green.Y) / green.Y), float32((1 - blue.X - blue.Y) / blue.Y),
	}
	inv, ok := prim.Invert()
	if !ok {
		return Matrix3x3{}, fmt.Errorf("degenerate primaries %v %v %v", red, green, blue)
	}
	scale := inv.Apply(white.XYZ())
	var m Matrix3x3
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			m[r*3+c] = prim[r*3+c] * scale[c]
		}
	}
	return Adapt(white.XYZ(), D50).Mul(m), nil
}

// MustRGBToXYZ is RGBToXYZForPrimaries for known-good primaries.
func MustRGBToXYZ(red, green, blue, white Chromaticity) Matrix3x3 {
	m, err := RGBToXYZForPrimaries(red, green, blue, white)
	if err != nil {
		panic(err)
	}
	return m
}

// RGB<->XYZ matrices for the standard working spaces, derived from
// their primaries. Each maps (1,1,1) onto D50 exactly.
var (
	SRGBToXYZMatrix = MustRGBToXYZ(
		Chromaticity{0.6400, 0.3300}, Chromaticity{0.3000, 0.6000}, Chromaticity{0.1500, 0.0600}, WhiteD65)
	XYZToSRGBMatrix = mustInvert(SRGBToXYZMatrix)

	ProPhotoToXYZMatrix = MustRGBToXYZ(
		Chromaticity{0.7347, 0.2653}, Chromaticity{0.1596, 0.8404}, Chromaticity{0.0366, 0.0001}, WhiteD50)
	XYZToProPhotoMatrix = mustInvert(ProPhotoToXYZMatrix)

	AdobeRGBToXYZMatrix = MustRGBToXYZ(
		Chromaticity{0.6400, 0.3300}, Chromaticity{0.2100, 0.7100}, Chromaticity{0.1500, 0.0600}, WhiteD65)
)

func mustInvert(m Matrix3x3) Matrix3x3 {
	inv, ok := m.Invert()
	if !ok {
		panic(fmt.Sprintf("singular working-space matrix %v", m))
	}
	return inv
}

// SRGBGammaExpand maps sRGB-encoded to linear.
func SRGBGammaExpand(v float32) float32 {
	if v <= 0.04045 {
		return v / 12.92
	}
	return float32(math.Pow(float64(v+0.055)/1.055, 2.4))
}

// SRGBGammaCompress maps linear to sRGB-encoded.
func SRGBGammaCompress(v float32) float32 {
	if v <= 0.0031308 {
		return v * 12.92
	}
	return 1.055*float32(math.Pow(float64(v), 1.0/2.4)) - 0.055
}

// SRGBToXYZ converts sRGB-encoded values to D50 XYZ.
func SRGBToXYZ(rgb [3]float32) [3]float32 {
	lin := [3]float32{
		SRGBGammaExpand(rgb[0]),
		SRGBGammaExpand(rgb[1]),
		SRGBGammaExpand(rgb[2]),
	}
	return SRGBToXYZMatrix.Apply(lin)
}

// XYZToSRGB converts D50 XYZ to sRGB-encoded values. Out-of-gamut results
// are left unclipped; see XYZToSRGBClipped.
func XYZToSRGB(xyz [3]float32) [3]float32 {
	lin := XYZToSRGBMatrix.Apply(xyz)
	return [3]float32{
		SRGBGammaCompress(lin[0]),
		SRGBGammaCompress(lin[1]),
		SRGBGammaCompress(lin[2]),
	}
}

// XYZToSRGBClipped is XYZToSRGB with the result clamped to [0,1].
func XYZToSRGBClipped(xyz [3]float32) [3]float32 {
	rgb := XYZToSRGB(xyz)
	for i := range rgb {
		rgb[i] = clamp01(rgb[i])
	}
	return rgb
}

// ProPhotoToXYZ converts linear ProPhoto RGB to D50 XYZ.
func ProPhotoToXYZ(rgb [3]float32) [3]float32 {
	return ProPhotoToXYZMatrix.Apply(rgb)
}

// XYZToProPhoto converts D50 XYZ to linear ProPhoto RGB.
func XYZToProPhoto(xyz [3]float32) [3]float32 {
	return XYZToProPhotoMatrix.Apply(xyz)
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
