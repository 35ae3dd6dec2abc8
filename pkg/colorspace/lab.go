// Package colorspace provides the scalar color conversions the pixel
// pipeline is built on: linear RGB, CIE XYZ (D50), CIE Lab, and LCh.
// All functions are pure and allocation free.
package colorspace

import "math"

// D50 is the ICC profile connection space white point.
var D50 = [3]float32{0.9642, 1.0, 0.8249}

const (
	labEpsilon = 216.0 / 24389.0 // (6/29)^3
	labKappa   = 24389.0 / 27.0
)

// fastCbrt computes cbrt(x) for x >= 0: a bit-manipulation seed followed
// by two Halley refinement steps, accurate to float precision over the
// Lab working range.
func fastCbrt(x float32) float32 {
	if x <= 0 {
		return 0
	}
	i := math.Float32bits(x)
	i = i/3 + 709921077
	y := math.Float32frombits(i)
	// Halley: y <- y*(y^3 + 2x)/(2y^3 + x)
	y3 := y * y * y
	y = y * (y3 + 2*x) / (2*y3 + x)
	y3 = y * y * y
	y = y * (y3 + 2*x) / (2*y3 + x)
	return y
}

// LabF is the CIE L* nonlinearity f(t).
func LabF(t float32) float32 {
	if t > labEpsilon {
		return fastCbrt(t)
	}
	return (labKappa*t + 16.0) / 116.0
}

// LabFInv inverts LabF using the closed cubic/linear split.
func LabFInv(t float32) float32 {
	if cube := t * t * t; cube > labEpsilon {
		return cube
	}
	return (116.0*t - 16.0) / labKappa
}

// XYZToLab converts D50 XYZ to CIE Lab.
func XYZToLab(xyz [3]float32) [3]float32 {
	fx := LabF(xyz[0] / D50[0])
	fy := LabF(xyz[1] / D50[1])
	fz := LabF(xyz[2] / D50[2])
	return [3]float32{
		116.0*fy - 16.0,
		500.0 * (fx - fy),
		200.0 * (fy - fz),
	}
}

// LabToXYZ converts CIE Lab to D50 XYZ.
func LabToXYZ(lab [3]float32) [3]float32 {
	fy := (lab[0] + 16.0) / 116.0
	fx := fy + lab[1]/500.0
	fz := fy - lab[2]/200.0
	return [3]float32{
		D50[0] * LabFInv(fx),
		D50[1] * LabFInv(fy),
		D50[2] * LabFInv(fz),
	}
}

// LabFromY maps a single luminance value to L* (mono working data).
func LabFromY(y float32) float32 {
	return 116.0*LabF(y) - 16.0
}

// YFromLab inverts LabFromY.
func YFromLab(l float32) float32 {
	return LabFInv((l + 16.0) / 116.0)
}

// LabToLCh converts Lab to LCh with hue normalized to [0,1).
func LabToLCh(lab [3]float32) [3]float32 {
	c := float32(math.Hypot(float64(lab[1]), float64(lab[2])))
	theta := float32(math.Atan2(float64(lab[2]), float64(lab[1])))
	var h float32
	if theta > 0 {
		h = theta / (2.0 * math.Pi)
	} else {
		h = 1.0 - float32(math.Abs(float64(theta)))/(2.0*math.Pi)
	}
	return [3]float32{lab[0], c, h}
}

// LChToLab converts LCh (hue in [0,1)) back to Lab.
func LChToLab(lch [3]float32) [3]float32 {
	theta := float64(lch[2]) * 2.0 * math.Pi
	return [3]float32{
		lch[0],
		lch[1] * float32(math.Cos(theta)),
		lch[1] * float32(math.Sin(theta)),
	}
}
