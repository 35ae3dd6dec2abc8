package cms

import (
	"math"
	"sort"
)

// CurveKind selects the analytic form of a ToneCurve.
type CurveKind int

const (
	// CurveLinear is the identity curve
	CurveLinear CurveKind = iota
	// CurveGamma is a pure power law y = x^g
	CurveGamma
	// CurveParametric is the IEC 61966 style split curve:
	// y = (a*x + b)^g for x >= d, else y = c*x
	CurveParametric
	// CurveTable is a uniformly sampled table over [0,1]
	CurveTable
)

// ToneCurve is a per-channel transfer function mapping encoded values to
// linear light. Curves are immutable after construction and safe for
// concurrent readers.
type ToneCurve struct {
	kind          CurveKind
	gamma         float64
	g, a, b, c, d float64
	table         []float32
}

// LinearCurve returns the identity curve.
func LinearCurve() *ToneCurve {
	return &ToneCurve{kind: CurveLinear}
}

// GammaCurve returns y = x^gamma.
func GammaCurve(gamma float64) *ToneCurve {
	if gamma == 1.0 {
		return LinearCurve()
	}
	return &ToneCurve{kind: CurveGamma, gamma: gamma}
}

// ParametricCurve returns the split curve y = (a*x+b)^g for x >= d,
// else y = c*x. This is the shape of the sRGB and ProPhoto transfer
// functions.
func ParametricCurve(g, a, b, c, d float64) *ToneCurve {
	return &ToneCurve{kind: CurveParametric, g: g, a: a, b: b, c: c, d: d}
}

// TableCurve returns a curve interpolated from uniform samples over [0,1].
func TableCurve(samples []float32) *ToneCurve {
	return &ToneCurve{kind: CurveTable, table: samples}
}

// SRGBCurve is the IEC 61966-2-1 transfer function.
func SRGBCurve() *ToneCurve {
	return ParametricCurve(2.4, 1.0/1.055, 0.055/1.055, 1.0/12.92, 0.04045)
}

// ProPhotoCurve is the ROMM RGB transfer function (gamma 1.8 with a
// linear toe below 1/32).
func ProPhotoCurve() *ToneCurve {
	return ParametricCurve(1.8, 1.0, 0.0, 1.0/16.0, 0.03125)
}

// Rec709Curve is the Rec. 709 / Rec. 2020 transfer function (the ITU
// power-0.45 camera OETF inverted to the decode direction).
func Rec709Curve() *ToneCurve {
	return ParametricCurve(1.0/0.45, 1.0/1.0993, 0.0993/1.0993, 1.0/4.5, 4.5*0.0181)
}

// IsLinear reports whether the curve is the identity.
func (tc *ToneCurve) IsLinear() bool {
	return tc == nil || tc.kind == CurveLinear
}

// Eval maps an encoded value to linear light. Inputs above 1.0 are
// evaluated analytically for the gamma and parametric forms; the table
// form clamps to its last sample.
func (tc *ToneCurve) Eval(x float32) float32 {
	if tc == nil {
		return x
	}
	switch tc.kind {
	case CurveLinear:
		return x
	case CurveGamma:
		if x <= 0 {
			return 0
		}
		return float32(math.Pow(float64(x), tc.gamma))
	case CurveParametric:
		xf := float64(x)
		if xf < tc.d {
			return float32(tc.c * xf)
		}
		base := tc.a*xf + tc.b
		if base <= 0 {
			return 0
		}
		return float32(math.Pow(base, tc.g))
	case CurveTable:
		return evalTable(tc.table, x)
	}
	return x
}

// EvalInverse maps linear light back to the encoded value.
func (tc *ToneCurve) EvalInverse(y float32) float32 {
	if tc == nil {
		return y
	}
	switch tc.kind {
	case CurveLinear:
		return y
	case CurveGamma:
		if y <= 0 {
			return 0
		}
		return float32(math.Pow(float64(y), 1.0/tc.gamma))
	case CurveParametric:
		yf := float64(y)
		if yf < tc.c*tc.d {
			if tc.c == 0 {
				return 0
			}
			return float32(yf / tc.c)
		}
		if yf <= 0 {
			return 0
		}
		return float32((math.Pow(yf, 1.0/tc.g) - tc.b) / tc.a)
	case CurveTable:
		return invertTable(tc.table, y)
	}
	return y
}

func evalTable(table []float32, x float32) float32 {
	n := len(table)
	if n == 0 {
		return x
	}
	if x <= 0 {
		return table[0]
	}
	if x >= 1 {
		return table[n-1]
	}
	pos := x * float32(n-1)
	i := int(pos)
	frac := pos - float32(i)
	return table[i] + frac*(table[i+1]-table[i])
}

// invertTable assumes a monotonically non-decreasing table.
func invertTable(table []float32, y float32) float32 {
	n := len(table)
	if n == 0 {
		return y
	}
	if y <= table[0] {
		return 0
	}
	if y >= table[n-1] {
		return 1
	}
	i := sort.Search(n, func(i int) bool { return table[i] >= y })
	lo, hi := table[i-1], table[i]
	frac := float32(0)
	if hi > lo {
		frac = (y - lo) / (hi - lo)
	}
	return (float32(i-1) + frac) / float32(n-1)
}
