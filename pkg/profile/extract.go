package profile

import (
	"math"

	"github.com/jpfielding/colorpipe.go/pkg/cms"
	"github.com/jpfielding/colorpipe.go/pkg/colorspace"
)

// DefaultLutSize is the tone-table resolution used by the cache unless
// overridden.
const DefaultLutSize = 65536

// middleGrey is the 18.45% reference patch used to anchor exposure
// across profiles.
const middleGrey = 0.1845

// extract derives the fast matrix+LUT approximation from an engine
// handle. Failure to extract is not an error: the record simply
// carries no matrices and consumers fall back to the full transform.
func extract(key Key, p cms.Profile, lutSize int) *Info {
	info := &Info{key: key, profile: p}
	if p == nil {
		return info
	}
	info.desc = p.Description()

	switch p.ColorModel() {
	case cms.ModelLab, cms.ModelXYZ:
		info.pcs = true
		info.grey = middleGrey
		return info
	case cms.ModelRGB:
	default:
		// non-RGB models carry no usable matrix; callers substitute
		return info
	}

	mp, ok := p.(cms.MatrixProfile)
	if !ok {
		info.grey = colorspace.Luminance([3]float32{middleGrey, middleGrey, middleGrey})
		return info
	}

	matIn, ok := mp.RGBToXYZ()
	if ok {
		matOut, invertible := matIn.Invert()
		if invertible {
			info.matIn, info.matOut, info.haveMatrix = matIn, matOut, true
		}
	}

	for ch := 0; ch < 3; ch++ {
		curve := mp.TRC(ch)
		if curve.IsLinear() {
			continue
		}
		info.nonlinear++
		info.lutIn[ch] = sampleCurve(curve.Eval, lutSize)
		info.lutOut[ch] = sampleCurve(curve.EvalInverse, lutSize)
		info.unboundedIn[ch] = fitUnbounded(info.lutIn[ch])
		info.unboundedOut[ch] = fitUnbounded(info.lutOut[ch])
	}

	grey := [3]float32{
		info.ApplyLutIn(0, middleGrey),
		info.ApplyLutIn(1, middleGrey),
		info.ApplyLutIn(2, middleGrey),
	}
	info.grey = info.Luminance(grey)
	return info
}

func sampleCurve(f func(float32) float32, size int) []float32 {
	out := make([]float32, size)
	for i := range out {
		out[i] = f(float32(i) / float32(size-1))
	}
	return out
}

// fitUnbounded fits y = y1 * x^g to the curve near x=1, constrained
// through the last table sample so the extrapolation is continuous at
// the domain boundary. The fit uses the samples at x = 0.7, 0.8, 0.9
// and 1.0. coeffs are {g, y1, ok}; ok=0 marks an unfittable curve,
// which clamps instead.
func fitUnbounded(lut []float32) [3]float32 {
	n := len(lut)
	y1 := lut[n-1]
	if y1 <= 0 {
		return [3]float32{0, y1, 0}
	}
	var num, den float64
	for _, x := range []float64{0.7, 0.8, 0.9} {
		y := lut[int(x*float64(n-1))]
		if y <= 0 {
			return [3]float32{0, y1, 0}
		}
		lx := math.Log(x)
		num += (math.Log(float64(y)) - math.Log(float64(y1))) * lx
		den += lx * lx
	}
	g := num / den
	if math.IsNaN(g) || math.IsInf(g, 0) || g <= 0 {
		return [3]float32{0, y1, 0}
	}
	return [3]float32{float32(g), y1, 1}
}

// lutEval samples the table for x in [0,1) and switches to the fitted
// exponential model at and beyond 1.0. A nil table is the identity.
func lutEval(lut []float32, coeffs [3]float32, x float32) float32 {
	if lut == nil {
		return x
	}
	n := len(lut)
	if x < 0 {
		return lut[0]
	}
	if x >= 1 {
		if coeffs[2] == 0 {
			return coeffs[1] // unfittable: clamp to the boundary value
		}
		return coeffs[1] * float32(math.Pow(float64(x), float64(coeffs[0])))
	}
	pos := x * float32(n-1)
	i := int(pos)
	if i >= n-1 { // float rounding at the top of the domain
		return lut[n-1]
	}
	frac := pos - float32(i)
	return lut[i] + frac*(lut[i+1]-lut[i])
}
