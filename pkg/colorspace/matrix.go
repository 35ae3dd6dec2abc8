package colorspace

import "math"

// Matrix3x3 is a row-major 3x3 color matrix.
type Matrix3x3 [9]float32

// Identity is the 3x3 identity matrix.
var Identity = Matrix3x3{
	1, 0, 0,
	0, 1, 0,
	0, 0, 1,
}

// Bradford is the Bradford cone response matrix used for chromatic
// adaptation between white points.
var Bradford = Matrix3x3{
	0.8951, 0.2664, -0.1614,
	-0.7502, 1.7135, 0.0367,
	0.0389, -0.0685, 1.0296,
}

// Apply multiplies the matrix by a column vector.
func (m Matrix3x3) Apply(v [3]float32) [3]float32 {
	return [3]float32{
		m[0]*v[0] + m[1]*v[1] + m[2]*v[2],
		m[3]*v[0] + m[4]*v[1] + m[5]*v[2],
		m[6]*v[0] + m[7]*v[1] + m[8]*v[2],
	}
}

// Mul returns m*n (apply n first, then m).
func (m Matrix3x3) Mul(n Matrix3x3) Matrix3x3 {
	var out Matrix3x3
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			var sum float32
			for k := 0; k < 3; k++ {
				sum += m[r*3+k] * n[k*3+c]
			}
			out[r*3+c] = sum
		}
	}
	return out
}

// Invert returns the inverse via the cofactor expansion. ok is false when
// the determinant is too close to zero for a stable inverse.
func (m Matrix3x3) Invert() (Matrix3x3, bool) {
	// float64 intermediates keep the cofactors stable for near-singular input
	a, b, c := float64(m[0]), float64(m[1]), float64(m[2])
	d, e, f := float64(m[3]), float64(m[4]), float64(m[5])
	g, h, i := float64(m[6]), float64(m[7]), float64(m[8])

	ca := e*i - f*h
	cb := f*g - d*i
	cc := d*h - e*g
	det := a*ca + b*cb + c*cc
	if math.Abs(det) < 1e-12 {
		return Matrix3x3{}, false
	}
	inv := 1.0 / det
	return Matrix3x3{
		float32(ca * inv), float32((c*h - b*i) * inv), float32((b*f - c*e) * inv),
		float32(cb * inv), float32((a*i - c*g) * inv), float32((c*d - a*f) * inv),
		float32(cc * inv), float32((b*g - a*h) * inv), float32((a*e - b*d) * inv),
	}, true
}

// IsIdentity reports whether the matrix is the identity within eps.
func (m Matrix3x3) IsIdentity(eps float32) bool {
	for i, v := range m {
		want := float32(0)
		if i%4 == 0 {
			want = 1
		}
		if diff := v - want; diff > eps || diff < -eps {
			return false
		}
	}
	return true
}

// Adapt returns the Bradford chromatic adaptation matrix taking colors
// from the srcWhite XYZ white point to dstWhite.
func Adapt(srcWhite, dstWhite [3]float32) Matrix3x3 {
	coneSrc := Bradford.Apply(srcWhite)
	coneDst := Bradford.Apply(dstWhite)
	scale := Matrix3x3{
		coneDst[0] / coneSrc[0], 0, 0,
		0, coneDst[1] / coneSrc[1], 0,
		0, 0, coneDst[2] / coneSrc[2],
	}
	inv, _ := Bradford.Invert()
	return inv.Mul(scale).Mul(Bradford)
}
