package colorspace

// Luminance approximates camera-RGB luminance with fixed weights.
func Luminance(rgb [3]float32) float32 {
	return 0.2225*rgb[0] + 0.7169*rgb[1] + 0.0606*rgb[2]
}

// MatrixLuminance computes luminance from the Y row of an RGB->XYZ
// matrix. This keeps luminance colorimetrically correct for non-sRGB
// working spaces; callers fall back to Luminance when no matrix is
// available.
func MatrixLuminance(rgb [3]float32, toXYZ Matrix3x3) float32 {
	return toXYZ[3]*rgb[0] + toXYZ[4]*rgb[1] + toXYZ[5]*rgb[2]
}
