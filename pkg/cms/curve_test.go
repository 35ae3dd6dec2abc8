package cms

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToneCurve_RoundTrip(t *testing.T) {
	curves := map[string]*ToneCurve{
		"linear":   LinearCurve(),
		"gamma2.2": GammaCurve(2.2),
		"srgb":     SRGBCurve(),
		"prophoto": ProPhotoCurve(),
		"rec709":   Rec709Curve(),
	}
	for name, tc := range curves {
		for _, x := range []float32{0, 0.001, 0.01, 0.18, 0.5, 0.999, 1} {
			y := tc.Eval(x)
			back := tc.EvalInverse(y)
			assert.InDelta(t, x, back, 1e-5, "%s round trip at %v", name, x)
		}
	}
}

func TestToneCurve_SRGBAnchors(t *testing.T) {
	tc := SRGBCurve()
	assert.InDelta(t, 0.0, tc.Eval(0), 1e-7, "black")
	assert.InDelta(t, 1.0, tc.Eval(1), 1e-6, "white")
	// 50% encoded sRGB is about 21.4% linear
	assert.InDelta(t, 0.2140, tc.Eval(0.5), 1e-3, "mid grey")
	// continuity at the linear/power split
	assert.InDelta(t, tc.Eval(0.04045), tc.Eval(0.040451), 1e-5, "split continuity")
}

func TestToneCurve_Rec709Anchors(t *testing.T) {
	tc := Rec709Curve()
	assert.InDelta(t, 0.0, tc.Eval(0), 1e-7, "black")
	assert.InDelta(t, 1.0, tc.Eval(1), 1e-6, "white")
	// below the toe the ITU curve is V = 4.5 L
	assert.InDelta(t, 0.04/4.5, tc.Eval(0.04), 1e-6, "linear toe")
	// 50% encoded decodes to about 26% linear, visibly above sRGB's 21.4%
	assert.InDelta(t, 0.2598, tc.Eval(0.5), 1e-3, "mid grey")
	// continuity at L = 0.0181, where 4.5 L meets the power segment
	assert.InDelta(t, tc.Eval(0.08145), tc.Eval(0.081451), 1e-5, "split continuity")
}

func TestToneCurve_UnboundedAnalytic(t *testing.T) {
	// gamma and parametric forms keep growing past 1.0 instead of clamping
	for name, tc := range map[string]*ToneCurve{
		"gamma": GammaCurve(2.2),
		"srgb":  SRGBCurve(),
	} {
		at1 := tc.Eval(1.0)
		at12 := tc.Eval(1.2)
		assert.Greater(t, at12, at1, "%s must extend past 1.0", name)
	}
}

func TestToneCurve_Table(t *testing.T) {
	// table sampled from the sRGB curve must agree with the analytic form
	ref := SRGBCurve()
	samples := make([]float32, 1024)
	for i := range samples {
		samples[i] = ref.Eval(float32(i) / float32(len(samples)-1))
	}
	tc := TableCurve(samples)
	for _, x := range []float32{0, 0.1, 0.33, 0.5, 0.77, 1} {
		assert.InDelta(t, ref.Eval(x), tc.Eval(x), 1e-4, "table vs analytic at %v", x)
		assert.InDelta(t, x, tc.EvalInverse(tc.Eval(x)), 1e-3, "table round trip at %v", x)
	}
	// table form clamps beyond its domain
	assert.Equal(t, samples[len(samples)-1], tc.Eval(1.5), "table clamps above 1")
}

func TestToneCurve_IsLinear(t *testing.T) {
	require.True(t, LinearCurve().IsLinear())
	require.True(t, GammaCurve(1.0).IsLinear(), "gamma 1.0 collapses to linear")
	require.True(t, (*ToneCurve)(nil).IsLinear(), "nil curve is linear")
	require.False(t, SRGBCurve().IsLinear())
}
