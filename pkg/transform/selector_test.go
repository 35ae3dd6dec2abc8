package transform

import (
	"testing"

	"github.com/jpfielding/colorpipe.go/pkg/cms"
	"github.com/jpfielding/colorpipe.go/pkg/pixel"
	"github.com/jpfielding/colorpipe.go/pkg/profile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSetup(t *testing.T) (*Selector, *profile.Cache) {
	t.Helper()
	engine := cms.NewBuiltinEngine()
	cache := profile.NewCache(engine, profile.WithLutSize(4096))
	return NewSelector(engine, 4), cache
}

func TestSelect(t *testing.T) {
	_, cache := testSetup(t)
	srgb := cache.GetOrCreate(profile.KindSRGB, "", cms.IntentRelativeColorimetric)
	lab := cache.GetOrCreate(profile.KindLab, "", cms.IntentRelativeColorimetric)

	key := profile.Key{Kind: profile.KindEmbedded, Filename: "lutty.icc"}
	cache.Register(key, lutOnlyProfile{})
	lutty := cache.GetOrCreate(key.Kind, key.Filename, key.Intent)

	assert.Equal(t, PathCopy, Select(4, lab), "connection-space endpoint short-circuits")
	assert.Equal(t, PathMatrix, Select(4, srgb))
	assert.Equal(t, PathMono, Select(1, srgb))
	assert.Equal(t, PathFull, Select(4, lutty), "no matrices forces the engine path")
}

func TestRGBToLab_WhiteBuffer(t *testing.T) {
	sel, cache := testSetup(t)
	info := cache.GetOrCreate(profile.KindSRGB, "", cms.IntentRelativeColorimetric)

	buf := pixel.NewBuffer(4, 4, 4)
	for i := 0; i < len(buf.Data); i += 4 {
		buf.Data[i], buf.Data[i+1], buf.Data[i+2], buf.Data[i+3] = 1, 1, 1, 1
	}
	require.NoError(t, sel.RGBToLab(buf, info))

	for i := 0; i < len(buf.Data); i += 4 {
		assert.InDelta(t, 100.0, buf.Data[i], 0.01, "L at pixel %d", i/4)
		assert.InDelta(t, 0.0, buf.Data[i+1], 0.01, "a at pixel %d", i/4)
		assert.InDelta(t, 0.0, buf.Data[i+2], 0.01, "b at pixel %d", i/4)
		assert.Equal(t, float32(1), buf.Data[i+3], "alpha untouched at pixel %d", i/4)
	}
}

func TestRGBToLab_RoundTrip(t *testing.T) {
	sel, cache := testSetup(t)
	info := cache.GetOrCreate(profile.KindProPhoto, "", cms.IntentRelativeColorimetric)

	buf := pixel.NewBuffer(8, 8, 4)
	for i := 0; i < len(buf.Data); i += 4 {
		px := i / 4
		buf.Data[i] = float32(px%8) / 8.0
		buf.Data[i+1] = float32(px/8) / 8.0
		buf.Data[i+2] = 0.5
		buf.Data[i+3] = 1
	}
	want := buf.Clone()

	require.NoError(t, sel.RGBToLab(buf, info))
	require.NoError(t, sel.LabToRGB(buf, info))

	for i := range buf.Data {
		assert.InDelta(t, want.Data[i], buf.Data[i], 1e-4, "round trip index %d", i)
	}
}

func TestMatrixPath_AgreesWithEnginePath(t *testing.T) {
	// the fast matrix approximation must track the full engine
	// transform; 1e-3 on L,a,b was chosen against the builtin engine
	sel, cache := testSetup(t)
	info := cache.GetOrCreate(profile.KindSRGB, "", cms.IntentRelativeColorimetric)

	samples := []float32{
		1, 1, 1, 1,
		0.1, 0.2, 0.3, 1,
		0.8, 0.5, 0.05, 1,
		0.02, 0.02, 0.9, 1,
	}

	fast := pixel.NewBuffer(4, 1, 4)
	copy(fast.Data, samples)
	require.NoError(t, sel.RGBToLab(fast, info))

	engine := cms.NewBuiltinEngine()
	srgb, err := engine.OpenBuiltin(cms.ProfileSRGB)
	require.NoError(t, err)
	lab, err := engine.OpenBuiltin(cms.ProfileLab)
	require.NoError(t, err)
	tr, err := engine.NewTransform(srgb, lab, cms.IntentRelativeColorimetric)
	require.NoError(t, err)
	ref := make([]float32, len(samples))
	tr.Apply(ref, samples, 4)

	for i := range ref {
		assert.InDelta(t, ref[i], fast.Data[i], 1e-3, "strategy equivalence index %d", i)
	}
}

func TestFullPath_UsedWithoutMatrices(t *testing.T) {
	// stubEngine accepts the LUT-only handle, so the selector's engine
	// path runs for real
	engine := stubEngine{cms.NewBuiltinEngine()}
	cache := profile.NewCache(engine, profile.WithLutSize(4096))
	sel := NewSelector(engine, 2)

	key := profile.Key{Kind: profile.KindEmbedded, Filename: "srgb-lut.icc"}
	cache.Register(key, lutOnlyProfile{})
	info := cache.GetOrCreate(key.Kind, key.Filename, key.Intent)
	_, _, ok := info.Matrices()
	require.False(t, ok)

	buf := pixel.NewBuffer(2, 2, 4)
	for i := 0; i < len(buf.Data); i += 4 {
		buf.Data[i], buf.Data[i+1], buf.Data[i+2], buf.Data[i+3] = 1, 1, 1, 1
	}
	require.NoError(t, sel.RGBToLab(buf, info))
	assert.InDelta(t, 100.0, buf.Data[0], 0.01, "engine path still lands on L=100")
}

func TestFullPath_FallsBackWhenEngineRefuses(t *testing.T) {
	// the builtin engine cannot transform a LUT-only handle; the
	// selector substitutes linear Rec. 2020 rather than failing
	sel, cache := testSetup(t)
	key := profile.Key{Kind: profile.KindEmbedded, Filename: "lutty.icc"}
	cache.Register(key, lutOnlyProfile{})
	info := cache.GetOrCreate(key.Kind, key.Filename, key.Intent)

	buf := pixel.NewBuffer(2, 1, 4)
	buf.Data = []float32{1, 1, 1, 1, 0, 0, 0, 1}
	require.NoError(t, sel.RGBToLab(buf, info))
	assert.InDelta(t, 100.0, buf.Data[0], 0.01, "substituted profile maps white to L=100")
	assert.InDelta(t, 0.0, buf.Data[4], 0.01, "black stays L=0")
}

func TestRGBToRGB(t *testing.T) {
	sel, cache := testSetup(t)
	srgb := cache.GetOrCreate(profile.KindSRGB, "", cms.IntentRelativeColorimetric)
	srgb2 := cache.GetOrCreate(profile.KindSRGB, "", cms.IntentPerceptual)
	prophoto := cache.GetOrCreate(profile.KindLinProPhoto, "", cms.IntentRelativeColorimetric)

	buf := pixel.NewBuffer(2, 1, 4)
	buf.Data = []float32{0.5, 0.5, 0.5, 1, 0.9, 0.1, 0.3, 1}
	orig := append([]float32(nil), buf.Data...)

	assert.Equal(t, PathCopy, sel.RGBToRGB(buf, srgb, srgb2), "same identity")
	assert.Equal(t, orig, buf.Data, "copy path leaves pixels alone")

	assert.Equal(t, PathMatrix, sel.RGBToRGB(buf, srgb, prophoto))
	assert.InDelta(t, buf.Data[0], buf.Data[1], 1e-3, "neutral stays neutral")

	// either endpoint without matrices: silently unavailable
	key := profile.Key{Kind: profile.KindEmbedded, Filename: "lutty.icc"}
	cache.Register(key, lutOnlyProfile{})
	lutty := cache.GetOrCreate(key.Kind, key.Filename, key.Intent)
	before := append([]float32(nil), buf.Data...)
	assert.Equal(t, PathNone, sel.RGBToRGB(buf, lutty, prophoto))
	assert.Equal(t, before, buf.Data, "unavailable transform leaves pixels alone")
}

func TestMonoPath(t *testing.T) {
	sel, cache := testSetup(t)
	info := cache.GetOrCreate(profile.KindSRGB, "", cms.IntentRelativeColorimetric)

	buf := pixel.NewBuffer(3, 1, 1)
	buf.Data = []float32{0.0, 0.18, 1.0}
	require.NoError(t, sel.RGBToLab(buf, info))
	assert.InDelta(t, 0.0, buf.Data[0], 0.01, "black maps to L=0")
	assert.InDelta(t, 100.0, buf.Data[2], 0.01, "unit luminance maps to L=100")

	require.NoError(t, sel.LabToRGB(buf, info))
	assert.InDelta(t, 0.18, buf.Data[1], 1e-4, "mono round trip")
}

func TestParallelRowsMatchSequential(t *testing.T) {
	engine := cms.NewBuiltinEngine()
	cache := profile.NewCache(engine, profile.WithLutSize(4096))
	info := cache.GetOrCreate(profile.KindSRGB, "", cms.IntentRelativeColorimetric)

	buf := pixel.NewBuffer(16, 33, 4)
	for i := range buf.Data {
		buf.Data[i] = float32(i%97) / 97.0
	}
	par := buf.Clone()

	require.NoError(t, NewSelector(engine, 1).RGBToLab(buf, info))
	require.NoError(t, NewSelector(engine, 8).RGBToLab(par, info))
	assert.Equal(t, buf.Data, par.Data, "row fan-out is bit-identical to sequential")
}

// lutOnlyProfile is RGB without an analytic matrix shape, so matrix
// extraction fails and the selector has to use the engine.
type lutOnlyProfile struct{}

func (lutOnlyProfile) Description() string        { return "lut-only rgb" }
func (lutOnlyProfile) ColorModel() cms.ColorModel { return cms.ModelRGB }

// stubEngine stands in for an external engine that can evaluate
// profiles the builtin one cannot: LUT-only RGB handles are routed
// through the real sRGB stage.
type stubEngine struct {
	*cms.BuiltinEngine
}

func (e stubEngine) NewTransform(src, dst cms.Profile, intent cms.Intent) (cms.Transform, error) {
	if _, ok := src.(cms.MatrixProfile); !ok && src.ColorModel() == cms.ModelRGB {
		src, _ = e.BuiltinEngine.OpenBuiltin(cms.ProfileSRGB)
	}
	if _, ok := dst.(cms.MatrixProfile); !ok && dst.ColorModel() == cms.ModelRGB {
		dst, _ = e.BuiltinEngine.OpenBuiltin(cms.ProfileSRGB)
	}
	return e.BuiltinEngine.NewTransform(src, dst, intent)
}
