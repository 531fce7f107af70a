package resolve

import (
	"math"
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/umbra-gfx/umbra-go/common"
	"github.com/umbra-gfx/umbra-go/stage/camera"
	"github.com/umbra-gfx/umbra-go/stage/glyph"
	"github.com/umbra-gfx/umbra-go/stage/instance"
	"github.com/umbra-gfx/umbra-go/stage/light"
	"github.com/umbra-gfx/umbra-go/stage/node"
)

func identityBlock() camera.GPUCameraBlock {
	var block camera.GPUCameraBlock
	common.Identity(block.Projection[:])
	common.Identity(block.View[:])
	common.Identity(block.YCorrection[:])
	return block
}

func translation(x, y, z float32) [16]float32 {
	var m [16]float32
	common.BuildModelMatrix(m[:], x, y, z, 0, 0, 0, 1, 1, 1)
	return m
}

func scaling(x, y, z float32) [16]float32 {
	var m [16]float32
	common.BuildModelMatrix(m[:], 0, 0, 0, 0, 0, 0, x, y, z)
	return m
}

func requireVec4InDelta(t *testing.T, want, got [4]float32, delta float64) {
	t.Helper()
	for i := range want {
		require.InDelta(t, want[i], got[i], delta)
	}
}

func TestTransformResolverIdentityChain(t *testing.T) {
	var model [16]float32
	common.Identity(model[:])

	r := NewTransformResolver(identityBlock(), model)
	require.Equal(t, [4]float32{1, 0, 0, 1}, r.ResolveVertex([3]float32{1, 0, 0}))
}

func TestTransformResolverComposesCameraLast(t *testing.T) {
	block := identityBlock()
	block.Projection = scaling(2, 2, 2)

	// Scale-then-translate and translate-then-scale disagree, so the vertex
	// position pins the composition order.
	r := NewTransformResolver(block, translation(1, 0, 0))
	require.Equal(t, [4]float32{2, 0, 0, 1}, r.ResolveVertex([3]float32{0, 0, 0}))
}

func TestTransformResolverDynamicComposesFirst(t *testing.T) {
	r := NewTransformResolver(identityBlock(), scaling(2, 2, 2),
		WithDynamicTransform(node.GPUNodeTransform{Model: translation(0, 1, 0)}))
	require.Equal(t, [4]float32{0, 2, 0, 1}, r.ResolveVertex([3]float32{0, 0, 0}))
}

func TestTransformResolverDynamicDefaultsToIdentity(t *testing.T) {
	with := NewTransformResolver(identityBlock(), translation(3, 0, 0))
	without := NewTransformResolver(identityBlock(), translation(3, 0, 0),
		WithDynamicTransform(node.GPUNodeTransform{Model: translation(0, 0, 0)}))
	require.Equal(t, without.Matrix(), with.Matrix())
}

func TestTransformResolverAppliesYCorrectionLast(t *testing.T) {
	block := identityBlock()
	block.YCorrection = scaling(1, -1, 1)

	r := NewTransformResolver(block, translation(0, 1, 0))
	require.Equal(t, [4]float32{0, -1, 0, 1}, r.ResolveVertex([3]float32{0, 0, 0}))
}

func TestTransformResolverMatchesManualComposition(t *testing.T) {
	var proj, view [16]float32
	common.Perspective(proj[:], math32.Pi/3, 16.0/9.0, 0.1, 100)
	common.LookAt(view[:], 0, 2, 5, 0, 0, 0, 0, 1, 0)

	block := identityBlock()
	block.Projection = proj
	block.View = view
	model := translation(1, 2, 3)
	dynamic := scaling(0.5, 0.5, 0.5)

	var want [16]float32
	common.Mul4(want[:], proj[:], view[:])
	common.Mul4(want[:], want[:], model[:])
	common.Mul4(want[:], want[:], dynamic[:])

	r := NewTransformResolver(block, model,
		WithDynamicTransform(node.GPUNodeTransform{Model: dynamic}))
	got := r.Matrix()
	for i := range want {
		require.InDelta(t, want[i], got[i], 1e-5)
	}
}

func TestInstanceSelectorLayerRoundTrip(t *testing.T) {
	var model [16]float32
	common.Identity(model[:])

	records := make([]instance.GPUInstanceRecord, 0, instance.DefaultCapacity)
	for i := 0; i < instance.DefaultCapacity; i++ {
		records = append(records, instance.NewRecord(model, float32(i)))
	}
	s := NewInstanceSelector(identityBlock(), records)

	require.Equal(t, instance.DefaultCapacity, s.Count())
	for i := 0; i < s.Count(); i++ {
		layer := s.Layer(i)
		require.Equal(t, math.Float32bits(float32(i)), math.Float32bits(layer))
		require.Equal(t, i, int(layer))
	}
}

func TestInstanceSelectorLayerPassthroughIsBitExact(t *testing.T) {
	var model [16]float32
	common.Identity(model[:])

	// The selector never inspects the value, so even a non-integer layer
	// survives untouched.
	odd := float32(math.Pi)
	s := NewInstanceSelector(identityBlock(), []instance.GPUInstanceRecord{
		instance.NewRecord(model, odd),
	})
	require.Equal(t, math.Float32bits(odd), math.Float32bits(s.Layer(0)))
}

func TestInstanceSelectorWorldPosition(t *testing.T) {
	block := identityBlock()
	block.View = translation(0, 0, -5)

	records := []instance.GPUInstanceRecord{
		instance.NewRecord(translation(0, 0, 0), 0),
		instance.NewRecord(translation(1, 0, 0), 1),
		instance.NewRecord(translation(2, 0, 0), 2),
	}
	s := NewInstanceSelector(block, records)
	for i := range records {
		requireVec4InDelta(t, [4]float32{float32(i), 0, -5, 1}, s.WorldPosition(i, [3]float32{0, 0, 0}), 1e-6)
	}
}

func TestInstanceSelectorSampleCoord(t *testing.T) {
	var model [16]float32
	common.Identity(model[:])

	s := NewInstanceSelector(identityBlock(), []instance.GPUInstanceRecord{
		instance.NewRecord(model, 7),
	})
	require.Equal(t, [3]float32{0.25, 0.75, 7}, s.SampleCoord(0, [2]float32{0.25, 0.75}))
}

func TestInstanceSelectorClipMatchesTransformResolver(t *testing.T) {
	var proj, view [16]float32
	common.Perspective(proj[:], math32.Pi/4, 4.0/3.0, 0.1, 50)
	common.LookAt(view[:], 3, 3, 3, 0, 0, 0, 0, 1, 0)

	block := identityBlock()
	block.Projection = proj
	block.View = view

	records := []instance.GPUInstanceRecord{
		instance.NewRecord(translation(-1, 0, 2), 0),
		instance.NewRecord(translation(4, -2, 1), 1),
	}
	s := NewInstanceSelector(block, records)

	vertex := [3]float32{0.5, 1, -0.25}
	for i, rec := range records {
		want := NewTransformResolver(block, rec.Model).ResolveVertex(vertex)
		requireVec4InDelta(t, want, s.ClipPosition(i, vertex), 1e-5)
	}
}

func TestLightAccumulatorTwoLightScenario(t *testing.T) {
	var model [16]float32
	common.Identity(model[:])

	records := []light.GPULightRecord{
		{Position: [3]float32{1, 0, 0}, Radius: 5},
		{Position: [3]float32{0, 1, 0}, Radius: 2},
	}
	a := NewLightAccumulator(records, model)
	out := a.Accumulate([3]float32{0, 0, 0})
	require.Equal(t, [][4]float32{{1, 0, 0, 5}, {0, 1, 0, 2}}, out)
}

func TestLightAccumulatorPreservesOrderAtFullBudget(t *testing.T) {
	var model [16]float32
	common.Identity(model[:])

	records := make([]light.GPULightRecord, 0, light.MaxLights)
	for i := 0; i < light.MaxLights; i++ {
		records = append(records, light.GPULightRecord{
			Position: [3]float32{float32(i + 1), 0, 0},
			Radius:   float32(i),
		})
	}
	a := NewLightAccumulator(records, model)

	frag := [3]float32{1, 1, 1}
	out := a.Accumulate(frag)
	require.Len(t, out, light.MaxLights)
	for i := range out {
		require.Equal(t, [4]float32{float32(i + 1) - 1, -1, -1, float32(i)}, out[i])
	}
}

func TestLightAccumulatorCarriesRadiusBitExact(t *testing.T) {
	var model [16]float32
	common.Identity(model[:])

	a := NewLightAccumulator([]light.GPULightRecord{
		{Position: [3]float32{0, 0, 0}, Radius: 0.1},
	}, model)
	out := a.Accumulate([3]float32{2, 0, 0})
	require.Equal(t, math.Float32bits(0.1), math.Float32bits(out[0][3]))
}

func TestLightAccumulatorNormalMatrixIsDirectBlock(t *testing.T) {
	model := scaling(1, 2, 3)
	a := NewLightAccumulator(nil, model)

	// The direct block, not the inverse-transpose: non-uniform scale factors
	// appear verbatim on the diagonal.
	require.Equal(t, [9]float32{1, 0, 0, 0, 2, 0, 0, 0, 3}, a.NormalMatrix())
}

func TestLightAccumulatorTransformNormalNormalizes(t *testing.T) {
	a := NewLightAccumulator(nil, scaling(2, 2, 2))
	got := a.TransformNormal([3]float32{0, 0, 1})
	requireVec3InDelta(t, [3]float32{0, 0, 1}, got, 1e-6)

	require.Equal(t, [3]float32{0, 0, 0}, a.TransformNormal([3]float32{0, 0, 0}))
}

func requireVec3InDelta(t *testing.T, want, got [3]float32, delta float64) {
	t.Helper()
	for i := range want {
		require.InDelta(t, want[i], got[i], delta)
	}
}

// flatAlphaResource samples a constant coverage everywhere, pinning the
// cutoff boundary independent of font rasterization.
type flatAlphaResource struct {
	alpha float32
}

func (r flatAlphaResource) Mode() glyph.Mode {
	return glyph.ModeAtlas
}

func (r flatAlphaResource) Locate(_ uint32, uv [2]float32) glyph.SampleCoord {
	return glyph.SampleCoord{UV: uv}
}

func (r flatAlphaResource) Sample(glyph.SampleCoord) [4]float32 {
	return [4]float32{1, 1, 1, r.alpha}
}

func (r flatAlphaResource) TextureCount() int {
	return 1
}

func TestGlyphIndexerCutoffBoundary(t *testing.T) {
	white := [4]float32{1, 1, 1, 1}
	uv := [2]float32{0.5, 0.5}

	color, keep := NewGlyphIndexer(flatAlphaResource{alpha: 0.3}).Shade(0, uv, white)
	require.False(t, keep)
	require.Equal(t, [4]float32{1, 1, 1, 0.3}, color)

	color, keep = NewGlyphIndexer(flatAlphaResource{alpha: 0.300001}).Shade(0, uv, white)
	require.True(t, keep)
	require.Equal(t, float32(0.300001), color[3])
}

func TestGlyphIndexerCutoffAppliesToTintedAlpha(t *testing.T) {
	// Coverage alone passes the cutoff; tinting halves it onto the boundary.
	indexer := NewGlyphIndexer(flatAlphaResource{alpha: 0.6})
	_, keep := indexer.Shade(0, [2]float32{0, 0}, [4]float32{1, 1, 1, 1})
	require.True(t, keep)

	color, keep := indexer.Shade(0, [2]float32{0, 0}, [4]float32{1, 1, 1, 0.5})
	require.False(t, keep)
	require.Equal(t, float32(0.6)*float32(0.5), color[3])
}

func TestGlyphIndexerShadesRealGlyphInBothModes(t *testing.T) {
	src, err := glyph.NewFontSource(goregular.TTF)
	require.NoError(t, err)

	atl, err := glyph.BuildAtlas(src, 32, nil)
	require.NoError(t, err)
	arr, err := glyph.BuildArray(src, 32, nil)
	require.NoError(t, err)

	tint := [4]float32{1, 0.5, 0.25, 1}
	for _, f := range []glyph.Font{atl, arr} {
		id, ok := f.GlyphID('.')
		require.True(t, ok)

		met := f.Metrics(id)
		q := f.QuadUV(id)
		indexer := NewGlyphIndexer(f)

		kept := 0
		for y := 0; y < int(met.Height); y++ {
			for x := 0; x < int(met.Width); x++ {
				u := q[0] + (float32(x)+0.5)/met.Width*(q[2]-q[0])
				v := q[1] + (float32(y)+0.5)/met.Height*(q[3]-q[1])
				color, keep := indexer.Shade(id, [2]float32{u, v}, tint)
				sample := f.Sample(f.Locate(id, [2]float32{u, v}))
				require.Equal(t, tint[1]*sample[1], color[1])
				if keep {
					kept++
					require.Greater(t, color[3], AlphaCutoff)
				}
			}
		}
		require.Greater(t, kept, 0)
	}
}

func TestGlyphIndexerArrayModeAddressesLastElement(t *testing.T) {
	src, err := glyph.NewFontSource(goregular.TTF)
	require.NoError(t, err)
	arr, err := glyph.BuildArray(src, 32, nil)
	require.NoError(t, err)

	// Id 127 is the last addressable layer: it resolves and samples (empty,
	// so it discards) without any clamping or range check in the stage.
	indexer := NewGlyphIndexer(arr)
	color, keep := indexer.Shade(glyph.DefaultTextureCount-1, [2]float32{0.5, 0.5}, [4]float32{1, 1, 1, 1})
	require.False(t, keep)
	require.Equal(t, float32(0), color[3])

	// Id 128 is out of contract and is caught by the host gate, never here.
	require.NoError(t, glyph.ValidateRun([]uint32{glyph.DefaultTextureCount - 1}, arr))
	require.ErrorIs(t, glyph.ValidateRun([]uint32{glyph.DefaultTextureCount}, arr), glyph.ErrGlyphIndex)
}
