package glyph

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/gofont/goregular"
)

func loadTestFont(t *testing.T) *FontSource {
	t.Helper()
	src, err := NewFontSource(goregular.TTF)
	require.NoError(t, err)
	return src
}

func TestNewFontSourceRejectsGarbage(t *testing.T) {
	_, err := NewFontSource([]byte("not a font"))
	require.Error(t, err)
}

func TestDefaultRunesCoverPrintableASCII(t *testing.T) {
	runes := DefaultRunes()
	require.Len(t, runes, 95)
	require.Equal(t, ' ', runes[0])
	require.Equal(t, '~', runes[len(runes)-1])
}

func TestGPUGlyphVertexLayout(t *testing.T) {
	v := GPUGlyphVertex{
		Position: [2]float32{1, 2},
		UV:       [2]float32{3, 4},
		Color:    [4]float32{5, 6, 7, 8},
		GlyphID:  9,
	}
	require.Equal(t, GPUGlyphVertexSize, v.Size())

	data := v.Marshal()
	require.Len(t, data, GPUGlyphVertexSize)
	require.Equal(t, float32(1), math.Float32frombits(binary.LittleEndian.Uint32(data[0:4])))
	require.Equal(t, float32(3), math.Float32frombits(binary.LittleEndian.Uint32(data[8:12])))
	require.Equal(t, float32(5), math.Float32frombits(binary.LittleEndian.Uint32(data[16:20])))
	require.Equal(t, uint32(9), binary.LittleEndian.Uint32(data[32:36]))
}

func TestBuildAtlasPacksGlyphs(t *testing.T) {
	src := loadTestFont(t)
	atl, err := BuildAtlas(src, 32, nil)
	require.NoError(t, err)
	require.Equal(t, ModeAtlas, atl.Mode())
	require.Equal(t, 95, atl.TextureCount())

	id, ok := atl.GlyphID('A')
	require.True(t, ok)
	met := atl.Metrics(id)
	require.Greater(t, met.Width, float32(0))
	require.Greater(t, met.Height, float32(0))
	require.Greater(t, met.Advance, float32(0))

	q := atl.QuadUV(id)
	require.Less(t, q[0], q[2])
	require.Less(t, q[1], q[3])
	for _, v := range q {
		require.GreaterOrEqual(t, v, float32(0))
		require.LessOrEqual(t, v, float32(1))
	}

	staging := atl.StagingData()
	require.Equal(t, uint32(1), staging.Layers)
	require.Equal(t, staging.Width, staging.Height)
	require.Zero(t, staging.Width&(staging.Width-1))
	require.Len(t, staging.Pixels, int(staging.Width*staging.Height))
}

func TestBuildAtlasSpaceAdvancesWithoutCoverage(t *testing.T) {
	src := loadTestFont(t)
	atl, err := BuildAtlas(src, 32, nil)
	require.NoError(t, err)

	id, ok := atl.GlyphID(' ')
	require.True(t, ok)
	met := atl.Metrics(id)
	require.Greater(t, met.Advance, float32(0))
	require.Zero(t, met.Width)
	require.Zero(t, met.Height)
	require.Equal(t, [4]float32{}, atl.QuadUV(id))
}

func TestBuildAtlasOverflowsPageCap(t *testing.T) {
	src := loadTestFont(t)
	_, err := BuildAtlas(src, 64, nil, WithMaxPageSize(64))
	require.ErrorIs(t, err, ErrResourceFull)
}

func TestBuildAtlasDeterministicAcrossWorkerCounts(t *testing.T) {
	src := loadTestFont(t)
	serial, err := BuildAtlas(src, 32, nil, WithBuildWorkers(1))
	require.NoError(t, err)
	parallel, err := BuildAtlas(src, 32, nil, WithBuildWorkers(8))
	require.NoError(t, err)

	require.Equal(t, serial.TextureCount(), parallel.TextureCount())
	require.Equal(t, serial.StagingData(), parallel.StagingData())
}

func TestBuildArrayAssignsLayers(t *testing.T) {
	src := loadTestFont(t)
	arr, err := BuildArray(src, 32, nil)
	require.NoError(t, err)
	require.Equal(t, ModeTextureArray, arr.Mode())
	require.Equal(t, DefaultTextureCount, arr.TextureCount())

	id, ok := arr.GlyphID('A')
	require.True(t, ok)
	require.Less(t, int(id), 95)

	staging := arr.StagingData()
	require.Equal(t, uint32(DefaultTextureCount), staging.Layers)
	require.Len(t, staging.Pixels, int(staging.Width*staging.Height*staging.Layers))
}

func TestBuildArrayOverflowsLayerBudget(t *testing.T) {
	src := loadTestFont(t)
	_, err := BuildArray(src, 32, nil, WithTextureCount(8))
	require.ErrorIs(t, err, ErrResourceFull)
}

func TestArrayLocatePassesIdAndUVThrough(t *testing.T) {
	src := loadTestFont(t)
	arr, err := BuildArray(src, 32, nil)
	require.NoError(t, err)

	uv := [2]float32{0.25, 0.75}
	for _, id := range []uint32{0, 94, 127, 128, 500} {
		c := arr.Locate(id, uv)
		require.Equal(t, math.Float32bits(uv[0]), math.Float32bits(c.UV[0]))
		require.Equal(t, math.Float32bits(uv[1]), math.Float32bits(c.UV[1]))
		require.Equal(t, float32(id), c.Layer)
	}
}

func TestArrayUnbuiltLayerSamplesTransparent(t *testing.T) {
	src := loadTestFont(t)
	arr, err := BuildArray(src, 32, nil)
	require.NoError(t, err)

	// 95 glyphs built, so the last layer of the 128 is empty but addressable.
	c := arr.Locate(DefaultTextureCount-1, [2]float32{0.5, 0.5})
	require.Equal(t, [4]float32{1, 1, 1, 0}, arr.Sample(c))
}

func TestValidateRunGatesCapacity(t *testing.T) {
	src := loadTestFont(t)
	arr, err := BuildArray(src, 32, nil)
	require.NoError(t, err)

	require.NoError(t, ValidateRun([]uint32{0, 94, 127}, arr))
	err = ValidateRun([]uint32{0, 128}, arr)
	require.ErrorIs(t, err, ErrGlyphIndex)
	require.ErrorContains(t, err, "128")

	atl, err := BuildAtlas(src, 32, nil)
	require.NoError(t, err)
	require.NoError(t, ValidateRun([]uint32{0, 94}, atl))
	require.ErrorIs(t, ValidateRun([]uint32{95}, atl), ErrGlyphIndex)
}

// sampleCoverage walks a glyph's texels through Locate and Sample using the
// uv rectangle layout would write into its quad.
func sampleCoverage(f Font, id uint32) []float32 {
	met := f.Metrics(id)
	w, h := int(met.Width), int(met.Height)
	q := f.QuadUV(id)
	out := make([]float32, 0, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			u := q[0] + (float32(x)+0.5)/float32(w)*(q[2]-q[0])
			v := q[1] + (float32(y)+0.5)/float32(h)*(q[3]-q[1])
			out = append(out, f.Sample(f.Locate(id, [2]float32{u, v}))[3])
		}
	}
	return out
}

func TestAtlasAndArrayModesSampleIdentically(t *testing.T) {
	src := loadTestFont(t)
	atl, err := BuildAtlas(src, 32, nil)
	require.NoError(t, err)
	arr, err := BuildArray(src, 32, nil)
	require.NoError(t, err)

	for _, r := range []rune{'A', 'g', '@', '.'} {
		atlID, ok := atl.GlyphID(r)
		require.True(t, ok)
		arrID, ok := arr.GlyphID(r)
		require.True(t, ok)
		require.Equal(t, atlID, arrID)
		require.Equal(t, atl.Metrics(atlID), arr.Metrics(arrID))

		atlCov := sampleCoverage(atl, atlID)
		arrCov := sampleCoverage(arr, arrID)
		require.Equal(t, atlCov, arrCov)
		require.NotEmpty(t, atlCov)
	}
}

func TestLayoutPlacesQuadsAndSkipsSpaces(t *testing.T) {
	src := loadTestFont(t)
	atl, err := BuildAtlas(src, 32, nil)
	require.NoError(t, err)

	tint := [4]float32{1, 0.5, 0.25, 1}
	run, err := Layout("A B", atl, 0, 100, tint)
	require.NoError(t, err)
	require.Len(t, run.Vertices, 12)
	require.Len(t, run.IDs, 2)

	idA, _ := atl.GlyphID('A')
	idSpace, _ := atl.GlyphID(' ')
	idB, _ := atl.GlyphID('B')
	require.Equal(t, []uint32{idA, idB}, run.IDs)

	metA := atl.Metrics(idA)
	metB := atl.Metrics(idB)
	require.InDelta(t, metA.BearingX, run.Vertices[0].Position[0], 1e-4)
	require.InDelta(t, 100-metA.BearingY, run.Vertices[0].Position[1], 1e-4)

	wantBLeft := metA.Advance + atl.Metrics(idSpace).Advance + metB.BearingX
	require.InDelta(t, wantBLeft, run.Vertices[6].Position[0], 1e-4)

	for _, v := range run.Vertices {
		require.Equal(t, tint, v.Color)
	}
	require.NoError(t, ValidateRun(run.IDs, atl))
}

func TestLayoutAdvancesLinesByLineHeight(t *testing.T) {
	src := loadTestFont(t)
	atl, err := BuildAtlas(src, 32, nil)
	require.NoError(t, err)

	run, err := Layout("A\nA", atl, 0, 50, [4]float32{1, 1, 1, 1})
	require.NoError(t, err)
	require.Len(t, run.Vertices, 12)
	require.InDelta(t, atl.LineHeight(), run.Vertices[6].Position[1]-run.Vertices[0].Position[1], 1e-4)
	require.Equal(t, run.Vertices[0].Position[0], run.Vertices[6].Position[0])
}

func TestToClipSpaceMapsPixelCorners(t *testing.T) {
	vertices := []GPUGlyphVertex{
		{Position: [2]float32{0, 0}},
		{Position: [2]float32{800, 600}},
		{Position: [2]float32{400, 300}},
	}
	ToClipSpace(vertices, 800, 600)
	require.Equal(t, [2]float32{-1, 1}, vertices[0].Position)
	require.Equal(t, [2]float32{1, -1}, vertices[1].Position)
	require.Equal(t, [2]float32{0, 0}, vertices[2].Position)
}

func TestGoTextShaperMapsClustersToResourceIds(t *testing.T) {
	src := loadTestFont(t)
	atl, err := BuildAtlas(src, 32, nil)
	require.NoError(t, err)

	shaper := NewGoTextShaper()
	shaped, err := shaper.Shape("AV", atl)
	require.NoError(t, err)
	require.Len(t, shaped, 2)

	idA, _ := atl.GlyphID('A')
	idV, _ := atl.GlyphID('V')
	require.Equal(t, idA, shaped[0].ID)
	require.Equal(t, idV, shaped[1].ID)
	for _, g := range shaped {
		require.Greater(t, g.Advance, float32(0))
	}
}

func TestLayoutWithGoTextShaper(t *testing.T) {
	src := loadTestFont(t)
	atl, err := BuildAtlas(src, 32, nil)
	require.NoError(t, err)

	run, err := Layout("Type", atl, 10, 40, [4]float32{1, 1, 1, 1}, WithShaper(NewGoTextShaper()))
	require.NoError(t, err)
	require.Len(t, run.Vertices, 24)
	require.Len(t, run.IDs, 4)
	require.NoError(t, ValidateRun(run.IDs, atl))
}
