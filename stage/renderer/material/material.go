package material

// Material is a draw material: the small shading parameter block delivered
// over the immediate channel, plus the keys naming the pipeline that shades
// it and the texture it samples. Materials have no persistent GPU residence;
// the renderer writes Params into the shared immediate slot before each
// draw, so mutating a material between frames is cheap and takes effect on
// the next draw.
type Material interface {
	// Name reports the material identifier.
	//
	// Returns:
	//   - string: the name
	Name() string

	// PipelineKey names the registered render pipeline that shades draws
	// using this material.
	//
	// Returns:
	//   - string: the pipeline key
	PipelineKey() string

	// TextureKey names the stage-registered texture this material samples.
	// Empty selects the stage's built-in white texture.
	//
	// Returns:
	//   - string: the texture key
	TextureKey() string

	// BaseColor reports the RGBA base color.
	//
	// Returns:
	//   - [4]float32: red, green, blue, alpha
	BaseColor() [4]float32

	// Emissive reports the RGB emissive color.
	//
	// Returns:
	//   - [3]float32: red, green, blue
	Emissive() [3]float32

	// Metallic reports the metallic factor, 0 for a dielectric surface up
	// to 1 for a fully metallic one.
	//
	// Returns:
	//   - float32: the metallic factor
	Metallic() float32

	// Params snapshots the material as the GPU parameter block, in contract
	// order: base color, emissive, metallic.
	//
	// Returns:
	//   - GPUMaterialParams: the immediate block, copied
	Params() GPUMaterialParams

	// SetBaseColor replaces the RGBA base color.
	//
	// Parameters:
	//   - r, g, b, a: color components
	SetBaseColor(r, g, b, a float32)

	// SetEmissive replaces the RGB emissive color.
	//
	// Parameters:
	//   - r, g, b: color components
	SetEmissive(r, g, b float32)

	// SetMetallic replaces the metallic factor.
	//
	// Parameters:
	//   - metallic: the new factor
	SetMetallic(metallic float32)

	// SetPipelineKey rebinds the material to a different render pipeline.
	//
	// Parameters:
	//   - key: the pipeline key
	SetPipelineKey(key string)

	// SetTextureKey rebinds the material to a different stage texture.
	//
	// Parameters:
	//   - key: the texture key, or empty for the built-in white texture
	SetTextureKey(key string)
}

// shadingParams carries the mutable surface parameters a material uploads.
type shadingParams struct {
	baseColor [4]float32
	emissive  [3]float32
	metallic  float32
}

// material backs Material with a parameter block and two resource keys.
type material struct {
	name        string
	shading     shadingParams
	pipelineKey string
	textureKey  string
}

var _ Material = &material{}

// NewMaterial creates a material with a white base color, no emission, and a
// metallic factor of zero, then applies the given options.
//
// Parameters:
//   - options: options applied in order over the defaults
//
// Returns:
//   - Material: the configured material
func NewMaterial(options ...MaterialBuilderOption) Material {
	m := &material{
		shading: shadingParams{
			baseColor: [4]float32{1, 1, 1, 1},
		},
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

func (m *material) Name() string {
	return m.name
}

func (m *material) PipelineKey() string {
	return m.pipelineKey
}

func (m *material) TextureKey() string {
	return m.textureKey
}

func (m *material) BaseColor() [4]float32 {
	return m.shading.baseColor
}

func (m *material) Emissive() [3]float32 {
	return m.shading.emissive
}

func (m *material) Metallic() float32 {
	return m.shading.metallic
}

func (m *material) Params() GPUMaterialParams {
	return GPUMaterialParams{
		BaseColor: m.shading.baseColor,
		Emissive:  m.shading.emissive,
		Metallic:  m.shading.metallic,
	}
}

func (m *material) SetBaseColor(r, g, b, a float32) {
	m.shading.baseColor = [4]float32{r, g, b, a}
}

func (m *material) SetEmissive(r, g, b float32) {
	m.shading.emissive = [3]float32{r, g, b}
}

func (m *material) SetMetallic(metallic float32) {
	m.shading.metallic = metallic
}

func (m *material) SetPipelineKey(key string) {
	m.pipelineKey = key
}

func (m *material) SetTextureKey(key string) {
	m.textureKey = key
}
