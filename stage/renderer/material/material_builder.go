package material

// MaterialBuilderOption configures a material inside NewMaterial.
type MaterialBuilderOption func(*material)

// WithName picks the material identifier.
//
// Parameters:
//   - name: the material name
//
// Returns:
//   - MaterialBuilderOption: the option to pass to NewMaterial
func WithName(name string) MaterialBuilderOption {
	return func(m *material) {
		m.name = name
	}
}

// WithBaseColor picks the RGBA base color.
//
// Parameters:
//   - r, g, b, a: color components
//
// Returns:
//   - MaterialBuilderOption: the option to pass to NewMaterial
func WithBaseColor(r, g, b, a float32) MaterialBuilderOption {
	return func(m *material) {
		m.shading.baseColor = [4]float32{r, g, b, a}
	}
}

// WithEmissive picks the RGB emissive color.
//
// Parameters:
//   - r, g, b: color components
//
// Returns:
//   - MaterialBuilderOption: the option to pass to NewMaterial
func WithEmissive(r, g, b float32) MaterialBuilderOption {
	return func(m *material) {
		m.shading.emissive = [3]float32{r, g, b}
	}
}

// WithMetallic picks the metallic factor.
//
// Parameters:
//   - metallic: the metallic factor
//
// Returns:
//   - MaterialBuilderOption: the option to pass to NewMaterial
func WithMetallic(metallic float32) MaterialBuilderOption {
	return func(m *material) {
		m.shading.metallic = metallic
	}
}

// WithPipelineKey binds the material to a registered render pipeline.
//
// Parameters:
//   - key: the pipeline key
//
// Returns:
//   - MaterialBuilderOption: the option to pass to NewMaterial
func WithPipelineKey(key string) MaterialBuilderOption {
	return func(m *material) {
		m.pipelineKey = key
	}
}

// WithTextureKey binds the material to a stage-registered texture. Materials
// without one sample the stage's built-in white texture, so untextured draws
// shade with the base color alone.
//
// Parameters:
//   - key: the texture key
//
// Returns:
//   - MaterialBuilderOption: the option to pass to NewMaterial
func WithTextureKey(key string) MaterialBuilderOption {
	return func(m *material) {
		m.textureKey = key
	}
}
