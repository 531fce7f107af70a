// Package resolve implements the per-invocation shading programs on the CPU:
// clip-space transform resolution, instance selection, light accumulation and
// glyph indexing. Each resolver snapshots its frame-scoped inputs at
// construction and only reads them afterwards, so resolvers follow the same
// data-independent execution model as the GPU programs they reproduce: any
// number of invocations may run concurrently with no shared mutable state.
package resolve

import (
	"github.com/umbra-gfx/umbra-go/common"
	"github.com/umbra-gfx/umbra-go/stage/camera"
)

// TransformResolver composes the clip transform of one draw and maps
// model-space vertices through it.
type TransformResolver interface {
	// Matrix returns the composed clip transform.
	//
	// Returns:
	//   - [16]float32: the column-major clip matrix
	Matrix() [16]float32

	// ResolveVertex maps a model-space position to clip space with an
	// implicit w of 1.
	//
	// Parameters:
	//   - v: the model-space position
	//
	// Returns:
	//   - [4]float32: the clip-space position before perspective division
	ResolveVertex(v [3]float32) [4]float32
}

type transformResolver struct {
	clip [16]float32
}

var _ TransformResolver = &transformResolver{}

// NewTransformResolver composes the clip transform for one draw in the fixed
// order y_correction * projection * view * model * dynamic: camera matrices
// apply last, node matrices first. The order is part of the binding contract,
// not a style choice; reversing it produces silently wrong projections. The
// dynamic per-node transform defaults to identity when the node carries no
// override, and the camera block's y-correction is already identity unless
// the clip target needs the vertical flip.
//
// Parameters:
//   - block: the frame's camera block
//   - model: the node's model matrix
//   - options: optional TransformResolverOption configuration
//
// Returns:
//   - TransformResolver: the resolver for this draw
func NewTransformResolver(block camera.GPUCameraBlock, model [16]float32, options ...TransformResolverOption) TransformResolver {
	cfg := transformResolverConfig{}
	common.Identity(cfg.dynamic[:])
	for _, opt := range options {
		opt(&cfg)
	}

	r := &transformResolver{}
	common.Mul4(r.clip[:], block.YCorrection[:], block.Projection[:])
	common.Mul4(r.clip[:], r.clip[:], block.View[:])
	common.Mul4(r.clip[:], r.clip[:], model[:])
	common.Mul4(r.clip[:], r.clip[:], cfg.dynamic[:])
	return r
}

func (r *transformResolver) Matrix() [16]float32 {
	return r.clip
}

func (r *transformResolver) ResolveVertex(v [3]float32) [4]float32 {
	return common.MulVec4(r.clip[:], [4]float32{v[0], v[1], v[2], 1})
}
