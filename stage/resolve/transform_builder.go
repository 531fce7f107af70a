package resolve

import (
	"github.com/umbra-gfx/umbra-go/stage/node"
)

type transformResolverConfig struct {
	dynamic [16]float32
}

// TransformResolverOption defines a function that configures a
// TransformResolver during creation.
type TransformResolverOption func(*transformResolverConfig)

// WithDynamicTransform applies a node's dynamic transform slot to the draw.
// It composes rightmost, before the node's model matrix.
//
// Parameters:
//   - t: the dynamic transform read from the node arena
//
// Returns:
//   - TransformResolverOption: the option function
func WithDynamicTransform(t node.GPUNodeTransform) TransformResolverOption {
	return func(c *transformResolverConfig) {
		c.dynamic = t.Model
	}
}
