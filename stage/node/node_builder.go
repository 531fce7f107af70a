package node

import (
	"github.com/chewxy/math32"

	"github.com/umbra-gfx/umbra-go/stage/light"
	"github.com/umbra-gfx/umbra-go/stage/mesh"
	"github.com/umbra-gfx/umbra-go/stage/renderer/material"
)

// NodeBuilderOption defines a function that modifies the node during creation.
type NodeBuilderOption func(*node)

// WithPosition sets the node's initial position.
//
// Parameters:
//   - x, y, z: position components
//
// Returns:
//   - NodeBuilderOption: the option function
func WithPosition(x, y, z float32) NodeBuilderOption {
	return func(n *node) {
		n.position = [3]float32{x, y, z}
	}
}

// WithRotation sets the node's initial rotation as Euler angles in radians.
//
// Parameters:
//   - rx, ry, rz: rotation angles
//
// Returns:
//   - NodeBuilderOption: the option function
func WithRotation(rx, ry, rz float32) NodeBuilderOption {
	return func(n *node) {
		n.rotation = [3]float32{rx, ry, rz}
	}
}

// WithScale sets the node's initial scale factors.
//
// Parameters:
//   - sx, sy, sz: scale factors
//
// Returns:
//   - NodeBuilderOption: the option function
func WithScale(sx, sy, sz float32) NodeBuilderOption {
	return func(n *node) {
		n.scale = [3]float32{sx, sy, sz}
	}
}

// WithSpin sets a continuous rotation around the given axis. The axis
// components weight the rotation per axis; degPerSec is converted to radians
// per second.
//
// Parameters:
//   - axis: per-axis rotation weights
//   - degPerSec: rotation speed in degrees per second
//
// Returns:
//   - NodeBuilderOption: the option function
func WithSpin(axis [3]float32, degPerSec float32) NodeBuilderOption {
	return func(n *node) {
		rad := degPerSec * math32.Pi / 180
		n.spin = [3]float32{axis[0] * rad, axis[1] * rad, axis[2] * rad}
	}
}

// WithMesh assigns the mesh drawn for this node.
//
// Parameters:
//   - m: the mesh to assign
//
// Returns:
//   - NodeBuilderOption: the option function
func WithMesh(m mesh.Mesh) NodeBuilderOption {
	return func(n *node) {
		n.msh = m
	}
}

// WithMaterial assigns the material shading this node.
//
// Parameters:
//   - m: the material to assign
//
// Returns:
//   - NodeBuilderOption: the option function
func WithMaterial(m material.Material) NodeBuilderOption {
	return func(n *node) {
		n.mat = m
	}
}

// WithLight attaches a Light whose position follows the node's transform.
//
// Parameters:
//   - l: the Light to attach
//
// Returns:
//   - NodeBuilderOption: the option function
func WithLight(l light.Light) NodeBuilderOption {
	return func(n *node) {
		n.attachedLight = l
	}
}
