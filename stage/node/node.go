package node

import (
	"sync/atomic"

	"github.com/umbra-gfx/umbra-go/common"
	"github.com/umbra-gfx/umbra-go/stage/light"
	"github.com/umbra-gfx/umbra-go/stage/mesh"
	"github.com/umbra-gfx/umbra-go/stage/renderer/material"
)

type node struct {
	id      uint64
	enabled atomic.Bool

	// index is the arena slot this node's transform occupies, or -1 before
	// the node is added to a stage.
	index int

	position [3]float32
	rotation [3]float32
	scale    [3]float32
	// spin is angular velocity in radians per second, integrated by Advance.
	spin [3]float32

	// dirty marks the transform as changed since the last arena upload. Host
	// mutation and frame prep never overlap, so no lock is needed here.
	dirty bool

	msh           mesh.Mesh
	mat           material.Material
	attachedLight light.Light
}

// Node is a drawable entity occupying one slot of the transform arena.
// Position, rotation and scale live host-side; Transform builds the model
// matrix that the frame prep phase writes into the node's slot. An attached
// Light has its position synced from the node's transform each frame.
type Node interface {
	// ID returns the node's unique identifier, assigned when added to a stage.
	//
	// Returns:
	//   - uint64: the node ID
	ID() uint64

	// Enabled returns whether this node is enabled for drawing.
	//
	// Returns:
	//   - bool: true if enabled
	Enabled() bool

	// Index returns the arena slot index, or -1 if the node has not been
	// added to a stage.
	//
	// Returns:
	//   - int: the slot index
	Index() int

	// Position returns the node's position.
	//
	// Returns:
	//   - x, y, z: position components
	Position() (x, y, z float32)

	// Rotation returns the node's rotation as Euler angles in radians.
	//
	// Returns:
	//   - rx, ry, rz: rotation angles
	Rotation() (rx, ry, rz float32)

	// Scale returns the node's scale factors.
	//
	// Returns:
	//   - sx, sy, sz: scale components
	Scale() (sx, sy, sz float32)

	// Spin returns the node's angular velocity in radians per second.
	//
	// Returns:
	//   - rx, ry, rz: angular velocity components
	Spin() (rx, ry, rz float32)

	// Mesh returns the mesh drawn for this node, or nil if not set.
	//
	// Returns:
	//   - mesh.Mesh: the mesh or nil
	Mesh() mesh.Mesh

	// Material returns the material shading this node, or nil if not set.
	//
	// Returns:
	//   - material.Material: the material or nil
	Material() material.Material

	// Light returns the Light attached to this node, or nil if none is set.
	//
	// Returns:
	//   - light.Light: the attached light or nil
	Light() light.Light

	// Dirty reports whether the transform changed since the last upload.
	//
	// Returns:
	//   - bool: true if an upload is pending
	Dirty() bool

	// Transform builds the model matrix from the node's current position,
	// rotation and scale.
	//
	// Returns:
	//   - GPUNodeTransform: the transform block for this node's slot
	Transform() GPUNodeTransform

	// Advance integrates the node's spin over the elapsed time, marking the
	// transform dirty when the spin is non-zero. Called once per frame by the
	// stage's prepare phase.
	//
	// Parameters:
	//   - dt: elapsed time in seconds
	Advance(dt float32)

	// SetID sets the node's unique identifier.
	//
	// Parameters:
	//   - id: the ID to assign
	SetID(id uint64)

	// SetEnabled sets whether the node is enabled for drawing.
	//
	// Parameters:
	//   - enabled: true to enable
	SetEnabled(enabled bool)

	// SetIndex sets the arena slot index. Called by the stage when the node
	// is added.
	//
	// Parameters:
	//   - index: the slot index
	SetIndex(index int)

	// SetPosition updates the node's position and marks the transform dirty.
	//
	// Parameters:
	//   - x, y, z: new position components
	SetPosition(x, y, z float32)

	// SetRotation updates the node's rotation and marks the transform dirty.
	//
	// Parameters:
	//   - rx, ry, rz: new rotation angles in radians
	SetRotation(rx, ry, rz float32)

	// SetScale updates the node's scale and marks the transform dirty.
	//
	// Parameters:
	//   - sx, sy, sz: new scale factors
	SetScale(sx, sy, sz float32)

	// SetSpin sets the node's angular velocity in radians per second.
	//
	// Parameters:
	//   - rx, ry, rz: angular velocity components
	SetSpin(rx, ry, rz float32)

	// SetMesh assigns the mesh drawn for this node.
	//
	// Parameters:
	//   - m: the mesh to assign
	SetMesh(m mesh.Mesh)

	// SetMaterial assigns the material shading this node.
	//
	// Parameters:
	//   - m: the material to assign
	SetMaterial(m material.Material)

	// SetLight attaches a Light to this node. The stage syncs the light's
	// position from the node's transform each frame. Pass nil to detach.
	//
	// Parameters:
	//   - l: the Light to attach, or nil to detach
	SetLight(l light.Light)

	// SetDirty sets or clears the pending-upload mark. The stage clears it
	// after writing the node's slot.
	//
	// Parameters:
	//   - dirty: the new mark
	SetDirty(dirty bool)
}

var _ Node = &node{}

// NewNode creates a Node configured with the given options. The node starts
// enabled with unit scale, dirty so its first frame uploads a transform.
//
// Parameters:
//   - options: functional options to configure the node
//
// Returns:
//   - Node: the newly created node
func NewNode(options ...NodeBuilderOption) Node {
	n := &node{
		index: -1,
		scale: [3]float32{1, 1, 1},
		dirty: true,
	}
	n.enabled.Store(true)
	for _, option := range options {
		option(n)
	}
	return n
}

func (n *node) ID() uint64 {
	return n.id
}

func (n *node) Enabled() bool {
	return n.enabled.Load()
}

func (n *node) Index() int {
	return n.index
}

func (n *node) Position() (x, y, z float32) {
	return n.position[0], n.position[1], n.position[2]
}

func (n *node) Rotation() (rx, ry, rz float32) {
	return n.rotation[0], n.rotation[1], n.rotation[2]
}

func (n *node) Scale() (sx, sy, sz float32) {
	return n.scale[0], n.scale[1], n.scale[2]
}

func (n *node) Spin() (rx, ry, rz float32) {
	return n.spin[0], n.spin[1], n.spin[2]
}

func (n *node) Mesh() mesh.Mesh {
	return n.msh
}

func (n *node) Material() material.Material {
	return n.mat
}

func (n *node) Light() light.Light {
	return n.attachedLight
}

func (n *node) Dirty() bool {
	return n.dirty
}

func (n *node) Transform() GPUNodeTransform {
	var t GPUNodeTransform
	common.BuildModelMatrix(t.Model[:],
		n.position[0], n.position[1], n.position[2],
		n.rotation[0], n.rotation[1], n.rotation[2],
		n.scale[0], n.scale[1], n.scale[2])
	return t
}

func (n *node) Advance(dt float32) {
	if n.spin[0] == 0 && n.spin[1] == 0 && n.spin[2] == 0 {
		return
	}
	n.rotation[0] += n.spin[0] * dt
	n.rotation[1] += n.spin[1] * dt
	n.rotation[2] += n.spin[2] * dt
	n.dirty = true
}

func (n *node) SetID(id uint64) {
	n.id = id
}

func (n *node) SetEnabled(enabled bool) {
	n.enabled.Store(enabled)
}

func (n *node) SetIndex(index int) {
	n.index = index
}

func (n *node) SetPosition(x, y, z float32) {
	n.position = [3]float32{x, y, z}
	n.dirty = true
}

func (n *node) SetRotation(rx, ry, rz float32) {
	n.rotation = [3]float32{rx, ry, rz}
	n.dirty = true
}

func (n *node) SetScale(sx, sy, sz float32) {
	n.scale = [3]float32{sx, sy, sz}
	n.dirty = true
}

func (n *node) SetSpin(rx, ry, rz float32) {
	n.spin = [3]float32{rx, ry, rz}
}

func (n *node) SetMesh(m mesh.Mesh) {
	n.msh = m
}

func (n *node) SetMaterial(m material.Material) {
	n.mat = m
}

func (n *node) SetLight(l light.Light) {
	n.attachedLight = l
}

func (n *node) SetDirty(dirty bool) {
	n.dirty = dirty
}
