package camera

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func matAt(t *testing.T, buf []byte, offset int) [16]float32 {
	t.Helper()
	var m [16]float32
	for i := range 16 {
		m[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[offset+i*4:]))
	}
	return m
}

func TestGPUCameraBlockLayout(t *testing.T) {
	block := GPUCameraBlock{}
	for i := range 16 {
		block.Projection[i] = float32(i)
		block.View[i] = float32(100 + i)
		block.YCorrection[i] = float32(200 + i)
	}

	require.Equal(t, 192, block.Size())

	buf := block.Marshal()
	require.Len(t, buf, 192)

	assert.Equal(t, block.Projection, matAt(t, buf, 0), "projection at offset 0")
	assert.Equal(t, block.View, matAt(t, buf, 64), "view at offset 64")
	assert.Equal(t, block.YCorrection, matAt(t, buf, 128), "y-correction at offset 128")
}

func TestClipTargetYCorrection(t *testing.T) {
	identity := [16]float32{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}

	assert.Equal(t, identity, ClipTargetWebGPU.yCorrection())
	assert.Equal(t, identity, ClipTargetOpenGL.yCorrection())

	flipped := identity
	flipped[5] = -1
	assert.Equal(t, flipped, ClipTargetVulkan.yCorrection())
}

func TestCameraDefaults(t *testing.T) {
	c := NewCamera()

	ex, ey, ez := c.Eye()
	assert.Equal(t, [3]float32{0, 0, 5}, [3]float32{ex, ey, ez})

	assert.Equal(t, ClipTargetWebGPU, c.ClipTarget())
	assert.InDelta(t, 45.0*math.Pi/180.0, float64(c.Fov()), 1e-6)
	assert.NotNil(t, c.BindGroupProvider())
}

func TestCameraBlockIsSnapshot(t *testing.T) {
	c := NewCamera(WithEye(0, 0, 10), WithTarget(0, 0, 0))
	block := c.Block()

	// Mutating the camera after the snapshot must not change the block.
	c.SetEye(3, 4, 5)
	again := c.Block()

	assert.NotEqual(t, block.View, again.View)
	assert.Equal(t, block.Projection, again.Projection, "projection params unchanged")
}

func TestCameraVulkanTargetFlipsY(t *testing.T) {
	c := NewCamera(WithClipTarget(ClipTargetVulkan))
	block := c.Block()
	assert.Equal(t, float32(-1), block.YCorrection[5])

	def := NewCamera()
	assert.Equal(t, float32(1), def.Block().YCorrection[5])
}

func TestCameraUpdatePullsFromController(t *testing.T) {
	ctrl := NewOrbitController(WithRadius(8), WithAzimuth(0), WithElevation(0))
	c := NewCamera(WithController(ctrl))

	// azimuth 0, elevation 0 places the camera on +Z at radius distance.
	x, y, z := c.Eye()
	assert.InDelta(t, 0, float64(x), 1e-5)
	assert.InDelta(t, 0, float64(y), 1e-5)
	assert.InDelta(t, 8, float64(z), 1e-5)

	ctrl.SetAzimuth(math.Pi / 2)
	c.Update()

	x, y, z = c.Eye()
	assert.InDelta(t, 8, float64(x), 1e-5)
	assert.InDelta(t, 0, float64(z), 1e-4)
}

func TestOrbitControllerClampsElevation(t *testing.T) {
	ctrl := NewOrbitController(WithElevationBounds(-0.5, 0.5))

	ctrl.SetElevation(2.0)
	assert.InDelta(t, 0.5, float64(ctrl.Elevation()), 1e-6)

	ctrl.SetElevation(-2.0)
	assert.InDelta(t, -0.5, float64(ctrl.Elevation()), 1e-6)
}

func TestOrbitControllerZoomClampsRadius(t *testing.T) {
	ctrl := NewOrbitController(WithRadius(10), WithRadiusBounds(2, 20), WithZoomSpeed(1))

	ctrl.Zoom(100)
	assert.InDelta(t, 2, float64(ctrl.Radius()), 1e-6)

	ctrl.Zoom(-100)
	assert.InDelta(t, 20, float64(ctrl.Radius()), 1e-6)
}

func TestOrbitControllerDrag(t *testing.T) {
	ctrl := NewOrbitController(WithAzimuth(0), WithElevation(0), WithMouseSensitivity(0.01))

	ctrl.Drag(10, 5)
	assert.InDelta(t, 0.1, float64(ctrl.Azimuth()), 1e-6)
	assert.InDelta(t, 0.05, float64(ctrl.Elevation()), 1e-6)
}
