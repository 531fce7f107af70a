package window

import (
	"fmt"
	"runtime"

	"github.com/cogentcore/webgpu/wgpu"
)

// Window is the platform windowing surface the stage renders into. It wraps
// the native window handle behind a callback-driven interface so the rest of
// the stage never touches platform types.
type Window interface {
	// SurfaceDescriptor builds a wgpu.SurfaceDescriptor for the native window,
	// ready to create a WebGPU surface from. The descriptor matches whatever
	// the platform provides (Win32 HWND, X11, Wayland, or Metal).
	//
	// Returns:
	//   - *wgpu.SurfaceDescriptor: the descriptor, or nil before the window opens
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// IsRunning reports whether the window is still open.
	//
	// Returns:
	//   - bool: false once the window has been closed or asked to close
	IsRunning() bool

	// Close destroys the native window and shuts the platform layer down.
	//
	// Returns:
	//   - error: an error when the window was never opened
	Close() error

	// ProcessMessages runs the event loop until the window closes, invoking
	// the update callback once per iteration.
	ProcessMessages()

	// Width reports the current framebuffer width in pixels.
	//
	// Returns:
	//   - int: the framebuffer width
	Width() int

	// Height reports the current framebuffer height in pixels.
	//
	// Returns:
	//   - int: the framebuffer height
	Height() int

	// SetUpdateCallback installs the function run once per event loop
	// iteration, or nil to run none.
	SetUpdateCallback(callback func())

	// SetResizeCallback installs the function run when the framebuffer
	// changes size, receiving the new size in pixels.
	SetResizeCallback(callback func(width, height int))

	// SetScrollCallback installs the function run on scroll wheel input.
	// The delta is positive scrolling up and negative scrolling down.
	SetScrollCallback(callback func(delta float32))

	// SetKeyDownCallback installs the function run when a key is pressed or
	// repeats, receiving the key code.
	SetKeyDownCallback(callback func(keyCode uint32))

	// SetKeyUpCallback installs the function run when a key is released,
	// receiving the key code.
	SetKeyUpCallback(callback func(keyCode uint32))

	// SetMouseDownCallback installs the function run when a mouse button goes
	// down, receiving the button index and the cursor position.
	SetMouseDownCallback(callback func(button uint32, x, y int32))

	// SetMouseUpCallback installs the function run when a mouse button comes
	// up, receiving the button index and the cursor position.
	SetMouseUpCallback(callback func(button uint32, x, y int32))

	// SetMouseMoveCallback installs the function run when the cursor moves,
	// receiving its new position.
	SetMouseMoveCallback(callback func(x, y int32))
}

// windowBounds is the window geometry: current framebuffer size plus the
// resize limits enforced by the platform layer.
type windowBounds struct {
	width, height       int
	minWidth, minHeight int
	maxWidth, maxHeight int
}

// callbackSet holds the user callbacks. Nil entries are skipped.
type callbackSet struct {
	update    func()
	resize    func(width, height int)
	scroll    func(delta float32)
	keyDown   func(keyCode uint32)
	keyUp     func(keyCode uint32)
	mouseDown func(button uint32, x, y int32)
	mouseUp   func(button uint32, x, y int32)
	mouseMove func(x, y int32)
}

// stageWindow implements Window over whichever platform layer is compiled in.
type stageWindow struct {
	title  string
	bounds windowBounds

	// platform holds the platform layer's own state (currently *glfwState).
	platform any

	on callbackSet
}

var _ Window = &stageWindow{}

// NewWindow opens a native window configured by the given options. Defaults
// are a 1280x720 window titled "Umbra Stage", resizable between 320x240 and
// 3840x2160.
//
// Parameters:
//   - options: WindowBuilderOption values overriding the defaults
//
// Returns:
//   - Window: the opened window
func NewWindow(options ...WindowBuilderOption) Window {
	w := &stageWindow{
		title: "Umbra Stage",
		bounds: windowBounds{
			width:     1280,
			height:    720,
			minWidth:  320,
			minHeight: 240,
			maxWidth:  3840,
			maxHeight: 2160,
		},
	}
	for _, opt := range options {
		opt(w)
	}
	if err := platformOpen(w); err != nil {
		panic(fmt.Sprintf("failed to open platform window: %v", err))
	}
	return w
}

func (w *stageWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	return platformSurfaceDescriptor(w)
}

func (w *stageWindow) IsRunning() bool {
	return platformRunning(w)
}

func (w *stageWindow) Close() error {
	return platformClose(w)
}

func (w *stageWindow) ProcessMessages() {
	for w.IsRunning() {
		if !platformPumpEvents(w) {
			break
		}

		if w.on.update != nil {
			w.on.update()
		}

		runtime.Gosched()
	}
}

func (w *stageWindow) Width() int {
	return w.bounds.width
}

func (w *stageWindow) Height() int {
	return w.bounds.height
}

func (w *stageWindow) SetUpdateCallback(callback func()) {
	w.on.update = callback
}

func (w *stageWindow) SetResizeCallback(callback func(width, height int)) {
	w.on.resize = callback
}

func (w *stageWindow) SetScrollCallback(callback func(delta float32)) {
	w.on.scroll = callback
}

func (w *stageWindow) SetKeyDownCallback(callback func(keyCode uint32)) {
	w.on.keyDown = callback
}

func (w *stageWindow) SetKeyUpCallback(callback func(keyCode uint32)) {
	w.on.keyUp = callback
}

func (w *stageWindow) SetMouseDownCallback(callback func(button uint32, x, y int32)) {
	w.on.mouseDown = callback
}

func (w *stageWindow) SetMouseUpCallback(callback func(button uint32, x, y int32)) {
	w.on.mouseUp = callback
}

func (w *stageWindow) SetMouseMoveCallback(callback func(x, y int32)) {
	w.on.mouseMove = callback
}
