package window

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// glfwState is the GLFW platform layer behind a stageWindow.
type glfwState struct {
	owner  *stageWindow
	handle *glfw.Window
	alive  bool
}

// platformOpen initializes GLFW, creates the native window, and wires the
// input callbacks through to the owner's callbackSet.
func platformOpen(w *stageWindow) error {
	// GLFW windows must be created and polled from a single OS thread.
	runtime.LockOSThread()

	if err := glfw.Init(); err != nil {
		return fmt.Errorf("failed to initialize GLFW: %v", err)
	}

	// No OpenGL context; WebGPU brings its own graphics API.
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)

	handle, err := glfw.CreateWindow(w.bounds.width, w.bounds.height, w.title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return fmt.Errorf("failed to create GLFW window: %v", err)
	}
	handle.SetSizeLimits(w.bounds.minWidth, w.bounds.minHeight, w.bounds.maxWidth, w.bounds.maxHeight)

	st := &glfwState{
		owner:  w,
		handle: handle,
		alive:  true,
	}
	w.platform = st

	wireInput(st)

	// The framebuffer can come out larger than the requested window size on
	// high-DPI displays, so read the real size back.
	w.bounds.width, w.bounds.height = handle.GetFramebufferSize()

	return nil
}

// wireInput registers the GLFW event callbacks and routes them into the
// owner's callbackSet. Escape closes the window.
func wireInput(st *glfwState) {
	w := st.owner

	st.handle.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if key == glfw.KeyEscape && action == glfw.Press {
			st.alive = false
			st.handle.SetShouldClose(true)
			return
		}
		switch action {
		case glfw.Press, glfw.Repeat:
			if w.on.keyDown != nil {
				w.on.keyDown(uint32(key))
			}
		case glfw.Release:
			if w.on.keyUp != nil {
				w.on.keyUp(uint32(key))
			}
		}
	})

	st.handle.SetScrollCallback(func(_ *glfw.Window, xoff, yoff float64) {
		if w.on.scroll != nil {
			w.on.scroll(float32(yoff))
		}
	})

	st.handle.SetMouseButtonCallback(func(_ *glfw.Window, button glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
		x, y := st.handle.GetCursorPos()
		switch action {
		case glfw.Press:
			if w.on.mouseDown != nil {
				w.on.mouseDown(uint32(button), int32(x), int32(y))
			}
		case glfw.Release:
			if w.on.mouseUp != nil {
				w.on.mouseUp(uint32(button), int32(x), int32(y))
			}
		}
	})

	st.handle.SetCursorPosCallback(func(_ *glfw.Window, x, y float64) {
		if w.on.mouseMove != nil {
			w.on.mouseMove(int32(x), int32(y))
		}
	})

	// Resize tracks the framebuffer rather than the window, since the surface
	// must be configured in pixels and the two differ on high-DPI displays.
	st.handle.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		w.bounds.width = width
		w.bounds.height = height
		if w.on.resize != nil {
			w.on.resize(width, height)
		}
	})
}

// platformSurfaceDescriptor builds the surface descriptor for the native
// window through the wgpuglfw bridge, which picks the right platform variant.
func platformSurfaceDescriptor(w *stageWindow) *wgpu.SurfaceDescriptor {
	if w.platform == nil {
		return nil
	}
	st := w.platform.(*glfwState)
	return wgpuglfw.GetSurfaceDescriptor(st.handle)
}

// platformRunning reports whether the window is open and not asked to close.
func platformRunning(w *stageWindow) bool {
	if w.platform == nil {
		return false
	}
	st := w.platform.(*glfwState)
	return st.alive && !st.handle.ShouldClose()
}

// platformClose destroys the native window and tears GLFW down.
func platformClose(w *stageWindow) error {
	if w.platform == nil {
		return errors.New("window was never opened")
	}
	st := w.platform.(*glfwState)
	st.alive = false
	st.handle.SetShouldClose(true)
	st.handle.Destroy()
	glfw.Terminate()
	return nil
}

// platformPumpEvents polls pending GLFW events without blocking and reports
// whether the window is still running afterwards.
func platformPumpEvents(w *stageWindow) bool {
	glfw.PollEvents()
	return platformRunning(w)
}
