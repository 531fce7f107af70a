package window

// WindowBuilderOption configures a window inside NewWindow, before the native
// window opens.
type WindowBuilderOption func(w *stageWindow)

// WithTitle names the window in its title bar.
//
// Parameters:
//   - title: the title text
//
// Returns:
//   - WindowBuilderOption: the option to pass to NewWindow
func WithTitle(title string) WindowBuilderOption {
	return func(w *stageWindow) {
		w.title = title
	}
}

// WithSize picks the initial window size. On high-DPI displays the resulting
// framebuffer, and therefore Width and Height, can come out larger.
//
// Parameters:
//   - width: initial width in pixels
//   - height: initial height in pixels
//
// Returns:
//   - WindowBuilderOption: the option to pass to NewWindow
func WithSize(width, height int) WindowBuilderOption {
	return func(w *stageWindow) {
		w.bounds.width = width
		w.bounds.height = height
	}
}

// WithMinSize bounds how small the user can resize the window.
//
// Parameters:
//   - width: minimum width in pixels
//   - height: minimum height in pixels
//
// Returns:
//   - WindowBuilderOption: the option to pass to NewWindow
func WithMinSize(width, height int) WindowBuilderOption {
	return func(w *stageWindow) {
		w.bounds.minWidth = width
		w.bounds.minHeight = height
	}
}

// WithMaxSize bounds how large the user can resize the window.
//
// Parameters:
//   - width: maximum width in pixels
//   - height: maximum height in pixels
//
// Returns:
//   - WindowBuilderOption: the option to pass to NewWindow
func WithMaxSize(width, height int) WindowBuilderOption {
	return func(w *stageWindow) {
		w.bounds.maxWidth = width
		w.bounds.maxHeight = height
	}
}
