// Package ports define the render surface interface for view abstraction.
// This interface allows the engine to push frames without depending on Fyne directly.
package ports

// RenderSurface is the drawing target for the bar visualizer.
//
// The engine pushes one frame of bar heights (in surface pixels, base to
// tip) per render tick. The surface owns all pixel-level concerns: bar
// geometry, gradients, and device pixel density.
//
// Thread-safety: SetFrame and Clear are called from the render goroutine
// and must be safe to call concurrently with the UI toolkit's own drawing.
type RenderSurface interface {
	// Ready reports whether the surface is attached and has a usable size.
	// The engine skips drawing while the surface is not ready; this is a
	// transient condition, retried on the next frame.
	Ready() bool

	// Height returns the drawable surface height in pixels.
	// Returns 0 while the surface is not ready.
	Height() float64

	// SetFrame replaces the displayed bar heights and requests a repaint.
	// The slice is owned by the caller; implementations must copy it.
	SetFrame(heights []float64)

	// Clear resets the surface to its empty state.
	Clear()
}
