// Package fyne provides the desktop window hosting the visualizer surface.
package fyne

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"

	"github.com/tejashwikalptaru/pulseviz/internal/adapter/ui/fyne/widgets"
)

// MainWindow is the single application window. It owns the bar surface and
// hands it to the engine as the render target.
type MainWindow struct {
	window  fyne.Window
	surface *widgets.BarSurface

	onBeforeClose func()
}

// NewMainWindow creates the window with the bar surface filling it.
func NewMainWindow(app fyne.App, title string, surface *widgets.BarSurface) *MainWindow {
	w := &MainWindow{
		window:  app.NewWindow(title),
		surface: surface,
	}

	w.window.SetContent(container.NewStack(surface))
	w.window.Resize(fyne.NewSize(640, 360))
	w.window.SetCloseIntercept(func() {
		if w.onBeforeClose != nil {
			w.onBeforeClose()
		}
		w.window.Close()
	})

	return w
}

// Surface returns the render surface hosted by the window.
func (w *MainWindow) Surface() *widgets.BarSurface {
	return w.surface
}

// SetOnBeforeClose registers a callback invoked before the window closes.
func (w *MainWindow) SetOnBeforeClose(fn func()) {
	w.onBeforeClose = fn
}

// ShowAndRun shows the window and runs the event loop until it closes.
func (w *MainWindow) ShowAndRun() {
	w.window.ShowAndRun()
}

// Show shows the window without entering the event loop.
func (w *MainWindow) Show() {
	w.window.Show()
}
