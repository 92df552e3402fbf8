// Package widgets provides the Fyne drawing surface for the visualizer engine.
package widgets

import (
	"image"
	"image/color"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"

	"github.com/tejashwikalptaru/pulseviz/internal/ports"
)

// BarSurface is a raster widget that draws one vertical bar per pitch band.
// It implements the engine's render surface: the engine pushes bar heights
// in surface pixels and the widget owns all pixel-level drawing.
type BarSurface struct {
	widget.BaseWidget

	raster *canvas.Raster

	mu      sync.Mutex
	heights []float64

	numBars int
	minGap  int

	paddingTop float32

	// Layout cache (recalculated only when size changes)
	lastWidth       int
	lastHeight      int
	cachedBarWidth  int
	cachedActualGap int
	cachedStartX    int
	cachedDrawableH int
}

// NewBarSurface creates a bar surface with the given bar count and minimum
// pixel gap between bars.
func NewBarSurface(numBars, gap int) *BarSurface {
	s := &BarSurface{
		heights:    make([]float64, numBars),
		numBars:    numBars,
		minGap:     gap,
		paddingTop: 6,
	}

	s.raster = canvas.NewRaster(s.render)
	s.ExtendBaseWidget(s)

	return s
}

// CreateRenderer implements fyne.Widget.
func (s *BarSurface) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(s.raster)
}

// MinSize returns the minimum size of the surface.
func (s *BarSurface) MinSize() fyne.Size {
	return fyne.NewSize(0, 0)
}

// Ready reports whether the surface has been drawn at a usable size.
// It stays false until the first raster pass establishes the pixel size.
func (s *BarSurface) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cachedDrawableH > 0 && s.cachedBarWidth > 0
}

// Height returns the drawable surface height in pixels.
func (s *BarSurface) Height() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return float64(s.cachedDrawableH)
}

// SetFrame replaces the displayed bar heights and requests a repaint.
func (s *BarSurface) SetFrame(heights []float64) {
	s.mu.Lock()
	n := copy(s.heights, heights)
	for i := n; i < len(s.heights); i++ {
		s.heights[i] = 0
	}
	s.mu.Unlock()

	s.raster.Refresh()
}

// Clear resets all bars to zero.
func (s *BarSurface) Clear() {
	s.mu.Lock()
	for i := range s.heights {
		s.heights[i] = 0
	}
	s.mu.Unlock()

	s.raster.Refresh()
}

// render is the raster generator function that draws the bars.
func (s *BarSurface) render(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	fillBackground(img, color.Black)

	s.mu.Lock()
	if s.lastWidth != w || s.lastHeight != h {
		s.recalculateLayout(w, h)
	}
	heights := make([]float64, len(s.heights))
	copy(heights, s.heights)
	barWidth := s.cachedBarWidth
	actualGap := s.cachedActualGap
	startX := s.cachedStartX
	drawableH := s.cachedDrawableH
	s.mu.Unlock()

	if barWidth == 0 || drawableH == 0 {
		return img
	}

	totalBarWidth := barWidth + actualGap
	for i := 0; i < s.numBars && i < len(heights); i++ {
		barH := int(heights[i])
		if barH > drawableH {
			barH = drawableH
		}
		s.drawSingleBar(img, startX+i*totalBarWidth, barWidth, barH, drawableH, h)
	}

	return img
}

// recalculateLayout computes and caches size-dependent layout values.
func (s *BarSurface) recalculateLayout(w, h int) {
	s.lastWidth = w
	s.lastHeight = h

	s.cachedDrawableH = h - int(s.paddingTop)
	if w <= 0 || s.cachedDrawableH <= 0 {
		s.cachedBarWidth = 0
		s.cachedDrawableH = 0
		return
	}

	totalGapWidth := (s.numBars - 1) * s.minGap
	availableBarWidth := w - totalGapWidth

	s.cachedBarWidth = max(availableBarWidth/s.numBars, 1)

	// Distribute remaining pixels into the gaps
	s.cachedActualGap = s.minGap
	if s.numBars > 1 {
		remainingSpace := w - (s.cachedBarWidth * s.numBars)
		s.cachedActualGap = max(remainingSpace/(s.numBars-1), s.minGap)
	}

	usedWidth := s.numBars*s.cachedBarWidth + (s.numBars-1)*s.cachedActualGap
	s.cachedStartX = (w - usedWidth) / 2
}

// drawSingleBar renders one bar bottom-up with gradient coloring and a
// rounded top.
func (s *BarSurface) drawSingleBar(img *image.RGBA, barX, barWidth, barH, drawableH, h int) {
	maxX := img.Bounds().Max.X

	radius := min(3, barWidth/2)

	for y := 0; y < barH; y++ {
		screenY := h - 1 - y
		col := gradientColor(float64(y) / float64(drawableH))

		// Inset the topmost rows to round the corners.
		inset := 0
		if fromTop := barH - 1 - y; fromTop < radius {
			inset = radius - fromTop
		}

		for x := barX + inset; x < barX+barWidth-inset && x < maxX; x++ {
			if x >= 0 {
				img.Set(x, screenY, col)
			}
		}
	}
}

// fillBackground fills the image with a solid color.
func fillBackground(img *image.RGBA, col color.Color) {
	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			img.Set(x, y, col)
		}
	}
}

// gradientColor returns a color from a green-yellow-red gradient based on
// bar position (0.0 at the base to 1.0 at the tip), fading out toward the
// tip while the base stays opaque.
func gradientColor(pos float64) color.RGBA {
	if pos < 0 {
		pos = 0
	}
	if pos > 1 {
		pos = 1
	}

	var r, g uint8

	if pos < 0.5 {
		g = 255
		r = uint8(pos * 2 * 255)
	} else {
		g = uint8((1 - (pos-0.5)*2) * 255)
		r = 255
	}

	alpha := uint8(255 - pos*140)

	// Premultiplied alpha, as image.RGBA expects.
	return color.RGBA{
		R: uint8(uint16(r) * uint16(alpha) / 255),
		G: uint8(uint16(g) * uint16(alpha) / 255),
		A: alpha,
	}
}

// Verify interface implementation at compile time.
var _ ports.RenderSurface = (*BarSurface)(nil)
