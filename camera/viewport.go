// Package camera maps between display pixels and grid cells.
package camera

import "math"

// DefaultCanvasRatio is the fraction of the shorter display side covered by
// the grid.
const DefaultCanvasRatio = 0.8

// Viewport places a grid of Width x Height cells centered on the display.
// It is recomputed on every resize and is read-only otherwise.
type Viewport struct {
	// Scale is the shorter display side in pixels.
	Scale float64

	// OffsetX, OffsetY is the top-left of the grid area in device pixels.
	// Both are whole numbers.
	OffsetX, OffsetY float64

	// CanvasRatio is the fraction of Scale the grid spans.
	CanvasRatio float64

	// Grid dimensions in cells.
	Width, Height int

	// Display dimensions in pixels.
	DisplayW, DisplayH float64
}

// New creates a viewport for a grid on a display of the given size.
func New(displayW, displayH float64, gridW, gridH int, canvasRatio float64) *Viewport {
	if canvasRatio <= 0 {
		canvasRatio = DefaultCanvasRatio
	}
	v := &Viewport{
		CanvasRatio: canvasRatio,
		Width:       gridW,
		Height:      gridH,
	}
	v.Resize(displayW, displayH)
	return v
}

// Resize recomputes scale and offsets for new display dimensions.
func (v *Viewport) Resize(displayW, displayH float64) {
	v.DisplayW = displayW
	v.DisplayH = displayH
	v.Scale = math.Min(displayW, displayH)
	span := v.Scale * v.CanvasRatio
	v.OffsetX = math.Floor((displayW - span) / 2)
	v.OffsetY = math.Floor((displayH - span) / 2)
}

// CellSize returns the size of one cell in pixels along each axis.
func (v *Viewport) CellSize() (sx, sy float64) {
	span := v.Scale * v.CanvasRatio
	return span / float64(v.Width), span / float64(v.Height)
}

// ToGrid converts a pointer position to grid coordinates. Integer results
// fall on cell centers, hence the half-cell shift.
func (v *Viewport) ToGrid(px, py float32) (mx, my float64) {
	sx, sy := v.CellSize()
	mx = (float64(px)-v.OffsetX)/sx - 0.5
	my = (float64(py)-v.OffsetY)/sy - 0.5
	return mx, my
}

// ToScreen converts grid coordinates back to pixels. It inverts ToGrid.
func (v *Viewport) ToScreen(mx, my float64) (px, py float64) {
	sx, sy := v.CellSize()
	px = (mx+0.5)*sx + v.OffsetX
	py = (my+0.5)*sy + v.OffsetY
	return px, py
}

// Contains reports whether a pixel lies over the grid area.
func (v *Viewport) Contains(px, py float64) bool {
	span := v.Scale * v.CanvasRatio
	return px >= v.OffsetX && px < v.OffsetX+span &&
		py >= v.OffsetY && py < v.OffsetY+span
}
