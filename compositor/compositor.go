// Package compositor turns grid cells into colored screen rectangles.
package compositor

import (
	"image"
	"image/color"
	"math"

	"github.com/pthm-cable/regrow/camera"
	"github.com/pthm-cable/regrow/grid"
)

// ClampCeiling caps composited components just below full white.
const ClampCeiling = 0.999

// Rect is one grid cell on screen: position and size in pixels plus its
// composited color.
type Rect struct {
	X, Y, W, H int
	R, G, B    uint8
}

// RGBA returns the rectangle color as an opaque color.RGBA.
func (r Rect) RGBA() color.RGBA {
	return color.RGBA{R: r.R, G: r.G, B: r.B, A: 255}
}

// Component composites one color channel c with alpha a. The result is
// floor(clamp(0, 1-a+c, ClampCeiling) * 255), always in [0, 254]. NaN
// inputs composite to 0.
func Component(c, a float32) uint8 {
	v := 1 - float64(a) + float64(c)
	if math.IsNaN(v) {
		return 0
	}
	v = math.Max(0, math.Min(v, ClampCeiling))
	return uint8(math.Floor(v * 255))
}

// CellColor composites the r, g, b channels of a cell against its alpha.
func CellColor(r, g, b, a float32) (uint8, uint8, uint8) {
	return Component(r, a), Component(g, a), Component(b, a)
}

// RenderPixels produces one rectangle per cell, row-major. Edges come from
// flooring cumulative cell sizes so neighbours share edges exactly. The state
// must carry at least grid.MinChannels channels; anything else is a
// programming error and panics.
func RenderPixels(s *grid.State, vp *camera.Viewport) []Rect {
	return AppendPixels(nil, s, vp)
}

// AppendPixels is RenderPixels appending into dst, so callers can reuse a
// buffer across frames.
func AppendPixels(dst []Rect, s *grid.State, vp *camera.Viewport) []Rect {
	mustRenderable(s, grid.ChannelAlpha)
	return tile(dst, s, vp, func(cell []float32) (uint8, uint8, uint8) {
		return CellColor(cell[grid.ChannelR], cell[grid.ChannelG], cell[grid.ChannelB], cell[grid.ChannelAlpha])
	})
}

// AppendChannel appends one grayscale rectangle per cell showing a single
// channel, clamped like Component. Used to inspect alpha and hidden
// channels.
func AppendChannel(dst []Rect, s *grid.State, vp *camera.Viewport, ch int) []Rect {
	mustRenderable(s, ch)
	return tile(dst, s, vp, func(cell []float32) (uint8, uint8, uint8) {
		v := Level(cell[ch])
		return v, v, v
	})
}

// Level maps a raw channel value to a gray level in [0, 254].
func Level(v float32) uint8 {
	f := float64(v)
	if math.IsNaN(f) {
		return 0
	}
	f = math.Max(0, math.Min(f, ClampCeiling))
	return uint8(math.Floor(f * 255))
}

func mustRenderable(s *grid.State, ch int) {
	if err := s.Validate(); err != nil {
		panic("compositor: " + err.Error())
	}
	if s.Channels < grid.MinChannels {
		panic("compositor: state has no alpha channel")
	}
	if ch < 0 || ch >= s.Channels {
		panic("compositor: channel out of range")
	}
}

func tile(dst []Rect, s *grid.State, vp *camera.Viewport, shade func([]float32) (uint8, uint8, uint8)) []Rect {
	sx, sy := cellSize(s, vp)
	ox, oy := int(vp.OffsetX), int(vp.OffsetY)

	cols := edges(sx, s.Width)
	rows := edges(sy, s.Height)

	for y := 0; y < s.Height; y++ {
		top, h := rows[y], rows[y+1]-rows[y]
		for x := 0; x < s.Width; x++ {
			left, w := cols[x], cols[x+1]-cols[x]
			r, g, b := shade(s.Cell(x, y))
			dst = append(dst, Rect{
				X: left + ox, Y: top + oy, W: w, H: h,
				R: r, G: g, B: b,
			})
		}
	}
	return dst
}

// Bounds returns the screen area the rectangles tile.
func Bounds(s *grid.State, vp *camera.Viewport) image.Rectangle {
	sx, sy := cellSize(s, vp)
	ox, oy := int(vp.OffsetX), int(vp.OffsetY)
	w := int(math.Floor(sx * float64(s.Width)))
	h := int(math.Floor(sy * float64(s.Height)))
	return image.Rect(ox, oy, ox+w, oy+h)
}

func cellSize(s *grid.State, vp *camera.Viewport) (float64, float64) {
	span := vp.Scale * vp.CanvasRatio
	return span / float64(s.Width), span / float64(s.Height)
}

// edges returns floor(size*i) for i in [0, n].
func edges(size float64, n int) []int {
	e := make([]int, n+1)
	for i := range e {
		e[i] = int(math.Floor(size * float64(i)))
	}
	return e
}
