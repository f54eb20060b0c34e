package ui

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
)

// MaxDelayMS bounds the delay slider.
const MaxDelayMS = 500

// ControlActions reports what the user did on the controls panel this frame.
type ControlActions struct {
	TogglePause bool
	Reset       bool
	Snapshot    bool
	DelayMS     int
	DelayMoved  bool
}

// ControlsPanel renders the bottom-left raygui controls and the overlay legend.
type ControlsPanel struct {
	renderer *Renderer
	width    int32
	height   int32
	visible  bool
	bounds   rl.Rectangle
}

// NewControlsPanel creates a new controls panel.
func NewControlsPanel(width int32) *ControlsPanel {
	return &ControlsPanel{
		renderer: NewRenderer(),
		width:    width,
		height:   200,
		visible:  true,
	}
}

// Toggle switches panel visibility.
func (c *ControlsPanel) Toggle() bool {
	c.visible = !c.visible
	return c.visible
}

// IsVisible returns whether the panel is shown.
func (c *ControlsPanel) IsVisible() bool {
	return c.visible
}

// Contains reports whether a screen point falls on the panel, so clicks on
// it are not taken as damage.
func (c *ControlsPanel) Contains(p rl.Vector2) bool {
	return c.visible && rl.CheckCollisionPointRec(p, c.bounds)
}

// Draw renders the panel and returns the actions taken.
func (c *ControlsPanel) Draw(screenHeight int32, paused bool, delayMS int, overlays *OverlayRegistry) ControlActions {
	act := ControlActions{DelayMS: delayMS}
	if !c.visible {
		c.bounds = rl.Rectangle{}
		return act
	}

	r := c.renderer
	pad := r.Theme.Padding
	x := int32(10)
	y := screenHeight - c.height - 35
	c.bounds = rl.Rectangle{X: float32(x), Y: float32(y), Width: float32(c.width), Height: float32(c.height)}
	r.DrawPanel(x, y, c.width, c.height)

	px := float32(x + pad)
	py := float32(y + pad)
	bw := float32(c.width-pad*3) / 3

	label := "Pause"
	if paused {
		label = "Resume"
	}
	if gui.Button(rl.Rectangle{X: px, Y: py, Width: bw, Height: 24}, label) {
		act.TogglePause = true
	}
	if gui.Button(rl.Rectangle{X: px + bw + float32(pad)/2, Y: py, Width: bw, Height: 24}, "Reset") {
		act.Reset = true
	}
	if gui.Button(rl.Rectangle{X: px + 2*(bw+float32(pad)/2), Y: py, Width: bw, Height: 24}, "Snapshot") {
		act.Snapshot = true
	}
	py += 34

	rl.DrawText("Step delay", int32(px), int32(py), r.Theme.FontSize, r.Theme.LabelColor)
	py += 14
	sliderW := float32(c.width-pad*2) - 60
	v := gui.SliderBar(rl.Rectangle{X: px, Y: py, Width: sliderW, Height: 16}, "", "", float32(delayMS), 0, MaxDelayMS)
	rl.DrawText(fmt.Sprintf("%d ms", delayMS), int32(px+sliderW+8), int32(py+2), r.Theme.FontSize, r.Theme.ValueColor)
	if nv := int(v); nv != delayMS {
		act.DelayMS = nv
		act.DelayMoved = true
	}
	py += 26

	c.drawOverlayLegend(int32(px), int32(py), overlays)
	return act
}

func (c *ControlsPanel) drawOverlayLegend(x, y int32, overlays *OverlayRegistry) {
	if overlays == nil {
		return
	}
	r := c.renderer
	width := c.width - r.Theme.Padding*2
	for _, cat := range overlays.Categories() {
		for _, desc := range overlays.ByCategory(cat) {
			c.drawToggle(x, y, desc, overlays.IsEnabled(desc.ID), width)
			y += r.Theme.LineHeight
		}
	}
}

// drawToggle draws a single overlay toggle line.
func (c *ControlsPanel) drawToggle(x, y int32, desc OverlayDescriptor, enabled bool, width int32) {
	r := c.renderer

	statusColor := rl.Color{R: 80, G: 80, B: 80, A: 255}
	nameColor := r.Theme.LabelColor
	if enabled {
		statusColor = rl.Color{R: 100, G: 200, B: 100, A: 255}
		nameColor = rl.White
	}
	rl.DrawRectangle(x, y+2, 8, 8, statusColor)
	rl.DrawText(desc.Name, x+14, y, r.Theme.FontSize, nameColor)

	if desc.KeyLabel != "" {
		keyText := fmt.Sprintf("[%s]", desc.KeyLabel)
		keyWidth := rl.MeasureText(keyText, r.Theme.FontSize)
		rl.DrawText(keyText, x+width-keyWidth, y, r.Theme.FontSize, rl.Color{R: 150, G: 150, B: 150, A: 255})
	}
}
