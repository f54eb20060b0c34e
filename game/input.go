package game

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/regrow/input"
)

// handleInput processes keyboard and pointer input.
func (g *Game) handleInput() {
	// Window resize propagation
	g.handleResize()

	// Fullscreen toggle
	if rl.IsKeyPressed(rl.KeyF11) {
		rl.ToggleFullscreen()
	}

	if rl.IsKeyPressed(rl.KeySpace) {
		g.togglePause()
	}
	if rl.IsKeyPressed(rl.KeyR) {
		g.reset()
	}
	if rl.IsKeyPressed(rl.KeyS) {
		g.snapshot()
	}
	if rl.IsKeyPressed(rl.KeyH) {
		g.controls.Toggle()
	}
	if rl.IsKeyPressed(rl.KeyQ) {
		g.quit = true
	}

	// Hidden channel selection with [ ]
	if rl.IsKeyPressed(rl.KeyLeftBracket) {
		g.cycleHidden(-1)
	}
	if rl.IsKeyPressed(rl.KeyRightBracket) {
		g.cycleHidden(1)
	}

	for key := rl.GetKeyPressed(); key != 0; key = rl.GetKeyPressed() {
		g.overlays.HandleKeyPress(key)
	}

	g.handlePointer()
}

// handleResize checks for window resize and propagates new dimensions.
func (g *Game) handleResize() {
	if !rl.IsWindowResized() {
		return
	}
	w := int32(rl.GetScreenWidth())
	h := int32(rl.GetScreenHeight())
	if w == g.screenWidth && h == g.screenHeight {
		return
	}
	g.screenWidth = w
	g.screenHeight = h

	g.vp.Resize(float64(w), float64(h))
	g.drag.SetMapper(g.vp)
}

// handlePointer turns raylib mouse state into pointer events for the drag
// tracker. Presses over the controls panel are not damage.
func (g *Game) handlePointer() {
	onScreen := rl.IsCursorOnScreen()
	if !onScreen {
		if g.onScreen {
			g.drag.Handle(input.PointerEvent{Kind: input.PointerLeave})
		}
		g.onScreen = false
		return
	}
	g.onScreen = true

	pos := rl.GetMousePosition()
	if rl.IsMouseButtonPressed(rl.MouseButtonLeft) && !g.controls.Contains(pos) {
		g.drag.Handle(input.PointerEvent{Kind: input.PointerDown, X: pos.X, Y: pos.Y})
	}
	if pos.X != g.lastX || pos.Y != g.lastY {
		g.drag.Handle(input.PointerEvent{Kind: input.PointerMove, X: pos.X, Y: pos.Y})
		g.lastX, g.lastY = pos.X, pos.Y
	}
	if rl.IsMouseButtonReleased(rl.MouseButtonLeft) {
		g.drag.Handle(input.PointerEvent{Kind: input.PointerUp, X: pos.X, Y: pos.Y})
	}
}
