package game

import (
	"fmt"
	"math"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/regrow/compositor"
	"github.com/pthm-cable/regrow/grid"
	"github.com/pthm-cable/regrow/sim"
	"github.com/pthm-cable/regrow/telemetry"
	"github.com/pthm-cable/regrow/ui"
)

const controlsText = "[Space] Pause  [R] Reset  [S] Snapshot  [H] Controls  [ ] Channel  [F11] Fullscreen  [Q] Quit"

var background = rl.Color{R: 18, G: 18, B: 22, A: 255}

// Draw renders the latest frame and the UI.
func (g *Game) Draw() {
	rl.BeginDrawing()
	rl.ClearBackground(background)

	frame := g.sess.Latest()
	if frame != nil {
		g.drawGrid(frame.State)
		if g.overlays.IsEnabled(ui.OverlayGridLines) {
			g.drawGridLines(frame.State)
		}
	}
	if g.overlays.IsEnabled(ui.OverlayBrush) {
		g.drawBrush()
	}

	g.drawUI(frame)

	rl.EndDrawing()
}

// drawGrid paints one rectangle per cell. The view overlays swap the color
// composite for a single channel in grayscale.
func (g *Game) drawGrid(s *grid.State) {
	switch {
	case g.overlays.IsEnabled(ui.OverlayAlpha):
		g.rects = compositor.AppendChannel(g.rects[:0], s, g.vp, grid.ChannelAlpha)
	case g.overlays.IsEnabled(ui.OverlayHidden) && g.hiddenChannel < s.Channels:
		g.rects = compositor.AppendChannel(g.rects[:0], s, g.vp, g.hiddenChannel)
	default:
		g.rects = compositor.AppendPixels(g.rects[:0], s, g.vp)
	}

	for _, r := range g.rects {
		rl.DrawRectangle(int32(r.X), int32(r.Y), int32(r.W), int32(r.H), rl.Color{R: r.R, G: r.G, B: r.B, A: 255})
	}
}

func (g *Game) drawGridLines(s *grid.State) {
	b := compositor.Bounds(s, g.vp)
	lineColor := rl.Color{R: 0, G: 0, B: 0, A: 40}
	sx, sy := g.vp.CellSize()
	for i := 0; i <= s.Width; i++ {
		x := int32(g.vp.OffsetX + math.Floor(float64(i)*sx))
		rl.DrawLine(x, int32(b.Min.Y), x, int32(b.Max.Y), lineColor)
	}
	for j := 0; j <= s.Height; j++ {
		y := int32(g.vp.OffsetY + math.Floor(float64(j)*sy))
		rl.DrawLine(int32(b.Min.X), y, int32(b.Max.X), y, lineColor)
	}
}

// drawBrush outlines the erase disc under the pointer.
func (g *Game) drawBrush() {
	pos := rl.GetMousePosition()
	if !g.vp.Contains(float64(pos.X), float64(pos.Y)) {
		return
	}
	sx, _ := g.vp.CellSize()
	radius := float32(g.sess.Radius() * sx)
	if radius < 1 {
		radius = 1
	}
	c := rl.Color{R: 220, G: 60, B: 60, A: 200}
	if g.drag.Active() {
		c.A = 255
	}
	rl.DrawCircleLines(int32(pos.X), int32(pos.Y), radius, c)
}

func (g *Game) drawUI(frame *sim.Frame) {
	phase := g.sched.Phase()

	var step uint64
	if frame != nil {
		step = frame.Step
	}
	overlay := ""
	switch {
	case g.overlays.IsEnabled(ui.OverlayAlpha):
		overlay = "alpha"
	case g.overlays.IsEnabled(ui.OverlayHidden):
		overlay = fmt.Sprintf("channel %d", g.hiddenChannel)
	}

	g.hud.Draw(ui.HUDData{
		Title:        g.title,
		Model:        g.sess.Descriptor().Name,
		Step:         step,
		Phase:        phase.String(),
		Paused:       g.sched.Paused(),
		QueueLen:     g.sess.Queue().Len(),
		FPS:          rl.GetFPS(),
		Overlay:      overlay,
		ScreenWidth:  g.screenWidth,
		ScreenHeight: g.screenHeight,
	})
	if g.notice != "" && time.Now().Before(g.noticeUntil) {
		rl.DrawText(g.notice, 10, 75, 14, rl.LightGray)
	}

	if g.overlays.IsEnabled(ui.OverlayStats) && frame != nil {
		g.statsPanel.Draw(g.screenWidth, g.statsData(frame.State))
	}

	delayMS := int(g.sched.Delay() / time.Millisecond)
	act := g.controls.Draw(g.screenHeight, g.sched.Paused(), delayMS, g.overlays)
	if act.TogglePause {
		g.togglePause()
	}
	if act.Reset {
		g.reset()
	}
	if act.Snapshot {
		g.snapshot()
	}
	if act.DelayMoved {
		g.setDelay(act.DelayMS)
	}

	g.hud.DrawControls(g.screenWidth, g.screenHeight, controlsText)

	if phase == sim.PhaseFailed {
		msg := "unknown error"
		if err := g.sched.Err(); err != nil {
			msg = err.Error()
		}
		g.hud.DrawErrorBanner(g.screenWidth, msg)
	}
}

func (g *Game) statsData(s *grid.State) ui.StatsData {
	perf := g.sess.Perf().Stats()
	d := ui.StatsData{
		Alive:        s.CountAlive(g.sess.AliveThreshold()),
		Cells:        s.Width * s.Height,
		StepsPerSec:  perf.StepsPerSecond,
		StepMS:       float64(perf.AvgStepDuration) / float64(time.Millisecond),
		TransitionPc: perf.PhasePct[telemetry.PhaseTransition],
		DelayMS:      int(g.sched.Delay() / time.Millisecond),
	}
	if ws := g.sess.LastStats(); ws != nil {
		d.AlphaMean = ws.AlphaMean
	}
	return d
}
