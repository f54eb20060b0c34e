// Package game is the raylib front-end: it draws the latest published frame,
// turns pointer drags into damage and forwards keys and panel actions to the
// step scheduler. Stepping itself runs on its own goroutine.
package game

import (
	"context"
	"log/slog"
	"time"

	"github.com/pthm-cable/regrow/camera"
	"github.com/pthm-cable/regrow/compositor"
	"github.com/pthm-cable/regrow/grid"
	"github.com/pthm-cable/regrow/input"
	"github.com/pthm-cable/regrow/session"
	"github.com/pthm-cable/regrow/sim"
	"github.com/pthm-cable/regrow/ui"
)

// Options holds front-end configuration.
type Options struct {
	Title        string
	ScreenWidth  int32
	ScreenHeight int32
	CanvasRatio  float64
}

// Game holds the window-side state.
type Game struct {
	sess  *session.Session
	sched *sim.Scheduler
	title string

	cancel context.CancelFunc
	done   chan error
	runErr error
	ended  bool

	vp       *camera.Viewport
	drag     *input.DragState
	onScreen bool
	lastX    float32
	lastY    float32

	hud        *ui.HUD
	statsPanel *ui.StatsPanel
	controls   *ui.ControlsPanel
	overlays   *ui.OverlayRegistry

	rects         []compositor.Rect
	hiddenChannel int

	screenWidth  int32
	screenHeight int32

	notice      string
	noticeUntil time.Time
	quit        bool
}

// NewGame creates the front-end for a session. The window must already be
// open.
func NewGame(sess *session.Session, opts Options) *Game {
	sched := sess.Scheduler()
	cur := sched.Current()

	g := &Game{
		sess:          sess,
		sched:         sched,
		title:         opts.Title,
		done:          make(chan error, 1),
		hud:           ui.NewHUD(),
		statsPanel:    ui.NewStatsPanel(220),
		controls:      ui.NewControlsPanel(260),
		overlays:      ui.NewOverlayRegistry(),
		hiddenChannel: grid.MinChannels,
		screenWidth:   opts.ScreenWidth,
		screenHeight:  opts.ScreenHeight,
		onScreen:      true,
	}
	g.vp = camera.New(float64(opts.ScreenWidth), float64(opts.ScreenHeight), cur.Width, cur.Height, opts.CanvasRatio)
	g.drag = input.NewDragState(sess.Queue(), g.vp)
	g.overlays.SetEnabled(ui.OverlayBrush, true)
	g.overlays.SetEnabled(ui.OverlayStats, true)
	return g
}

// Start launches the scheduler goroutine.
func (g *Game) Start(ctx context.Context) {
	ctx, g.cancel = context.WithCancel(ctx)
	go func() {
		g.done <- g.sess.Run(ctx)
	}()
}

// Update handles input and collects the scheduler result once it ends.
func (g *Game) Update() {
	g.handleInput()
	g.pollDone()
	g.sess.Perf().RecordFrame()
}

func (g *Game) pollDone() {
	if g.ended {
		return
	}
	select {
	case err := <-g.done:
		g.ended = true
		g.runErr = err
		if err != nil {
			slog.Error("stepping stopped", "error", err)
		}
	default:
	}
}

// ShouldQuit reports whether the user asked to quit.
func (g *Game) ShouldQuit() bool { return g.quit }

// Err returns the transition failure that ended stepping, if any.
func (g *Game) Err() error { return g.runErr }

// Unload stops the scheduler and waits for it to return.
func (g *Game) Unload() {
	if g.cancel == nil {
		return
	}
	g.cancel()
	if !g.ended {
		g.runErr = <-g.done
		g.ended = true
	}
}

// notify shows a short message under the HUD.
func (g *Game) notify(msg string) {
	g.notice = msg
	g.noticeUntil = time.Now().Add(3 * time.Second)
}

func (g *Game) togglePause() {
	if g.sched.Paused() {
		g.sched.Resume()
		slog.Info("resumed", "step", g.sched.Step())
	} else {
		g.sched.Pause()
		slog.Info("paused", "step", g.sched.Step())
	}
}

func (g *Game) reset() {
	g.sched.RequestReset()
	g.notify("reset")
}

func (g *Game) snapshot() {
	path, err := g.sess.SaveSnapshot()
	if err != nil {
		slog.Error("snapshot failed", "error", err)
		g.notify("snapshot failed: " + err.Error())
		return
	}
	g.notify("saved " + path)
}

func (g *Game) setDelay(ms int) {
	g.sched.SetDelay(time.Duration(ms) * time.Millisecond)
}

// cycleHidden moves the hidden-channel view to the next channel above alpha.
func (g *Game) cycleHidden(delta int) {
	f := g.sess.Latest()
	if f == nil || f.State.Channels <= grid.MinChannels {
		return
	}
	n := f.State.Channels - grid.MinChannels
	i := (g.hiddenChannel - grid.MinChannels + delta + n) % n
	g.hiddenChannel = grid.MinChannels + i
}
