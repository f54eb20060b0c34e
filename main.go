package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/regrow/config"
	"github.com/pthm-cable/regrow/game"
	"github.com/pthm-cable/regrow/grid"
	"github.com/pthm-cable/regrow/neural"
	"github.com/pthm-cable/regrow/session"
	"github.com/pthm-cable/regrow/telemetry"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without graphics")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	snapshotPath := flag.String("snapshot", "", "Start from a saved snapshot file")
	snapshotDir := flag.String("snapshot-dir", "", "Directory for snapshot files")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	backend := flag.String("backend", "", "Model backend: nca, onnx or identity (empty = use config)")
	seed := flag.Int64("seed", 0, "Stochastic update seed (0 = use config)")
	maxSteps := flag.Uint64("max-steps", 0, "Stop after N steps (0 = unlimited)")
	damageStep := flag.Uint64("damage-step", 0, "Erase the grid center at this step (0 = never)")
	paused := flag.Bool("paused", false, "Start paused")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()
	if *backend != "" {
		cfg.Model.Backend = *backend
	}
	if *seed != 0 {
		cfg.Model.Seed = *seed
	}

	desc, err := config.LoadDescriptor(cfg.Derived.DescriptorPath)
	if err != nil {
		slog.Error("failed to load model descriptor", "error", err, "hint", "generate one with go run ./cmd/mkweights")
		os.Exit(1)
	}

	model, err := session.LoadModel(cfg, desc)
	if err != nil {
		slog.Error("failed to load model", "error", err)
		os.Exit(1)
	}

	var initial *grid.State
	if *snapshotPath != "" {
		snap, err := telemetry.LoadSnapshot(*snapshotPath)
		if err != nil {
			slog.Error("failed to load snapshot", "error", err)
			os.Exit(1)
		}
		if initial, err = snap.State(); err != nil {
			slog.Error("invalid snapshot", "path", *snapshotPath, "error", err)
			os.Exit(1)
		}
		slog.Info("loaded snapshot", "path", *snapshotPath, "step", snap.Step, "model", snap.Model)
	}

	sess, err := session.New(session.Options{
		Config:      cfg,
		Descriptor:  desc,
		Model:       model,
		Initial:     initial,
		LogStats:    *logStats,
		SnapshotDir: *snapshotDir,
		OutputDir:   *outputDir,
		MaxSteps:    *maxSteps,
		DamageStep:  *damageStep,
		Paused:      *paused,
	})
	if err != nil {
		slog.Error("failed to start session", "error", err)
		os.Exit(1)
	}
	defer sess.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if *headless {
		// Headless mode - no raylib needed
		if err := sess.Run(ctx); err != nil {
			var ie *neural.InvocationError
			if errors.As(err, &ie) {
				slog.Error("transition failed", "reason", ie.Reason, "error", ie.Err)
			}
			sess.Close()
			os.Exit(1)
		}
		return
	}

	// Graphical mode
	rl.SetConfigFlags(rl.FlagWindowResizable)
	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "Regrow")
	defer rl.CloseWindow()

	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	g := game.NewGame(sess, game.Options{
		Title:        "Regrow",
		ScreenWidth:  int32(cfg.Screen.Width),
		ScreenHeight: int32(cfg.Screen.Height),
		CanvasRatio:  cfg.Display.CanvasRatio,
	})
	g.Start(ctx)
	defer g.Unload()

	for !rl.WindowShouldClose() && !g.ShouldQuit() && ctx.Err() == nil {
		g.Update()
		g.Draw()
	}
}
