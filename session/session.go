// Package session wires a model, the damage queue and the step scheduler
// together with telemetry output. The graphical front-end and the headless
// runner both drive one Session.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/pthm-cable/regrow/config"
	"github.com/pthm-cable/regrow/grid"
	"github.com/pthm-cable/regrow/input"
	"github.com/pthm-cable/regrow/neural"
	"github.com/pthm-cable/regrow/sim"
	"github.com/pthm-cable/regrow/telemetry"
)

// Options holds session configuration.
type Options struct {
	Config     *config.Config
	Descriptor *config.Descriptor
	Model      neural.Model
	Initial    *grid.State // nil = fresh seed

	LogStats    bool
	SnapshotDir string
	OutputDir   string
	MaxSteps    uint64 // stop after N steps (0 = unlimited)
	DamageStep  uint64 // erase at the grid center at this step (0 = never)
	Paused      bool
}

// Session owns one run of the automaton.
type Session struct {
	cfg  *config.Config
	desc *config.Descriptor
	opts Options

	queue     *input.Queue
	invoker   *neural.Invoker
	sched     *sim.Scheduler
	perf      *telemetry.PerfCollector
	collector *telemetry.Collector
	bookmarks *telemetry.BookmarkDetector
	output    *telemetry.OutputManager

	latest    atomic.Pointer[sim.Frame]
	lastStats atomic.Pointer[telemetry.WindowStats]
	stop      context.CancelFunc
}

// New builds a session. It writes the config and descriptor to the output
// directory when one is set.
func New(opts Options) (*Session, error) {
	cfg, desc := opts.Config, opts.Descriptor
	if cfg == nil || desc == nil {
		return nil, fmt.Errorf("session: config and descriptor are required")
	}

	initial := opts.Initial
	if initial == nil {
		s, err := grid.NewSeeded(cfg.Grid.Height, cfg.Grid.Width, desc.Channels)
		if err != nil {
			return nil, fmt.Errorf("session: seeding grid: %w", err)
		}
		initial = s
	} else if initial.Channels != desc.Channels {
		return nil, fmt.Errorf("session: initial state has %d channels, model expects %d", initial.Channels, desc.Channels)
	}

	s := &Session{
		cfg:       cfg,
		desc:      desc,
		opts:      opts,
		queue:     input.NewQueue(),
		perf:      telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow),
		collector: telemetry.NewCollector(cfg.Telemetry.StatsWindow, neural.DefaultAliveThreshold),
		bookmarks: telemetry.NewBookmarkDetector(10),
	}

	var invOpts []neural.InvokerOption
	if cfg.Derived.Timeout > 0 {
		invOpts = append(invOpts, neural.WithTimeout(cfg.Derived.Timeout))
	}
	s.invoker = neural.NewInvoker(opts.Model, invOpts...)

	// Resets reseed at the size of the starting state, which differs from
	// the configured grid when a snapshot is loaded.
	h, w, c := initial.Height, initial.Width, initial.Channels
	schedOpts := []sim.Option{
		sim.WithDelay(cfg.Derived.Delay),
		sim.WithRadius(cfg.Damage.Radius),
		sim.WithAngle(cfg.Step.Angle),
		sim.WithPerf(s.perf),
		sim.WithReseed(func() (*grid.State, error) { return grid.NewSeeded(h, w, c) }),
	}
	if opts.Paused {
		schedOpts = append(schedOpts, sim.WithPaused())
	}
	sched, err := sim.New(initial, s.invoker, s.queue, schedOpts...)
	if err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}
	s.sched = sched
	s.sched.Subscribe(s.onFrame)

	output, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}
	s.output = output
	if err := s.output.WriteConfig(cfg); err != nil {
		slog.Error("failed to write config", "error", err)
	}
	if err := s.output.WriteDescriptor(desc); err != nil {
		slog.Error("failed to write descriptor", "error", err)
	}

	return s, nil
}

// Run steps the automaton until ctx is cancelled, MaxSteps is reached or a
// transition fails. Only a transition failure is returned as an error.
func (s *Session) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.stop = cancel

	cur := s.sched.Current()
	slog.Info("starting run",
		"model", s.desc.Name,
		"grid", fmt.Sprintf("%dx%dx%d", cur.Height, cur.Width, cur.Channels),
		"delay", s.sched.Delay(),
		"max_steps", s.opts.MaxSteps,
	)

	err := s.sched.Run(ctx)
	if err != nil {
		return err
	}
	slog.Info("run stopped", "step", s.sched.Step())
	return nil
}

// Scheduler returns the step scheduler.
func (s *Session) Scheduler() *sim.Scheduler { return s.sched }

// Queue returns the damage queue.
func (s *Session) Queue() *input.Queue { return s.queue }

// Perf returns the step timing collector.
func (s *Session) Perf() *telemetry.PerfCollector { return s.perf }

// Descriptor returns the model descriptor.
func (s *Session) Descriptor() *config.Descriptor { return s.desc }

// Radius returns the damage erase radius in cells.
func (s *Session) Radius() float64 { return s.cfg.Damage.Radius }

// AliveThreshold returns the alpha above which a cell counts as alive.
func (s *Session) AliveThreshold() float32 { return neural.DefaultAliveThreshold }

// Latest returns the most recently published frame, or nil before Run.
func (s *Session) Latest() *sim.Frame { return s.latest.Load() }

// LastStats returns the most recent flushed stats window, or nil.
func (s *Session) LastStats() *telemetry.WindowStats { return s.lastStats.Load() }

// Close flushes and closes output files.
func (s *Session) Close() error {
	return s.output.Close()
}
