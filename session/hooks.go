package session

import (
	"fmt"
	"log/slog"

	"github.com/pthm-cable/regrow/input"
	"github.com/pthm-cable/regrow/sim"
	"github.com/pthm-cable/regrow/telemetry"
)

// onFrame runs on the scheduler goroutine for every published frame.
func (s *Session) onFrame(f sim.Frame) {
	s.latest.Store(&f)
	s.collector.Observe(f.State, f.Damage, f.Reset)

	if !f.Reset {
		if s.opts.DamageStep > 0 && f.Step == s.opts.DamageStep {
			center := input.DamageEvent{X: float64(f.State.Width / 2), Y: float64(f.State.Height / 2)}
			s.queue.Push(center)
			slog.Info("scripted damage", "step", f.Step, "x", center.X, "y", center.Y)
		}
		s.flushTelemetry(f)
	}

	if s.opts.MaxSteps > 0 && f.Step >= s.opts.MaxSteps && s.stop != nil {
		slog.Info("max steps reached", "step", f.Step)
		s.stop()
	}
}

// flushTelemetry checks if the stats window should be flushed and handles bookmarks.
func (s *Session) flushTelemetry(f sim.Frame) {
	if !s.collector.ShouldFlush(f.Step) {
		return
	}

	stats := s.collector.Flush(f.Step, f.State)
	perfStats := s.perf.Stats()
	s.lastStats.Store(&stats)

	if s.opts.LogStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	if err := s.output.WriteStats(stats); err != nil {
		slog.Error("failed to write stats", "error", err)
	}
	if err := s.output.WritePerf(perfStats, stats.WindowEndStep); err != nil {
		slog.Error("failed to write perf", "error", err)
	}

	for _, bm := range s.bookmarks.Check(stats) {
		if s.opts.LogStats {
			bm.LogBookmark()
		}
		if err := s.output.WriteBookmark(bm); err != nil {
			slog.Error("failed to write bookmark", "error", err)
		}
		if s.opts.SnapshotDir != "" {
			bm := bm
			if _, err := s.saveFrame(f, &bm); err != nil {
				slog.Error("failed to save snapshot", "error", err)
			}
		}
	}
}

// SaveSnapshot writes the latest published frame to the snapshot directory.
func (s *Session) SaveSnapshot() (string, error) {
	if s.opts.SnapshotDir == "" {
		return "", fmt.Errorf("no snapshot directory configured")
	}
	f := s.latest.Load()
	if f == nil {
		return "", fmt.Errorf("nothing published yet")
	}
	return s.saveFrame(*f, nil)
}

func (s *Session) saveFrame(f sim.Frame, bm *telemetry.Bookmark) (string, error) {
	snap := telemetry.NewSnapshot(s.desc.Name, f.Step, s.sched.Angle(), f.State)
	snap.Bookmark = bm
	path, err := telemetry.SaveSnapshot(snap, s.opts.SnapshotDir)
	if err != nil {
		return "", err
	}
	slog.Info("saved snapshot", "path", path, "step", f.Step)
	return path, nil
}
