package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/regrow/grid"
)

// WindowStats holds aggregated statistics for a window of steps.
type WindowStats struct {
	WindowStartStep uint64  `csv:"-"`
	WindowEndStep   uint64  `csv:"window_end"`
	ElapsedSec      float64 `csv:"elapsed_sec"`

	// Living cells at window end, and the range seen during the window
	Alive     int     `csv:"alive"`
	AliveMin  int     `csv:"alive_min"`
	AliveMax  int     `csv:"alive_max"`
	AliveFrac float64 `csv:"alive_frac"`

	// Alpha distribution over living cells at window end
	AlphaMean float64 `csv:"alpha_mean"`
	AlphaStd  float64 `csv:"alpha_std"`
	AlphaP10  float64 `csv:"alpha_p10"`
	AlphaP50  float64 `csv:"alpha_p50"`
	AlphaP90  float64 `csv:"alpha_p90"`

	// Interaction during window
	DamageEvents int `csv:"damage_events"`
	Resets       int `csv:"resets"`

	StepsPerSec float64 `csv:"steps_per_sec"`
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// AlphaValues returns the alpha of every cell above threshold.
func AlphaValues(s *grid.State, threshold float32) []float64 {
	var out []float64
	for i := grid.ChannelAlpha; i < len(s.Cells); i += s.Channels {
		if a := s.Cells[i]; a > threshold {
			out = append(out, float64(a))
		}
	}
	return out
}

// ComputeAlphaStats calculates mean, sample standard deviation and
// percentiles of alpha values.
func ComputeAlphaStats(values []float64) (mean, std, p10, p50, p90 float64) {
	n := len(values)
	if n == 0 {
		return 0, 0, 0, 0, 0
	}
	if n == 1 {
		mean = values[0]
	} else {
		mean, std = stat.MeanStdDev(values, nil)
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	p10 = Percentile(sorted, 0.10)
	p50 = Percentile(sorted, 0.50)
	p90 = Percentile(sorted, 0.90)

	return mean, std, p10, p50, p90
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Uint64("window_start", s.WindowStartStep),
		slog.Uint64("window_end", s.WindowEndStep),
		slog.Float64("elapsed_sec", s.ElapsedSec),
		slog.Int("alive", s.Alive),
		slog.Int("alive_min", s.AliveMin),
		slog.Int("alive_max", s.AliveMax),
		slog.Float64("alive_frac", s.AliveFrac),
		slog.Float64("alpha_mean", s.AlphaMean),
		slog.Float64("alpha_std", s.AlphaStd),
		slog.Float64("alpha_p50", s.AlphaP50),
		slog.Int("damage_events", s.DamageEvents),
		slog.Int("resets", s.Resets),
		slog.Float64("steps_per_sec", s.StepsPerSec),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndStep,
		"elapsed_sec", s.ElapsedSec,
		"alive", s.Alive,
		"alive_min", s.AliveMin,
		"alive_max", s.AliveMax,
		"alpha_mean", s.AlphaMean,
		"alpha_p10", s.AlphaP10,
		"alpha_p50", s.AlphaP50,
		"alpha_p90", s.AlphaP90,
		"damage_events", s.DamageEvents,
		"resets", s.Resets,
		"steps_per_sec", s.StepsPerSec,
	)
}
