package telemetry

import (
	"sync"
	"testing"
	"time"
)

func TestPerfCollector_BasicTiming(t *testing.T) {
	pc := NewPerfCollector(10)

	for i := 0; i < 5; i++ {
		pc.StartStep()
		pc.StartPhase(PhaseDamage)
		time.Sleep(100 * time.Microsecond)
		pc.StartPhase(PhaseTransition)
		time.Sleep(200 * time.Microsecond)
		pc.EndStep()
	}

	stats := pc.Stats()

	if stats.AvgStepDuration <= 0 {
		t.Error("expected positive average step duration")
	}
	if _, ok := stats.PhaseAvg[PhaseDamage]; !ok {
		t.Error("expected damage phase to be tracked")
	}
	if _, ok := stats.PhaseAvg[PhaseTransition]; !ok {
		t.Error("expected transition phase to be tracked")
	}
}

func TestPerfCollector_RollingWindow(t *testing.T) {
	pc := NewPerfCollector(5)

	for i := 0; i < 10; i++ {
		pc.StartStep()
		pc.StartPhase(PhaseDrain)
		time.Sleep(10 * time.Microsecond)
		pc.EndStep()
	}

	stats := pc.Stats()
	if stats.AvgStepDuration <= 0 {
		t.Error("expected positive average step duration after window filled")
	}
	if stats.StepsPerSecond <= 0 {
		t.Error("expected positive steps per second")
	}
}

func TestPerfCollector_PhasePercentages(t *testing.T) {
	pc := NewPerfCollector(10)

	for i := 0; i < 5; i++ {
		pc.StartStep()
		pc.StartPhase("fast")
		time.Sleep(10 * time.Microsecond)
		pc.StartPhase("slow")
		time.Sleep(2 * time.Millisecond)
		pc.EndStep()
	}

	stats := pc.Stats()
	if stats.PhasePct["slow"] <= stats.PhasePct["fast"] {
		t.Errorf("expected slow phase (%v%%) > fast phase (%v%%)", stats.PhasePct["slow"], stats.PhasePct["fast"])
	}
}

func TestPerfCollector_EmptyStats(t *testing.T) {
	pc := NewPerfCollector(10)

	stats := pc.Stats()
	if stats.AvgStepDuration != 0 {
		t.Error("expected zero avg step duration for empty collector")
	}
	if stats.PhaseAvg == nil || stats.PhasePct == nil {
		t.Error("expected non-nil phase maps")
	}
}

func TestPerfCollector_NilIsInert(t *testing.T) {
	var pc *PerfCollector
	pc.StartStep()
	pc.StartPhase(PhaseDrain)
	pc.EndStep()
	pc.RecordFrame()
	if s := pc.Stats(); s.AvgStepDuration != 0 || s.PhasePct == nil {
		t.Errorf("unexpected stats from nil collector: %+v", s)
	}
}

func TestPerfCollector_ConcurrentReaders(t *testing.T) {
	pc := NewPerfCollector(8)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			pc.StartStep()
			pc.StartPhase(PhaseTransition)
			pc.EndStep()
		}
	}()
	for i := 0; i < 200; i++ {
		_ = pc.Stats()
	}
	wg.Wait()
}

func TestPerfCollector_FrameTiming(t *testing.T) {
	pc := NewPerfCollector(10)

	pc.RecordFrame()
	time.Sleep(16 * time.Millisecond)
	pc.RecordFrame()

	stats := pc.Stats()
	if stats.FrameDuration < 15*time.Millisecond {
		t.Errorf("expected frame duration >= 15ms, got %v", stats.FrameDuration)
	}
	if stats.FPS <= 0 || stats.FPS > 70 {
		t.Errorf("expected FPS in (0, 70] with a 16ms frame, got %v", stats.FPS)
	}
}

func TestPerfStatsToCSV(t *testing.T) {
	s := PerfStats{
		AvgStepDuration: 1500 * time.Microsecond,
		PhasePct:        map[string]float64{PhaseTransition: 90, PhaseDamage: 5},
	}
	row := s.ToCSV(300)
	if row.WindowEnd != 300 || row.AvgStepUS != 1500 {
		t.Errorf("row = %+v", row)
	}
	if row.TransitionPct != 90 || row.DamagePct != 5 || row.DrainPct != 0 {
		t.Errorf("phase columns = %+v", row)
	}
}
