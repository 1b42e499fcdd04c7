package telemetry

import (
	"math"
	"testing"
	"time"
)

// fakeClock advances by step on every reading.
func fakeClock(step time.Duration) func() time.Time {
	now := time.Unix(0, 0)
	return func() time.Time {
		now = now.Add(step)
		return now
	}
}

func TestPerfCollector_Phases(t *testing.T) {
	pc := NewPerfCollector(10)
	pc.now = fakeClock(time.Millisecond)

	for i := 0; i < 4; i++ {
		pc.StartTick()
		pc.StartPhase(PhaseBehavior)
		pc.StartPhase(PhaseInteractions)
		pc.EndTick()
	}

	stats := pc.Stats()
	if stats.AvgTickDuration != 3*time.Millisecond {
		t.Errorf("avg tick = %v, want 3ms", stats.AvgTickDuration)
	}
	if stats.MinTickDuration != stats.MaxTickDuration {
		t.Errorf("min %v != max %v with a constant clock", stats.MinTickDuration, stats.MaxTickDuration)
	}
	if math.Abs(stats.PhasePct[PhaseBehavior]-100.0/3) > 1e-9 {
		t.Errorf("behavior pct = %v", stats.PhasePct[PhaseBehavior])
	}
	if _, ok := stats.PhasePct[PhaseZones]; ok {
		t.Error("untimed phase reported")
	}

	row := stats.ToCSV(40)
	if row.WindowEnd != 40 || row.InteractionsPct != stats.PhasePct[PhaseInteractions] {
		t.Errorf("ToCSV = %+v", row)
	}
}

func TestPerfCollector_RollingWindow(t *testing.T) {
	pc := NewPerfCollector(5)
	pc.now = fakeClock(time.Microsecond)

	for i := 0; i < 12; i++ {
		pc.StartTick()
		pc.StartPhase(PhaseCleanup)
		pc.EndTick()
	}

	if pc.sampleCount != 5 {
		t.Errorf("sampleCount = %d, want 5", pc.sampleCount)
	}
	if stats := pc.Stats(); stats.TicksPerSecond <= 0 {
		t.Error("expected positive ticks per second")
	}
}

func TestPerfCollector_Nil(t *testing.T) {
	var pc *PerfCollector
	pc.StartTick()
	pc.StartPhase(PhaseZones)
	pc.EndTick()
	if stats := pc.Stats(); stats.AvgTickDuration != 0 {
		t.Errorf("nil collector stats = %+v", stats)
	}
}
