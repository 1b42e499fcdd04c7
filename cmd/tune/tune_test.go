package main

import (
	"math"
	"testing"

	"github.com/pthm-cable/meadow/config"
	"github.com/pthm-cable/meadow/telemetry"
)

func TestDefaultVectorMatchesDefaults(t *testing.T) {
	pv := NewParamVector()
	cfg := config.Default()
	pv.ApplyToConfig(cfg, pv.DefaultVector())
	if *cfg != *config.Default() {
		t.Errorf("applying the default vector changed the config:\n%+v", cfg)
	}
}

func TestNormalizeRoundTrip(t *testing.T) {
	pv := NewParamVector()
	raw := pv.DefaultVector()
	back := pv.Denormalize(pv.Normalize(raw))
	for i := range raw {
		if math.Abs(back[i]-raw[i]) > 1e-9 {
			t.Errorf("%s: %v -> %v", pv.Specs[i].Name, raw[i], back[i])
		}
	}
}

func TestClamp(t *testing.T) {
	pv := NewParamVector()
	lo := make([]float64, pv.Dim())
	hi := make([]float64, pv.Dim())
	for i := range lo {
		lo[i], hi[i] = -1e9, 1e9
	}
	for i, v := range pv.Clamp(lo) {
		if v != pv.Specs[i].Min {
			t.Errorf("%s clamped low to %v, want %v", pv.Specs[i].Name, v, pv.Specs[i].Min)
		}
	}
	for i, v := range pv.Clamp(hi) {
		if v != pv.Specs[i].Max {
			t.Errorf("%s clamped high to %v, want %v", pv.Specs[i].Name, v, pv.Specs[i].Max)
		}
	}
}

func TestComputeQuality(t *testing.T) {
	if q := computeQuality(nil); q != 0 {
		t.Errorf("quality of no windows = %v", q)
	}

	steady := make([]telemetry.WindowStats, 6)
	for i := range steady {
		steady[i] = telemetry.WindowStats{Predators: 4, Prey: 20, Plants: 20}
	}
	q := computeQuality(steady)
	if math.Abs(q-1) > 1e-9 {
		t.Errorf("quality of an ideal steady run = %v, want 1", q)
	}

	collapsed := []telemetry.WindowStats{{Predators: 4, Prey: 20}, {Predators: 0, Prey: 30}, {Predators: 1, Prey: 0}}
	if q := computeQuality(collapsed); q != 0 {
		t.Errorf("quality without viable windows = %v, want 0", q)
	}
}

func TestEvaluate(t *testing.T) {
	pv := NewParamVector()
	fe := NewFitnessEvaluator(pv, 50, []int64{1, 2}, config.Default())

	f := fe.Evaluate(pv.DefaultVector())
	if f > 0 || f < -50*1.2 {
		t.Errorf("fitness = %v, want within [-60, 0]", f)
	}
	if q := fe.LastQuality(); q < 0 || q > 1 {
		t.Errorf("quality = %v, want within [0, 1]", q)
	}
}
